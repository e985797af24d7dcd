package main

import "github.com/abharathkumarr/insect-id-runner/pkg/cli"

func main() {
	cli.Execute()
}
