package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abharathkumarr/insect-id-runner/pkg/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			Padding(0, 1)

	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)
)

// PrintSummary renders the run summary and the per-category breakdown.
func (r *Report) PrintSummary(w io.Writer) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Total Tests Executed: %d\n", r.Summary.Total))
	b.WriteString(passStyle.Render(fmt.Sprintf("✓ Correct Species: %d", r.Summary.CorrectSpecies)) + "\n")
	b.WriteString(failStyle.Render(fmt.Sprintf("✗ Incorrect Species: %d", r.Summary.IncorrectSpecies)) + "\n")
	b.WriteString(failStyle.Render(fmt.Sprintf("✗ No Identification: %d", r.Summary.NoIdentification)) + "\n")

	if r.Summary.Total > 0 {
		b.WriteString(fmt.Sprintf("Accuracy: %.2f%% (Correct: %d/%d)",
			r.Summary.Accuracy, r.Summary.CorrectSpecies, r.Summary.Total))
	} else {
		b.WriteString(dimStyle.Render("Accuracy: N/A (no tests executed)"))
	}

	fmt.Fprintln(w, titleStyle.Render("Test Execution Summary"))
	fmt.Fprintln(w, boxStyle.Render(b.String()))

	r.printBreakdown(w)
}

func (r *Report) printBreakdown(w io.Writer) {
	ds := r.DetailedSummary

	if len(ds.CorrectSpecies) > 0 {
		fmt.Fprintln(w, passStyle.Render(fmt.Sprintf("\n✓ Correct Species (%d):", len(ds.CorrectSpecies))))
		for _, result := range ds.CorrectSpecies {
			cls := result.Classification
			fmt.Fprintf(w, "   • %s: %s → %s\n", result.TestID, cls.ExpectedSpecies, cls.AppSpecies)
		}
	}

	if len(ds.IncorrectSpecies) > 0 {
		fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("\n✗ Incorrect Species (%d):", len(ds.IncorrectSpecies))))
		for _, result := range ds.IncorrectSpecies {
			cls := result.Classification
			fmt.Fprintf(w, "   • %s: Expected %q, Got %q\n", result.TestID, cls.ExpectedSpecies, cls.AppSpecies)
		}
	}

	if len(ds.NoIdentification) > 0 {
		fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("\n✗ No Identification (%d):", len(ds.NoIdentification))))
		for _, result := range ds.NoIdentification {
			appSpecies := "no_insect_visible"
			if result.Classification != nil {
				appSpecies = result.Classification.AppSpecies
			}
			fmt.Fprintf(w, "   • %s: %s\n", result.TestID, appSpecies)
		}
	}

	if len(ds.Errors) > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("\n⚠ Errors (%d):", len(ds.Errors))))
		for _, result := range ds.Errors {
			errMsg := result.Error
			if errMsg == "" {
				errMsg = "unknown error"
			}
			fmt.Fprintf(w, "   • %s: %s\n", result.TestID, errMsg)
		}
	}
}

// PrintResult renders a single case's outcome as it finishes.
func PrintResult(w io.Writer, result core.TestResult) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Test ID: %s\n", result.TestID))
	b.WriteString(fmt.Sprintf("Image: %s\n", result.ImageName))
	b.WriteString(fmt.Sprintf("Expected Species: %s\n", result.ExpectedSpecies))

	if result.AppResult != nil {
		appSpecies := result.AppResult.Species
		if appSpecies == "" {
			appSpecies = "No Insect Visible"
		}
		b.WriteString(fmt.Sprintf("App Result: %s\n", appSpecies))

		preview := result.AppResult.FullText
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		b.WriteString(dimStyle.Render(fmt.Sprintf("Full Text: %s", preview)) + "\n")
	}

	if result.Classification != nil {
		cls := result.Classification
		line := fmt.Sprintf("Classification: %s", cls.Category)
		if cls.Category == core.CategoryCorrectSpecies {
			b.WriteString(passStyle.Render(line) + "\n")
		} else {
			b.WriteString(failStyle.Render(line) + "\n")
		}
		b.WriteString(fmt.Sprintf("Output: %s\n", cls.AppSpecies))
		b.WriteString(fmt.Sprintf("Reason: %s", cls.Reason))
	} else if result.Error != "" {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Error: %s", result.Error)))
	}

	fmt.Fprintln(w, boxStyle.Render(b.String()))
}
