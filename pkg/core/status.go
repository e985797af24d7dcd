package core

import (
	"encoding/json"
	"fmt"
)

// ExecStatus represents the execution status of a single test case.
type ExecStatus int

const (
	StatusPassed      ExecStatus = iota // App result matched the expected species
	StatusFailed                        // Case ran to completion but the result did not match
	StatusError                         // Unexpected error aborted the case
	StatusInterrupted                   // Operator cancelled mid-case
)

// String returns the string representation of ExecStatus.
func (s ExecStatus) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusError:
		return "error"
	case StatusInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// IsTerminal returns true for every defined status; a TestResult is
// only appended to a run once it has reached one of these.
func (s ExecStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusError, StatusInterrupted:
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the status as its string form.
func (s ExecStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the status from its string form.
func (s *ExecStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseExecStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseExecStatus converts a string into an ExecStatus.
func ParseExecStatus(s string) (ExecStatus, error) {
	switch s {
	case "passed":
		return StatusPassed, nil
	case "failed":
		return StatusFailed, nil
	case "error":
		return StatusError, nil
	case "interrupted":
		return StatusInterrupted, nil
	default:
		return StatusFailed, fmt.Errorf("unknown exec status: %q", s)
	}
}

// Category classifies the app's identification outcome for a case.
//
// Only three categories are ever produced. The historical "uncertain"
// category is accepted on read and folded into CategoryNoIdentification.
type Category int

const (
	CategoryCorrectSpecies Category = iota
	CategoryIncorrectSpecies
	CategoryNoIdentification
)

// String returns the string representation of Category.
func (c Category) String() string {
	switch c {
	case CategoryCorrectSpecies:
		return "correct_species"
	case CategoryIncorrectSpecies:
		return "incorrect_species"
	case CategoryNoIdentification:
		return "no_identification"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the category as its string form.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes the category, aliasing "uncertain" to
// no_identification.
func (c *Category) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseCategory(str)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory converts a string into a Category. The legacy
// "uncertain" value is treated as an alias for no_identification.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "correct_species":
		return CategoryCorrectSpecies, nil
	case "incorrect_species":
		return CategoryIncorrectSpecies, nil
	case "no_identification", "uncertain":
		return CategoryNoIdentification, nil
	default:
		return CategoryNoIdentification, fmt.Errorf("unknown category: %q", s)
	}
}

// RunState tracks the orchestrator's lifecycle for one run.
type RunState int

const (
	RunReady RunState = iota
	RunRunning
	RunCompleted
	RunInterrupted
)

// String returns the string representation of RunState.
func (s RunState) String() string {
	switch s {
	case RunReady:
		return "ready"
	case RunRunning:
		return "running"
	case RunCompleted:
		return "completed"
	case RunInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// ScanStatus reflects whether the extraction step found an identification.
type ScanStatus string

// ScanStatus values.
const (
	ScanIdentified       ScanStatus = "identified"
	ScanNoIdentification ScanStatus = "no_identification"
)
