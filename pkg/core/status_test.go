package core

import (
	"encoding/json"
	"testing"
)

func TestExecStatus_String(t *testing.T) {
	tests := []struct {
		status ExecStatus
		want   string
	}{
		{StatusPassed, "passed"},
		{StatusFailed, "failed"},
		{StatusError, "error"},
		{StatusInterrupted, "interrupted"},
		{ExecStatus(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("ExecStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestExecStatus_IsTerminal(t *testing.T) {
	for _, s := range []ExecStatus{StatusPassed, StatusFailed, StatusError, StatusInterrupted} {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false, want true", s)
		}
	}
	if ExecStatus(99).IsTerminal() {
		t.Error("unknown status should not be terminal")
	}
}

func TestExecStatus_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(StatusInterrupted)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"interrupted"` {
		t.Errorf("Marshal = %s, want \"interrupted\"", data)
	}

	var s ExecStatus
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s != StatusInterrupted {
		t.Errorf("round trip = %s, want interrupted", s)
	}
}

func TestCategory_String(t *testing.T) {
	tests := []struct {
		category Category
		want     string
	}{
		{CategoryCorrectSpecies, "correct_species"},
		{CategoryIncorrectSpecies, "incorrect_species"},
		{CategoryNoIdentification, "no_identification"},
	}

	for _, tt := range tests {
		if got := tt.category.String(); got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestParseCategory_UncertainAlias(t *testing.T) {
	got, err := ParseCategory("uncertain")
	if err != nil {
		t.Fatalf("ParseCategory(uncertain): %v", err)
	}
	if got != CategoryNoIdentification {
		t.Errorf("ParseCategory(uncertain) = %s, want no_identification", got)
	}
}

func TestParseCategory_Unknown(t *testing.T) {
	if _, err := ParseCategory("maybe_a_moth"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestCategory_UnmarshalAliasesUncertain(t *testing.T) {
	var c Category
	if err := json.Unmarshal([]byte(`"uncertain"`), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c != CategoryNoIdentification {
		t.Errorf("unmarshal uncertain = %s, want no_identification", c)
	}
}

func TestRunState_String(t *testing.T) {
	tests := []struct {
		state RunState
		want  string
	}{
		{RunReady, "ready"},
		{RunRunning, "running"},
		{RunCompleted, "completed"},
		{RunInterrupted, "interrupted"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("RunState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
