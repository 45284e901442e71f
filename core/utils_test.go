package core

import "testing"

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		lower bool
		want  string
	}{
		{"trims", "  hello ", false, "hello"},
		{"lowers", " HeLLo ", true, "hello"},
		{"keeps case by default", "HeLLo", false, "HeLLo"},
		{"empty", "   ", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.lower {
				got = CleanString(tt.s, true)
			} else {
				got = CleanString(tt.s)
			}
			if got != tt.want {
				t.Errorf("CleanString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDayIsValid(t *testing.T) {
	for _, d := range Days {
		if !d.IsValid() {
			t.Errorf("IsValid() = false for %q", d)
		}
	}
	for _, d := range []Day{"friday", "saturday", "Sunday", ""} {
		if d.IsValid() {
			t.Errorf("IsValid() = true for %q", d)
		}
	}
}

func TestDayLabel(t *testing.T) {
	if got := Sunday.Label(); got != "Sunday" {
		t.Errorf("Label() = %q, want Sunday", got)
	}
	if got := Day("friday").Label(); got != "" {
		t.Errorf("Label() = %q, want empty for unknown day", got)
	}
}
