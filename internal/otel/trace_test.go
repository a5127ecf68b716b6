package otel

import "testing"

func TestTraceWanted(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{" OFF ", false},
		{"1", true},
		{"true", true},
		{"ui", true},
	}
	for _, tt := range tests {
		if got := traceWanted(tt.value); got != tt.want {
			t.Errorf("traceWanted(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestTraceToggleReachesEmitters(t *testing.T) {
	orig := TraceEnabled()
	defer setTraceEnabled(orig)

	setTraceEnabled(true)
	if !TraceEnabled() {
		t.Fatal("trace should be on")
	}
	setTraceEnabled(false)
	if TraceEnabled() {
		t.Fatal("trace should be off")
	}
}
