package otel

import (
	"os"
	"strings"
	"sync/atomic"
)

// TraceEnv turns on one trace event per Bubble Tea message. Any value other
// than empty, "0", "false" or "off" enables it.
const TraceEnv = "SNOOZE_TRACE"

var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(traceWanted(os.Getenv(TraceEnv)))
}

func traceWanted(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off":
		return false
	}
	return true
}

// TraceEnabled reports whether per-message tracing is on.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// setTraceEnabled overrides the flag in tests.
func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
