package protocol

import (
	"strings"

	"xtr/internal/tasks"
)

// Stack frames from the assertion library itself are noise in a report
var filteredFrames = []string{
	"at Xunit.Assert.",
	"at Xunit.Sdk.",
	"at Xunit.Record.",
}

// ConvertExceptions turns a failure into the task protocol's exception list
// plus a one-line message describing the outermost exception.
func ConvertExceptions(f Failure) ([]tasks.Exception, string) {
	n := max(len(f.ExceptionTypes), len(f.Messages))
	if n == 0 {
		return nil, ""
	}

	exceptions := make([]tasks.Exception, n)
	for i := range exceptions {
		exceptions[i] = tasks.Exception{
			Type:        at(f.ExceptionTypes, i),
			Message:     at(f.Messages, i),
			StackTrace:  FilterStackTrace(at(f.StackTraces, i)),
			ParentIndex: -1,
		}
		if i < len(f.ParentIndices) {
			exceptions[i].ParentIndex = f.ParentIndices[i]
		} else if i > 0 {
			exceptions[i].ParentIndex = i - 1
		}
	}
	return exceptions, simplifiedMessage(exceptions[0])
}

// FilterStackTrace drops assertion library frames
func FilterStackTrace(trace string) string {
	if trace == "" {
		return ""
	}
	lines := strings.Split(trace, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !filtered(strings.TrimSpace(line)) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func filtered(frame string) bool {
	for _, prefix := range filteredFrames {
		if strings.HasPrefix(frame, prefix) {
			return true
		}
	}
	return false
}

// Assertion exceptions speak for themselves; anything else is prefixed with
// its type so "NullReferenceException: ..." stays readable.
func simplifiedMessage(e tasks.Exception) string {
	if e.Type == "" || strings.HasPrefix(e.Type, "Xunit") {
		return e.Message
	}
	return e.Type + ": " + e.Message
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
