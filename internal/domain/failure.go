package domain

// TestFailure represents a failed, errored or force-failed task
type TestFailure struct {
	TestName      string   `json:"test_name"`
	ClassName     string   `json:"class_name"`
	Method        string   `json:"method,omitempty"`
	Assembly      string   `json:"assembly"`
	Outcome       string   `json:"outcome"`
	ExceptionType string   `json:"exception_type,omitempty"`
	Message       string   `json:"message"`
	StackTrace    []string `json:"stack_trace,omitempty"`
	File          string   `json:"file,omitempty"`
	Line          int      `json:"line,omitempty"`
	Resolved      bool     `json:"resolved,omitempty"` // Track if the failure is marked as resolved
}
