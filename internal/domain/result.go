package domain

import "time"

// AssemblyResult represents the result of running one assembly's adapter
type AssemblyResult struct {
	ProjectID string
	Assembly  string
	Success   bool          // No test failed and the adapter exited cleanly
	Cancelled bool          // The run was stopped before the feed ended
	Stderr    string        // Adapter diagnostics
	Error     error         // Error if the adapter could not be run
	Duration  time.Duration // Time taken to execute
}

// TestCounts are the outcomes of the test-level tasks of a run
type TestCounts struct {
	Total   int `json:"total_tests"`
	Passed  int `json:"passed_tests"`
	Failed  int `json:"failed_tests"`
	Skipped int `json:"skipped_tests"`
}

// TestResultsMeta contains metadata about a test run
type TestResultsMeta struct {
	RunID string `json:"run_id"`
	TestCounts
	TotalAssemblies  int     `json:"total_assemblies"`
	FailedAssemblies int     `json:"failed_assemblies"`
	Cancelled        bool    `json:"cancelled,omitempty"`
	Duration         string  `json:"duration"`
	DurationSeconds  float64 `json:"duration_seconds"`
	Workers          int     `json:"workers"`
	Timestamp        string  `json:"timestamp"`
}

// TestResultsOutput is the complete output structure for test results
type TestResultsOutput struct {
	Meta    TestResultsMeta `json:"meta"`
	Details []TestFailure   `json:"details"`
}
