// Package protocol defines the execution event feed produced by the test
// framework adapter: one JSON object per line, tagged by kind.
package protocol

import (
	"time"
)

// Kind tags a feed message
type Kind string

const (
	KindAssemblyStarting Kind = "assembly-starting"
	KindAssemblyFinished Kind = "assembly-finished"
	KindClassStarting    Kind = "class-starting"
	KindClassFinished    Kind = "class-finished"
	KindMethodStarting   Kind = "method-starting"
	KindMethodFinished   Kind = "method-finished"
	KindTestCaseStarting Kind = "test-case-starting"
	KindTestCaseFinished Kind = "test-case-finished"
	KindTestStarting     Kind = "test-starting"
	KindTestFinished     Kind = "test-finished"
	KindTestOutput       Kind = "test-output"
	KindTestSkipped      Kind = "test-skipped"
	KindTestPassed       Kind = "test-passed"
	KindTestFailed       Kind = "test-failed"

	// KindError is a catastrophic or class construction failure
	KindError                    Kind = "error"
	KindCollectionCleanupFailure Kind = "collection-cleanup-failure"
	KindClassCleanupFailure      Kind = "class-cleanup-failure"
	KindMethodCleanupFailure     Kind = "method-cleanup-failure"
	KindTestCaseCleanupFailure   Kind = "test-case-cleanup-failure"
	KindTestCleanupFailure       Kind = "test-cleanup-failure"

	// KindDiagnostic carries a line of the feed that was not a message
	KindDiagnostic Kind = "diagnostic"
)

var knownKinds = map[Kind]bool{
	KindAssemblyStarting: true, KindAssemblyFinished: true,
	KindClassStarting: true, KindClassFinished: true,
	KindMethodStarting: true, KindMethodFinished: true,
	KindTestCaseStarting: true, KindTestCaseFinished: true,
	KindTestStarting: true, KindTestFinished: true,
	KindTestOutput: true, KindTestSkipped: true, KindTestPassed: true, KindTestFailed: true,
	KindError: true, KindCollectionCleanupFailure: true, KindClassCleanupFailure: true,
	KindMethodCleanupFailure: true, KindTestCaseCleanupFailure: true, KindTestCleanupFailure: true,
	KindDiagnostic: true,
}

// Known reports whether k is a kind this package understands
func (k Kind) Known() bool {
	return knownKinds[k]
}

// TestCaseRef names a test case affected by a failure
type TestCaseRef struct {
	Class       string `json:"class"`
	Method      string `json:"method"`
	DisplayName string `json:"displayName,omitempty"`
}

// Failure is the flattened exception chain of a failure. Index 0 is the
// outermost exception; ParentIndices links inner and aggregated exceptions
// to their parent, -1 for the root.
type Failure struct {
	ExceptionTypes []string `json:"exceptionTypes,omitempty"`
	Messages       []string `json:"messages,omitempty"`
	StackTraces    []string `json:"stackTraces,omitempty"`
	ParentIndices  []int    `json:"exceptionParentIndices,omitempty"`
}

// Empty reports whether the failure carries no exception
func (f Failure) Empty() bool {
	return len(f.ExceptionTypes) == 0 && len(f.Messages) == 0
}

// Message is one framework notification. Which fields are set depends on the
// kind; identifying fields get more specific from assembly down to test.
type Message struct {
	Kind       Kind   `json:"kind"`
	Assembly   string `json:"assembly,omitempty"`
	Collection string `json:"collection,omitempty"`
	Class      string `json:"class,omitempty"`
	Method     string `json:"method,omitempty"`
	// TestCase and Test are display names, e.g. "Foo.Bar.Baz(x: 1)"
	TestCase string `json:"testCase,omitempty"`
	Test     string `json:"test,omitempty"`

	Output string `json:"output,omitempty"`
	Reason string `json:"reason,omitempty"`

	// ExecutionTime is in seconds
	ExecutionTime float64       `json:"executionTime,omitempty"`
	TestsFailed   int           `json:"testsFailed,omitempty"`
	TestCases     []TestCaseRef `json:"testCases,omitempty"`

	Failure
}

// Elapsed returns ExecutionTime as a duration
func (m Message) Elapsed() time.Duration {
	return time.Duration(m.ExecutionTime * float64(time.Second))
}
