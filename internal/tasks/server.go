package tasks

import "time"

// Result is the outcome reported to the host when a task finishes
type Result string

const (
	ResultSuccess   Result = "SUCCESS"
	ResultSkipped   Result = "SKIPPED"
	ResultException Result = "EXCEPTION"
	ResultError     Result = "ERROR"
)

// Exception is one entry of a converted exception chain. ParentIndex is -1 for
// the outermost exception; nested and aggregate exceptions point at their
// container.
type Exception struct {
	Type        string `json:"type,omitempty"`
	Message     string `json:"message"`
	StackTrace  string `json:"stack_trace,omitempty"`
	ParentIndex int    `json:"parent_index"`
}

// Finish carries the data sent with a Finished notification
type Finish struct {
	Elapsed   time.Duration
	AnyFailed bool
	Result    Result
	Message   string
}

// Server is the host task protocol. Implementations receive notifications in
// the order the translator produces them.
type Server interface {
	// Created announces a task discovered during the run, below parent.
	Created(task Task, parent Task)
	Starting(task Task)
	Output(task Task, text string)
	Skipped(task Task, reason string)
	Passed(task Task)
	Failed(task Task, exceptions []Exception, message string)
	Error(task Task, exceptions []Exception, message string)
	ForceFailed(task Task, exceptions []Exception, message string)
	Finished(task Task, finish Finish)
}

// Multi fans every notification out to several servers, in order
type Multi []Server

func (m Multi) Created(task Task, parent Task) {
	for _, s := range m {
		s.Created(task, parent)
	}
}

func (m Multi) Starting(task Task) {
	for _, s := range m {
		s.Starting(task)
	}
}

func (m Multi) Output(task Task, text string) {
	for _, s := range m {
		s.Output(task, text)
	}
}

func (m Multi) Skipped(task Task, reason string) {
	for _, s := range m {
		s.Skipped(task, reason)
	}
}

func (m Multi) Passed(task Task) {
	for _, s := range m {
		s.Passed(task)
	}
}

func (m Multi) Failed(task Task, exceptions []Exception, message string) {
	for _, s := range m {
		s.Failed(task, exceptions, message)
	}
}

func (m Multi) Error(task Task, exceptions []Exception, message string) {
	for _, s := range m {
		s.Error(task, exceptions, message)
	}
}

func (m Multi) ForceFailed(task Task, exceptions []Exception, message string) {
	for _, s := range m {
		s.ForceFailed(task, exceptions, message)
	}
}

func (m Multi) Finished(task Task, finish Finish) {
	for _, s := range m {
		s.Finished(task, finish)
	}
}
