// Package taskstest provides a recording tasks.Server for tests.
package taskstest

import (
	"sync"

	"xtr/internal/tasks"
)

// Action names a task protocol notification
type Action string

const (
	ActionCreate    Action = "create"
	ActionStart     Action = "start"
	ActionOutput    Action = "output"
	ActionSkip      Action = "skip"
	ActionPass      Action = "pass"
	ActionFail      Action = "fail"
	ActionError     Action = "error"
	ActionForceFail Action = "force-fail"
	ActionFinish    Action = "finish"
)

// Message is one recorded notification
type Message struct {
	Action     Action
	Task       tasks.Task
	Parent     tasks.Task
	Text       string
	Exceptions []tasks.Exception
	Finish     tasks.Finish
}

// Recorder implements tasks.Server and keeps every notification in order
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

func (r *Recorder) Created(task tasks.Task, parent tasks.Task) {
	r.add(Message{Action: ActionCreate, Task: task, Parent: parent})
}

func (r *Recorder) Starting(task tasks.Task) {
	r.add(Message{Action: ActionStart, Task: task})
}

func (r *Recorder) Output(task tasks.Task, text string) {
	r.add(Message{Action: ActionOutput, Task: task, Text: text})
}

func (r *Recorder) Skipped(task tasks.Task, reason string) {
	r.add(Message{Action: ActionSkip, Task: task, Text: reason})
}

func (r *Recorder) Passed(task tasks.Task) {
	r.add(Message{Action: ActionPass, Task: task})
}

func (r *Recorder) Failed(task tasks.Task, exceptions []tasks.Exception, message string) {
	r.add(Message{Action: ActionFail, Task: task, Exceptions: exceptions, Text: message})
}

func (r *Recorder) Error(task tasks.Task, exceptions []tasks.Exception, message string) {
	r.add(Message{Action: ActionError, Task: task, Exceptions: exceptions, Text: message})
}

func (r *Recorder) ForceFailed(task tasks.Task, exceptions []tasks.Exception, message string) {
	r.add(Message{Action: ActionForceFail, Task: task, Exceptions: exceptions, Text: message})
}

func (r *Recorder) Finished(task tasks.Task, finish tasks.Finish) {
	r.add(Message{Action: ActionFinish, Task: task, Finish: finish})
}

// Messages returns a copy of everything recorded so far
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// For returns the messages recorded for one task, in order
func (r *Recorder) For(task tasks.Task) []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.Task.ID() == task.ID() {
			out = append(out, m)
		}
	}
	return out
}

// Actions returns the sequence of actions recorded for one task
func (r *Recorder) Actions(task tasks.Task) []Action {
	var out []Action
	for _, m := range r.For(task) {
		out = append(out, m.Action)
	}
	return out
}

// Count returns how many times action was recorded across all tasks
func (r *Recorder) Count(action Action) int {
	var n int
	for _, m := range r.Messages() {
		if m.Action == action {
			n++
		}
	}
	return n
}
