package ui

import (
	"strings"
	"sync"

	"xtr/internal/domain"
	"xtr/internal/element"
	"xtr/internal/tasks"
)

// Failure outcomes recorded in results
const (
	OutcomeFailed      = "failed"
	OutcomeError       = "error"
	OutcomeForceFailed = "force-failed"
)

// nopServer ignores every notification. Reporters embed it and override the
// notifications they care about.
type nopServer struct{}

func (nopServer) Created(task tasks.Task, parent tasks.Task) {}

func (nopServer) Starting(task tasks.Task) {}

func (nopServer) Output(task tasks.Task, text string) {}

func (nopServer) Skipped(task tasks.Task, reason string) {}

func (nopServer) Passed(task tasks.Task) {}

func (nopServer) Failed(task tasks.Task, exceptions []tasks.Exception, message string) {}

func (nopServer) Error(task tasks.Task, exceptions []tasks.Exception, message string) {}

func (nopServer) ForceFailed(task tasks.Task, exceptions []tasks.Exception, message string) {}

func (nopServer) Finished(task tasks.Task, finish tasks.Finish) {}

// caseTracker decides which finished tasks count as tests. A method whose
// theory cases ran is only a container; the cases are the tests. Cases always
// finish before their method.
type caseTracker struct {
	containers map[tasks.Task]bool
}

func (c *caseTracker) isTest(task tasks.Task) bool {
	if c.containers == nil {
		c.containers = make(map[tasks.Task]bool)
	}
	switch task.Kind {
	case tasks.KindTheory:
		if parent, ok := task.Parent(); ok {
			c.containers[parent.Key()] = true
		}
		return true
	case tasks.KindMethod:
		return !c.containers[task.Key()]
	default:
		return false
	}
}

// Collector is a tasks.Server that accumulates counts and failures for the
// results file. It is safe to share between concurrent runs.
type Collector struct {
	nopServer
	locator element.Locator

	mu       sync.Mutex
	cases    caseTracker
	counts   domain.TestCounts
	failures []domain.TestFailure
}

// NewCollector creates a Collector. locator may be nil; when set, failures
// carry the source location of their element.
func NewCollector(locator element.Locator) *Collector {
	return &Collector{locator: locator}
}

func (c *Collector) Failed(task tasks.Task, exceptions []tasks.Exception, message string) {
	c.fail(task, OutcomeFailed, exceptions, message)
}

func (c *Collector) Error(task tasks.Task, exceptions []tasks.Exception, message string) {
	c.fail(task, OutcomeError, exceptions, message)
}

func (c *Collector) ForceFailed(task tasks.Task, exceptions []tasks.Exception, message string) {
	c.fail(task, OutcomeForceFailed, exceptions, message)
}

func (c *Collector) Finished(task tasks.Task, finish tasks.Finish) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cases.isTest(task) {
		return
	}
	c.counts.Total++
	switch finish.Result {
	case tasks.ResultSuccess:
		c.counts.Passed++
	case tasks.ResultSkipped:
		c.counts.Skipped++
	default:
		c.counts.Failed++
	}
}

// Counts returns the test outcomes seen so far
func (c *Collector) Counts() domain.TestCounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts
}

// Failures returns the failures seen so far, in notification order
func (c *Collector) Failures() []domain.TestFailure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.TestFailure(nil), c.failures...)
}

func (c *Collector) fail(task tasks.Task, outcome string, exceptions []tasks.Exception, message string) {
	failure := domain.TestFailure{
		TestName:  task.DisplayName(),
		ClassName: task.TypeName,
		Method:    task.Method,
		Assembly:  task.Assembly,
		Outcome:   outcome,
		Message:   message,
	}
	if len(exceptions) > 0 {
		failure.ExceptionType = exceptions[0].Type
		failure.StackTrace = stackLines(exceptions[0].StackTrace)
	}
	if c.locator != nil && task.Kind != tasks.KindAssembly {
		if d := c.locator.Resolve(element.TaskIdentity(task)); d.Valid() && len(d.Locations) > 0 {
			failure.File = d.Locations[0].File
			failure.Line = d.Locations[0].NameRange.StartLine
		}
	}

	c.mu.Lock()
	c.failures = append(c.failures, failure)
	c.mu.Unlock()
}

func stackLines(trace string) []string {
	var lines []string
	for _, line := range strings.Split(trace, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
