package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"xtr/internal/tasks"
)

// Console is a tasks.Server that prints one line per finished test, plus
// class fixture failures and adapter output when verbose.
type Console struct {
	w       io.Writer
	verbose bool

	mu      sync.Mutex
	cases   caseTracker
	reasons map[tasks.Task]string
}

// NewConsole creates a console reporter writing to w
func NewConsole(w io.Writer, verbose bool) *Console {
	return &Console{w: w, verbose: verbose, reasons: make(map[tasks.Task]string)}
}

func (c *Console) Created(task tasks.Task, parent tasks.Task) {
	if !c.verbose {
		return
	}
	c.println(color.HiBlackString("  + %s", task.DisplayName()))
}

func (c *Console) Starting(task tasks.Task) {
	if !c.verbose || task.Kind != tasks.KindClass {
		return
	}
	c.println(color.CyanString("▶ %s", task.TypeName))
}

func (c *Console) Output(task tasks.Task, text string) {
	if !c.verbose {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		c.println(color.HiBlackString("    │ %s", line))
	}
}

func (c *Console) Skipped(task tasks.Task, reason string) {
	c.remember(task, reason)
}

func (c *Console) Passed(task tasks.Task) {}

func (c *Console) Failed(task tasks.Task, exceptions []tasks.Exception, message string) {
	c.remember(task, message)
}

func (c *Console) Error(task tasks.Task, exceptions []tasks.Exception, message string) {
	c.remember(task, message)
}

func (c *Console) ForceFailed(task tasks.Task, exceptions []tasks.Exception, message string) {
	c.remember(task, message)
}

func (c *Console) Finished(task tasks.Task, finish tasks.Finish) {
	c.mu.Lock()
	reason := c.reasons[task.Key()]
	delete(c.reasons, task.Key())
	isTest := c.cases.isTest(task)
	c.mu.Unlock()

	switch {
	case isTest:
		c.printTest(task, finish, reason)
	case task.Kind == tasks.KindClass && finish.Result != tasks.ResultSuccess && reason != "":
		c.println(color.RedString("✗ %s: %s", task.TypeName, firstLine(reason)))
	case task.Kind == tasks.KindAssembly:
		line := fmt.Sprintf("%s finished in %s", task.Assembly, finish.Elapsed.Round(time.Millisecond))
		if finish.AnyFailed {
			c.println(color.RedString("%s", line))
		} else {
			c.println(color.GreenString("%s", line))
		}
	}
}

func (c *Console) printTest(task tasks.Task, finish tasks.Finish, reason string) {
	name := task.DisplayName()
	if task.Kind == tasks.KindTheory {
		name = fmt.Sprintf("%s.%s", task.TypeName, task.Theory)
	}

	switch finish.Result {
	case tasks.ResultSuccess:
		c.println(color.GreenString("✓ %s", name) + color.HiBlackString(" (%s)", finish.Elapsed.Round(time.Millisecond)))
	case tasks.ResultSkipped:
		c.println(color.YellowString("○ %s (skipped: %s)", name, reason))
	default:
		c.println(color.RedString("✗ %s", name))
		for _, line := range strings.Split(reason, "\n") {
			c.println("    " + line)
		}
	}
}

func (c *Console) remember(task tasks.Task, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasons[task.Key()] = text
}

func (c *Console) println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, line)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
