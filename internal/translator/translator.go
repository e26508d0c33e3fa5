// Package translator turns the framework's execution feed into task protocol
// notifications.
//
// A Translator serves exactly one run: it owns the run's task table, reads the
// run's cancellation signal after every event, and folds test cases first
// seen during the run back into the element registry.
package translator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"xtr/internal/element"
	"xtr/internal/gate"
	"xtr/internal/logging"
	"xtr/internal/protocol"
	"xtr/internal/registry"
	"xtr/internal/tasks"
)

const subsystem = "translator"

// Translator is the single consumer of one run's feed. It is not safe for
// concurrent use; the only value shared with other goroutines is the signal.
type Translator struct {
	server    tasks.Server
	signal    gate.Signal
	registry  *registry.Registry
	projectID string
	assembly  string

	table *tasks.Table
	// skip reasons of seeded explicit methods nobody asked for
	unrequested map[tasks.Task]string
	begun       time.Time
	failed      bool
	stopped     bool

	// now is replaced in tests
	now func() time.Time
}

// New creates a translator for one run of assembly. reg may be nil when no
// discovery session is attached, in which case cases first seen during the
// run only exist as task nodes.
func New(server tasks.Server, signal gate.Signal, reg *registry.Registry, projectID, assembly string) *Translator {
	return &Translator{
		server:      server,
		signal:      signal,
		registry:    reg,
		projectID:   projectID,
		assembly:    assembly,
		table:       tasks.NewTable(),
		unrequested: make(map[tasks.Task]string),
		now:         time.Now,
	}
}

// Table returns the run's task table
func (t *Translator) Table() *tasks.Table {
	return t.table
}

// Stopped reports whether dispatch stopped because the run was cancelled
func (t *Translator) Stopped() bool {
	return t.stopped
}

// Failed reports whether any task of the run failed so far
func (t *Translator) Failed() bool {
	return t.failed
}

// Seed registers the tasks of the elements selected for the run. Elements in
// explicit were requested by name and run even when marked explicit. Explicit
// methods that were not requested are reported skipped when their class
// finishes, unless the framework reported them itself.
func (t *Translator) Seed(elements []element.Element, explicit []element.Element) {
	for _, e := range elements {
		seq := e.TaskSequence(explicit)
		for _, task := range seq {
			if task.Kind == tasks.KindAssembly && t.assembly == "" {
				t.assembly = task.Assembly
			}
			t.table.Seed(task)
		}
		if m, ok := e.(*element.MethodElement); ok && m.Explicit() && !seq[len(seq)-1].Explicit {
			t.unrequested[seq[len(seq)-1].Key()] = m.ExplicitReason()
		}
	}
	logging.Debug(subsystem, "seeded %d tasks for %s", t.table.Len(), t.assembly)
}

// Begin starts the assembly task. The framework never reports the end of an
// assembly reliably, so the task stays open until Close. Without a known
// assembly the task starts with the feed's assembly-starting message.
func (t *Translator) Begin() {
	t.begun = t.now()
	if t.assembly == "" {
		return
	}
	t.start(tasks.AssemblyTask(t.assembly))
}

// Drain dispatches messages from source until it is exhausted or the run is
// cancelled. Cancellation is not an error.
func (t *Translator) Drain(ctx context.Context, source protocol.Source) error {
	for t.signal.ShouldContinue() {
		msg, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			// a killed producer ends its feed early
			t.stopped = ctx.Err() != nil
			return nil
		}
		if err != nil {
			// a bound gate may not have observed ctx yet
			if !t.signal.ShouldContinue() || ctx.Err() != nil {
				t.stopped = true
				return nil
			}
			return fmt.Errorf("reading feed: %w", err)
		}
		if !t.Dispatch(msg) {
			break
		}
	}
	t.stopped = true
	logging.Info(subsystem, "run of %s cancelled", t.assembly)
	return nil
}

// Dispatch applies one message and reports whether the run should go on.
// A message is always applied completely, even if cancellation was requested
// while it was in flight.
func (t *Translator) Dispatch(msg protocol.Message) bool {
	logging.Debug(subsystem, "message %s class=%q method=%q test=%q", msg.Kind, msg.Class, msg.Method, t.display(msg))

	switch msg.Kind {
	case protocol.KindAssemblyStarting:
		if node, ok := t.table.Get(tasks.AssemblyTask(t.assemblyOf(msg))); !ok || !node.Started() {
			t.start(tasks.AssemblyTask(t.assemblyOf(msg)))
		}
	case protocol.KindAssemblyFinished:
		t.finish(tasks.AssemblyTask(t.assemblyOf(msg)), msg.Elapsed(), msg.TestsFailed > 0)

	case protocol.KindClassStarting:
		t.start(t.classTask(msg))
	case protocol.KindMethodStarting:
		t.start(t.methodTask(msg))
	case protocol.KindTestCaseStarting:
		t.start(t.caseTask(msg, msg.TestCase))
	case protocol.KindTestStarting:
		t.start(t.testTask(msg))

	case protocol.KindTestOutput:
		t.output(t.testTask(msg), msg.Output)
	case protocol.KindTestSkipped:
		t.skipped(t.testTask(msg), msg.Reason)
	case protocol.KindTestPassed:
		t.passed(t.testTask(msg))
	case protocol.KindTestFailed:
		t.testFailed(t.testTask(msg), msg.Failure)

	case protocol.KindTestFinished:
		t.finish(t.testTask(msg), msg.Elapsed(), false)
	case protocol.KindTestCaseFinished:
		t.finish(t.caseTask(msg, msg.TestCase), msg.Elapsed(), msg.TestsFailed > 0)
	case protocol.KindMethodFinished:
		t.finish(t.methodTask(msg), msg.Elapsed(), msg.TestsFailed > 0)
	case protocol.KindClassFinished:
		t.skipUnrequested(t.classTask(msg))
		t.finish(t.classTask(msg), msg.Elapsed(), msg.TestsFailed > 0)

	case protocol.KindError:
		t.classError(msg)
	case protocol.KindCollectionCleanupFailure:
		t.failClasses(msg, fmt.Sprintf("Collection cleanup failed in %s", msg.Collection))
	case protocol.KindClassCleanupFailure:
		t.failClasses(msg, fmt.Sprintf("Class cleanup failed in %s", msg.Class))
	case protocol.KindMethodCleanupFailure:
		task := t.methodTask(msg)
		t.failScope(task, msg.Failure, fmt.Sprintf("Method cleanup failed in %s", task.DisplayName()))
	case protocol.KindTestCaseCleanupFailure:
		task := t.caseTask(msg, msg.TestCase)
		t.failScope(task, msg.Failure, fmt.Sprintf("Test case cleanup failed in %s", task.DisplayName()))
	case protocol.KindTestCleanupFailure:
		task := t.testTask(msg)
		t.failScope(task, msg.Failure, fmt.Sprintf("Test cleanup failed in %s", task.DisplayName()))

	case protocol.KindDiagnostic:
		t.diagnostic(msg.Output)
	default:
		logging.Debug(subsystem, "ignoring message of unknown kind %q", msg.Kind)
	}

	if !t.signal.ShouldContinue() {
		t.stopped = true
		return false
	}
	return true
}

// Close ends the run. After a cancelled run every running task is left as it
// is. Otherwise tasks the framework never finished are closed with an error,
// and the assembly task is finished.
func (t *Translator) Close() {
	if t.stopped || !t.signal.ShouldContinue() {
		t.stopped = true
		logging.Info(subsystem, "leaving %s unfinished, run was cancelled", t.assembly)
		return
	}

	asm := tasks.AssemblyTask(t.assembly)
	for _, node := range t.table.OpenDescendants(asm) {
		if !node.Started() {
			continue
		}
		message := fmt.Sprintf("Run ended before %s finished", node.Task().DisplayName())
		logging.Warn(subsystem, "%s", message)
		t.abort(node, tasks.StateError, []tasks.Exception{{Message: message, ParentIndex: -1}}, message)
	}

	node, ok := t.table.Get(asm)
	if !ok || !node.Started() || node.Finished() {
		return
	}
	var elapsed time.Duration
	if !t.begun.IsZero() {
		elapsed = t.now().Sub(t.begun)
	}
	for !node.Finished() {
		last, err := node.Close(elapsed, t.failed)
		if err != nil {
			logging.Error(subsystem, err, "closing %s", asm.DisplayName())
			return
		}
		if last {
			t.server.Finished(node.Task(), node.Finish())
		}
	}
}

// Fail ends a run whose feed broke off: every running task is closed with
// an error and the assembly task reports message.
func (t *Translator) Fail(message string) {
	t.failed = true
	asm := tasks.AssemblyTask(t.assembly)
	for _, node := range t.table.OpenDescendants(asm) {
		if node.Started() {
			ended := fmt.Sprintf("Run ended before %s finished", node.Task().DisplayName())
			t.abort(node, tasks.StateError, []tasks.Exception{{Message: ended, ParentIndex: -1}}, ended)
		}
	}

	node, ok := t.table.Get(asm)
	if !ok || !node.Started() || node.Finished() {
		logging.Warn(subsystem, "run of %s failed: %s", t.assembly, message)
		return
	}
	t.abort(node, tasks.StateError, []tasks.Exception{{Message: message, ParentIndex: -1}}, message)
}

// skipUnrequested reports the seeded explicit methods of class that never ran
func (t *Translator) skipUnrequested(class tasks.Task) {
	for _, node := range t.table.OpenDescendants(class) {
		reason, ok := t.unrequested[node.Task().Key()]
		if !ok || node.Started() {
			continue
		}
		method := node.Task()
		t.start(method)
		for _, child := range t.table.OpenDescendants(method) {
			if !child.Started() {
				t.start(child.Task())
				t.skipped(child.Task(), reason)
				t.finish(child.Task(), 0, false)
			}
		}
		t.skipped(method, reason)
		t.finish(method, 0, false)
	}
}

func (t *Translator) start(task tasks.Task) {
	node := t.node(task)
	first, err := node.Open()
	if err != nil {
		t.ignore(task, "starting", err)
		return
	}
	if first {
		t.server.Starting(node.Task())
	}
}

func (t *Translator) output(task tasks.Task, text string) {
	node := t.node(task)
	if err := node.CheckRunning(); err != nil {
		t.ignore(task, "output", err)
		return
	}
	t.server.Output(node.Task(), text)
}

func (t *Translator) skipped(task tasks.Task, reason string) {
	node := t.node(task)
	if err := node.Record(tasks.StateSkipped, reason); err != nil {
		t.ignore(task, "skipped", err)
		return
	}
	t.server.Skipped(node.Task(), reason)
}

func (t *Translator) passed(task tasks.Task) {
	node := t.node(task)
	if err := node.Record(tasks.StatePassed, ""); err != nil {
		t.ignore(task, "passed", err)
		return
	}
	t.server.Passed(node.Task())
}

func (t *Translator) testFailed(task tasks.Task, failure protocol.Failure) {
	node := t.node(task)
	exceptions, message := protocol.ConvertExceptions(failure)
	if err := node.Record(tasks.StateFailed, message); err != nil {
		t.ignore(task, "failed", err)
		return
	}
	t.failed = true
	t.server.Failed(node.Task(), exceptions, message)
}

func (t *Translator) finish(task tasks.Task, elapsed time.Duration, failed bool) {
	node := t.node(task)
	last, err := node.Close(elapsed, failed)
	if err != nil {
		t.ignore(task, "finished", err)
		return
	}
	if failed {
		t.failed = true
	}
	if last {
		t.server.Finished(node.Task(), node.Finish())
	}
}

func (t *Translator) diagnostic(text string) {
	node, ok := t.table.Get(tasks.AssemblyTask(t.assembly))
	if !ok || node.CheckRunning() != nil {
		logging.Debug(subsystem, "adapter: %s", text)
		return
	}
	t.server.Output(node.Task(), text)
}

func (t *Translator) ignore(task tasks.Task, event string, err error) {
	logging.Warn(subsystem, "ignoring %s for %s: %v", event, task.DisplayName(), err)
}

// node resolves a task to its node, creating it on first reference. Nodes
// that were not seeded are announced to the server below their parent and
// folded into the registry.
func (t *Translator) node(task tasks.Task) *tasks.Node {
	node, created := t.table.GetOrCreate(task)
	if !created {
		return node
	}
	t.table.MarkDynamic(node)

	parent, ok := task.Parent()
	if !ok {
		return node
	}
	t.node(parent)
	logging.Debug(subsystem, "created dynamic task %s", task.DisplayName())
	t.server.Created(task, parent)
	t.fold(task)
	return node
}

// fold makes a task first seen during the run addressable as an element
func (t *Translator) fold(task tasks.Task) {
	if t.registry == nil {
		return
	}
	id := element.TaskIdentity(task)
	if _, ok := t.registry.Lookup(id); ok {
		return
	}
	e := t.registry.Get(t.projectID, id)
	e.SetState(element.StateDynamic)
}

func (t *Translator) assemblyOf(msg protocol.Message) string {
	if t.assembly != "" {
		return t.assembly
	}
	t.assembly = msg.Assembly
	return t.assembly
}

func (t *Translator) classTask(msg protocol.Message) tasks.Task {
	return tasks.ClassTask(t.assemblyOf(msg), msg.Class)
}

func (t *Translator) methodTask(msg protocol.Message) tasks.Task {
	return tasks.MethodTask(t.assemblyOf(msg), msg.Class, msg.Method)
}

// caseTask maps a test case or test display name to its task. A display name
// that is just the method maps to the method task; anything else, such as
// "Method(value: 42)", is a theory case of the method.
func (t *Translator) caseTask(msg protocol.Message, display string) tasks.Task {
	name := strings.TrimPrefix(display, msg.Class+".")
	if name == "" || name == msg.Method {
		return t.methodTask(msg)
	}
	return tasks.TheoryTask(t.assemblyOf(msg), msg.Class, msg.Method, name)
}

// testTask maps a test to the task of its case. Late enumerated theories
// report every row as a test of a single case named after the method.
func (t *Translator) testTask(msg protocol.Message) tasks.Task {
	return t.caseTask(msg, t.display(msg))
}

func (t *Translator) display(msg protocol.Message) string {
	if msg.Test != "" {
		return msg.Test
	}
	return msg.TestCase
}
