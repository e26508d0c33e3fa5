package translator

import (
	"fmt"
	"strings"

	"xtr/internal/logging"
	"xtr/internal/protocol"
	"xtr/internal/tasks"
)

// classError handles a catastrophic error or a failing class fixture. The
// only scope information is the list of affected test cases.
func (t *Translator) classError(msg protocol.Message) {
	classes := affectedClasses(msg)
	if len(classes) == 0 {
		_, message := protocol.ConvertExceptions(msg.Failure)
		logging.Warn(subsystem, "catastrophic error without test cases: %s", message)
		t.failed = true
		t.diagnostic(message)
		return
	}
	t.failClasses(msg, fmt.Sprintf("Class failed in %s", strings.Join(classes, ", ")))
}

// failClasses fans a failure out to every class referenced by the message's
// test cases.
func (t *Translator) failClasses(msg protocol.Message, descendantMessage string) {
	classes := affectedClasses(msg)
	if len(classes) == 0 {
		logging.Warn(subsystem, "%s, but no class is affected", descendantMessage)
		return
	}
	for _, class := range classes {
		t.failScope(tasks.ClassTask(t.assemblyOf(msg), class), msg.Failure, descendantMessage)
	}
}

// failScope closes every unfinished task below scope with an error carrying
// descendantMessage, deepest first, then force-fails scope itself with the
// real exception chain. The real exception belongs to the scope, not to the
// tasks that could not run because of it.
func (t *Translator) failScope(scope tasks.Task, failure protocol.Failure, descendantMessage string) {
	exceptions, message := protocol.ConvertExceptions(failure)
	if message == "" {
		message = descendantMessage
	}
	t.failed = true

	node := t.node(scope)
	if node.Finished() {
		logging.Warn(subsystem, "%s after %s finished: %s", descendantMessage, scope.DisplayName(), message)
		t.diagnostic(descendantMessage + ": " + message)
		return
	}

	descendantExceptions := []tasks.Exception{{Message: descendantMessage, ParentIndex: -1}}
	for _, d := range t.table.OpenDescendants(scope) {
		t.abort(d, tasks.StateError, descendantExceptions, descendantMessage)
	}
	t.abort(node, tasks.StateForceFailed, exceptions, message)
}

// abort finishes node with outcome. A node that never started is started
// first so the server always sees Starting before anything else.
func (t *Translator) abort(node *tasks.Node, outcome tasks.State, exceptions []tasks.Exception, message string) {
	if !node.Started() {
		if _, err := node.Open(); err != nil {
			t.ignore(node.Task(), "abort", err)
			return
		}
		t.server.Starting(node.Task())
	}
	if err := node.Abort(outcome, message); err != nil {
		t.ignore(node.Task(), "abort", err)
		return
	}
	t.failed = true

	if outcome == tasks.StateForceFailed {
		t.server.ForceFailed(node.Task(), exceptions, message)
	} else {
		t.server.Error(node.Task(), exceptions, message)
	}
	t.server.Finished(node.Task(), node.Finish())
}

// affectedClasses returns the distinct classes of the message's test cases in
// order of appearance, falling back to the message's own class.
func affectedClasses(msg protocol.Message) []string {
	seen := make(map[string]bool)
	var classes []string
	for _, tc := range msg.TestCases {
		if tc.Class != "" && !seen[tc.Class] {
			seen[tc.Class] = true
			classes = append(classes, tc.Class)
		}
	}
	if len(classes) == 0 && msg.Class != "" {
		classes = append(classes, msg.Class)
	}
	return classes
}
