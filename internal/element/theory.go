package element

import (
	"xtr/internal/tasks"
)

// TheoryElement is one case of a parameterized method, named by its display
// suffix, e.g. "TestMethodWithTheories(value: 42)".
type TheoryElement struct {
	node
	method *MethodElement

	// skipReason is set for data rows skipped on their own
	skipReason string
}

// NewTheory builds a theory case under method
func NewTheory(method *MethodElement, name string) *TheoryElement {
	id := TheoryIdentity(method.id.Assembly, method.id.TypeName, method.id.Method, name)
	return &TheoryElement{
		node:   node{id: id, projectID: method.projectID, locator: method.locator},
		method: method,
	}
}

func (t *TheoryElement) Kind() Kind { return KindTheory }

func (t *TheoryElement) ShortName() string { return t.id.Theory }

// Method returns the owning method
func (t *TheoryElement) Method() *MethodElement { return t.method }

func (t *TheoryElement) Parent() Element { return t.method }

func (t *TheoryElement) Explicit() bool { return t.ExplicitReason() != "" }

// ExplicitReason is the row's own skip reason, or else the method's
func (t *TheoryElement) ExplicitReason() string {
	t.mu.RLock()
	reason := t.skipReason
	t.mu.RUnlock()
	if reason != "" {
		return reason
	}
	return t.method.ExplicitReason()
}

// SetSkipReason records the skip reason of the case's data row
func (t *TheoryElement) SetSkipReason(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skipReason = reason
}

// Disposition of a theory case is the disposition of its method
func (t *TheoryElement) Disposition() Disposition {
	return t.method.Disposition()
}

func (t *TheoryElement) TaskSequence(explicit []Element) []tasks.Task {
	seq := t.method.TaskSequence(explicit)
	theory := tasks.TheoryTask(t.id.Assembly, t.id.TypeName.FullName(), t.id.Method, t.id.Theory)
	theory.Explicit = contains(explicit, t)
	return append(seq, theory)
}
