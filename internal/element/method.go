package element

import (
	"xtr/internal/tasks"
)

// MethodElement is a test method of a class. Theory cases, when known, are
// its children.
type MethodElement struct {
	node
	class          *ClassElement
	explicitReason string
}

// NewMethod builds a method element under class. It does not add itself to
// the class; the registry does that.
func NewMethod(class *ClassElement, name, explicitReason string) *MethodElement {
	id := MethodIdentity(class.id.Assembly, class.id.TypeName, name)
	return &MethodElement{
		node:           node{id: id, projectID: class.projectID, locator: class.locator},
		class:          class,
		explicitReason: explicitReason,
	}
}

func (m *MethodElement) Kind() Kind { return KindMethod }

func (m *MethodElement) ShortName() string { return m.id.Method }

// Class returns the owning class
func (m *MethodElement) Class() *ClassElement { return m.class }

func (m *MethodElement) Parent() Element { return m.class }

func (m *MethodElement) Explicit() bool { return m.explicitReason != "" }

func (m *MethodElement) ExplicitReason() string { return m.explicitReason }

// AddChild adds a theory case. It returns false if an equal case is already a child.
func (m *MethodElement) AddChild(t *TheoryElement) bool {
	return m.addChild(t)
}

// RemoveChild removes a theory case
func (m *MethodElement) RemoveChild(t *TheoryElement) bool {
	return m.removeChild(t.Identity())
}

func (m *MethodElement) TaskSequence(explicit []Element) []tasks.Task {
	seq := m.class.TaskSequence(explicit)
	method := tasks.MethodTask(m.id.Assembly, m.id.TypeName.FullName(), m.id.Method)
	method.Explicit = contains(explicit, m)
	return append(seq, method)
}
