package element

import (
	"xtr/internal/tasks"
)

// ClassElement is a test-bearing type
type ClassElement struct {
	node
}

// NewClass builds a class element. Callers should go through the registry so
// that one instance exists per identity.
func NewClass(id Identity, projectID string, locator Locator) *ClassElement {
	return &ClassElement{node: node{id: id.Class(), projectID: projectID, locator: locator}}
}

func (c *ClassElement) Kind() Kind { return KindClass }

func (c *ClassElement) ShortName() string { return c.id.TypeName.ShortName() }

// Namespace returns the namespace of the class
func (c *ClassElement) Namespace() string { return c.id.TypeName.Namespace() }

// TypeName returns the fully-qualified type name
func (c *ClassElement) TypeName() TypeName { return c.id.TypeName }

// AssemblyLocation returns the build output containing the class
func (c *ClassElement) AssemblyLocation() string { return c.id.Assembly }

func (c *ClassElement) Parent() Element { return nil }

// Explicit is always false: classes cannot be skipped as a whole
func (c *ClassElement) Explicit() bool { return false }

func (c *ClassElement) ExplicitReason() string { return "" }

// AddChild adds a method. It returns false if an equal method is already a child.
func (c *ClassElement) AddChild(m *MethodElement) bool {
	return c.addChild(m)
}

// RemoveChild removes a method, returning false if it was not a child
func (c *ClassElement) RemoveChild(m *MethodElement) bool {
	return c.removeChild(m.Identity())
}

// Methods returns the method children
func (c *ClassElement) Methods() []*MethodElement {
	var out []*MethodElement
	for _, child := range c.Children() {
		if m, ok := child.(*MethodElement); ok {
			out = append(out, m)
		}
	}
	return out
}

func (c *ClassElement) TaskSequence(explicit []Element) []tasks.Task {
	class := tasks.ClassTask(c.id.Assembly, c.id.TypeName.FullName())
	class.Explicit = contains(explicit, c)
	return []tasks.Task{tasks.AssemblyTask(c.id.Assembly), class}
}
