// Package element models test elements: classes, methods and theory cases,
// identified by a structural Identity and arranged in a parent/child tree.
package element

import (
	"sync"

	"xtr/internal/tasks"
)

// State is the host's bookkeeping flag for an element
type State int

const (
	StateValid State = iota
	StateInvalid
	StateDynamic
)

// Element is the capability set every element kind implements
type Element interface {
	Identity() Identity
	Kind() Kind
	ShortName() string
	ProjectID() string
	Parent() Element
	Children() []Element
	Explicit() bool
	ExplicitReason() string
	State() State
	SetState(State)
	Disposition() Disposition
	ProjectFiles() []string
	// TaskSequence returns the tasks needed to run the element, outermost
	// first. Elements in explicit are marked as explicitly requested.
	TaskSequence(explicit []Element) []tasks.Task
}

// node holds what all element kinds share
type node struct {
	id        Identity
	projectID string
	locator   Locator

	mu       sync.RWMutex
	state    State
	children []Element
}

func (n *node) Identity() Identity { return n.id }

func (n *node) ProjectID() string { return n.projectID }

func (n *node) State() State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

func (n *node) SetState(s State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = s
}

// Children returns a snapshot of the child set in insertion order
func (n *node) Children() []Element {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Element, len(n.children))
	copy(out, n.children)
	return out
}

func (n *node) addChild(child Element) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.children {
		if c.Identity() == child.Identity() {
			return false
		}
	}
	n.children = append(n.children, child)
	return true
}

func (n *node) removeChild(id Identity) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, c := range n.children {
		if c.Identity() == id {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return true
		}
	}
	return false
}

func (n *node) Disposition() Disposition {
	if n.locator == nil {
		return InvalidDisposition
	}
	return n.locator.Resolve(n.id)
}

func (n *node) ProjectFiles() []string {
	if n.locator == nil {
		return nil
	}
	return n.locator.ProjectFiles(n.id)
}

func contains(list []Element, e Element) bool {
	for _, x := range list {
		if x != nil && x.Identity() == e.Identity() {
			return true
		}
	}
	return false
}

// Walk visits e and every descendant, depth first
func Walk(e Element, visit func(Element)) {
	visit(e)
	for _, c := range e.Children() {
		Walk(c, visit)
	}
}

// CountTests returns the number of tests the elements are expected to run
// when walked: a method counts once unless its cases are known up front.
func CountTests(elements []Element) int {
	n := 0
	for _, e := range elements {
		switch e.Kind() {
		case KindTheory:
			n++
		case KindMethod:
			if len(e.Children()) == 0 {
				n++
			}
		}
	}
	return n
}
