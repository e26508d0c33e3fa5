// Package registry owns the test elements of one discovery session and makes
// sure a single element instance exists per identity.
package registry

import (
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"xtr/internal/element"
	"xtr/internal/logging"
)

const subsystem = "registry"

// Registry is a deduplicating element factory. Its lifetime is a discovery
// session; drop it to start over. It is safe for concurrent use.
type Registry struct {
	locator element.Locator

	mu       sync.RWMutex
	elements map[element.Identity]element.Element

	// construction of a missing element is deduplicated per identity
	group singleflight.Group
}

// New creates an empty Registry whose elements resolve dispositions through locator
func New(locator element.Locator) *Registry {
	return &Registry{
		locator:  locator,
		elements: make(map[element.Identity]element.Element),
	}
}

// Lookup returns the element for id, if one exists
func (r *Registry) Lookup(id element.Identity) (element.Element, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.elements[id]
	return e, ok
}

// getOrCreate returns the cached element for id or inserts the one build returns
func (r *Registry) getOrCreate(id element.Identity, build func() element.Element) (element.Element, bool) {
	if e, ok := r.Lookup(id); ok {
		return e, false
	}

	created := false
	v, _, _ := r.group.Do(id.Key(), func() (interface{}, error) {
		// Double-check after winning the flight
		r.mu.Lock()
		defer r.mu.Unlock()
		if e, ok := r.elements[id]; ok {
			return e, nil
		}
		e := build()
		r.elements[id] = e
		created = true
		return e, nil
	})
	return v.(element.Element), created
}

// GetOrCreateClass returns the class element for typeName in assembly
func (r *Registry) GetOrCreateClass(projectID string, typeName element.TypeName, assembly string) *element.ClassElement {
	id := element.ClassIdentity(assembly, typeName)
	e, created := r.getOrCreate(id, func() element.Element {
		return element.NewClass(id, projectID, r.locator)
	})
	if created {
		logging.Debug(subsystem, "created class %s (%s)", typeName, assembly)
	}
	return e.(*element.ClassElement)
}

// GetOrCreateMethod returns the method element called name under class,
// adding it to the class's children when it is created.
func (r *Registry) GetOrCreateMethod(class *element.ClassElement, name, explicitReason string) *element.MethodElement {
	id := element.MethodIdentity(class.AssemblyLocation(), class.TypeName(), name)
	e, created := r.getOrCreate(id, func() element.Element {
		m := element.NewMethod(class, name, explicitReason)
		class.AddChild(m)
		return m
	})
	if created {
		logging.Debug(subsystem, "created method %s", id)
	}
	return e.(*element.MethodElement)
}

// GetOrCreateTheory returns the theory case called name under method. Cases
// first seen during a run are created here and kept for the rest of the
// session.
func (r *Registry) GetOrCreateTheory(method *element.MethodElement, name string) *element.TheoryElement {
	mid := method.Identity()
	id := element.TheoryIdentity(mid.Assembly, mid.TypeName, mid.Method, name)
	e, created := r.getOrCreate(id, func() element.Element {
		t := element.NewTheory(method, name)
		method.AddChild(t)
		return t
	})
	if created {
		logging.Debug(subsystem, "created theory %s", id)
	}
	return e.(*element.TheoryElement)
}

// Get resolves any identity, creating the missing elements along its chain.
func (r *Registry) Get(projectID string, id element.Identity) element.Element {
	class := r.GetOrCreateClass(projectID, id.TypeName, id.Assembly)
	if id.Method == "" {
		return class
	}
	method := r.GetOrCreateMethod(class, id.Method, "")
	if id.Theory == "" {
		return method
	}
	return r.GetOrCreateTheory(method, id.Theory)
}

// Remove drops the element for id and everything below it, and detaches it
// from its parent. It is used when discovery finds that the backing
// declaration is gone.
func (r *Registry) Remove(id element.Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.elements[id]
	if !ok {
		return false
	}
	element.Walk(e, func(d element.Element) {
		delete(r.elements, d.Identity())
	})

	switch v := e.(type) {
	case *element.MethodElement:
		v.Class().RemoveChild(v)
	case *element.TheoryElement:
		v.Method().RemoveChild(v)
	}
	e.SetState(element.StateInvalid)
	return true
}

// Classes returns every class element sorted by type name then assembly
func (r *Registry) Classes() []*element.ClassElement {
	r.mu.RLock()
	var out []*element.ClassElement
	for _, e := range r.elements {
		if c, ok := e.(*element.ClassElement); ok {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].TypeName() != out[j].TypeName() {
			return out[i].TypeName() < out[j].TypeName()
		}
		return out[i].AssemblyLocation() < out[j].AssemblyLocation()
	})
	return out
}

// Len returns the number of live elements
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.elements)
}
