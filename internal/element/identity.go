package element

import (
	"strings"

	"xtr/internal/tasks"
)

// TypeName is a fully-qualified type name such as "Foo.Bar" or "Foo.Outer+Inner"
type TypeName string

// FullName returns the fully-qualified name
func (t TypeName) FullName() string {
	return string(t)
}

// ShortName returns the name without namespace or enclosing types
func (t TypeName) ShortName() string {
	s := string(t)
	if i := strings.LastIndexAny(s, ".+"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Namespace returns the namespace part of the name, empty for the global namespace
func (t TypeName) Namespace() string {
	s := string(t)
	// nested types keep the namespace of their outermost type
	if i := strings.Index(s, "+"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[:i]
	}
	return ""
}

// Kind is the granularity of an element
type Kind int

const (
	KindClass Kind = iota
	KindMethod
	KindTheory
)

// String returns the name the host shows for the element kind
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "xUnit.net Test Class"
	case KindMethod:
		return "xUnit.net Test"
	case KindTheory:
		return "xUnit.net Theory"
	default:
		return "unknown"
	}
}

// Identity is the structural key of a test element. Equal identities name the
// same element across discovery passes and sessions. Identities are values and
// are never modified once built.
type Identity struct {
	Assembly string
	TypeName TypeName
	Method   string
	Theory   string
}

// ClassIdentity returns the identity of a test class
func ClassIdentity(assembly string, typeName TypeName) Identity {
	return Identity{Assembly: assembly, TypeName: typeName}
}

// MethodIdentity returns the identity of a test method
func MethodIdentity(assembly string, typeName TypeName, method string) Identity {
	return Identity{Assembly: assembly, TypeName: typeName, Method: method}
}

// TheoryIdentity returns the identity of one theory case. theory is the full
// case name, e.g. "TestMethodWithTheories(value: 42)".
func TheoryIdentity(assembly string, typeName TypeName, method, theory string) Identity {
	return Identity{Assembly: assembly, TypeName: typeName, Method: method, Theory: theory}
}

// Kind returns the granularity the identity names
func (id Identity) Kind() Kind {
	switch {
	case id.Theory != "":
		return KindTheory
	case id.Method != "":
		return KindMethod
	default:
		return KindClass
	}
}

// Valid reports whether the identity is well formed
func (id Identity) Valid() bool {
	if id.TypeName == "" {
		return false
	}
	return id.Theory == "" || id.Method != ""
}

// Class returns the identity of the enclosing class
func (id Identity) Class() Identity {
	return ClassIdentity(id.Assembly, id.TypeName)
}

// Parent returns the identity one level up. Classes have no parent.
func (id Identity) Parent() (Identity, bool) {
	switch id.Kind() {
	case KindTheory:
		return MethodIdentity(id.Assembly, id.TypeName, id.Method), true
	case KindMethod:
		return id.Class(), true
	default:
		return Identity{}, false
	}
}

// Key returns a string form usable as a lookup key
func (id Identity) Key() string {
	return strings.Join([]string{id.Assembly, string(id.TypeName), id.Method, id.Theory}, "\x00")
}

// String returns a readable name, e.g. "Foo.Bar.Baz"
func (id Identity) String() string {
	switch id.Kind() {
	case KindTheory:
		return string(id.TypeName) + "." + id.Theory
	case KindMethod:
		return string(id.TypeName) + "." + id.Method
	default:
		return string(id.TypeName)
	}
}

// TaskIdentity returns the identity of the element a task runs
func TaskIdentity(task tasks.Task) Identity {
	typeName := TypeName(task.TypeName)
	switch task.Kind {
	case tasks.KindMethod:
		return MethodIdentity(task.Assembly, typeName, task.Method)
	case tasks.KindTheory:
		return TheoryIdentity(task.Assembly, typeName, task.Method, task.Theory)
	default:
		return ClassIdentity(task.Assembly, typeName)
	}
}
