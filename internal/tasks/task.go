package tasks

import (
	"fmt"
	"strings"
)

// Kind is the granularity of a task
type Kind int

const (
	KindAssembly Kind = iota
	KindClass
	KindMethod
	KindTheory
)

// String makes Kind satisfy the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case KindAssembly:
		return "assembly"
	case KindClass:
		return "class"
	case KindMethod:
		return "method"
	case KindTheory:
		return "theory"
	default:
		return "unknown"
	}
}

// ID is the host-visible task identifier
type ID string

// Task identifies one execution unit the host tracks. Two tasks with the same
// fields are the same task.
type Task struct {
	Kind     Kind
	Assembly string
	TypeName string
	Method   string
	Theory   string
	Explicit bool
}

// AssemblyTask returns the task for a whole assembly
func AssemblyTask(assembly string) Task {
	return Task{Kind: KindAssembly, Assembly: assembly}
}

// ClassTask returns the task for a test class
func ClassTask(assembly, typeName string) Task {
	return Task{Kind: KindClass, Assembly: assembly, TypeName: typeName}
}

// MethodTask returns the task for a test method
func MethodTask(assembly, typeName, method string) Task {
	return Task{Kind: KindMethod, Assembly: assembly, TypeName: typeName, Method: method}
}

// TheoryTask returns the task for a single theory case of a method
func TheoryTask(assembly, typeName, method, theory string) Task {
	return Task{Kind: KindTheory, Assembly: assembly, TypeName: typeName, Method: method, Theory: theory}
}

// ID returns the stable identifier of the task. The explicit flag is not part
// of the identifier.
func (t Task) ID() ID {
	parts := []string{t.Kind.String(), t.Assembly}
	switch t.Kind {
	case KindClass:
		parts = append(parts, t.TypeName)
	case KindMethod:
		parts = append(parts, t.TypeName, t.Method)
	case KindTheory:
		parts = append(parts, t.TypeName, t.Method, t.Theory)
	}
	return ID(strings.Join(parts, "|"))
}

// Key drops the explicit flag so the task can be used as a map key
func (t Task) Key() Task {
	t.Explicit = false
	return t
}

// Parent returns the enclosing task. Assembly tasks have no parent.
func (t Task) Parent() (Task, bool) {
	switch t.Kind {
	case KindClass:
		return AssemblyTask(t.Assembly), true
	case KindMethod:
		return ClassTask(t.Assembly, t.TypeName), true
	case KindTheory:
		return MethodTask(t.Assembly, t.TypeName, t.Method), true
	default:
		return Task{}, false
	}
}

// Contains reports whether other is strictly below t in the hierarchy.
func (t Task) Contains(other Task) bool {
	if other.Kind <= t.Kind || other.Assembly != t.Assembly {
		return false
	}
	switch t.Kind {
	case KindAssembly:
		return true
	case KindClass:
		return other.TypeName == t.TypeName
	case KindMethod:
		return other.TypeName == t.TypeName && other.Method == t.Method
	default:
		return false
	}
}

// DisplayName is the short name shown to users
func (t Task) DisplayName() string {
	switch t.Kind {
	case KindAssembly:
		return t.Assembly
	case KindClass:
		return t.TypeName
	case KindMethod:
		return fmt.Sprintf("%s.%s", t.TypeName, t.Method)
	default:
		return fmt.Sprintf("%s.%s", t.TypeName, t.Theory)
	}
}
