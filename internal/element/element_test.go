package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtr/internal/tasks"
)

type fakeLocator struct {
	calls []Identity
}

func (f *fakeLocator) Resolve(id Identity) Disposition {
	f.calls = append(f.calls, id)
	return NewDisposition(id, []Location{{File: "Foo.cs"}})
}

func (f *fakeLocator) ProjectFiles(id Identity) []string {
	return []string{"Foo.cs"}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		name      string
		typeName  TypeName
		short     string
		namespace string
	}{
		{"namespaced", "Foo.FailingFact", "FailingFact", "Foo"},
		{"deep namespace", "Acme.Tests.Unit.UserTests", "UserTests", "Acme.Tests.Unit"},
		{"global namespace", "Standalone", "Standalone", ""},
		{"nested type", "Foo.Outer+Inner", "Inner", "Foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.short, tt.typeName.ShortName())
			assert.Equal(t, tt.namespace, tt.typeName.Namespace())
		})
	}
}

func TestIdentity_Equality(t *testing.T) {
	a := MethodIdentity("bin/Tests.dll", "Foo.Bar", "Baz")
	b := MethodIdentity("bin/Tests.dll", "Foo.Bar", "Baz")
	c := MethodIdentity("other/Tests.dll", "Foo.Bar", "Baz")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a.Key(), b.Key())

	set := map[Identity]bool{a: true}
	assert.True(t, set[b])
	assert.False(t, set[c])
}

func TestIdentity_KindAndParent(t *testing.T) {
	theory := TheoryIdentity("a.dll", "Foo.HasRunWith", "TestMethodWithTheories", "TestMethodWithTheories(value: 42)")
	assert.Equal(t, KindTheory, theory.Kind())
	assert.True(t, theory.Valid())
	assert.Equal(t, "Foo.HasRunWith.TestMethodWithTheories(value: 42)", theory.String())

	parent, ok := theory.Parent()
	require.True(t, ok)
	assert.Equal(t, KindMethod, parent.Kind())

	class, ok := parent.Parent()
	require.True(t, ok)
	assert.Equal(t, ClassIdentity("a.dll", "Foo.HasRunWith"), class)

	_, ok = class.Parent()
	assert.False(t, ok)

	assert.False(t, Identity{}.Valid())
	assert.False(t, Identity{TypeName: "Foo", Theory: "x"}.Valid())
}

func TestClassElement_Children(t *testing.T) {
	class := NewClass(ClassIdentity("a.dll", "Foo.Bar"), "proj-1", nil)
	m := NewMethod(class, "Baz", "")

	assert.True(t, class.AddChild(m))
	assert.False(t, class.AddChild(NewMethod(class, "Baz", "")), "equal identity must not be added twice")
	assert.Len(t, class.Children(), 1)
	assert.Equal(t, []*MethodElement{m}, class.Methods())

	assert.True(t, class.RemoveChild(m))
	assert.False(t, class.RemoveChild(m))
	assert.Empty(t, class.Children())
}

func TestClassElement_Presentation(t *testing.T) {
	class := NewClass(ClassIdentity("a.dll", "Foo.Bar"), "proj-1", nil)

	assert.Equal(t, "Bar", class.ShortName())
	assert.Equal(t, "Foo", class.Namespace())
	assert.False(t, class.Explicit())
	assert.Empty(t, class.ExplicitReason())
	assert.Equal(t, "xUnit.net Test Class", class.Kind().String())
	assert.False(t, class.Disposition().Valid(), "no locator means no disposition")
}

func TestElement_Disposition(t *testing.T) {
	loc := &fakeLocator{}
	class := NewClass(ClassIdentity("a.dll", "Foo.Bar"), "proj-1", loc)
	method := NewMethod(class, "Baz", "")
	theory := NewTheory(method, "Baz(x: 1)")

	d := theory.Disposition()
	assert.True(t, d.Valid())
	assert.Equal(t, []Identity{method.Identity()}, loc.calls, "theories resolve through their method")
	assert.Equal(t, []string{"Foo.cs"}, class.ProjectFiles())
}

func TestElement_TaskSequence(t *testing.T) {
	class := NewClass(ClassIdentity("a.dll", "Foo.Bar"), "proj-1", nil)
	method := NewMethod(class, "Baz", "")
	theory := NewTheory(method, "Baz(x: 1)")

	seq := theory.TaskSequence([]Element{method})
	require.Len(t, seq, 4)
	assert.Equal(t, tasks.AssemblyTask("a.dll"), seq[0])
	assert.Equal(t, tasks.ClassTask("a.dll", "Foo.Bar"), seq[1])
	assert.Equal(t, tasks.KindMethod, seq[2].Kind)
	assert.True(t, seq[2].Explicit)
	assert.Equal(t, tasks.TheoryTask("a.dll", "Foo.Bar", "Baz", "Baz(x: 1)"), seq[3])

	seq = class.TaskSequence(nil)
	require.Len(t, seq, 2)
	assert.False(t, seq[1].Explicit)
}

func TestMethodElement_Explicit(t *testing.T) {
	class := NewClass(ClassIdentity("a.dll", "Foo.Bar"), "proj-1", nil)
	skipped := NewMethod(class, "Slow", "too slow")
	theory := NewTheory(skipped, "Slow(x: 1)")

	assert.True(t, skipped.Explicit())
	assert.Equal(t, "too slow", theory.ExplicitReason())
}

func TestWalk(t *testing.T) {
	class := NewClass(ClassIdentity("a.dll", "Foo.Bar"), "proj-1", nil)
	method := NewMethod(class, "Baz", "")
	class.AddChild(method)
	method.AddChild(NewTheory(method, "Baz(x: 1)"))

	var names []string
	Walk(class, func(e Element) { names = append(names, e.ShortName()) })
	assert.Equal(t, []string{"Bar", "Baz", "Baz(x: 1)"}, names)
}

func TestTaskIdentity(t *testing.T) {
	class := NewClass(ClassIdentity("a.dll", "Foo.Bar"), "proj-1", nil)
	method := NewMethod(class, "Baz", "")
	theory := NewTheory(method, "Baz(x: 1)")

	for _, e := range []Element{class, method, theory} {
		seq := e.TaskSequence(nil)
		assert.Equal(t, e.Identity(), TaskIdentity(seq[len(seq)-1]), e.Identity().String())
	}
}

func TestCountTests(t *testing.T) {
	class := NewClass(ClassIdentity("a.dll", "Foo.Calc"), "p", nil)
	NewMethod(class, "unused", "")
	class.AddChild(NewMethod(class, "Adds", ""))
	method := NewMethod(class, "Theory", "")
	class.AddChild(method)
	method.AddChild(NewTheory(method, "Theory(x: 1)"))
	method.AddChild(NewTheory(method, "Theory(x: 2)"))

	var all []Element
	Walk(class, func(e Element) { all = append(all, e) })
	assert.Equal(t, 3, CountTests(all))
	assert.Equal(t, 0, CountTests([]Element{class}), "classes are not walked")
}
