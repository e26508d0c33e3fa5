package disposition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtr/internal/element"
)

type mapIndexer map[element.Identity][]Declaration

func (m mapIndexer) FindDeclarations(id element.Identity) []Declaration {
	return m[id]
}

func (m mapIndexer) SourceFiles(decl Declaration) []string {
	return []string{decl.File}
}

func TestResolver_Resolve(t *testing.T) {
	class := element.ClassIdentity("a.dll", "Foo.Partial")
	method := element.MethodIdentity("a.dll", "Foo.Partial", "Baz")
	indexer := mapIndexer{
		class: {
			{Identity: class, File: "Partial.One.cs", NameRange: element.TextRange{StartOffset: 10, EndOffset: 17}},
			{Identity: class, File: "Partial.Two.cs", NameRange: element.TextRange{StartOffset: 40, EndOffset: 47}},
		},
		method: {
			{Identity: method, File: "Partial.Two.cs", NameRange: element.TextRange{StartOffset: 90, EndOffset: 93}},
		},
	}
	resolver := NewResolver(indexer)

	t.Run("partial class has one location per file", func(t *testing.T) {
		d := resolver.Resolve(class)
		require.True(t, d.Valid())
		require.Len(t, d.Locations, 2)
		assert.Equal(t, "Partial.One.cs", d.Locations[0].File)
		assert.Equal(t, 40, d.Locations[1].NameRange.StartOffset)
	})

	t.Run("theory resolves to its method", func(t *testing.T) {
		d := resolver.Resolve(element.TheoryIdentity("a.dll", "Foo.Partial", "Baz", "Baz(x: 1)"))
		require.True(t, d.Valid())
		assert.Equal(t, method, d.Element)
	})

	t.Run("unknown type is invalid, not an error", func(t *testing.T) {
		d := resolver.Resolve(element.ClassIdentity("a.dll", "Foo.Gone"))
		assert.False(t, d.Valid())
		assert.Equal(t, element.InvalidDisposition, d)
	})

	t.Run("malformed identity is invalid", func(t *testing.T) {
		assert.False(t, resolver.Resolve(element.Identity{}).Valid())
	})
}

func TestResolver_StaleDeclaration(t *testing.T) {
	class := element.ClassIdentity("a.dll", "Foo.Bar")
	resolver := NewResolver(mapIndexer{
		class: {{Identity: class, File: "Bar.cs"}, {Identity: class, File: "Bar.Extra.cs", Stale: true}},
	})

	assert.False(t, resolver.Resolve(class).Valid())
}

func TestResolver_ProjectFiles(t *testing.T) {
	class := element.ClassIdentity("a.dll", "Foo.Partial")
	resolver := NewResolver(mapIndexer{
		class: {{File: "b.cs"}, {File: "a.cs"}, {File: "b.cs"}},
	})

	assert.Equal(t, []string{"a.cs", "b.cs"}, resolver.ProjectFiles(element.MethodIdentity("a.dll", "Foo.Partial", "X")))
	assert.Nil(t, NewResolver(nil).ProjectFiles(class))
}

func TestResolver_ElementsUseLocator(t *testing.T) {
	class := element.ClassIdentity("a.dll", "Foo.Bar")
	resolver := NewResolver(mapIndexer{class: {{Identity: class, File: "Bar.cs"}}})

	e := element.NewClass(class, "proj", resolver)
	assert.True(t, e.Disposition().Valid())
	assert.Equal(t, []string{"Bar.cs"}, e.ProjectFiles())
}
