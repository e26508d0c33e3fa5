package persist

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"xtr/internal/element"
	"xtr/internal/project"
	"xtr/internal/registry"
)

type nopLocator struct{}

func (nopLocator) Resolve(id element.Identity) element.Disposition {
	return element.InvalidDisposition
}

func (nopLocator) ProjectFiles(id element.Identity) []string { return nil }

func TestReference_RoundTrip(t *testing.T) {
	root := t.TempDir()
	catalog := project.NewCatalog(root, []project.Project{
		{ID: "p1", Name: "Foo.Tests", SourceDir: "src", Assembly: "bin/Foo.Tests.dll"},
	})
	assembly := filepath.Join(root, "bin/Foo.Tests.dll")

	reg := registry.New(nopLocator{})
	class := reg.GetOrCreateClass("p1", "Foo.Bar", assembly)

	ref := Write(class)
	assert.Equal(t, Reference{ProjectID: "p1", TypeName: "Foo.Bar"}, ref)

	t.Run("same session returns the same instance", func(t *testing.T) {
		got, ok := Read(ref, catalog, reg)
		require.True(t, ok)
		assert.Same(t, class, got)
	})

	t.Run("new session rebuilds an equal element", func(t *testing.T) {
		fresh := registry.New(nopLocator{})
		got, ok := Read(ref, catalog, fresh)
		require.True(t, ok)
		assert.Equal(t, class.Identity(), got.Identity())
		assert.Equal(t, "p1", got.ProjectID())
	})

	t.Run("json shape", func(t *testing.T) {
		data, err := json.Marshal(ref)
		require.NoError(t, err)
		assert.JSONEq(t, `{"projectId":"p1","typeName":"Foo.Bar"}`, string(data))
	})

	t.Run("yaml shape", func(t *testing.T) {
		data, err := yaml.Marshal(ref)
		require.NoError(t, err)
		var back Reference
		require.NoError(t, yaml.Unmarshal(data, &back))
		assert.Equal(t, ref, back)
	})
}

func TestRead_DeletedProject(t *testing.T) {
	catalog := project.NewCatalog("/work", []project.Project{
		{ID: "p1", Assembly: "/work/bin/Foo.Tests.dll"},
	})
	reg := registry.New(nopLocator{})
	ref := Write(reg.GetOrCreateClass("p1", "Foo.Bar", "/work/bin/Foo.Tests.dll"))

	catalog.Remove("p1")

	got, ok := Read(ref, catalog, registry.New(nopLocator{}))
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRead_IncompleteReference(t *testing.T) {
	catalog := project.NewCatalog("/work", []project.Project{{ID: "p1"}})
	_, ok := Read(Reference{ProjectID: "p1"}, catalog, registry.New(nopLocator{}))
	assert.False(t, ok)
}

func TestReadAll_SkipsMissingProjects(t *testing.T) {
	catalog := project.NewCatalog("/work", []project.Project{
		{ID: "p1", Assembly: "/work/a.dll"},
	})
	refs := []Reference{
		{ProjectID: "p1", TypeName: "Foo.A"},
		{ProjectID: "gone", TypeName: "Foo.B"},
		{ProjectID: "p1", TypeName: "Foo.C"},
	}

	classes := ReadAll(refs, catalog, registry.New(nopLocator{}))
	require.Len(t, classes, 2)
	assert.Equal(t, element.TypeName("Foo.A"), classes[0].TypeName())
	assert.Equal(t, element.TypeName("Foo.C"), classes[1].TypeName())
	assert.Equal(t, refs[:1], WriteAll(classes[:1]))
}
