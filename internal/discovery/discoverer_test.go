package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtr/internal/disposition"
	"xtr/internal/element"
	"xtr/internal/project"
	"xtr/internal/registry"
)

const partialOne = `namespace Foo
{
    public partial class Partial
    {
        [Fact] public void One() { }
    }
}
`

const partialTwo = `namespace Foo
{
    partial class Partial
    {
        [Theory]
        [InlineData(42)]
        [InlineData(7, Skip = "slow")]
        public void Two(int value) { }
    }

    public class NoTests
    {
        public void Helper() { }
    }
}
`

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func newPipeline(t *testing.T, dir string) (*Discoverer, *Index, *registry.Registry, *project.Project) {
	t.Helper()
	index := NewIndex()
	reg := registry.New(disposition.NewResolver(index))
	p := project.Project{ID: "proj-1", Name: "Foo.Tests", SourceDir: dir, Assembly: "/out/Foo.Tests.dll"}
	catalog := project.NewCatalog("/", []project.Project{p})
	resolved, _ := catalog.ResolveProject("proj-1")
	return NewDiscoverer(NewScanner([]string{"bin", "obj"}), NewParser(), index, reg, catalog), index, reg, resolved
}

func TestDiscoverer_DiscoverProject(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"Partial.One.cs": partialOne,
		"Partial.Two.cs": partialTwo,
	})
	d, index, reg, p := newPipeline(t, dir)

	classes, err := d.DiscoverProject(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, classes, 1)

	class := classes[0]
	assert.Equal(t, element.TypeName("Foo.Partial"), class.TypeName())
	assert.Equal(t, "/out/Foo.Tests.dll", class.AssemblyLocation())
	assert.Equal(t, "proj-1", class.ProjectID())
	assert.Equal(t, 2, index.Files())

	methods := class.Methods()
	require.Len(t, methods, 2)
	assert.Equal(t, "One", methods[0].ShortName())
	assert.Equal(t, "Two", methods[1].ShortName())
	require.Len(t, methods[1].Children(), 2)
	assert.Equal(t, "Two(value: 42)", methods[1].Children()[0].ShortName())
	assert.False(t, methods[1].Children()[0].Explicit())
	assert.Equal(t, "Two(value: 7)", methods[1].Children()[1].ShortName())
	assert.Equal(t, "slow", methods[1].Children()[1].ExplicitReason())
	assert.False(t, methods[1].Explicit(), "a skipped row does not skip its method")

	t.Run("partial class has a location per file", func(t *testing.T) {
		disp := class.Disposition()
		require.True(t, disp.Valid())
		require.Len(t, disp.Locations, 2)
		assert.Equal(t, filepath.Join(dir, "Partial.One.cs"), disp.Locations[0].File)
		assert.Equal(t, filepath.Join(dir, "Partial.Two.cs"), disp.Locations[1].File)
		assert.Len(t, class.ProjectFiles(), 2)
	})

	t.Run("rediscovery keeps instances", func(t *testing.T) {
		again, err := d.DiscoverProject(context.Background(), p)
		require.NoError(t, err)
		require.Len(t, again, 1)
		assert.Same(t, class, again[0])
		assert.Equal(t, 4, reg.Len())
	})
}

func TestDiscoverer_RemovesDeletedDeclarations(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"Partial.One.cs": partialOne,
		"Partial.Two.cs": partialTwo,
	})
	d, _, reg, p := newPipeline(t, dir)

	classes, err := d.DiscoverProject(context.Background(), p)
	require.NoError(t, err)
	two := classes[0].Methods()[1]

	require.NoError(t, os.Remove(filepath.Join(dir, "Partial.Two.cs")))
	classes, err = d.DiscoverProject(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, classes[0].Methods(), 1)
	assert.Len(t, classes[0].Disposition().Locations, 1)
	assert.Equal(t, element.StateInvalid, two.State())
	_, ok := reg.Lookup(two.Identity())
	assert.False(t, ok)

	require.NoError(t, os.Remove(filepath.Join(dir, "Partial.One.cs")))
	classes, err = d.DiscoverProject(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, classes)
	assert.Equal(t, 0, reg.Len())
}

func TestDiscoverer_Cancelled(t *testing.T) {
	dir := writeSources(t, map[string]string{"Partial.One.cs": partialOne})
	d, _, _, p := newPipeline(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.DiscoverProject(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndex_StaleAfterChange(t *testing.T) {
	dir := writeSources(t, map[string]string{"Partial.One.cs": partialOne})
	path := filepath.Join(dir, "Partial.One.cs")
	index := NewIndex()

	file, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	index.Add("a.dll", file, info.ModTime())

	id := element.ClassIdentity("a.dll", "Foo.Partial")
	resolver := disposition.NewResolver(index)
	require.True(t, resolver.Resolve(id).Valid())

	later := info.ModTime().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	assert.False(t, resolver.Resolve(id).Valid())

	index.Forget(path)
	assert.Empty(t, index.FindDeclarations(id))
}
