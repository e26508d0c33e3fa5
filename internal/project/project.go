// Package project describes the test projects xtr knows about.
package project

import (
	"path/filepath"
	"sort"
	"sync"
)

// Project is a buildable test project
type Project struct {
	// ID is the persistent identifier, stable across sessions
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	// SourceDir is scanned for test sources
	SourceDir string `yaml:"source_dir" json:"source_dir"`
	// Assembly is the build output the adapter loads
	Assembly string `yaml:"assembly" json:"assembly"`
}

// Resolver is the project collaborator
type Resolver interface {
	// ResolveProject returns the live project for a persistent id; ok is false
	// when the project no longer exists.
	ResolveProject(persistentID string) (p *Project, ok bool)
	// OutputAssemblyPath returns the build output of p
	OutputAssemblyPath(p *Project) string
}

// Catalog is an in-memory Resolver built from configuration
type Catalog struct {
	root string

	mu       sync.RWMutex
	projects map[string]*Project
}

// NewCatalog creates a catalog. Relative paths in projects are resolved
// against root.
func NewCatalog(root string, projects []Project) *Catalog {
	c := &Catalog{root: root, projects: make(map[string]*Project)}
	for _, p := range projects {
		c.Add(p)
	}
	return c
}

// Add registers or replaces a project
func (c *Catalog) Add(p Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := p
	c.projects[p.ID] = &cp
}

// Remove forgets a project, as if it was deleted from the solution
func (c *Catalog) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.projects, id)
}

func (c *Catalog) ResolveProject(persistentID string) (*Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.projects[persistentID]
	return p, ok
}

func (c *Catalog) OutputAssemblyPath(p *Project) string {
	return c.abs(p.Assembly)
}

// SourcePath returns the absolute source directory of p
func (c *Catalog) SourcePath(p *Project) string {
	return c.abs(p.SourceDir)
}

func (c *Catalog) abs(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.root, path)
}

// Projects returns every project sorted by id
func (c *Catalog) Projects() []*Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Project, 0, len(c.projects))
	for _, p := range c.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
