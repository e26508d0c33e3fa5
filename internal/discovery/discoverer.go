package discovery

import (
	"context"
	"fmt"
	"os"
	"sort"

	"xtr/internal/element"
	"xtr/internal/logging"
	"xtr/internal/project"
	"xtr/internal/registry"
)

const subsystem = "discovery"

// Discoverer turns project sources into registry elements
type Discoverer struct {
	scanner  *Scanner
	parser   *Parser
	index    *Index
	registry *registry.Registry
	projects *project.Catalog
}

// NewDiscoverer wires the discovery pipeline
func NewDiscoverer(scanner *Scanner, parser *Parser, index *Index, reg *registry.Registry, projects *project.Catalog) *Discoverer {
	return &Discoverer{
		scanner:  scanner,
		parser:   parser,
		index:    index,
		registry: reg,
		projects: projects,
	}
}

type discoveredClass struct {
	methods []MethodDecl
	seen    map[string]int
}

// DiscoverAll discovers every project in the catalog
func (d *Discoverer) DiscoverAll(ctx context.Context) ([]*element.ClassElement, error) {
	var all []*element.ClassElement
	for _, p := range d.projects.Projects() {
		classes, err := d.DiscoverProject(ctx, p)
		if err != nil {
			return nil, err
		}
		all = append(all, classes...)
	}
	return all, nil
}

// DiscoverProject discovers the tests of one project
func (d *Discoverer) DiscoverProject(ctx context.Context, p *project.Project) ([]*element.ClassElement, error) {
	classes, err := d.Discover(ctx, p.ID, d.projects.SourcePath(p), d.projects.OutputAssemblyPath(p))
	if err != nil {
		return nil, fmt.Errorf("discovering project %s: %w", p.ID, err)
	}
	return classes, nil
}

// Discover scans sourceDir, indexes every declaration and registers the test
// classes found under assembly. Classes and methods registered by an earlier
// pass that are no longer declared are removed. Theory cases are kept, since
// the runner may have reported them.
func (d *Discoverer) Discover(ctx context.Context, projectID, sourceDir, assembly string) ([]*element.ClassElement, error) {
	files, err := d.scanner.Scan(sourceDir)
	if err != nil {
		return nil, err
	}

	scanned := make(map[string]bool, len(files))
	for _, path := range files {
		scanned[path] = true
	}
	for _, path := range d.index.Paths(sourceDir) {
		if !scanned[path] {
			d.index.Forget(path)
		}
	}

	found := make(map[element.TypeName]*discoveredClass)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil {
			logging.Warn(subsystem, "skipping %s: %v", path, err)
			continue
		}
		file, err := d.parser.ParseFile(path)
		if err != nil {
			logging.Warn(subsystem, "skipping %s: %v", path, err)
			continue
		}
		d.index.Add(assembly, file, info.ModTime())

		for _, t := range file.Types {
			dc := found[t.TypeName]
			if dc == nil {
				dc = &discoveredClass{seen: make(map[string]int)}
				found[t.TypeName] = dc
			}
			for _, m := range t.Methods {
				// Overloads share one element
				if i, ok := dc.seen[m.Name]; ok {
					merged := &dc.methods[i]
					merged.Cases = append(merged.Cases, m.Cases...)
					for c, reason := range m.CaseSkipReasons {
						if merged.CaseSkipReasons == nil {
							merged.CaseSkipReasons = make(map[string]string)
						}
						merged.CaseSkipReasons[c] = reason
					}
					continue
				}
				dc.seen[m.Name] = len(dc.methods)
				dc.methods = append(dc.methods, m)
			}
		}
	}

	names := make([]element.TypeName, 0, len(found))
	for name, dc := range found {
		if len(dc.methods) > 0 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	classes := make([]*element.ClassElement, 0, len(names))
	for _, name := range names {
		dc := found[name]
		class := d.registry.GetOrCreateClass(projectID, name, assembly)
		class.SetState(element.StateValid)
		for _, m := range dc.methods {
			method := d.registry.GetOrCreateMethod(class, m.Name, m.SkipReason)
			for _, c := range m.Cases {
				d.registry.GetOrCreateTheory(method, c).SetSkipReason(m.CaseSkipReasons[c])
			}
		}
		d.prune(class, dc)
		classes = append(classes, class)
	}

	for _, c := range d.registry.Classes() {
		if c.AssemblyLocation() != assembly || c.ProjectID() != projectID {
			continue
		}
		if dc, ok := found[c.TypeName()]; !ok || len(dc.methods) == 0 {
			logging.Info(subsystem, "removing %s, no longer declared", c.TypeName())
			d.registry.Remove(c.Identity())
		}
	}

	logging.Info(subsystem, "project %s: %d files, %d test classes, %d files indexed", projectID, len(files), len(classes), d.index.Files())
	return classes, nil
}

func (d *Discoverer) prune(class *element.ClassElement, dc *discoveredClass) {
	for _, m := range class.Methods() {
		if _, ok := dc.seen[m.ShortName()]; !ok {
			logging.Debug(subsystem, "removing method %s", m.Identity())
			d.registry.Remove(m.Identity())
		}
	}
}
