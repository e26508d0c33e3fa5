package commands

import (
	"context"
	"fmt"

	"xtr/internal/config"
	"xtr/internal/discovery"
	"xtr/internal/disposition"
	"xtr/internal/element"
	"xtr/internal/project"
	"xtr/internal/registry"
)

// workspace is one discovery session over the configured projects
type workspace struct {
	config     *config.Config
	catalog    *project.Catalog
	resolver   *disposition.Resolver
	registry   *registry.Registry
	discoverer *discovery.Discoverer
	filter     *discovery.Filter
}

// newWorkspace wires a discovery session. It must run after the config is
// loaded, since projects and ignored paths come from the config file.
func newWorkspace(cfg *config.Config) *workspace {
	index := discovery.NewIndex()
	resolver := disposition.NewResolver(index)
	reg := registry.New(resolver)
	catalog := cfg.Catalog()

	return &workspace{
		config:     cfg,
		catalog:    catalog,
		resolver:   resolver,
		registry:   reg,
		discoverer: discovery.NewDiscoverer(discovery.NewScanner(cfg.PathsToIgnore), discovery.NewParser(), index, reg, catalog),
		filter:     discovery.NewFilter(),
	}
}

// discover returns the test classes of every project matching pattern
func (w *workspace) discover(ctx context.Context, pattern string) ([]*element.ClassElement, error) {
	if len(w.catalog.Projects()) == 0 {
		return nil, fmt.Errorf("no projects configured, add them to %s", config.DefaultConfigFile)
	}
	classes, err := w.discoverer.DiscoverAll(ctx)
	if err != nil {
		return nil, err
	}
	return w.filter.FilterClasses(classes, pattern), nil
}
