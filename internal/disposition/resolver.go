// Package disposition resolves element identities to source locations.
package disposition

import (
	"sort"

	"xtr/internal/element"
)

// Declaration is one physical declaration of a type or method, as reported by
// the indexer.
type Declaration struct {
	Identity  element.Identity
	File      string
	NameRange element.TextRange
	FullRange element.TextRange
	// Stale is set when the file changed since it was indexed
	Stale bool
}

// Indexer is the source indexing collaborator
type Indexer interface {
	// FindDeclarations returns every declaration site of id, or none if the
	// declaration is unknown.
	FindDeclarations(id element.Identity) []Declaration
	// SourceFiles returns the files that make up a declaration
	SourceFiles(decl Declaration) []string
}

// Resolver answers Disposition queries for elements. It never changes the
// elements it resolves.
type Resolver struct {
	indexer Indexer
}

// NewResolver creates a Resolver backed by indexer
func NewResolver(indexer Indexer) *Resolver {
	return &Resolver{indexer: indexer}
}

// Resolve returns one location per declaration site of id, or
// element.InvalidDisposition when the declaration is missing or stale.
// Theory cases have no declaration of their own and resolve to their method.
func (r *Resolver) Resolve(id element.Identity) element.Disposition {
	if r.indexer == nil || !id.Valid() {
		return element.InvalidDisposition
	}
	if id.Kind() == element.KindTheory {
		parent, _ := id.Parent()
		return r.Resolve(parent)
	}

	decls := r.indexer.FindDeclarations(id)
	if len(decls) == 0 {
		return element.InvalidDisposition
	}

	locations := make([]element.Location, 0, len(decls))
	for _, d := range decls {
		if d.Stale {
			return element.InvalidDisposition
		}
		if d.File == "" {
			continue
		}
		locations = append(locations, element.Location{
			File:      d.File,
			NameRange: d.NameRange,
			FullRange: d.FullRange,
		})
	}
	if len(locations) == 0 {
		return element.InvalidDisposition
	}
	return element.NewDisposition(id, locations)
}

// ProjectFiles returns the distinct source files declaring id, sorted
func (r *Resolver) ProjectFiles(id element.Identity) []string {
	if r.indexer == nil || !id.Valid() {
		return nil
	}
	seen := make(map[string]bool)
	var files []string
	for _, d := range r.indexer.FindDeclarations(id.Class()) {
		for _, f := range r.indexer.SourceFiles(d) {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	sort.Strings(files)
	return files
}
