// Package persist converts class elements to and from the reference shape
// stored between sessions.
package persist

import (
	"xtr/internal/element"
	"xtr/internal/logging"
	"xtr/internal/project"
	"xtr/internal/registry"
)

const subsystem = "persist"

// Reference is the persisted form of a class element. Only classes are
// persisted; methods and theories are rebuilt by discovery.
type Reference struct {
	ProjectID string `json:"projectId" yaml:"projectId"`
	TypeName  string `json:"typeName" yaml:"typeName"`
}

// Write returns the reference for class
func Write(class *element.ClassElement) Reference {
	return Reference{
		ProjectID: class.ProjectID(),
		TypeName:  class.TypeName().FullName(),
	}
}

// WriteAll returns references for classes, in order
func WriteAll(classes []*element.ClassElement) []Reference {
	refs := make([]Reference, 0, len(classes))
	for _, c := range classes {
		refs = append(refs, Write(c))
	}
	return refs
}

// Read resolves ref against the live projects and returns the session's class
// element for it. ok is false when the project no longer exists. The assembly
// is taken from the project's current build output, so a class read back
// after the output moved still resolves.
func Read(ref Reference, projects project.Resolver, reg *registry.Registry) (*element.ClassElement, bool) {
	if ref.ProjectID == "" || ref.TypeName == "" {
		return nil, false
	}
	p, ok := projects.ResolveProject(ref.ProjectID)
	if !ok {
		logging.Debug(subsystem, "dropping %s: project %s is gone", ref.TypeName, ref.ProjectID)
		return nil, false
	}
	assembly := projects.OutputAssemblyPath(p)
	return reg.GetOrCreateClass(ref.ProjectID, element.TypeName(ref.TypeName), assembly), true
}

// ReadAll reads every reference, skipping those whose project is gone
func ReadAll(refs []Reference, projects project.Resolver, reg *registry.Registry) []*element.ClassElement {
	var out []*element.ClassElement
	for _, ref := range refs {
		if c, ok := Read(ref, projects, reg); ok {
			out = append(out, c)
		}
	}
	return out
}
