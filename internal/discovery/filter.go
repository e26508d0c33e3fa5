package discovery

import (
	"path"
	"strings"

	"xtr/internal/element"
)

// Filter selects test classes by type name pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// Match reports whether typeName matches pattern. Patterns are matched
// against both the full and the short type name and support * and ?
// wildcards, e.g. "*Calculator*" or "Foo.Tests.*". A pattern without
// wildcards matches any type name containing it.
func (f *Filter) Match(typeName element.TypeName, pattern string) bool {
	if pattern == "" {
		return true
	}

	full, short := typeName.FullName(), typeName.ShortName()
	if !strings.ContainsAny(pattern, "*?") {
		return strings.Contains(full, pattern)
	}

	for _, name := range []string{full, short} {
		if matched, err := path.Match(pattern, name); err == nil && matched {
			return true
		}
	}

	// Loose match: the literal parts must appear in order
	rest := full
	hasPart := false
	for _, part := range strings.Split(pattern, "*") {
		if part == "" || strings.Contains(part, "?") {
			continue
		}
		i := strings.Index(rest, part)
		if i < 0 {
			return false
		}
		rest = rest[i+len(part):]
		hasPart = true
	}
	return hasPart
}

// FilterClasses returns the classes whose type name matches pattern
func (f *Filter) FilterClasses(classes []*element.ClassElement, pattern string) []*element.ClassElement {
	if pattern == "" {
		return classes
	}

	var filtered []*element.ClassElement
	for _, c := range classes {
		if f.Match(c.TypeName(), pattern) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
