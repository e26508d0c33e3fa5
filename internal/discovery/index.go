package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"xtr/internal/disposition"
	"xtr/internal/element"
)

type indexedFile struct {
	modTime time.Time
	ids     []element.Identity
}

// Index keeps the declarations found by the parser and serves them to the
// disposition resolver. A declaration goes stale as soon as its file changes
// on disk after it was indexed.
type Index struct {
	mu    sync.RWMutex
	decls map[element.Identity][]disposition.Declaration
	files map[string]indexedFile
}

// NewIndex creates an empty Index
func NewIndex() *Index {
	return &Index{
		decls: make(map[element.Identity][]disposition.Declaration),
		files: make(map[string]indexedFile),
	}
}

// Add indexes the declarations of file for assembly, replacing whatever was
// indexed for the same path before.
func (x *Index) Add(assembly string, file *SourceFile, modTime time.Time) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.forget(file.Path)

	entry := indexedFile{modTime: modTime}
	put := func(id element.Identity, name, full element.TextRange) {
		x.decls[id] = append(x.decls[id], disposition.Declaration{
			Identity:  id,
			File:      file.Path,
			NameRange: name,
			FullRange: full,
		})
		entry.ids = append(entry.ids, id)
	}
	for _, t := range file.Types {
		put(element.ClassIdentity(assembly, t.TypeName), t.NameRange, t.FullRange)
		for _, m := range t.Methods {
			put(element.MethodIdentity(assembly, t.TypeName, m.Name), m.NameRange, m.FullRange)
		}
	}
	x.files[file.Path] = entry
}

// Forget drops every declaration indexed from path
func (x *Index) Forget(path string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.forget(path)
}

func (x *Index) forget(path string) {
	entry, ok := x.files[path]
	if !ok {
		return
	}
	for _, id := range entry.ids {
		kept := x.decls[id][:0]
		for _, d := range x.decls[id] {
			if d.File != path {
				kept = append(kept, d)
			}
		}
		if len(kept) == 0 {
			delete(x.decls, id)
		} else {
			x.decls[id] = kept
		}
	}
	delete(x.files, path)
}

// FindDeclarations implements disposition.Indexer
func (x *Index) FindDeclarations(id element.Identity) []disposition.Declaration {
	x.mu.RLock()
	defer x.mu.RUnlock()

	found := x.decls[id]
	if len(found) == 0 {
		return nil
	}
	out := make([]disposition.Declaration, len(found))
	copy(out, found)
	for i := range out {
		out[i].Stale = x.changed(out[i].File)
	}
	return out
}

// SourceFiles implements disposition.Indexer
func (x *Index) SourceFiles(decl disposition.Declaration) []string {
	if decl.File == "" {
		return nil
	}
	return []string{decl.File}
}

// Paths returns the indexed file paths below dir
func (x *Index) Paths(dir string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	prefix := filepath.Clean(dir) + string(filepath.Separator)
	var out []string
	for path := range x.files {
		if strings.HasPrefix(path, prefix) {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// Files returns the number of indexed files
func (x *Index) Files() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.files)
}

func (x *Index) changed(path string) bool {
	entry, ok := x.files[path]
	if !ok {
		return true
	}
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return !info.ModTime().Equal(entry.modTime)
}
