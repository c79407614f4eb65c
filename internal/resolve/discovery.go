// Package resolve implements the C9 filter resolver: three-tier
// discovery, command matching, and variant resolution (spec.md §4.9).
package resolve

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Fuabioo/tokf/internal/filterdef"
)

func readFileQuiet(p string) ([]byte, error) {
	return os.ReadFile(p)
}

// Source identifies which discovery tier an Entry came from, in
// priority order (spec.md §4.9: "first source in which a name exists
// wins").
type Source int

const (
	SourceProject Source = iota
	SourceUser
	SourceBuiltin
)

func (s Source) String() string {
	switch s {
	case SourceProject:
		return "project"
	case SourceUser:
		return "user"
	case SourceBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Entry is one discovered filter.
type Entry struct {
	Name   string
	Path   string
	Source Source
	Def    *filterdef.Definition
}

// Index is the resolved, deduplicated set of discovered filters, kept
// in tie-break order: source priority, then lexicographic path order
// within a source (spec.md §4.9).
type Index struct {
	byName  map[string]*Entry
	ordered []*Entry
	Errors  []error
}

// Lookup resolves a filter by its discovery name.
func (idx *Index) Lookup(name string) (*Entry, bool) {
	e, ok := idx.byName[name]
	return e, ok
}

// Ordered returns every discovered entry in tie-break order: source
// priority, then lexicographic path order within a source.
func (idx *Index) Ordered() []*Entry {
	return idx.ordered
}

// Root is one discovery source: a directory on disk, or the SubRoot
// directory of an embedded fs.FS (for the builtin tier).
type Root struct {
	Source  Source
	Dir     string // filesystem directory; empty when FS is set
	FS      fs.FS  // embedded builtin library; nil for disk roots
	SubRoot string // path within FS holding the filters (e.g. "data")
}

// BuildIndex walks each root in priority order, parsing every *.toml
// file it finds. The first root in which a given name appears wins;
// later occurrences of the same name are ignored (spec.md §4.9).
// Parse and I/O failures are recorded as diagnostics rather than
// aborting discovery (spec.md §7).
func BuildIndex(roots []Root) *Index {
	idx := &Index{byName: make(map[string]*Entry)}

	for _, root := range roots {
		var files []fileRef
		var err error
		if root.FS != nil {
			files, err = walkFS(root.FS, root.SubRoot)
		} else {
			files, err = walkDisk(root.Dir)
		}
		if err != nil {
			idx.Errors = append(idx.Errors, err)
			continue
		}
		sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })

		for _, f := range files {
			if _, exists := idx.byName[f.name]; exists {
				continue
			}
			def, perr := filterdef.Parse(f.path, f.name, f.raw)
			if perr != nil {
				idx.Errors = append(idx.Errors, perr)
				continue
			}
			entry := &Entry{Name: f.name, Path: f.path, Source: root.Source, Def: def}
			idx.byName[f.name] = entry
			idx.ordered = append(idx.ordered, entry)
		}
	}

	return idx
}

type fileRef struct {
	name string
	path string
	raw  []byte
}

func walkDisk(dir string) ([]fileRef, error) {
	var out []fileRef
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d == nil {
				return nil // root itself missing: not an error, just empty tier
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(p, ".toml") {
			return nil
		}
		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return nil
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ".toml")
		raw, readErr := readFileQuiet(p)
		if readErr != nil {
			return nil
		}
		out = append(out, fileRef{name: name, path: p, raw: raw})
		return nil
	})
	if err != nil {
		return nil, nil // missing root directory is not an error
	}
	return out, nil
}

func walkFS(fsys fs.FS, sub string) ([]fileRef, error) {
	var out []fileRef
	err := fs.WalkDir(fsys, sub, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(p, ".toml") {
			return nil
		}
		rel := strings.TrimPrefix(p, sub+"/")
		name := strings.TrimSuffix(path.Clean(rel), ".toml")
		raw, readErr := fs.ReadFile(fsys, p)
		if readErr != nil {
			return nil
		}
		out = append(out, fileRef{name: name, path: p, raw: raw})
		return nil
	})
	return out, err
}
