package resolve

import (
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Resolver owns the discovered Index and serializes concurrent
// rebuilds behind a singleflight.Group so that overlapping
// invocations (e.g. a long-lived daemon, or parallel tests) never
// duplicate a discovery walk (spec.md §5: the discovery cache's
// "concurrent writers are last-writer-wins and safe" guarantee
// extends naturally to in-process callers sharing one Resolver).
type Resolver struct {
	roots []Root
	group singleflight.Group
	idx   *Index
}

// New builds a Resolver over the given discovery roots, in priority
// order (spec.md §4.9).
func New(roots []Root) *Resolver {
	return &Resolver{roots: roots}
}

// Index returns the current index, building it on first use (or after
// Invalidate) and deduplicating concurrent builders.
func (r *Resolver) Index() *Index {
	if r.idx != nil {
		return r.idx
	}
	v, _, _ := r.group.Do("index", func() (interface{}, error) {
		if r.idx != nil {
			return r.idx, nil
		}
		idx := BuildIndex(r.roots)
		r.idx = idx
		return idx, nil
	})
	return v.(*Index)
}

// Invalidate forces the next Index call to rebuild.
func (r *Resolver) Invalidate() {
	r.idx = nil
}

// ResolveCommand runs the full §4.9 resolution: command matching
// followed by pre-execution variant resolution. cwd is used for
// detect.files checks. visited guards against a variant chain that
// cycles back to an already-visited filter name.
func (r *Resolver) ResolveCommand(argv []string, cwd string) (*Match, bool) {
	idx := r.Index()
	m, ok := Resolve(argv, idx)
	if !ok {
		return nil, false
	}

	visited := map[string]bool{m.Entry.Name: true}
	for {
		child, changed := ResolveVariant(m.Entry, cwd, idx)
		if !changed {
			break
		}
		if visited[child.Name] {
			break // cycle guard: stop at the first repeat (spec.md §9)
		}
		visited[child.Name] = true
		m.Entry = child
		m.PreVariantApplied = true
	}
	return m, true
}

// ResolveOutputVariant applies the §4.9 post-execution fallback when
// no pre-execution variant fired.
func (r *Resolver) ResolveOutputVariant(entry *Entry, raw string) *Entry {
	idx := r.Index()
	visited := map[string]bool{entry.Name: true}
	cur := entry
	for {
		child, changed := ResolveVariantOutput(cur, raw, idx)
		if !changed || visited[child.Name] {
			return cur
		}
		visited[child.Name] = true
		cur = child
	}
}

// Err renders discovery-time diagnostics as a single error, or nil if
// discovery produced none (spec.md §7).
func (r *Resolver) Err() error {
	idx := r.Index()
	if len(idx.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("resolve: %d discovery error(s), first: %w", len(idx.Errors), idx.Errors[0])
}
