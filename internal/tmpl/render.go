package tmpl

import (
	"strconv"
	"strings"

	"github.com/Fuabioo/tokf/internal/regexcache"
)

// Resolver supplies the bound Value for a template variable name.
// Unknown variables render as empty string (spec.md §7: "runtime
// template errors ... render as empty string; never abort").
type Resolver interface {
	Lookup(name string) (Value, bool)
}

// MapResolver is the common in-memory Resolver backed by a map.
type MapResolver map[string]Value

func (m MapResolver) Lookup(name string) (Value, bool) {
	v, ok := m[name]
	return v, ok
}

// Render executes t against r using cache for any pipe that compiles a
// regex (`keep`/`where`). It never returns an error: invalid pipe
// arguments degrade per spec.md §4.1/§7 rather than aborting.
func Render(t *Template, r Resolver, cache *regexcache.Cache) string {
	var b strings.Builder
	for _, n := range t.nodes {
		if !n.isPH {
			b.WriteString(n.literal)
			continue
		}
		b.WriteString(renderPlaceholder(n.ph, r, cache))
	}
	return b.String()
}

func renderPlaceholder(ph *placeholder, r Resolver, cache *regexcache.Cache) string {
	v, ok := r.Lookup(ph.varName)
	if !ok {
		return ""
	}
	if ph.countForm {
		return strconv.FormatInt(v.Count(), 10)
	}
	for _, p := range ph.pipes {
		v = applyPipe(p, v, cache)
	}
	return v.AsString()
}

// applyPipe is the single dispatch function keyed by pipe name
// (design notes §9: "tagged variants with a single dispatch function").
func applyPipe(p pipeCall, in Value, cache *regexcache.Cache) Value {
	switch p.name {
	case "lines":
		return pipeLines(in)
	case "join":
		return pipeJoin(in, p.arg)
	case "each":
		return pipeEach(in, p.arg, cache)
	case "keep", "where":
		return pipeKeep(in, p.arg, cache)
	case "truncate":
		return pipeTruncate(in, p.arg)
	default:
		return in
	}
}

func pipeLines(in Value) Value {
	if in.Kind != KindStr {
		return in
	}
	lines := strings.Split(in.Str, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return CollectionValue(lines)
}

func pipeJoin(in Value, sep string) Value {
	switch in.Kind {
	case KindCollection:
		return StrValue(strings.Join(in.Collection, sep))
	case KindStructured:
		parts := make([]string, len(in.Structured))
		for i, it := range in.Structured {
			parts[i] = itemDefaultString(it)
		}
		return StrValue(strings.Join(parts, sep))
	default:
		return StrValue(in.AsString())
	}
}

func pipeEach(in Value, sub string, cache *regexcache.Cache) Value {
	subTmpl, err := Parse(sub)
	if err != nil {
		return CollectionValue(nil)
	}
	var out []string
	switch in.Kind {
	case KindCollection:
		for i, s := range in.Collection {
			scope := MapResolver{
				"value": StrValue(s),
				"index": IntValue(int64(i + 1)),
			}
			out = append(out, Render(subTmpl, scope, cache))
		}
	case KindStructured:
		for i, it := range in.Structured {
			scope := MapResolver{
				"index": IntValue(int64(i + 1)),
			}
			scope["value"] = StrValue(itemDefaultString(it))
			for k, val := range it {
				scope[k] = scalarToValue(val)
			}
			out = append(out, Render(subTmpl, scope, cache))
		}
	default:
		return CollectionValue(nil)
	}
	return CollectionValue(out)
}

func scalarToValue(v any) Value {
	switch t := v.(type) {
	case string:
		return StrValue(t)
	case int:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	default:
		return StrValue("")
	}
}

func pipeKeep(in Value, pattern string, cache *regexcache.Cache) Value {
	if in.Kind != KindCollection {
		return CollectionValue(nil)
	}
	re := cache.MustCompile(pattern)
	if re == nil {
		return CollectionValue(nil)
	}
	var out []string
	for _, s := range in.Collection {
		if re.MatchString(s) {
			out = append(out, s)
		}
	}
	return CollectionValue(out)
}

func pipeTruncate(in Value, arg string) Value {
	if in.Kind != KindStr {
		return in
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return in
	}
	if len(in.Str) <= n {
		return in
	}
	return StrValue(in.Str[:n] + "…")
}
