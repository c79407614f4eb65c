package extract

import (
	"strconv"

	"github.com/Fuabioo/tokf/internal/aggregate"
	"github.com/Fuabioo/tokf/internal/filterdef"
	"github.com/Fuabioo/tokf/internal/regexcache"
	"github.com/Fuabioo/tokf/internal/tmpl"
)

// AllChunks runs every chunk definition over the raw cleaned lines and
// returns each one's resulting collection keyed by collect_as
// (spec.md §4.4).
func AllChunks(lines []string, defs []filterdef.ChunkDef, cache *regexcache.Cache) map[string][]tmpl.Item {
	out := make(map[string][]tmpl.Item, len(defs))
	for _, def := range defs {
		out[def.CollectAs] = Chunks(lines, def, cache)
	}
	return out
}

type rawChunk struct {
	header string
	body   []string
}

// splitChunks partitions lines into chunks on header lines matching
// def.SplitOn. Lines preceding the first header belong to no chunk and
// are dropped (spec.md §4.4).
func splitChunks(lines []string, def filterdef.ChunkDef, cache *regexcache.Cache) []rawChunk {
	re := cache.MustCompile(def.SplitOn)
	if re == nil {
		return nil
	}
	includeHeader := def.IncludeHeader()

	var chunks []rawChunk
	curIdx := -1
	for _, line := range lines {
		if re.MatchString(line) {
			chunks = append(chunks, rawChunk{header: line})
			curIdx = len(chunks) - 1
			if includeHeader {
				chunks[curIdx].body = append(chunks[curIdx].body, line)
			}
			continue
		}
		if curIdx < 0 {
			continue
		}
		chunks[curIdx].body = append(chunks[curIdx].body, line)
	}
	return chunks
}

// Chunks runs one chunk definition, producing one tmpl.Item per raw
// chunk (merged with extract, body_extract, and aggregate fields,
// in that precedence order), then applies group_by if configured.
func Chunks(lines []string, def filterdef.ChunkDef, cache *regexcache.Cache) []tmpl.Item {
	raws := splitChunks(lines, def, cache)
	items := make([]tmpl.Item, 0, len(raws))

	var prev tmpl.Item
	for _, rc := range raws {
		item := tmpl.Item{}
		for k, v := range runExtract(rc.header, def.Extract, prev, cache) {
			item[k] = v
		}
		for k, v := range runBodyExtract(rc.body, def.BodyExtract, prev, cache) {
			item[k] = v
		}
		for k, v := range runChunkAggregate(rc.body, def.Aggregate, cache) {
			item[k] = v
		}
		items = append(items, item)
		prev = item
	}

	if def.GroupBy != "" {
		items = groupBy(items, def.GroupBy, def.ChildrenAs)
	}
	return items
}

// runExtract matches each rule's pattern against the chunk's header
// line, falling back to the previous chunk's value when carry_forward
// is set and the pattern doesn't match (spec.md §4.4).
func runExtract(header string, rules []filterdef.ExtractRule, prev tmpl.Item, cache *regexcache.Cache) tmpl.Item {
	item := tmpl.Item{}
	for _, rule := range rules {
		if v, ok := matchFirst(header, rule.Pattern, cache); ok {
			item[rule.As] = v
			continue
		}
		if rule.CarryForward && prev != nil {
			if v, ok := prev[rule.As]; ok {
				item[rule.As] = v
			}
		}
	}
	return item
}

// runBodyExtract matches each rule's pattern against the chunk's body
// lines in order, taking the first match (spec.md §4.4: "first match
// wins"). carry_forward behaves as in runExtract.
func runBodyExtract(body []string, rules []filterdef.ExtractRule, prev tmpl.Item, cache *regexcache.Cache) tmpl.Item {
	item := tmpl.Item{}
	for _, rule := range rules {
		re := cache.MustCompile(rule.Pattern)
		found := false
		if re != nil {
			for _, line := range body {
				if m := re.FindStringSubmatch(line); m != nil {
					item[rule.As] = submatchOrWhole(m)
					found = true
					break
				}
			}
		}
		if !found && rule.CarryForward && prev != nil {
			if v, ok := prev[rule.As]; ok {
				item[rule.As] = v
			}
		}
	}
	return item
}

func matchFirst(s, pattern string, cache *regexcache.Cache) (string, bool) {
	re := cache.MustCompile(pattern)
	if re == nil {
		return "", false
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return submatchOrWhole(m), true
}

func submatchOrWhole(m []string) string {
	if len(m) > 1 {
		return m[1]
	}
	return m[0]
}

// runChunkAggregate applies §4.5 aggregation over one chunk's body
// lines (spec.md §4.4: "same semantics as §4.5, scoped to the chunk").
func runChunkAggregate(body []string, rules []filterdef.AggregateRule, cache *regexcache.Cache) tmpl.Item {
	item := tmpl.Item{}
	for _, rule := range rules {
		sum, count := aggregate.Run(body, rule, cache)
		if rule.Sum != "" {
			item[rule.Sum] = sum
		}
		if rule.CountAs != "" {
			item[rule.CountAs] = count
		}
	}
	return item
}

// groupBy merges chunk items sharing the same value for field,
// summing numeric fields across the group and keeping the first
// chunk's value for non-numeric fields. When childrenAs is set, the
// original per-chunk items are preserved under that key (spec.md
// §4.4).
func groupBy(items []tmpl.Item, field, childrenAs string) []tmpl.Item {
	var order []string
	groups := map[string][]tmpl.Item{}
	for _, it := range items {
		key := scalarKey(it[field])
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], it)
	}

	out := make([]tmpl.Item, 0, len(order))
	for _, key := range order {
		group := groups[key]
		merged := mergeGroup(group)
		if childrenAs != "" {
			merged[childrenAs] = group
		}
		out = append(out, merged)
	}
	return out
}

func scalarKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func mergeGroup(group []tmpl.Item) tmpl.Item {
	merged := tmpl.Item{}
	for _, it := range group {
		for k, v := range it {
			existing, ok := merged[k]
			if !ok {
				merged[k] = v
				continue
			}
			en, eok := toInt64(existing)
			vn, vok := toInt64(v)
			if eok && vok {
				merged[k] = en + vn
			}
		}
	}
	return merged
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	default:
		return 0, false
	}
}
