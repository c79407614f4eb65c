package tmpl

import "strconv"

// Kind identifies the dynamic type carried by a Value.
type Kind int

const (
	KindStr Kind = iota
	KindInt
	KindCollection
	KindStructured
)

// Item is one entry of a StructuredCollection: a named-field scalar map,
// as produced by chunk extraction (spec.md §4.4).
type Item map[string]any

// Value is a template-engine value: Str, Int, Collection (list of
// string) or StructuredCollection (list of field-map), per spec.md §4.1.
type Value struct {
	Kind       Kind
	Str        string
	Int        int64
	Collection []string
	Structured []Item
}

// Str builds a string Value.
func StrValue(s string) Value { return Value{Kind: KindStr, Str: s} }

// IntValue builds an integer Value.
func IntValue(n int64) Value { return Value{Kind: KindInt, Int: n} }

// CollectionValue builds a Collection Value.
func CollectionValue(items []string) Value {
	return Value{Kind: KindCollection, Collection: items}
}

// StructuredValue builds a StructuredCollection Value.
func StructuredValue(items []Item) Value {
	return Value{Kind: KindStructured, Structured: items}
}

// Count returns the item count of a collection-like Value, or 0 for a
// scalar. Used by the `var.count` built-in form.
func (v Value) Count() int64 {
	switch v.Kind {
	case KindCollection:
		return int64(len(v.Collection))
	case KindStructured:
		return int64(len(v.Structured))
	default:
		return 0
	}
}

// AsString renders a Value in its default string form: Str and Int
// render directly, Collection and Structured join their entries with
// ", " (a bare reference to a collection is rare — callers needing
// control over separator or fields use `join`/`each`).
func (v Value) AsString() string {
	switch v.Kind {
	case KindStr:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindCollection:
		return joinStrings(v.Collection, ", ")
	case KindStructured:
		var parts []string
		for _, it := range v.Structured {
			parts = append(parts, itemDefaultString(it))
		}
		return joinStrings(parts, ", ")
	}
	return ""
}

func itemDefaultString(it Item) string {
	// Deterministic default rendering: prefer a "name" or "value" field,
	// else empty. Callers that need specific fields use `each`.
	if v, ok := it["value"]; ok {
		return scalarToString(v)
	}
	if v, ok := it["name"]; ok {
		return scalarToString(v)
	}
	return ""
}

func scalarToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func joinStrings(items []string, sep string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += sep
		}
		out += s
	}
	return out
}
