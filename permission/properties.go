package permission

import "strings"

// PathSeparator splits a property path into segments.
const PathSeparator = "."

// Well-known property keys.
const (
	PropertyFields  = "fields"
	PropertyLocales = "locales"
)

// Properties holds the qualifiers of a permission: the optional "fields" and
// "locales" lists plus any extra, possibly nested, entries.
type Properties map[string]any

// Fields returns the "fields" list, or nil when absent.
func (p Properties) Fields() []string { return p.stringList(PropertyFields) }

// Locales returns the "locales" list, or nil when absent.
func (p Properties) Locales() []string { return p.stringList(PropertyLocales) }

func (p Properties) stringList(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Clone returns a deep copy of p. Nil stays nil.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	return Properties(cloneMap(p))
}

// Get walks a dotted path. Any absent or non-map segment yields (nil, false).
func (p Properties) Get(path string) (any, bool) {
	keys := splitPath(path)
	if len(keys) == 0 {
		return nil, false
	}
	var cur any = map[string]any(p)
	for _, k := range keys {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set returns a copy of p with path set to value. Missing or non-map
// intermediate segments are replaced by fresh maps.
func (p Properties) Set(path string, value any) Properties {
	out := p.Clone()
	if out == nil {
		out = Properties{}
	}
	keys := splitPath(path)
	if len(keys) == 0 {
		return out
	}
	m := map[string]any(out)
	for _, k := range keys[:len(keys)-1] {
		next, ok := asMap(m[k])
		if !ok {
			next = map[string]any{}
			m[k] = next
		}
		m = next
	}
	m[keys[len(keys)-1]] = value
	return out
}

// Delete returns a copy of p without path. An absent path is a no-op.
func (p Properties) Delete(path string) Properties {
	out := p.Clone()
	keys := splitPath(path)
	if out == nil || len(keys) == 0 {
		return out
	}
	m := map[string]any(out)
	for _, k := range keys[:len(keys)-1] {
		next, ok := asMap(m[k])
		if !ok {
			return out
		}
		m = next
	}
	delete(m, keys[len(keys)-1])
	return out
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case Properties:
		return map[string]any(m), m != nil
	default:
		return nil, false
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Properties:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
