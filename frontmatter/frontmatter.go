// Package frontmatter encodes and decodes the delimited metadata header
// prefixed to a Markdown document body.
//
// The header sits between two "---" marker lines. Each header line is
// "key: value" where a value is one of three kinds: a double-quoted string,
// an unquoted true/false boolean, or a bracketed list of quoted strings.
// That subset round-trips exactly; anything richer is out of scope.
package frontmatter

import (
	"strings"
)

// Marker is the header delimiter line.
const Marker = "---"

// Kind discriminates the supported value types.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindStringArray
)

// Value is a tagged frontmatter value: a string, a boolean, or an ordered
// array of strings.
type Value struct {
	kind Kind
	str  string
	b    bool
	arr  []string
}

// String constructs a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// StringArray constructs a string-array Value. The element order is
// preserved on round-trip.
func StringArray(vs []string) Value { return Value{kind: KindStringArray, arr: vs} }

// Kind reports which variant the value holds.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string variant's payload, or "" for other kinds.
func (v Value) AsString() string { return v.str }

// AsBool returns the boolean variant's payload, or false for other kinds.
func (v Value) AsBool() bool { return v.b }

// AsStringArray returns the array variant's payload, or nil for other kinds.
func (v Value) AsStringArray() []string { return v.arr }

// Metadata is an insertion-ordered set of key/value pairs. Encoding emits
// header lines in the order keys were first set.
type Metadata struct {
	keys   []string
	values map[string]Value
}

// NewMetadata returns an empty Metadata.
func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string]Value)}
}

// Set stores a value under key, preserving the position of an existing key.
func (m *Metadata) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value for key and whether it is present.
func (m *Metadata) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	return m.keys
}

// Len returns the number of keys.
func (m *Metadata) Len() int { return len(m.keys) }

// Decode splits text into metadata and body. When no header is present the
// whole input becomes the body with empty metadata; Decode never fails.
func Decode(text string) (*Metadata, string) {
	meta := NewMetadata()

	rest, ok := strings.CutPrefix(text, Marker+"\n")
	if !ok {
		return meta, text
	}
	header, body, ok := strings.Cut(rest, "\n"+Marker+"\n")
	if !ok {
		return meta, text
	}

	for _, line := range strings.Split(header, "\n") {
		key, raw, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		meta.Set(strings.TrimSpace(key), parseValue(strings.TrimSpace(raw)))
	}
	return meta, strings.TrimSpace(body)
}

// parseValue interprets a raw header value positionally: brackets mean a
// string array, bare true/false a boolean, matching quotes a quoted string,
// anything else a raw string.
func parseValue(raw string) Value {
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		inner := strings.TrimSpace(raw[1 : len(raw)-1])
		if inner == "" {
			return StringArray([]string{})
		}
		parts := strings.Split(inner, ",")
		out := make([]string, len(parts))
		for i, p := range parts {
			out[i] = stripQuotes(strings.TrimSpace(p))
		}
		return StringArray(out)
	}
	switch raw {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if len(raw) >= 2 {
		if (raw[0] == '"' && raw[len(raw)-1] == '"') ||
			(raw[0] == '\'' && raw[len(raw)-1] == '\'') {
			return String(raw[1 : len(raw)-1])
		}
	}
	return String(raw)
}

// stripQuotes removes one leading and one trailing quote character of either
// style, independently, matching how array elements are cleaned.
func stripQuotes(s string) string {
	if len(s) > 0 && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if len(s) > 0 && (s[len(s)-1] == '"' || s[len(s)-1] == '\'') {
		s = s[:len(s)-1]
	}
	return s
}

// Encode renders metadata and body back into a single document. Arrays are
// bracketed with double-quoted elements, booleans are written bare, and all
// other scalars are double-quoted. Header lines follow the metadata's key
// order.
func Encode(meta *Metadata, body string) string {
	var b strings.Builder
	b.WriteString(Marker + "\n")
	for _, key := range meta.Keys() {
		v, _ := meta.Get(key)
		b.WriteString(key)
		b.WriteString(": ")
		switch v.Kind() {
		case KindStringArray:
			b.WriteString("[")
			for i, el := range v.AsStringArray() {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(`"` + el + `"`)
			}
			b.WriteString("]")
		case KindBool:
			if v.AsBool() {
				b.WriteString("true")
			} else {
				b.WriteString("false")
			}
		default:
			b.WriteString(`"` + v.AsString() + `"`)
		}
		b.WriteString("\n")
	}
	b.WriteString(Marker + "\n\n")
	b.WriteString(body)
	return b.String()
}
