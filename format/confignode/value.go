// Package confignode reads and writes the generic structured values
// (map / sequence / scalar trees) used for graph persistence and editor
// binding.
//
// Accessors are lenient: a value of the wrong shape yields the supplied
// default instead of an error, so a partially edited document still loads.
package confignode

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// AsMap returns v as a string-keyed map. Maps decoded with non-string keys
// are converted; anything else reports false.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, e := range m {
			out[fmt.Sprint(k)] = e
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, e := range m {
			out[k] = e
		}
		return out, true
	case OrderedMap:
		return m.Map(), true
	}
	return nil, false
}

func IsMap(v any) bool {
	_, ok := AsMap(v)
	return ok
}

// AsSequence returns v as a slice of values.
func AsSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}

// Get returns the value under key, or nil when v is not a map or lacks key.
func Get(v any, key string) any {
	m, ok := AsMap(v)
	if !ok {
		return nil
	}
	return m[key]
}

func AsString(v any, def string) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return def
	}
	if f, ok := number(v); ok {
		return formatNumber(f)
	}
	return def
}

func AsInt(v any, def int) int {
	if s, ok := v.(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return def
		}
		return n
	}
	f, ok := number(v)
	if !ok {
		return def
	}
	return int(f)
}

func AsFloat(v any, def float64) float64 {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return def
		}
		return f
	}
	f, ok := number(v)
	if !ok {
		return def
	}
	return f
}

func AsBool(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		p, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return def
		}
		return p
	}
	if f, ok := number(v); ok {
		return f != 0
	}
	return def
}

func AsStringSlice(v any, def []string) []string {
	seq, ok := AsSequence(v)
	if !ok {
		return def
	}
	out := make([]string, 0, len(seq))
	for _, e := range seq {
		out = append(out, AsString(e, ""))
	}
	return out
}

// Number reports v as a float64 when it holds any numeric scalar.
func Number(v any) (float64, bool) { return number(v) }

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// String renders v for logs and debug display. The output is not meant to
// be parsed back.
func String(v any) string {
	var b strings.Builder
	write(&b, v)
	return b.String()
}

func write(b *strings.Builder, v any) {
	if m, ok := AsMap(v); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			writeNested(b, m[k])
		}
		b.WriteByte('}')
		return
	}
	if seq, ok := AsSequence(v); ok {
		for i, e := range seq {
			if i > 0 {
				b.WriteString(", ")
			}
			writeNested(b, e)
		}
		return
	}
	b.WriteString(AsString(v, ""))
}

// writeNested brackets sequences that appear inside another value.
func writeNested(b *strings.Builder, v any) {
	if _, ok := AsSequence(v); ok {
		b.WriteByte('[')
		write(b, v)
		b.WriteByte(']')
		return
	}
	write(b, v)
}

// Clone deep-copies maps and sequences so the result shares no mutable
// state with v. Sequences come back as []any and maps as map[string]any.
func Clone(v any) any {
	if m, ok := AsMap(v); ok {
		return CloneMap(m)
	}
	if seq, ok := AsSequence(v); ok {
		out := make([]any, len(seq))
		for i, e := range seq {
			out[i] = Clone(e)
		}
		return out
	}
	return v
}

// CloneMap deep-copies m. A nil map clones to an empty one.
func CloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = Clone(e)
	}
	return out
}
