package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// defaultKeySerializer namespaces keys by a snake_case method name followed by
// one segment per argument. Strings are lowercased and trimmed so "Stocks"
// and " stocks " share a key.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a cache key from method name and args.
func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, toSnake(method))

	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}

	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	switch val := v.(type) {
	case string:
		return normalizeSegment(val)
	case fmt.Stringer:
		return normalizeSegment(val.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "slice:nil"
		}
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = s.serializeValue(rv.Index(i).Interface())
		}
		return "[" + strings.Join(items, ",") + "]"

	case reflect.Map:
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, s.serializeValue(iter.Key().Interface())+"="+s.serializeValue(iter.Value().Interface()))
		}
		sort.Strings(pairs)
		return "{" + strings.Join(pairs, ",") + "}"

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%v", v)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "type:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}

func normalizeSegment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "_"
	}
	// the separator must not appear inside a segment
	return strings.ReplaceAll(s, KeySeparator, ":")
}
