package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// absentField is the placeholder for nil values and empty strings. Present
// values are always length prefixed, so they can never render as "-".
const absentField = "-"

// defaultKeyDeriver implements KeyDeriver using reflection-based serialization.
// Keys have the shape "<collection>::<xxhash64 hex>" so that every key of a
// collection shares a prefix that can be invalidated in one pass.
type defaultKeyDeriver struct{}

// NewDefaultKeyDeriver creates a new instance of the default key deriver.
func NewDefaultKeyDeriver() KeyDeriver {
	return &defaultKeyDeriver{}
}

// DeriveKey hashes the canonical form of fields and prefixes it with collection.
func (d *defaultKeyDeriver) DeriveKey(collection string, fields ...any) string {
	sum := xxhash.Sum64String(d.Canonical(fields...))
	return collection + KeySeparator + fmt.Sprintf("%016x", sum)
}

// Canonical returns the unhashed form of fields. Each field is rendered as
// "<len>:<text>" and fields are joined with KeySeparator.
func (d *defaultKeyDeriver) Canonical(fields ...any) string {
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = d.serializeValue(field)
	}
	return strings.Join(parts, KeySeparator)
}

// serializeValue handles individual field serialization based on type.
// Numbers and their string form render the same text on purpose: page=1 and
// page="1" select the same result set.
func (d *defaultKeyDeriver) serializeValue(v any) string {
	if v == nil {
		return absentField
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	if rt.Kind() == reflect.Ptr || rt.Kind() == reflect.Interface {
		if rv.IsNil() {
			return absentField
		}
		return d.serializeValue(rv.Elem().Interface())
	}

	if s, ok := v.(fmt.Stringer); ok {
		return d.text(s.String())
	}

	switch rt.Kind() {
	case reflect.String:
		return d.text(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return absentField
		}
		return d.serializeList(rv)
	}

	if d.isBasicType(rt.Kind()) {
		return d.text(fmt.Sprintf("%v", v))
	}

	return d.jsonFallback(v)
}

func (d *defaultKeyDeriver) serializeList(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		parts[i] = d.serializeValue(rv.Index(i).Interface())
	}
	return fmt.Sprintf("list[%d]:{%s}", len(parts), strings.Join(parts, ","))
}

// text length-prefixes s; the empty string is treated as absent.
func (d *defaultKeyDeriver) text(s string) string {
	if s == "" {
		return absentField
	}
	return strconv.Itoa(len(s)) + ":" + s
}

// isBasicType checks if a kind represents a basic Go type
func (d *defaultKeyDeriver) isBasicType(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// jsonFallback provides JSON serialization as a last resort
func (d *defaultKeyDeriver) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return d.text(fmt.Sprintf("%T:%#v", v, v))
	}
	return d.text("json:" + string(data))
}
