package values

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Map is the working draft of a record being edited: field key to current
// value. It is mutated incrementally as the user edits individual fields and
// is what validators, visibility predicates, and transforms receive.
type Map map[string]any

// Clone returns a shallow copy. Values are shared; the engine only ever
// replaces entries wholesale, so a key-level copy is enough to isolate
// snapshots from later edits.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equal reports whether two maps hold the same keys with equal values. The
// comparison is shallow by key and deep by value (reflect.DeepEqual), which
// lets the form container skip committing a referentially new but value-equal
// map arriving from an external source.
func Equal(a, b Map) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(av, bv) {
			return false
		}
	}
	return true
}

// Same reports whether two single field values are equal, the per-field
// counterpart of Equal.
func Same(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Merge overlays src onto dst, returning dst. Keys absent from src are left
// untouched so partial records (for example a load-by-id response) only
// override what they carry.
func Merge(dst, src Map) Map {
	if dst == nil {
		dst = make(Map, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// IsEmpty reports whether a single field value counts as "not provided" for
// required-ness checks: nil, empty string, or an empty slice/array/map.
// Zero numbers and false booleans are real values and are not empty.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch typed := v.(type) {
	case string:
		return typed == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Decode copies the map into a typed record struct using weakly typed
// conversion, so "5" fills an int field and 1 fills a bool. Struct tags use
// the `form` key, falling back to the field name.
func (m Map) Decode(record any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           record,
		TagName:          "form",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("values: new decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(m)); err != nil {
		return fmt.Errorf("values: decode record: %w", err)
	}
	return nil
}

// FromRecord flattens a typed record struct into a Map, the inverse of
// Decode. Useful when a screen already holds a typed row and wants to seed
// the form with it.
func FromRecord(record any) (Map, error) {
	out := make(map[string]any)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "form",
	})
	if err != nil {
		return nil, fmt.Errorf("values: new encoder: %w", err)
	}
	if err := decoder.Decode(record); err != nil {
		return nil, fmt.Errorf("values: encode record: %w", err)
	}
	return Map(out), nil
}
