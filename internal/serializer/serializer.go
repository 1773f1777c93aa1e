// Package serializer provides payload-to-wire-bytes encoding for replies.
//
// The default serializer is plain JSON. Individual replies may install a
// custom Func to take over encoding for that reply only. Error bodies go
// through SafeMarshal, which never fails: a response that is already on the
// error path must not be able to fail again while describing the failure.
package serializer

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Func encodes a payload into wire bytes for the given status code.
// Implementations must not fail on any JSON-serializable input.
type Func func(payload any, statusCode int) ([]byte, error)

// JSON returns the default JSON serializer.
func JSON() Func {
	return func(payload any, _ int) ([]byte, error) {
		return json.Marshal(payload)
	}
}

// maxDepth bounds the decycle walk for pathological nesting.
const maxDepth = 64

// circularMarker replaces values that refer back to themselves.
const circularMarker = "[Circular]"

// SafeMarshal encodes v as JSON and never fails. Values that defeat
// encoding/json (self-referential maps or pointers, funcs, channels) are
// replaced in place with degraded string markers rather than aborting the
// whole body.
func SafeMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err == nil {
		return b
	}

	b, err = json.Marshal(decycle(reflect.ValueOf(v), make(map[uintptr]struct{}), 0))
	if err == nil {
		return b
	}

	// Last resort: a body describing the failure, built without reflection.
	out, _ := json.Marshal(map[string]string{
		"error": fmt.Sprintf("unserializable value of type %T", v),
	})
	return out
}

// decycle converts v into a plain tree of maps, slices and scalars that
// json.Marshal is guaranteed to accept. seen tracks pointer identities on
// the current path so true cycles collapse to circularMarker while shared
// (acyclic) references are kept.
func decycle(v reflect.Value, seen map[uintptr]struct{}, depth int) any {
	if depth > maxDepth {
		return circularMarker
	}
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return decycle(v.Elem(), seen, depth+1)

	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		ptr := v.Pointer()
		if _, onPath := seen[ptr]; onPath {
			return circularMarker
		}
		seen[ptr] = struct{}{}
		out := decycle(v.Elem(), seen, depth+1)
		delete(seen, ptr)
		return out

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		ptr := v.Pointer()
		if _, onPath := seen[ptr]; onPath {
			return circularMarker
		}
		seen[ptr] = struct{}{}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = decycle(iter.Value(), seen, depth+1)
		}
		delete(seen, ptr)
		return out

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		ptr := v.Pointer()
		if _, onPath := seen[ptr]; onPath {
			return circularMarker
		}
		seen[ptr] = struct{}{}
		out := decycleSeq(v, seen, depth)
		delete(seen, ptr)
		return out

	case reflect.Array:
		return decycleSeq(v, seen, depth)

	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name, omit := jsonFieldName(field)
			if omit {
				continue
			}
			out[name] = decycle(v.Field(i), seen, depth+1)
		}
		return out

	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("[%s]", v.Type())

	default:
		return v.Interface()
	}
}

func decycleSeq(v reflect.Value, seen map[uintptr]struct{}, depth int) []any {
	out := make([]any, v.Len())
	for i := 0; i < v.Len(); i++ {
		out[i] = decycle(v.Index(i), seen, depth+1)
	}
	return out
}

// jsonFieldName resolves the serialized name of a struct field from its
// json tag, matching encoding/json's naming (omitempty and friends are not
// honored here; this path only runs for values json.Marshal already
// rejected).
func jsonFieldName(field reflect.StructField) (name string, omit bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	if tag == "" {
		return field.Name, false
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return field.Name, false
	}
	return tag, false
}
