package domain

import (
	"reflect"
)

// IsScalar reports whether v is a literal leaf: nil, a boolean, a number or a string.
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// AsNumber converts any Go numeric kind to float64.
func AsNumber(v any) (float64, bool) {
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

// Sequence returns the elements of a slice or array Value.
func Sequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case nil, string:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Mapping returns the entries of a mapping Value.
// *Args keep their insertion order; Go maps are read in sorted key order.
func Mapping(v any) (*Args, bool) {
	switch m := v.(type) {
	case *Args:
		return m, true
	case map[string]any:
		return ArgsFromMap(m), true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	plain := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		plain[iter.Key().String()] = iter.Value().Interface()
	}
	return ArgsFromMap(plain), true
}

// ContainerKey identifies one view of a reference-typed container. Two slices sharing
// a backing array are the same view only when they also have the same length.
type ContainerKey struct {
	ptr uintptr
	len int
	typ reflect.Type
}

// ContainerIdentity returns a stable identity for reference-typed containers
// (maps, slices, *Args), used to detect self-containing values. ok is false for
// values that cannot form a cycle on their own.
func ContainerIdentity(v any) (key ContainerKey, ok bool) {
	if a, isArgs := v.(*Args); isArgs {
		if a == nil {
			return ContainerKey{}, false
		}
		return ContainerKey{ptr: reflect.ValueOf(a).Pointer(), typ: reflect.TypeOf(a)}, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return ContainerKey{}, false
		}
		return ContainerKey{ptr: rv.Pointer(), typ: rv.Type()}, true
	case reflect.Slice:
		if rv.Len() == 0 {
			return ContainerKey{}, false
		}
		return ContainerKey{ptr: rv.Pointer(), len: rv.Len(), typ: rv.Type()}, true
	}
	return ContainerKey{}, false
}

// ContainsGraph reports whether v holds a Node, VariableRef or LambdaRef anywhere inside it.
// Values without any are pure literals and can be emitted as a single constant.
func ContainsGraph(v any) bool {
	return containsGraph(v, map[ContainerKey]bool{})
}

func containsGraph(v any, seen map[ContainerKey]bool) bool {
	switch v.(type) {
	case *Node, VariableRef, *LambdaRef:
		return true
	}
	if IsScalar(v) {
		return false
	}
	if id, ok := ContainerIdentity(v); ok {
		if seen[id] {
			// A self-containing literal; the encoder reports the cycle.
			return true
		}
		seen[id] = true
		defer delete(seen, id)
	}
	if seq, ok := Sequence(v); ok {
		for _, e := range seq {
			if containsGraph(e, seen) {
				return true
			}
		}
		return false
	}
	if m, ok := Mapping(v); ok {
		for _, e := range m.All() {
			if containsGraph(e, seen) {
				return true
			}
		}
	}
	return false
}
