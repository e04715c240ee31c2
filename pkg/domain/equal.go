package domain

import (
	"reflect"
	"slices"
)

// Equal reports whether two Values are structurally equivalent.
//
// Nodes compare by function name and deep argument equality, mappings compare
// regardless of key order, and numbers compare by value across Go numeric kinds.
// A nil metadata value is never equal to an empty mapping.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case *Node:
		y, ok := b.(*Node)
		return ok && nodesEqual(x, y)
	case *LambdaRef:
		y, ok := b.(*LambdaRef)
		if !ok || x == nil || y == nil {
			return ok && x == y
		}
		return slices.Equal(x.params, y.params) && Equal(x.body, y.body)
	case VariableRef:
		y, ok := b.(VariableRef)
		return ok && x.Name == y.Name
	}
	switch b.(type) {
	case *Node, *LambdaRef, VariableRef:
		return false
	}

	if IsScalar(a) || IsScalar(b) {
		na, okA := AsNumber(a)
		nb, okB := AsNumber(b)
		if okA && okB {
			return na == nb
		}
		return a == b
	}

	if sa, ok := Sequence(a); ok {
		sb, ok := Sequence(b)
		if !ok || len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !Equal(sa[i], sb[i]) {
				return false
			}
		}
		return true
	}

	if ma, ok := Mapping(a); ok {
		mb, ok := Mapping(b)
		return ok && argsEqual(ma, mb)
	}

	return reflect.DeepEqual(a, b)
}

func nodesEqual(x, y *Node) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil || x.kind != y.kind {
		return false
	}
	switch x.kind {
	case KindConstant:
		return Equal(x.value, y.value)
	case KindVariable:
		return x.varName == y.varName
	}
	return x.fn.Equal(y.fn) && argsEqual(x.args, y.args)
}

func argsEqual(a, b *Args) bool {
	if a.Len() != b.Len() {
		return false
	}
	for k, va := range a.All() {
		vb, ok := b.Get(k)
		if !ok || !Equal(va, vb) {
			return false
		}
	}
	return true
}
