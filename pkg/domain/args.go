package domain

import (
	"iter"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Args is an insertion-ordered mapping from argument name to Value.
// The order in which names are set is the order in which they are serialized.
// A nil *Args behaves as an empty mapping.
type Args struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewArgs creates an empty argument mapping.
func NewArgs() *Args {
	return &Args{m: orderedmap.New[string, any]()}
}

// ArgsFromPairs builds an argument mapping from alternating name/value pairs.
func ArgsFromPairs(pairs ...any) (*Args, error) {
	if len(pairs)%2 != 0 {
		return nil, NewGraphError(ErrMalformedValue, nil, "odd number of name/value pairs (%d)", len(pairs))
	}
	a := NewArgs()
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return nil, NewGraphError(ErrMalformedValue, nil, "argument name at position %d is %T, not string", i, pairs[i])
		}
		a.Set(name, pairs[i+1])
	}
	return a, nil
}

// ArgsFromMap builds an argument mapping from a Go map.
// Go maps carry no order, so names are inserted sorted.
func ArgsFromMap(values map[string]any) *Args {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	a := NewArgs()
	for _, k := range keys {
		a.Set(k, values[k])
	}
	return a
}

// Set assigns a value to a name. Re-setting an existing name keeps its original position.
// It returns the receiver so calls can be chained.
func (a *Args) Set(name string, value any) *Args {
	a.m.Set(name, value)
	return a
}

// Get returns the value stored under name.
func (a *Args) Get(name string) (any, bool) {
	if a == nil {
		return nil, false
	}
	return a.m.Get(name)
}

// Has reports whether name is present, even when its value is nil.
func (a *Args) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Len returns the number of arguments.
func (a *Args) Len() int {
	if a == nil {
		return 0
	}
	return a.m.Len()
}

// Keys returns the argument names in insertion order.
func (a *Args) Keys() []string {
	keys := make([]string, 0, a.Len())
	for k := range a.All() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates over the arguments in insertion order.
func (a *Args) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if a == nil {
			return
		}
		for pair := a.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Clone returns a shallow copy: the mapping is new, values are shared.
func (a *Args) Clone() *Args {
	out := NewArgs()
	for k, v := range a.All() {
		out.Set(k, v)
	}
	return out
}

// Map returns the arguments as a plain Go map (order is lost).
func (a *Args) Map() map[string]any {
	out := make(map[string]any, a.Len())
	for k, v := range a.All() {
		out[k] = v
	}
	return out
}
