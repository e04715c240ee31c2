package domain

// FunctionRef is an immutable handle naming a remote-callable operation, e.g. "Feature" or "Collection.draw".
// The name is opaque: argument names are never validated locally, the remote side is authoritative.
type FunctionRef struct {
	name string
}

// NewFunctionRef creates a handle for the named operation.
// Most callers should prefer registry.Function, which reuses one handle per name.
func NewFunctionRef(name string) *FunctionRef {
	return &FunctionRef{name: name}
}

// Name returns the dot-qualified function name.
func (f *FunctionRef) Name() string {
	if f == nil {
		return ""
	}
	return f.name
}

// Invoke creates a new Node calling this function with the given arguments.
// The mapping is shallow-copied; values are stored as-is.
func (f *FunctionRef) Invoke(args *Args) *Node {
	return &Node{
		kind: KindInvocation,
		fn:   f,
		args: args.Clone(),
	}
}

// Call is a convenience wrapper around Invoke taking alternating name/value pairs.
func (f *FunctionRef) Call(pairs ...any) (*Node, error) {
	args, err := ArgsFromPairs(pairs...)
	if err != nil {
		return nil, err
	}
	return f.Invoke(args), nil
}

// Equal reports whether both handles name the same function.
func (f *FunctionRef) Equal(other *FunctionRef) bool {
	return f.Name() == other.Name()
}

func (f *FunctionRef) String() string {
	return "FunctionRef(" + f.Name() + ")"
}
