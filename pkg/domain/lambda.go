package domain

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/google/uuid"
)

// VariableRef is a placeholder leaf standing for the value bound to Name.
// It is meaningful only inside the body of a LambdaRef declaring Name, or as a
// free variable bound later by the server.
type VariableRef struct {
	Name string
}

// Variable creates a placeholder for the value bound to name.
func Variable(name string) VariableRef {
	return VariableRef{Name: name}
}

func (v VariableRef) String() string {
	return "$" + v.Name
}

// HostFunc is a Go callback turned into a LambdaRef by symbolic invocation:
// it receives one VariableRef per parameter and returns the body Value.
type HostFunc func(vars ...VariableRef) (any, error)

// LambdaRef is a client-defined function value. Its body is a Value graph built
// with VariableRef placeholders in place of the parameters.
type LambdaRef struct {
	params []string
	body   any
}

// NewLambda creates a function value from explicit parameter names and body.
// Unbound variables in the body are reported when the function is encoded, once the
// enclosing scopes are known.
func NewLambda(params []string, body any) (*LambdaRef, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	return &LambdaRef{
		params: append([]string(nil), params...),
		body:   body,
	}, nil
}

// FromHostFunction mints one VariableRef per parameter name, invokes fn exactly once
// with them and captures the returned Value as the body. fn is never called again.
func FromHostFunction(params []string, fn HostFunc) (*LambdaRef, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	vars := make([]VariableRef, len(params))
	for i, p := range params {
		vars[i] = Variable(p)
	}
	body, err := fn(vars...)
	if err != nil {
		return nil, fmt.Errorf("host function failed during symbolic invocation: %w", err)
	}
	return NewLambda(params, body)
}

// AutoLambda turns fn into a LambdaRef with generated parameter names of the form
// _MAPPING_VAR_<depth>_<index>, where depth is the nesting depth of functions inside
// the body. Nested callbacks therefore never shadow the variables of the enclosing one.
func AutoLambda(arity int, fn HostFunc) (*LambdaRef, error) {
	if arity < 0 {
		return nil, NewGraphError(ErrMalformedValue, nil, "negative arity %d", arity)
	}

	// 1. Invoke once with placeholders that cannot collide with anything in scope.
	nonce := uuid.NewString()
	vars := make([]VariableRef, arity)
	for i := range vars {
		vars[i] = Variable(fmt.Sprintf("_PLACEHOLDER_%s_%d", nonce, i))
	}
	body, err := fn(vars...)
	if err != nil {
		return nil, fmt.Errorf("host function failed during symbolic invocation: %w", err)
	}

	// 2. Name the parameters after the depth of the captured body.
	depth := lambdaDepth(body, map[any]int{}, map[any]bool{})
	names := make([]string, arity)
	renames := make(map[string]string, arity)
	for i, v := range vars {
		names[i] = fmt.Sprintf("_MAPPING_VAR_%d_%d", depth, i)
		renames[v.Name] = names[i]
	}

	// 3. Rewrite the placeholders in the body.
	body, err = substitute(body, renames, map[any]any{}, map[any]bool{})
	if err != nil {
		return nil, err
	}
	return NewLambda(names, body)
}

// Params returns the parameter names in declaration order.
func (l *LambdaRef) Params() []string {
	return append([]string(nil), l.params...)
}

// Body returns the captured body Value.
func (l *LambdaRef) Body() any {
	return l.body
}

// FreeVariables returns the sorted names referenced by the body that are not bound
// by this function's parameters. Nested functions bind their own parameters.
func (l *LambdaRef) FreeVariables() []string {
	set := freeVariables(l, map[any]map[string]bool{}, map[any]bool{})
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// VariableIndex memoizes free variable sets across one graph walk.
// Not safe for concurrent use.
type VariableIndex struct {
	memo map[any]map[string]bool
}

// NewVariableIndex creates an empty index.
func NewVariableIndex() *VariableIndex {
	return &VariableIndex{memo: map[any]map[string]bool{}}
}

// Free returns the names referenced inside v that no function within v binds.
// The returned set is shared with the index and must not be modified.
func (x *VariableIndex) Free(v any) map[string]bool {
	return freeVariables(v, x.memo, map[any]bool{})
}

func (l *LambdaRef) String() string {
	return fmt.Sprintf("Lambda(%v)", l.params)
}

func validateParams(params []string) error {
	seen := make(map[string]bool, len(params))
	for i, p := range params {
		if p == "" {
			return NewGraphError(ErrMalformedValue, nil, "parameter %d has an empty name", i)
		}
		if seen[p] {
			return NewGraphError(ErrMalformedValue, nil, "duplicate parameter %q", p)
		}
		seen[p] = true
	}
	return nil
}

// lambdaDepth returns 0 for a body without nested functions, otherwise one more
// than the deepest nested function.
func lambdaDepth(v any, memo map[any]int, onStack map[any]bool) int {
	key, ok := identityKey(v)
	if ok {
		if d, done := memo[key]; done {
			return d
		}
		if onStack[key] {
			return 0
		}
		onStack[key] = true
		defer delete(onStack, key)
	}

	depth := 0
	switch t := v.(type) {
	case *LambdaRef:
		depth = 1 + lambdaDepth(t.body, memo, onStack)
	default:
		for _, child := range children(v) {
			if d := lambdaDepth(child, memo, onStack); d > depth {
				depth = d
			}
		}
	}
	if ok {
		memo[key] = depth
	}
	return depth
}

func freeVariables(v any, memo map[any]map[string]bool, onStack map[any]bool) map[string]bool {
	switch t := v.(type) {
	case VariableRef:
		return map[string]bool{t.Name: true}
	case *Node:
		if t != nil && t.kind == KindVariable {
			return map[string]bool{t.varName: true}
		}
	}

	key, ok := identityKey(v)
	if ok {
		if set, done := memo[key]; done {
			return set
		}
		if onStack[key] {
			return nil
		}
		onStack[key] = true
		defer delete(onStack, key)
	}

	set := map[string]bool{}
	if l, isLambda := v.(*LambdaRef); isLambda {
		for name := range freeVariables(l.body, memo, onStack) {
			set[name] = true
		}
		for _, p := range l.params {
			delete(set, p)
		}
	} else {
		for _, child := range children(v) {
			for name := range freeVariables(child, memo, onStack) {
				set[name] = true
			}
		}
	}
	if ok {
		memo[key] = set
	}
	return set
}

// substitute renames variables throughout a Value, returning the original value
// wherever nothing changed so untouched shared nodes keep their identity.
func substitute(v any, renames map[string]string, memo map[any]any, onStack map[any]bool) (any, error) {
	switch t := v.(type) {
	case VariableRef:
		if to, ok := renames[t.Name]; ok {
			return Variable(to), nil
		}
		return t, nil
	case *Node:
		if t == nil {
			return t, nil
		}
		if t.kind == KindVariable {
			if to, ok := renames[t.varName]; ok {
				return VariableNode(to), nil
			}
			return t, nil
		}
	}
	if IsScalar(v) {
		return v, nil
	}

	key, ok := identityKey(v)
	if ok {
		if out, done := memo[key]; done {
			return out, nil
		}
		if onStack[key] {
			return nil, NewGraphError(ErrCyclicGraph, nil, "value references itself")
		}
		onStack[key] = true
		defer delete(onStack, key)
	}

	out, err := substituteInner(v, renames, memo, onStack)
	if err != nil {
		return nil, err
	}
	if ok {
		memo[key] = out
	}
	return out, nil
}

func substituteInner(v any, renames map[string]string, memo map[any]any, onStack map[any]bool) (any, error) {
	switch t := v.(type) {
	case *Node:
		if t.kind != KindInvocation {
			return t, nil
		}
		args, changed, err := substituteArgs(t.args, renames, memo, onStack)
		if err != nil || !changed {
			return t, err
		}
		return &Node{kind: KindInvocation, fn: t.fn, args: args}, nil
	case *LambdaRef:
		body, err := substitute(t.body, renames, memo, onStack)
		if err != nil {
			return nil, err
		}
		if sameValue(body, t.body) {
			return t, nil
		}
		return &LambdaRef{params: t.params, body: body}, nil
	}

	if seq, ok := Sequence(v); ok {
		out := make([]any, len(seq))
		changed := false
		for i, e := range seq {
			ne, err := substitute(e, renames, memo, onStack)
			if err != nil {
				return nil, err
			}
			out[i] = ne
			changed = changed || !sameValue(ne, e)
		}
		if !changed {
			return v, nil
		}
		return out, nil
	}
	if m, ok := Mapping(v); ok {
		args, changed, err := substituteArgs(m, renames, memo, onStack)
		if err != nil || !changed {
			return v, err
		}
		if _, ordered := v.(*Args); ordered {
			return args, nil
		}
		return args.Map(), nil
	}
	return nil, NewGraphError(ErrMalformedValue, nil, "unsupported type %T", v)
}

func substituteArgs(a *Args, renames map[string]string, memo map[any]any, onStack map[any]bool) (*Args, bool, error) {
	out := NewArgs()
	changed := false
	for k, e := range a.All() {
		ne, err := substitute(e, renames, memo, onStack)
		if err != nil {
			return nil, false, err
		}
		out.Set(k, ne)
		changed = changed || !sameValue(ne, e)
	}
	return out, changed, nil
}

// sameValue reports whether substitution left a value untouched. Reference types
// are compared by identity; comparable values with ==.
func sameValue(a, b any) bool {
	ka, okA := identityKey(a)
	kb, okB := identityKey(b)
	if okA || okB {
		return okA && okB && ka == kb
	}
	if IsScalar(a) && IsScalar(b) {
		return a == b
	}
	if va, isVar := a.(VariableRef); isVar {
		vb, isVarB := b.(VariableRef)
		return isVarB && va == vb
	}
	return isEmptyContainer(a) && isEmptyContainer(b)
}

func isEmptyContainer(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

// identityKey returns a map key standing for the identity of a reference-typed value.
func identityKey(v any) (any, bool) {
	switch t := v.(type) {
	case *Node:
		return t, t != nil
	case *LambdaRef:
		return t, t != nil
	}
	if key, ok := ContainerIdentity(v); ok {
		return key, true
	}
	return nil, false
}

// children returns the direct sub-values of a node or container.
func children(v any) []any {
	switch t := v.(type) {
	case *Node:
		if t == nil || t.kind != KindInvocation {
			return nil
		}
		out := make([]any, 0, t.args.Len())
		for _, e := range t.args.All() {
			out = append(out, e)
		}
		return out
	case *LambdaRef:
		return []any{t.body}
	}
	if IsScalar(v) {
		return nil
	}
	if seq, ok := Sequence(v); ok {
		return seq
	}
	if m, ok := Mapping(v); ok {
		out := make([]any, 0, m.Len())
		for _, e := range m.All() {
			out = append(out, e)
		}
		return out
	}
	return nil
}
