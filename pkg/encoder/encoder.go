package encoder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"

	"github.com/aretw0/lattice/pkg/domain"
)

// Encoder produces canonical wire structures from Value graphs.
// An Encoder holds configuration only; every call uses its own traversal state,
// so one Encoder may be shared by concurrent goroutines.
type Encoder struct {
	strictVariables bool
}

// Option defines a functional option for configuring the Encoder.
type Option func(*Encoder)

// WithStrictVariables rejects variables outside any Function body.
// By default such free variables are emitted as ArgumentRefs for the server to bind.
func WithStrictVariables() Option {
	return func(e *Encoder) {
		e.strictVariables = true
	}
}

// New creates an Encoder.
func New(opts ...Option) *Encoder {
	e := &Encoder{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode returns the wire structure for v. The result is made of ordered objects,
// slices and literals and marshals directly with encoding/json.
func (e *Encoder) Encode(v any) (any, error) {
	s := &session{
		strict: e.strictVariables,
		refs:   make(map[any]int),
		free:   domain.NewVariableIndex(),
	}

	// Pass 1: count references by identity across the whole graph and reject true cycles.
	if err := s.count(v, make(map[any]bool), nil); err != nil {
		return nil, err
	}
	// Pass 2: emit, hoisting shared values into the scope of the frame that binds them.
	return s.encodeFrame(v, nil, nil)
}

// Serialize returns the compact JSON form of v.
func (e *Encoder) Serialize(v any) ([]byte, error) {
	wire, err := e.Encode(v)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wire payload: %w", err)
	}
	return data, nil
}

// SerializeIndent returns the indented JSON form of v, for humans.
func (e *Encoder) SerializeIndent(v any, indent string) ([]byte, error) {
	wire, err := e.Encode(v)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(wire, "", indent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wire payload: %w", err)
	}
	return data, nil
}

// Encode encodes v with the default configuration.
func Encode(v any) (any, error) {
	return New().Encode(v)
}

// Serialize serializes v with the default configuration.
func Serialize(v any) ([]byte, error) {
	return New().Serialize(v)
}

// Fingerprint returns the hex SHA-256 of a serialized payload.
func Fingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// session is the state of one top-level Encode call. Deduplication spans the whole
// call: an invocation or function reached more than once is emitted once.
type session struct {
	strict   bool
	nextSlot int
	refs     map[any]int // keyed by *domain.Node and *domain.LambdaRef
	frames   []*frame    // root first, innermost function body last
	free     *domain.VariableIndex
}

// frame is the root value or one Function body. A shared value is defined in the
// scope of the outermost frame that binds all of its free variables.
type frame struct {
	params []string
	slots  map[any]string
	scope  []any
}

func stackKey(v any) (any, bool) {
	switch t := v.(type) {
	case *domain.Node:
		return t, t != nil
	case *domain.LambdaRef:
		return t, t != nil
	}
	if key, ok := domain.ContainerIdentity(v); ok {
		return key, true
	}
	return nil, false
}

func (s *session) encodeFrame(v any, params []string, path []string) (any, error) {
	f := &frame{params: params, slots: make(map[any]string)}
	s.frames = append(s.frames, f)
	defer func() {
		s.frames = s.frames[:len(s.frames)-1]
	}()

	out, err := s.encode(v, path)
	if err != nil {
		return nil, err
	}
	if len(f.scope) > 0 {
		return compound(f.scope, out), nil
	}
	return out, nil
}

// count walks the graph depth-first. onStack holds the vertices of the current
// path only: meeting one again is a cycle, while meeting a finished vertex is sharing.
func (s *session) count(v any, onStack map[any]bool, path []string) error {
	switch t := v.(type) {
	case *domain.Node:
		if t == nil {
			return nil
		}
		if onStack[t] {
			return domain.NewGraphError(domain.ErrCyclicGraph, path, "%s references itself", t)
		}
		s.refs[t]++
		if s.refs[t] > 1 || t.Kind() != domain.KindInvocation {
			return nil
		}
		onStack[t] = true
		defer delete(onStack, t)
		for name, arg := range t.Arguments() {
			if err := s.count(arg, onStack, appendPath(path, name)); err != nil {
				return err
			}
		}
		return nil
	case *domain.LambdaRef:
		if t == nil {
			return nil
		}
		if onStack[t] {
			return domain.NewGraphError(domain.ErrCyclicGraph, path, "%s contains itself", t)
		}
		s.refs[t]++
		if s.refs[t] > 1 {
			return nil
		}
		onStack[t] = true
		defer delete(onStack, t)
		return s.count(t.Body(), onStack, appendPath(path, KeyBody))
	case domain.VariableRef:
		return nil
	}
	if domain.IsScalar(v) {
		return nil
	}

	if key, ok := stackKey(v); ok {
		if onStack[key] {
			return domain.NewGraphError(domain.ErrCyclicGraph, path, "%T contains itself", v)
		}
		onStack[key] = true
		defer delete(onStack, key)
	}
	if seq, ok := domain.Sequence(v); ok {
		for i, e := range seq {
			if err := s.count(e, onStack, appendPath(path, strconv.Itoa(i))); err != nil {
				return err
			}
		}
		return nil
	}
	if m, ok := domain.Mapping(v); ok {
		for k, e := range m.All() {
			if err := s.count(e, onStack, appendPath(path, k)); err != nil {
				return err
			}
		}
		return nil
	}
	return domain.NewGraphError(domain.ErrMalformedValue, path, "unsupported type %T", v)
}

// encode emits v in a position where a node is structurally expected.
func (s *session) encode(v any, path []string) (any, error) {
	switch t := v.(type) {
	case *domain.Node:
		if t == nil {
			return constant(nil), nil
		}
		if s.refs[t] > 1 && t.Kind() == domain.KindInvocation {
			return s.encodeShared(t, path)
		}
		return s.encodeNode(t, path)
	case domain.VariableRef:
		return s.argumentRef(t.Name, path)
	case *domain.LambdaRef:
		if t == nil {
			return constant(nil), nil
		}
		if s.refs[t] > 1 {
			return s.encodeShared(t, path)
		}
		return s.encodeLambda(t, path)
	}

	if !domain.ContainsGraph(v) {
		lit, err := literal(v, make(map[any]bool), path)
		if err != nil {
			return nil, err
		}
		return constant(lit), nil
	}

	if seq, ok := domain.Sequence(v); ok {
		elems := make([]any, len(seq))
		for i, e := range seq {
			enc, err := s.encode(e, appendPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			elems[i] = enc
		}
		return array(elems), nil
	}
	if m, ok := domain.Mapping(v); ok {
		entries := newObject()
		for k, e := range m.All() {
			enc, err := s.encode(e, appendPath(path, k))
			if err != nil {
				return nil, err
			}
			entries.Set(k, enc)
		}
		return dictionary(entries), nil
	}
	return nil, domain.NewGraphError(domain.ErrMalformedValue, path, "unsupported type %T", v)
}

// encodeShared emits a ValueRef to the single definition of v, encoding v on first use.
func (s *session) encodeShared(v any, path []string) (any, error) {
	free := s.free.Free(v)
	names := make([]string, 0, len(free))
	for name := range free {
		names = append(names, name)
	}
	sort.Strings(names)
	// Later uses are ValueRefs, so their variables are checked here rather than on emission.
	for _, name := range names {
		if !s.bound(name) {
			return nil, unboundError(name, path)
		}
	}

	f := s.frames[s.home(free)]
	if slot, ok := f.slots[v]; ok {
		return valueRef(slot), nil
	}

	var enc any
	var err error
	switch t := v.(type) {
	case *domain.Node:
		enc, err = s.encodeNode(t, path)
	case *domain.LambdaRef:
		enc, err = s.encodeLambda(t, path)
	}
	if err != nil {
		return nil, err
	}
	// Slots are numbered after their dependencies, so a scope lists definitions before uses.
	slot := strconv.Itoa(s.nextSlot)
	s.nextSlot++
	f.slots[v] = slot
	f.scope = append(f.scope, []any{slot, enc})
	return valueRef(slot), nil
}

// home returns the index of the innermost frame binding any of the free names,
// which is the outermost frame binding all of them. Closed values live at the root.
func (s *session) home(free map[string]bool) int {
	for i := len(s.frames) - 1; i > 0; i-- {
		for _, p := range s.frames[i].params {
			if free[p] {
				return i
			}
		}
	}
	return 0
}

func (s *session) encodeNode(n *domain.Node, path []string) (any, error) {
	switch n.Kind() {
	case domain.KindVariable:
		return s.argumentRef(n.VarName(), path)
	case domain.KindConstant:
		lit, err := literal(n.Value(), make(map[any]bool), path)
		if err != nil {
			return nil, err
		}
		return constant(lit), nil
	}

	args := newObject()
	for name, arg := range n.Arguments() {
		enc, err := s.encode(arg, appendPath(path, name))
		if err != nil {
			return nil, err
		}
		args.Set(name, enc)
	}
	return invocation(n.FuncName(), args), nil
}

func (s *session) encodeLambda(l *domain.LambdaRef, path []string) (any, error) {
	body, err := s.encodeFrame(l.Body(), l.Params(), appendPath(path, KeyBody))
	if err != nil {
		return nil, err
	}
	return function(l.Params(), body), nil
}

// bound reports whether name may be emitted as an ArgumentRef at the current position.
// Outside any function, free variables are left for the server to bind unless strict.
func (s *session) bound(name string) bool {
	for i := len(s.frames) - 1; i > 0; i-- {
		if slices.Contains(s.frames[i].params, name) {
			return true
		}
	}
	return len(s.frames) == 1 && !s.strict
}

func (s *session) argumentRef(name string, path []string) (any, error) {
	if !s.bound(name) {
		return nil, unboundError(name, path)
	}
	return argumentRef(name), nil
}

func unboundError(name string, path []string) error {
	return domain.NewGraphError(domain.ErrUnboundVariable, path, "variable %q is not a parameter of any enclosing function", name)
}

// literal converts a graph-free value into plain JSON-ready data.
func literal(v any, onStack map[any]bool, path []string) (any, error) {
	if domain.IsScalar(v) {
		if f, ok := domain.AsNumber(v); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return nil, domain.NewGraphError(domain.ErrMalformedValue, path, "non-finite number %v", v)
		}
		return v, nil
	}
	if key, ok := stackKey(v); ok {
		if onStack[key] {
			return nil, domain.NewGraphError(domain.ErrCyclicGraph, path, "%T contains itself", v)
		}
		onStack[key] = true
		defer delete(onStack, key)
	}
	if seq, ok := domain.Sequence(v); ok {
		out := make([]any, len(seq))
		for i, e := range seq {
			lit, err := literal(e, onStack, appendPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = lit
		}
		return out, nil
	}
	if m, ok := domain.Mapping(v); ok {
		out := newObject()
		for k, e := range m.All() {
			lit, err := literal(e, onStack, appendPath(path, k))
			if err != nil {
				return nil, err
			}
			out.Set(k, lit)
		}
		return out, nil
	}
	return nil, domain.NewGraphError(domain.ErrMalformedValue, path, "unsupported type %T", v)
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}
