package domain

import (
	"fmt"
	"iter"
	"strings"
)

// NodeKind defines what a Node stands for.
type NodeKind int

const (
	// KindInvocation is a deferred call of a FunctionRef with named arguments.
	KindInvocation NodeKind = iota
	// KindConstant wraps a raw literal value.
	KindConstant
	// KindVariable stands for the currently bound value of a named variable.
	KindVariable
)

func (k NodeKind) String() string {
	switch k {
	case KindInvocation:
		return "invocation"
	case KindConstant:
		return "constant"
	case KindVariable:
		return "variable"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is a vertex of the computation graph.
// Nodes are immutable after construction and compared by identity when encoded:
// reusing one instance collapses to one wire entry, two equal-looking instances do not.
type Node struct {
	kind    NodeKind
	fn      *FunctionRef
	args    *Args
	varName string
	value   any
}

// Constant wraps a raw value in an explicit constant node.
func Constant(value any) *Node {
	return &Node{kind: KindConstant, value: value}
}

// VariableNode creates a node standing for the value bound to name by an enclosing
// LambdaRef (or by the server, when left free).
func VariableNode(name string) *Node {
	return &Node{kind: KindVariable, varName: name}
}

// Kind returns what the node stands for.
func (n *Node) Kind() NodeKind {
	return n.kind
}

// Func returns the invoked function, or nil for constant and variable nodes.
func (n *Node) Func() *FunctionRef {
	return n.fn
}

// FuncName returns the invoked function name, or "" when there is none.
func (n *Node) FuncName() string {
	return n.fn.Name()
}

// Args returns a copy of the argument mapping.
func (n *Node) Args() *Args {
	return n.args.Clone()
}

// Arg returns a single argument.
func (n *Node) Arg(name string) (any, bool) {
	return n.args.Get(name)
}

// Arguments iterates over the arguments in insertion order without copying.
func (n *Node) Arguments() iter.Seq2[string, any] {
	return n.args.All()
}

// VarName returns the variable name of a variable node.
func (n *Node) VarName() string {
	return n.varName
}

// Value returns the wrapped literal of a constant node.
func (n *Node) Value() any {
	return n.value
}

// IsVariable reports whether the node is a free-standing variable placeholder.
func (n *Node) IsVariable() bool {
	return n.kind == KindVariable
}

// Equal reports structural equivalence: same function name and deeply equal arguments.
// It is unrelated to the identity-based deduplication performed by the encoder.
func (n *Node) Equal(other *Node) bool {
	return Equal(n, other)
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.kind {
	case KindConstant:
		return fmt.Sprintf("Constant(%v)", n.value)
	case KindVariable:
		return "Variable(" + n.varName + ")"
	}
	return n.fn.Name() + "(" + strings.Join(n.args.Keys(), ", ") + ")"
}
