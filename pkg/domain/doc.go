/*
Package domain contains the core graph model of the Lattice client.

User code composes deferred computations into a directed acyclic graph. Nothing in
this package talks to the network or the encoder; it only describes what should be
computed, following Hexagonal Architecture principles.

# Key Entities

  - Node: A vertex in the graph. Either an invocation of a FunctionRef with named
    arguments, a constant wrapping a raw value, or a free variable placeholder.
  - FunctionRef: An immutable handle naming a remote-callable operation.
  - LambdaRef: A client-defined function value binding VariableRef placeholders
    inside a body graph.
  - VariableRef: A placeholder leaf standing for a bound parameter.
  - Args: An insertion-ordered mapping from argument name to value.

A Value accepted anywhere in the graph is one of: nil, a boolean, a number, a string,
a slice or string-keyed map of Values, *Args, *Node, VariableRef or *LambdaRef.
*/
package domain
