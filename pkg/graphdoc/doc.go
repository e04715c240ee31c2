/*
Package graphdoc builds expression graphs from YAML or JSON documents.

A document has a header, optional named vars and a root expression:

	name: red-points
	params:
	  color: FF0000
	vars:
	  pt:
	    $call: GeometryConstructors.Point
	    args: {coordinates: [1, 2]}
	root:
	  $call: Collection.draw
	  args:
	    collection:
	      $call: Collection
	      args:
	        features:
	          - {$call: Feature, args: {geometry: {$ref: pt}, metadata: null}}

Special forms:

  - {$call: name, args: {...}} invokes a function; argument order is kept.
  - {$ref: name} refers to a var. Every reference yields the same node, so the encoder
    emits it once.
  - {$var: name} is a variable placeholder.
  - {$lambda: {params: [...], body: ...}} is a client-defined function.
  - {$const: value} wraps value in a constant node.

YAML anchors and aliases behave like $ref. Any other mapping is a literal.
*/
package graphdoc
