/*
Package lattice builds deferred computation graphs on the client and ships them to a
remote evaluation service.

User code composes symbolic operations (geometries, features, collections, functions)
into a DAG of nodes. Nothing is computed locally: the graph is serialized into a
canonical, deduplicated wire form and sent once, when a result is requested.

# Concept

  - A Node is an invocation of a named remote function with named arguments, a constant,
    or a variable placeholder (pkg/domain).
  - A LambdaRef is a function defined on the client: its body is captured by calling a
    host function once with placeholder variables.
  - The encoder (pkg/encoder) walks the graph by identity, emits shared nodes once and
    checks that every variable inside a function body is bound.
  - A Transport (pkg/ports) delivers the payload. Adapters exist for HTTP, an offline fake
    and caching through memory or Redis (pkg/adapters, pkg/transport).

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/lattice"
		"github.com/aretw0/lattice/pkg/adapters/http"
		"github.com/aretw0/lattice/pkg/dsl"
	)

	func main() {
		client, err := lattice.New(lattice.WithTransport(http.NewClient("http://localhost:8080")))
		if err != nil {
			log.Fatal(err)
		}

		feature, err := dsl.NewFeature(dsl.Point(1, 2), map[string]any{"name": "home"})
		if err != nil {
			log.Fatal(err)
		}

		m, err := client.GetMapID(context.Background(), feature, map[string]any{"color": "ABCDEF"})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(m.MapID)
	}
*/
package lattice
