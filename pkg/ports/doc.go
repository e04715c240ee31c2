/*
Package ports defines the driven ports (interfaces) of the lattice client.

These interfaces decouple graph construction and encoding from the service that
evaluates the graphs, allowing the client to talk to a real endpoint, a recording
fake or a cached proxy without changes.

# Key Interfaces

  - Transport: Sends a serialized expression graph to the evaluation service.
  - Cache: Stores evaluation responses keyed by the fingerprint of a request.
  - DistributedLocker: Coordinates cache fills across client replicas.
*/
package ports
