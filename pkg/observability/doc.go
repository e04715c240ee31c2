/*
Package observability provides Prometheus collectors for the lattice client.

Transport middleware records request counts, latencies and payload sizes; the
caching layer records hits and misses. Collectors are registered on a caller
supplied prometheus.Registerer so tests and embedding programs stay isolated
from the global registry.
*/
package observability
