/*
Package transport provides middleware for ports.Transport.

Middlewares wrap a Transport to add logging, Prometheus metrics and response
caching without touching the adapter that actually talks to the evaluation
service:

	t := transport.Chain(httpClient,
		transport.NewLoggingMiddleware(logger),
		transport.NewMetricsMiddleware(metrics),
		transport.NewCachingMiddleware(transport.CacheConfig{Cache: cache}),
	)

The first middleware is the outermost one.
*/
package transport
