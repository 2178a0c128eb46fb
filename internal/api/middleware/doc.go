// Package middleware holds the gin middleware in front of the REST surface.
//
// CORS allows any origin unless CORS_ORIGINS lists specific ones; listed
// origins also get credentials. Trace headers are exposed to the shell.
//
// RateLimit keeps one token bucket per client IP in an LRU, so a burst of
// distinct addresses evicts the least recently seen client instead of growing
// without bound. GlobalRateLimit shares a single bucket.
//
// RequestLogger writes one line per request with the trace ids attached.
//
//	router.Use(tracing.HTTPMiddleware(tracer))
//	router.Use(middleware.RequestLogger(logger))
//	router.Use(middleware.CORS(middleware.CORSConfig{Origins: cfg.Server.CORSOrigins}))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
