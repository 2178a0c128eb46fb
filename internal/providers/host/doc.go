// Package host talks to the privileged process that owns native views.
//
// The view host exposes a small HTTP API:
//
//	GET  /tabs/{id}           view snapshot (404 when unknown)
//	POST /tabs/{id}/touch     update last-activity timestamp
//	POST /tabs/{id}/navigate  {"url": "..."}
//	POST /tabs/{id}/reload
//	POST /tabs/{id}/back      409 when there is no history
//	POST /tabs/{id}/forward   409 when there is no history
//
// Client implements tab.Service on top of it. Requests go through a token
// bucket, a retrying transport for connection errors and 5xx answers, and a
// circuit breaker that ignores expected negative answers.
package host
