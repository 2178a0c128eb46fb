// Package http provides HTTP handlers and routing for the REST API.
//
// Endpoints:
//   - Health: / and /health
//   - Agents: POST /tasks, GET /agents, PATCH /agents/:id/config, DELETE /agents/:id
//   - Views: POST /views/:id/{navigate,refresh,back,forward}
//   - Services: /services, /services/discover, /services/execute
//   - Sessions: /sessions/state
//
// Navigation failures carry an error_type of view_not_found (404),
// invalid_url (400) or navigation_failed (502). A missing history entry is a
// normal 200 response with no_history set.
//
// Example Usage:
//
//	handlers := http.NewHandlers(agents, nav, registry, bridge, hub, logger)
//	handlers.Register(router)
package http
