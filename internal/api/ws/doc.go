// Package ws provides the WebSocket endpoints.
//
// Endpoints:
//   - /stream: UI connection. Carries session lifecycle, container and
//     visibility events into the session bridge, and chat turns whose agent
//     events are streamed back on the same socket.
//   - /host: view host connection. Receives every host notification
//     (session.created, session.switched, session.deleted,
//     session.setVisibility, session.setBounds) as JSON text frames.
//
// Each connection has a single writer goroutine fed by a bounded queue.
// Host notifications are offered without blocking; chat events wait for room.
package ws
