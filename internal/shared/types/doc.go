// Package types provides shared data structures for the browserdesk backend.
//
// This package defines the types exchanged between the orchestration core,
// the UI socket, the view host and the agent tool-calling layer.
//
// Core Types:
//   - Rectangle, RectF: View bounds in device pixels and raw container measurements
//   - Notification: One-way intent sent to the view host
//   - Service, Tool, Result: Tool-call definitions and serialisable results
//   - ChatRequest, ChatEvent: Agent stream payloads
//
// Request Types:
//   - ExecuteRequest: Tool execution over HTTP
//   - WSMessage: Inbound UI socket message
//
// Example Usage:
//
//	n := types.VisibilityNotification(sessionID, true)
//	hub.Notify(ctx, n)
package types
