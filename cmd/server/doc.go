// Package main is the entry point for the browserdesk backend server.
//
// The server sits between the chat UI and the process that owns the native
// browser views:
//
//	UI (WebSocket /stream) → browserdesk → view host (WebSocket /host, HTTP)
//	                                    → agent service (HTTP, NDJSON)
//
// Commands:
//   - serve: run the server (also the default)
//   - version: print the version
//
// Configuration:
//   - Config file (--config or CONFIG_FILE), YAML or TOML
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	./server serve --port 8000 --view-host http://127.0.0.1:9100
//
//	# Development mode (colored logs, debug level)
//	./server --dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
