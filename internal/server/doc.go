// Package server wires the orchestration core to its transports.
//
// This package orchestrates all components:
//   - View access: remote view host client, or in-memory tabs
//   - Session lifecycle bridge, visibility controller and bounds resolver
//   - Agent registry backed by the agent service client
//   - Browser tool provider registration
//   - HTTP routing with Gin, WebSocket endpoints and metrics
//
// Host notifications fan out to the WebSocket hub and, in in-memory mode, to
// the tab registry so tabs follow session lifecycle.
//
// Server Lifecycle:
//  1. Load configuration from environment and optional file
//  2. Initialize logger (production or development)
//  3. Build domain components and register providers
//  4. Setup HTTP routes and middleware
//  5. Serve until the context is cancelled
//  6. Close host sockets, drain HTTP, clean up agents
//
// Example Usage:
//
//	cfg, err := config.Load()
//	srv, err := server.NewServer(cfg, logger)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal("server failed", zap.Error(err))
//	}
package server
