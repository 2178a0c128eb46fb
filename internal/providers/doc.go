// Package providers groups the adapters that connect the orchestration core
// to the outside world.
//
// Available Providers:
//   - ai: HTTP client for the agent service; backs agent.Factory
//   - host: HTTP client for the view host; implements tab.Service
//   - browser: navigation tools exposed to agents through the service registry
//
// Tool providers implement:
//   - Definition(): Returns service metadata and tool definitions
//   - Execute(): Executes a tool with parameters and context
package providers
