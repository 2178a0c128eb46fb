// Package service provides the tool registry exposed to agents.
//
// The registry maintains a catalog of service providers and routes tool calls
// of the form "<service>.<tool>" to them. Results are always plain data so
// they can be handed back to an agent as tool-call output.
//
// Components:
//   - Registry: Central service catalog
//   - Provider: Interface for service implementations
//   - Success/Failure: Result constructors
//
// Discovery Algorithm:
//   - Keyword matching in id, name and description
//   - Capability and tool name matching
//   - Category bonus
//   - Score-based ranking, ties broken by id
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(browser.NewProvider(nav, tabs))
//	services := registry.Discover("open a web page", 5)
//	result, err := registry.Execute(ctx, "browser.navigate", params, appCtx)
package service
