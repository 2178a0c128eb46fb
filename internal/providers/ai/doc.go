// Package ai implements agent.Agent against the agent service's HTTP API.
//
// A chat turn is a POST to /v1/chat with a bearer token; the response is a
// newline-delimited JSON stream of types.ChatEvent values ending with a
// "complete" event. Text generation itself lives in the agent service.
package ai
