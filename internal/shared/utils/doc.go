// Package utils provides input validation shared by the HTTP and WebSocket
// surfaces: identifier patterns, string bounds and JSON size and depth limits.
package utils
