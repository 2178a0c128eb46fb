package http

import (
	"github.com/gin-gonic/gin"
)

// Register mounts every REST route on r. viewLimit runs in front of the
// routes that drive views, ahead of any per-route handler.
func (h *Handlers) Register(r gin.IRouter, viewLimit ...gin.HandlerFunc) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	// Agents
	r.POST("/tasks", h.CreateTask)
	r.GET("/agents", h.ListAgents)
	r.PATCH("/agents/:id/config", h.UpdateAgentConfig)
	r.DELETE("/agents/:id", h.DeleteAgent)

	// Views
	views := r.Group("/views/:id", viewLimit...)
	views.POST("/navigate", h.Navigate)
	views.POST("/refresh", h.Refresh)
	views.POST("/back", h.GoBack)
	views.POST("/forward", h.GoForward)

	// Services
	r.GET("/services", h.ListServices)
	r.POST("/services/discover", h.DiscoverServices)
	r.POST("/services/execute", append(viewLimit, h.ExecuteService)...)

	// Sessions
	r.GET("/sessions/state", h.SessionState)
}
