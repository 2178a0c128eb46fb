package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/agent"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/navigation"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/service"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/utils"
)

// Version is reported by the root endpoint
var Version = "0.1.0"

// HostCounter reports connected view hosts
type HostCounter interface {
	Count() int
}

// Handlers contains all HTTP handlers
type Handlers struct {
	agents   *agent.Registry
	nav      *navigation.Controller
	registry *service.Registry
	bridge   *session.Bridge
	hosts    HostCounter
	logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	agents *agent.Registry,
	nav *navigation.Controller,
	registry *service.Registry,
	bridge *session.Bridge,
	hosts HostCounter,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		agents:   agents,
		nav:      nav,
		registry: registry,
		bridge:   bridge,
		hosts:    hosts,
		logger:   logger,
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "browserdesk",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	hosts := 0
	if h.hosts != nil {
		hosts = h.hosts.Count()
	}
	snap := h.bridge.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"agents":           len(h.agents.ListActive()),
		"sessions":         len(snap.Sessions),
		"view_hosts":       hosts,
		"service_registry": h.registry.Stats(),
	})
}

type createTaskRequest struct {
	TaskID string             `json:"task_id"`
	Config *types.AgentConfig `json:"config"`
}

// CreateTask constructs the agent for a new or existing task
func (h *Handlers) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	if err := utils.ValidateID(req.TaskID, "task_id", false); err != nil {
		badRequest(c, err)
		return
	}
	if req.Config != nil {
		if err := utils.ValidateAgentConfig(*req.Config); err != nil {
			badRequest(c, err)
			return
		}
	}
	if req.TaskID == "" {
		req.TaskID = id.NewTaskID().String()
	}

	handle, err := h.agents.GetOrCreate(c.Request.Context(), req.TaskID, req.Config)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, agent.ErrConstructionFailed) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error(), "task_id": req.TaskID})
		return
	}

	c.JSON(http.StatusCreated, handle.Info())
}

// ListAgents lists the live agents
func (h *Handlers) ListAgents(c *gin.Context) {
	agents := h.agents.List()
	c.JSON(http.StatusOK, gin.H{
		"agents": agents,
		"count":  len(agents),
	})
}

// UpdateAgentConfig applies a partial config update to a live agent
func (h *Handlers) UpdateAgentConfig(c *gin.Context) {
	taskID := c.Param("id")
	if err := utils.ValidateID(taskID, "task_id", true); err != nil {
		badRequest(c, err)
		return
	}

	var patch types.AgentConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateConfigPatch(patch); err != nil {
		badRequest(c, err)
		return
	}

	cfg, ok := h.agents.UpdateConfig(taskID, patch)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent not found", "task_id": taskID})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id": taskID,
		"config":  cfg,
	})
}

// DeleteAgent removes a task's agent
func (h *Handlers) DeleteAgent(c *gin.Context) {
	taskID := c.Param("id")
	if err := utils.ValidateID(taskID, "task_id", true); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.agents.Remove(taskID); err != nil {
		// the handle is gone either way
		h.logger.Warn("Agent cleanup failed", zap.String("task_id", taskID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": true, "task_id": taskID, "warning": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "task_id": taskID})
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	categoryStr := c.Query("category")
	if err := utils.ValidateCategory(categoryStr, false); err != nil {
		badRequest(c, err)
		return
	}

	var category *types.Category
	if categoryStr != "" {
		cat := types.Category(categoryStr)
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// DiscoverServices discovers relevant services for a request
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateMessage(req.Message); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    req.Message,
		"services": h.registry.Discover(req.Message, 5),
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateParams(req.Params); err != nil {
		badRequest(c, err)
		return
	}

	appCtx := &types.Context{TaskID: req.TaskID, SessionID: req.SessionID}
	for field, value := range map[string]*string{"task_id": req.TaskID, "session_id": req.SessionID} {
		if value == nil {
			continue
		}
		if err := utils.ValidateID(*value, field, false); err != nil {
			badRequest(c, err)
			return
		}
	}

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrServiceNotFound), errors.Is(err, service.ErrInvalidToolID),
			errors.Is(err, service.ErrToolNotFound):
			status = http.StatusNotFound
		case errors.Is(err, service.ErrMissingParam):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error(), "result": result})
		return
	}

	c.JSON(http.StatusOK, result)
}

// SessionState reports the lifecycle bridge state
func (h *Handlers) SessionState(c *gin.Context) {
	c.JSON(http.StatusOK, h.bridge.Snapshot())
}

// badRequest answers 400, naming the offending field when validation knows it.
func badRequest(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var fe *utils.FieldError
	if errors.As(err, &fe) {
		body["field"] = fe.Field
	}
	c.JSON(http.StatusBadRequest, body)
}
