package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/agent"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/utils"
)

// RoleUI marks UI connections
const RoleUI = "ui"

// Inbound UI message types
const (
	MsgSessionCreated     = "session.created"
	MsgSessionSwitched    = "session.switched"
	MsgSessionDeleted     = "session.deleted"
	MsgContainerMounted   = "container.mounted"
	MsgContainerUnmounted = "container.unmounted"
	MsgContainerResized   = "container.resized"
	MsgOverlay            = "overlay"
	MsgViewHide           = "view.hide"
	MsgViewShow           = "view.show"
	MsgChat               = "chat"
	MsgPing               = "ping"
)

const chatTimeout = 5 * time.Minute

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the CORS layer for HTTP; the desktop shell connects locally
	},
}

// Handler manages WebSocket connections
type Handler struct {
	bridge  *session.Bridge
	agents  *agent.Registry
	hub     *Hub
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(bridge *session.Bridge, agents *agent.Registry, hub *Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		bridge: bridge,
		agents: agents,
		hub:    hub,
		logger: logger,
	}
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleHost upgrades a view host connection and subscribes it to the hub
func (h *Handler) HandleHost(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := newClient(conn, RoleHost)
	h.hub.register(cl)
	defer h.hub.unregister(cl)
	defer cl.close()
	go cl.writePump(h.logger)

	h.logger.Info("View host connected", zap.String("conn_id", cl.id))

	cl.prepareRead()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.logger.Info("View host disconnected", zap.String("conn_id", cl.id))
}

// HandleStream upgrades a UI connection and processes lifecycle and chat
// messages from it
func (h *Handler) HandleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := newClient(conn, RoleUI)
	h.metrics.IncWSConnections(RoleUI)
	defer h.metrics.DecWSConnections(RoleUI)
	defer cl.close()
	go cl.writePump(h.logger)

	// request context ends when the handler returns
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.send(ctx, cl, map[string]interface{}{
		"type":    "system",
		"message": "Connected to browserdesk",
	})

	cl.prepareRead()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.String("conn_id", cl.id), zap.Error(err))
			}
			break
		}

		var msg types.WSMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.sendError(ctx, cl, "invalid message")
			continue
		}
		h.metrics.RecordWSMessage("in", msg.Type)
		h.dispatch(ctx, cl, msg)
	}
}

func (h *Handler) dispatch(ctx context.Context, cl *client, msg types.WSMessage) {
	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = msg.TaskID
	}

	if err := validate(msg, sessionID); err != nil {
		h.sendError(ctx, cl, err.Error())
		return
	}

	switch msg.Type {
	case MsgSessionCreated:
		h.bridge.Created(sessionID)
	case MsgSessionSwitched:
		h.bridge.SwitchedTo(sessionID)
	case MsgSessionDeleted:
		h.bridge.Deleted(sessionID)
		if err := h.agents.Remove(sessionID); err != nil {
			h.logger.Warn("Agent cleanup failed", zap.String("task_id", sessionID), zap.Error(err))
		}
	case MsgContainerMounted:
		h.bridge.Mounted(msg.ContainerID, sessionID, msg.Rect)
	case MsgContainerUnmounted:
		h.bridge.Unmounted(msg.ContainerID)
	case MsgContainerResized:
		h.bridge.Resized(msg.ContainerID, *msg.Rect)
	case MsgOverlay:
		h.bridge.SetOverlay(msg.Open)
	case MsgViewHide:
		h.bridge.Hide(sessionID, msg.Reason)
	case MsgViewShow:
		h.bridge.Show(sessionID, msg.Reason)
	case MsgChat:
		go h.handleChat(ctx, cl, sessionID, msg)
	case MsgPing:
		h.send(ctx, cl, map[string]interface{}{"type": "pong"})
	default:
		h.sendError(ctx, cl, "unknown message type")
	}
}

func (h *Handler) handleChat(ctx context.Context, cl *client, taskID string, msg types.WSMessage) {
	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	events, err := h.agents.Chat(ctx, taskID, types.ChatRequest{Message: msg.Message, Context: msg.Context})
	if err != nil {
		h.logger.Warn("Chat failed", zap.String("task_id", taskID), zap.Error(err))
		h.sendError(ctx, cl, err.Error())
		return
	}

	for ev := range events {
		if err := h.send(ctx, cl, map[string]interface{}{
			"type":      ev.Type,
			"content":   ev.Content,
			"taskId":    taskID,
			"timestamp": ev.Timestamp,
		}); err != nil {
			// drain so the producer can exit
			for range events {
			}
			return
		}
	}
}

// validate rejects malformed lifecycle and chat messages before they reach
// the bridge. Unknown types pass through to dispatch's default case.
func validate(msg types.WSMessage, sessionID string) error {
	switch msg.Type {
	case MsgSessionCreated, MsgSessionSwitched, MsgSessionDeleted:
		return utils.ValidateID(sessionID, "sessionId", true)
	case MsgContainerMounted:
		if err := utils.ValidateID(msg.ContainerID, "containerId", true); err != nil {
			return err
		}
		return utils.ValidateID(sessionID, "sessionId", true)
	case MsgContainerUnmounted:
		return utils.ValidateID(msg.ContainerID, "containerId", true)
	case MsgContainerResized:
		if err := utils.ValidateID(msg.ContainerID, "containerId", true); err != nil {
			return err
		}
		if msg.Rect == nil {
			return &utils.FieldError{Field: "rect", Reason: "is required"}
		}
	case MsgViewHide, MsgViewShow:
		if err := utils.ValidateID(sessionID, "sessionId", true); err != nil {
			return err
		}
		return utils.ValidateReason(msg.Reason)
	case MsgChat:
		if err := utils.ValidateID(sessionID, "taskId", true); err != nil {
			return err
		}
		if err := utils.ValidateMessage(msg.Message); err != nil {
			return err
		}
		return utils.ValidateContext(msg.Context)
	}
	return nil
}

func (h *Handler) send(ctx context.Context, cl *client, data interface{}) error {
	payload, err := sonic.Marshal(data)
	if err != nil {
		return err
	}
	return cl.write(ctx, payload)
}

func (h *Handler) sendError(ctx context.Context, cl *client, msg string) error {
	return h.send(ctx, cl, map[string]interface{}{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().UnixMilli(),
	})
}
