package types

// ChatRequest represents a chat turn sent to a task's agent
type ChatRequest struct {
	Message string            `json:"message" binding:"required"`
	Context map[string]string `json:"context,omitempty"`
}

// ChatEvent is one item of an agent's response stream
type ChatEvent struct {
	Type      string `json:"type"` // token, thought, tool_call, complete, error
	Content   string `json:"content,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ExecuteRequest represents a tool execution request
type ExecuteRequest struct {
	ToolID    string                 `json:"tool_id" binding:"required"`
	Params    map[string]interface{} `json:"params" binding:"required"`
	TaskID    *string                `json:"task_id,omitempty"`
	SessionID *string                `json:"session_id,omitempty"`
}

// WSMessage represents an inbound UI socket message
type WSMessage struct {
	Type        string            `json:"type"`
	SessionID   string            `json:"sessionId,omitempty"`
	TaskID      string            `json:"taskId,omitempty"`
	ContainerID string            `json:"containerId,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Open        bool              `json:"open,omitempty"`
	Rect        *RectF            `json:"rect,omitempty"`
	Message     string            `json:"message,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
}
