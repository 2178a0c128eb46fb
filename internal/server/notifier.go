package server

import (
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

// Notifier receives host notifications
type Notifier interface {
	Notify(n types.Notification)
}

// fanout delivers each notification to every notifier in order
type fanout []Notifier

func (f fanout) Notify(n types.Notification) {
	for _, notifier := range f {
		notifier.Notify(n)
	}
}
