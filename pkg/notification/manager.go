package notification

import (
	"fmt"
	"log/slog"
)

// Manager routes notifications to registered channel notifiers. Delivery is
// fire-and-forget from the caller's perspective: SendBestEffort logs
// failures instead of propagating them.
type Manager struct {
	notifiers map[System]Notifier
}

// NewManager creates and returns a new Manager
func NewManager() *Manager {
	return &Manager{
		notifiers: make(map[System]Notifier),
	}
}

// Register registers a notifier for a delivery channel
func (m *Manager) Register(system System, notifier Notifier) {
	m.notifiers[system] = notifier
}

// Send delivers a notification over the given channel
func (m *Manager) Send(system System, data Data) error {
	notifier, exists := m.notifiers[system]
	if !exists {
		return fmt.Errorf("no notifier registered for system: %s", system)
	}
	return notifier.Send(data)
}

// SendBestEffort delivers a notification and swallows any failure, logging
// it instead. Used on paths where delivery must never block the caller.
func (m *Manager) SendBestEffort(system System, data Data) {
	if err := m.Send(system, data); err != nil {
		slog.Error("Failed to send notification", "system", system, "to", data.To, "error", err)
	}
}
