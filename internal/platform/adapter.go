package platform

import (
	"context"
	"log/slog"
	"sync"

	"github.com/coopco/recallbot/internal/bus"
)

// Adapter is the interface a chat platform backend must implement.
type Adapter interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(n bus.OutboundNotice) error
	IsAllowed(senderID string) bool
}

// Manager owns adapter lifecycle and routes outbound notices from the bus
// to the adapter matching each notice's platform.
type Manager struct {
	adapters []Adapter
	bus      *bus.MessageBus
	mu       sync.Mutex
}

func NewManager(msgBus *bus.MessageBus) *Manager {
	m := &Manager{bus: msgBus}
	m.setupOutboundDispatch()
	return m
}

// Add registers an adapter with the manager.
func (m *Manager) Add(a Adapter) {
	m.mu.Lock()
	m.adapters = append(m.adapters, a)
	m.mu.Unlock()
}

// StartAll starts all registered adapters.
func (m *Manager) StartAll(ctx context.Context) error {
	for _, a := range m.snapshot() {
		if err := a.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// StopAll stops all adapters, returning the first error seen.
func (m *Manager) StopAll() error {
	var firstErr error
	for _, a := range m.snapshot() {
		if err := a.Stop(); err != nil {
			slog.Error("failed to stop adapter", "adapter", a.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Manager) snapshot() []Adapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Adapter, len(m.adapters))
	copy(out, m.adapters)
	return out
}

// setupOutboundDispatch subscribes to outbound notices and routes them to
// the matching adapter. Delivery is best-effort; send failures are logged.
func (m *Manager) setupOutboundDispatch() {
	m.bus.Subscribe("", func(n bus.OutboundNotice) {
		for _, a := range m.snapshot() {
			if a.Name() == n.Platform {
				if err := a.Send(n); err != nil {
					slog.Error("failed to send notice", "adapter", a.Name(), "error", err)
				}
				return
			}
		}
	})
}
