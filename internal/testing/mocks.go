package testing

import (
	"sync"

	"github.com/aristath/structura/internal/events"
)

// MockEventEmitter records emitted events instead of publishing them
type MockEventEmitter struct {
	mu     sync.Mutex
	events []events.EventData
}

// NewMockEventEmitter creates a new mock event emitter
func NewMockEventEmitter() *MockEventEmitter {
	return &MockEventEmitter{}
}

// Emit records the event
func (m *MockEventEmitter) Emit(module string, data events.EventData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, data)
}

// Events returns everything emitted so far
func (m *MockEventEmitter) Events() []events.EventData {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.EventData, len(m.events))
	copy(out, m.events)
	return out
}

// Types returns the types of everything emitted so far, in order
func (m *MockEventEmitter) Types() []events.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.EventType()
	}
	return out
}

// Reset forgets recorded events
func (m *MockEventEmitter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
