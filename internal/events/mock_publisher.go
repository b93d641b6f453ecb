package events

import (
	"context"
	"log/slog"
	"sync"
)

// MockEventPublisher records published events for tests.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	topics []string
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	m.topics = append(m.topics, topic)
	if m.logger != nil {
		m.logger.Debug("mock publish", "topic", topic, "event_type", event.Type)
	}
	return nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

func (m *MockEventPublisher) GetPublishedEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockEventPublisher) GetPublishedTopics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.topics))
	copy(out, m.topics)
	return out
}

func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	m.topics = nil
}
