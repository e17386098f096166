package events

import (
	"context"
	"encoding/json"
	"sync"
)

// Publisher sends JSON-encoded events under a routing key.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) PublishJSON(context.Context, string, any) error { return nil }
func (Nop) Close() error                                    { return nil }

type Message struct {
	Key  string
	Body []byte
}

// Memory keeps published events in order, for tests and local runs.
type Memory struct {
	mu       sync.Mutex
	messages []Message
}

func (m *Memory) PublishJSON(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.messages = append(m.messages, Message{Key: key, Body: b})
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}
