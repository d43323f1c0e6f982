package host

import (
	"context"
	"sync"

	"github.com/aleister1102/firefoxversions/internal/agent"
	"github.com/aleister1102/firefoxversions/internal/snapshot"
)

// OverlayMemory reads through to a base memory but keeps every write local,
// so a dry run sees the stored state without changing it.
type OverlayMemory struct {
	base   agent.Memory
	mu     sync.Mutex
	values map[string]string
}

// NewOverlayMemory wraps base; base may be nil for an empty memory.
func NewOverlayMemory(base agent.Memory) *OverlayMemory {
	return &OverlayMemory{base: base, values: make(map[string]string)}
}

func (m *OverlayMemory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	value, ok := m.values[key]
	m.mu.Unlock()
	if ok {
		return value, true, nil
	}
	if m.base == nil {
		return "", false, nil
	}
	return m.base.Get(ctx, key)
}

func (m *OverlayMemory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Writes returns the values written during the run.
func (m *OverlayMemory) Writes() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// CollectingSink keeps emitted payloads in memory.
type CollectingSink struct {
	mu     sync.Mutex
	events []snapshot.Document
}

func (s *CollectingSink) Emit(_ context.Context, payload snapshot.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, payload.Clone())
	return nil
}

// Events returns the collected payloads in emit order.
func (s *CollectingSink) Events() []snapshot.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]snapshot.Document, len(s.events))
	copy(out, s.events)
	return out
}
