package datastore

import (
	"context"
	"time"

	"github.com/aleister1102/firefoxversions/internal/snapshot"
)

// AgentStore scopes a Store to a single agent. It serves as the agent's
// memory, event sink and health source.
type AgentStore struct {
	store       *Store
	agent       string
	errorWindow time.Duration
}

// Agent returns the agent name the view is scoped to.
func (a *AgentStore) Agent() string {
	return a.agent
}

// Get reads a memory slot.
func (a *AgentStore) Get(ctx context.Context, key string) (string, bool, error) {
	return a.store.GetMemory(ctx, a.agent, key)
}

// Set writes a memory slot.
func (a *AgentStore) Set(ctx context.Context, key, value string) error {
	return a.store.SetMemory(ctx, a.agent, key, value)
}

// Emit stores payload as a new event.
func (a *AgentStore) Emit(ctx context.Context, payload snapshot.Document) error {
	_, err := a.Record(ctx, payload)
	return err
}

// Record stores payload as a new event and returns it.
func (a *AgentStore) Record(ctx context.Context, payload snapshot.Document) (Event, error) {
	return a.store.InsertEvent(ctx, a.agent, payload)
}

// LatestEvent returns the newest event.
func (a *AgentStore) LatestEvent(ctx context.Context) (Event, bool, error) {
	return a.store.LatestEvent(ctx, a.agent)
}

// Events returns up to limit events, newest first.
func (a *AgentStore) Events(ctx context.Context, limit int) ([]Event, error) {
	return a.store.ListEvents(ctx, a.agent, limit)
}

// LastEventAt returns when the newest event was created.
func (a *AgentStore) LastEventAt(ctx context.Context) (time.Time, bool, error) {
	return a.store.LastEventAt(ctx, a.agent)
}

// HasRecentErrors reports an error logged after the last event, allowing for
// the error window before it. Without any event, any error counts.
func (a *AgentStore) HasRecentErrors(ctx context.Context) (bool, error) {
	lastErrorAt, hasError, err := a.store.LastErrorAt(ctx, a.agent)
	if err != nil || !hasError {
		return false, err
	}

	lastEventAt, hasEvent, err := a.store.LastEventAt(ctx, a.agent)
	if err != nil {
		return false, err
	}
	if !hasEvent {
		return true, nil
	}
	return lastErrorAt.After(lastEventAt.Add(-a.errorWindow)), nil
}

// Log records an info line.
func (a *AgentStore) Log(ctx context.Context, message string) error {
	return a.store.InsertLog(ctx, a.agent, LevelInfo, message)
}

// Error records an error line.
func (a *AgentStore) Error(ctx context.Context, message string) error {
	return a.store.InsertLog(ctx, a.agent, LevelError, message)
}
