package agents

import (
	"context"
	"log/slog"
	"sync"
)

// LongTermStore is the persistence backend for agent long-term memory.
// Values are opaque strings chosen by the agent.
type LongTermStore interface {
	Put(ctx context.Context, agentID, key, value string) error
	Get(ctx context.Context, agentID, key string) (string, bool, error)
	Delete(ctx context.Context, agentID, key string) error
}

// Memory is an agent's two-tier key/value memory: a short-term map scoped to
// the process lifetime and an optional long-term store that survives
// restarts. Lookups check short-term before long-term.
type Memory struct {
	mu      sync.RWMutex
	agentID string
	short   map[string]string
	long    LongTermStore
	logger  *slog.Logger
}

func newMemory(agentID string, long LongTermStore, logger *slog.Logger) *Memory {
	return &Memory{
		agentID: agentID,
		short:   make(map[string]string),
		long:    long,
		logger:  logger,
	}
}

// Remember stores a value. With persistent set and a long-term store
// configured, the value goes to the long-term store; otherwise short-term.
// Store failures are logged, never propagated.
func (m *Memory) Remember(ctx context.Context, key, value string, persistent bool) {
	if persistent && m.long != nil {
		if err := m.long.Put(ctx, m.agentID, key, value); err != nil {
			m.logger.Warn("long-term memory write failed",
				"agent", m.agentID, "key", key, "error", err)
		}
		return
	}
	m.mu.Lock()
	m.short[key] = value
	m.mu.Unlock()
}

// Recall looks up a key, short-term first, then long-term.
func (m *Memory) Recall(ctx context.Context, key string) (string, bool) {
	m.mu.RLock()
	v, ok := m.short[key]
	m.mu.RUnlock()
	if ok {
		return v, true
	}
	if m.long == nil {
		return "", false
	}
	v, ok, err := m.long.Get(ctx, m.agentID, key)
	if err != nil {
		m.logger.Warn("long-term memory read failed",
			"agent", m.agentID, "key", key, "error", err)
		return "", false
	}
	return v, ok
}

// Forget removes a key from both tiers.
func (m *Memory) Forget(ctx context.Context, key string) {
	m.mu.Lock()
	delete(m.short, key)
	m.mu.Unlock()
	if m.long != nil {
		if err := m.long.Delete(ctx, m.agentID, key); err != nil {
			m.logger.Warn("long-term memory delete failed",
				"agent", m.agentID, "key", key, "error", err)
		}
	}
}
