// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/asset-vault/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	values map[string]entry
	logs   []generic.TransactionLog
	events []generic.Event
}

type entry struct {
	key   generic.Key
	value []byte
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]entry)}
}

func (m *Memory) Get(_ context.Context, key generic.Key) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.getLocked(key)
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key generic.Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value)
	return nil
}

func (m *Memory) Has(_ context.Context, key generic.Key) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[key.String()]
	return ok, nil
}

func (m *Memory) Remove(_ context.Context, key generic.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key.String())
	return nil
}

func (m *Memory) Keys(_ context.Context, kind generic.KeyKind) ([]generic.Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keysLocked(kind), nil
}

// AppendLog adds an audit entry. Append-only.
func (m *Memory) AppendLog(_ context.Context, e generic.TransactionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, e)
	return nil
}

func (m *Memory) Emit(_ context.Context, e generic.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) Logs(_ context.Context, f generic.JournalFilter) ([]generic.TransactionLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return generic.FilterLogs(m.logs, f), nil
}

func (m *Memory) Events(_ context.Context, f generic.JournalFilter) ([]generic.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return generic.FilterEvents(m.events, f), nil
}

func (m *Memory) getLocked(key generic.Key) ([]byte, bool) {
	e, ok := m.values[key.String()]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true
}

func (m *Memory) setLocked(key generic.Key, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key.String()] = entry{key: key, value: stored}
}

func (m *Memory) keysLocked(kind generic.KeyKind) []generic.Key {
	names := make([]string, 0)
	for name, e := range m.values {
		if e.key.Kind == kind {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	keys := make([]generic.Key, len(names))
	for i, name := range names {
		keys[i] = m.values[name].key
	}
	return keys
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// The write lock is held for the whole call, so invocations are serialized.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm}); err != nil {
		tm.restore(snapshot)
		return err
	}

	// Commit (already done via direct writes)
	return nil
}

// Values are never mutated in place (setLocked stores a fresh copy), so the
// snapshot only needs to copy the map and the slice headers.
func (tm *TxMemory) snapshot() memorySnapshot {
	values := make(map[string]entry, len(tm.values))
	for k, v := range tm.values {
		values[k] = v
	}
	return memorySnapshot{values: values, logs: len(tm.logs), events: len(tm.events)}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.values = s.values
	tm.logs = tm.logs[:s.logs]
	tm.events = tm.events[:s.events]
}

type memorySnapshot struct {
	values map[string]entry
	logs   int
	events int
}

type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) Get(_ context.Context, key generic.Key) ([]byte, bool, error) {
	v, ok := tv.parent.getLocked(key)
	return v, ok, nil
}

func (tv *txMemoryView) Set(_ context.Context, key generic.Key, value []byte) error {
	tv.parent.setLocked(key, value)
	return nil
}

func (tv *txMemoryView) Has(_ context.Context, key generic.Key) (bool, error) {
	_, ok := tv.parent.values[key.String()]
	return ok, nil
}

func (tv *txMemoryView) Remove(_ context.Context, key generic.Key) error {
	delete(tv.parent.values, key.String())
	return nil
}

func (tv *txMemoryView) Keys(_ context.Context, kind generic.KeyKind) ([]generic.Key, error) {
	return tv.parent.keysLocked(kind), nil
}

func (tv *txMemoryView) AppendLog(_ context.Context, e generic.TransactionLog) error {
	tv.parent.logs = append(tv.parent.logs, e)
	return nil
}

func (tv *txMemoryView) Emit(_ context.Context, e generic.Event) error {
	tv.parent.events = append(tv.parent.events, e)
	return nil
}
