package storage

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// MemoryStorage is a process-local Store. It backs the preview server when
// nothing durable is configured; values are lost on restart.
type MemoryStorage struct {
	mu        sync.RWMutex
	values    map[string][]byte
	pingError error
	setError  error
}

var _ Store = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values: make(map[string][]byte),
	}
}

// SetPingError makes Ping report err until cleared with nil.
func (m *MemoryStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetWriteError makes every Set fail with err until cleared with nil.
func (m *MemoryStorage) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setError = err
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, exists := m.values[key]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return slices.Clone(value), nil
}

func (m *MemoryStorage) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		return errors.New("value cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setError != nil {
		return m.setError
	}
	m.values[key] = slices.Clone(value)
	return nil
}

func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
