package store

import "sync"

// KV is a synchronous, string-keyed persistent store. Get reports ok=false
// when the key has never been written.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// MemKV is a process-local KV used when no durable backend is configured,
// and in tests.
type MemKV struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemKV returns an empty MemKV.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string]string)}
}

func (m *MemKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
