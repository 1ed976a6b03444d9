package storage

import "sync"

// MemoryStorage 是不落盘的有序集合，用于测试和无持久化运行。
type MemoryStorage struct {
	mu      sync.Mutex
	entries []string
}

func NewMemoryStorage(entries []string) *MemoryStorage {
	return &MemoryStorage{entries: append([]string(nil), entries...)}
}

func (m *MemoryStorage) Load() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.entries...), nil
}

func (m *MemoryStorage) Save(entries []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]string(nil), entries...)
	return nil
}

func (m *MemoryStorage) Remove(entry string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e == entry {
			m.entries = append(m.entries[:i:i], m.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
