package cache

import "context"

// MockCache is an in-memory Cache for tests.
type MockCache struct {
	Data map[string]string
}

func NewMockCache() *MockCache {
	return &MockCache{
		Data: make(map[string]string),
	}
}

func (m *MockCache) Get(_ context.Context, key string) (string, bool) {
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(_ context.Context, key string, value string) error {
	m.Data[key] = value
	return nil
}

func (m *MockCache) Delete(_ context.Context, key string) error {
	delete(m.Data, key)
	return nil
}
