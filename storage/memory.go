package storage

import (
	"context"
	"sync"
)

// MemoryStore is the in-memory BlobStore used by tests and local runs.
type MemoryStore struct {
	mu      sync.Mutex
	BaseURL string
	objects map[string]memoryObject
	err     error
}

type memoryObject struct {
	ContentType string
	Data        []byte
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		BaseURL: baseURL,
		objects: make(map[string]memoryObject),
	}
}

// FailWith makes every subsequent Upload return err.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemoryStore) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	m.objects[name] = memoryObject{ContentType: contentType, Data: stored}

	return m.BaseURL + "/" + name, nil
}

// Object returns the stored bytes and content type for name.
func (m *MemoryStore) Object(name string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[name]
	return obj.Data, obj.ContentType, ok
}

// Names lists stored object names.
func (m *MemoryStore) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.objects))
	for name := range m.objects {
		names = append(names, name)
	}
	return names
}

var _ BlobStore = (*MemoryStore)(nil)
