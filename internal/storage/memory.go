package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

// MemoryStore keeps objects in process memory. It backs local runs without
// MinIO (STORAGE_DRIVER=memory) and the tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	BaseURL string

	// FailDelete makes Delete return an error, for exercising best-effort
	// release paths.
	FailDelete bool
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}, BaseURL: baseURL}
}

func (m *MemoryStore) Put(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = data
	return fmt.Sprintf("%s/%s", m.BaseURL, objectName), nil
}

func (m *MemoryStore) Delete(_ context.Context, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDelete {
		return errors.New("storage backend unreachable")
	}
	if _, ok := m.objects[objectName]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, objectName)
	return nil
}

func (m *MemoryStore) PresignedGetURL(_ context.Context, objectName string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[objectName]; !ok {
		return "", ErrObjectNotFound
	}
	return fmt.Sprintf("%s/%s?expires=%d", m.BaseURL, objectName, int(expiry.Seconds())), nil
}

func (m *MemoryStore) Has(objectName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[objectName]
	return ok
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
