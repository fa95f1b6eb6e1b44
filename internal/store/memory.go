package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memSecret struct {
	labels   map[string]string
	versions [][]byte
}

// Memory is an in-process Store used by tests and local experimentation.
// Namespaces and secrets are created on demand by Create.
type Memory struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]*memSecret
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{namespaces: make(map[string]map[string]*memSecret)}
}

// Seed creates a secret with labels and a single version, for test setup.
func (m *Memory) Seed(namespace, name string, labels map[string]string, value []byte) {
	_ = m.Create(context.Background(), namespace, name, labels)
	if value != nil {
		_ = m.AddVersion(context.Background(), namespace, name, value)
	}
}

func (m *Memory) List(_ context.Context, namespace string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []Record
	for name, s := range m.namespaces[namespace] {
		records = append(records, Record{Name: name, Labels: s.labels})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

func (m *Memory) LatestValue(_ context.Context, namespace, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.namespaces[namespace][name]
	if !ok || len(s.versions) == 0 {
		return nil, ErrNotFound
	}
	return s.versions[len(s.versions)-1], nil
}

func (m *Memory) Create(_ context.Context, namespace, name string, labels map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.namespaces[namespace] == nil {
		m.namespaces[namespace] = make(map[string]*memSecret)
	}
	if _, exists := m.namespaces[namespace][name]; exists {
		return fmt.Errorf("secret %s already exists", name)
	}
	if labels == nil {
		labels = make(map[string]string)
	}
	m.namespaces[namespace][name] = &memSecret{labels: labels}
	return nil
}

func (m *Memory) AddVersion(_ context.Context, namespace, name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.namespaces[namespace][name]
	if !ok {
		return ErrNotFound
	}
	s.versions = append(s.versions, value)
	return nil
}

func (m *Memory) Delete(_ context.Context, namespace, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.namespaces[namespace][name]; !ok {
		return ErrNotFound
	}
	delete(m.namespaces[namespace], name)
	return nil
}
