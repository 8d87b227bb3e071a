package infra

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Tsinling0525/scriptflow/format/graphdoc"
)

// MemGraphs is an in-memory GraphStore. Documents are stored encoded so
// callers never share settings maps with the store.
type MemGraphs struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemGraphs() *MemGraphs { return &MemGraphs{data: map[string][]byte{}} }

func (m *MemGraphs) Put(ctx context.Context, doc graphdoc.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkName(doc.Name); err != nil {
		return err
	}
	b, err := graphdoc.Encode(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[doc.Name] = b
	return nil
}

func (m *MemGraphs) Get(ctx context.Context, name string) (graphdoc.Document, error) {
	if err := ctx.Err(); err != nil {
		return graphdoc.Document{}, err
	}
	m.mu.RLock()
	b, ok := m.data[name]
	m.mu.RUnlock()
	if !ok {
		return graphdoc.Document{}, fmt.Errorf("%w: %s", ErrGraphNotFound, name)
	}
	return graphdoc.Decode(b)
}

func (m *MemGraphs) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.data))
	for n := range m.data {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemGraphs) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[name]; !ok {
		return fmt.Errorf("%w: %s", ErrGraphNotFound, name)
	}
	delete(m.data, name)
	return nil
}

var _ GraphStore = (*MemGraphs)(nil)
