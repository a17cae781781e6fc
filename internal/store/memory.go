package store

import (
	"context"
	"errors"
	"slices"
	"sync"
)

type memRow struct {
	data []byte
	idx  map[string]string
}

type memTable struct {
	rows map[string]memRow
	// index -> value -> ids
	idx map[string]map[string]map[string]struct{}
}

// Memory keeps every table in process. One mutex serialises writers, which
// makes Mutate trivially atomic.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*memTable)}
}

func (m *Memory) table(name string) *memTable {
	t, ok := m.tables[name]
	if !ok {
		t = &memTable{rows: make(map[string]memRow), idx: make(map[string]map[string]map[string]struct{})}
		m.tables[name] = t
	}
	return t
}

func (m *Memory) Get(_ context.Context, table, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[table]
	if !ok {
		return nil, ErrNotFound
	}
	row, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(row.data), nil
}

func (m *Memory) Mutate(_ context.Context, table, id string, fn Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	old, exists := t.rows[id]

	data, idx, err := fn(slices.Clone(old.data), exists)
	if errors.Is(err, errSkip) {
		return nil
	}
	if err != nil {
		return err
	}

	t.unindex(id, old.idx)
	t.rows[id] = memRow{data: slices.Clone(data), idx: idx}
	t.index(id, idx)
	return nil
}

func (m *Memory) Scan(_ context.Context, table string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[table]
	if !ok {
		return nil, nil
	}
	ids := make([]string, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	return t.collect(ids), nil
}

func (m *Memory) ListBy(_ context.Context, table, index, value string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[table]
	if !ok {
		return nil, nil
	}
	set := t.idx[index][value]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return t.collect(ids), nil
}

func (m *Memory) Delete(_ context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[table]
	if !ok {
		return ErrNotFound
	}
	row, ok := t.rows[id]
	if !ok {
		return ErrNotFound
	}
	t.unindex(id, row.idx)
	delete(t.rows, id)
	return nil
}

func (m *Memory) Close() error { return nil }

// collect returns rows in id order so callers see a stable listing.
func (t *memTable) collect(ids []string) [][]byte {
	slices.Sort(ids)
	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		out = append(out, slices.Clone(t.rows[id].data))
	}
	return out
}

func (t *memTable) index(id string, idx map[string]string) {
	for name, v := range idx {
		byValue, ok := t.idx[name]
		if !ok {
			byValue = make(map[string]map[string]struct{})
			t.idx[name] = byValue
		}
		ids, ok := byValue[v]
		if !ok {
			ids = make(map[string]struct{})
			byValue[v] = ids
		}
		ids[id] = struct{}{}
	}
}

func (t *memTable) unindex(id string, idx map[string]string) {
	for name, v := range idx {
		ids := t.idx[name][v]
		delete(ids, id)
		if len(ids) == 0 {
			delete(t.idx[name], v)
		}
	}
}
