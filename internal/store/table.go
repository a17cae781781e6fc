package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Schema names a logical table and its secondary indexes. Each index maps a
// record to the value it is listed under; an empty value is not indexed.
type Schema[T Record] struct {
	Name    string
	Indexes map[string]func(T) string
}

// Table is the typed view of one logical table.
type Table[T Record] struct {
	schema  Schema[T]
	backend Backend
}

func NewTable[T Record](b Backend, s Schema[T]) *Table[T] {
	return &Table[T]{schema: s, backend: b}
}

func (t *Table[T]) Name() string { return t.schema.Name }

func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	raw, err := t.backend.Get(ctx, t.schema.Name, id)
	if err != nil {
		return zero, err
	}
	return t.decode(raw)
}

// Put inserts or replaces a record.
func (t *Table[T]) Put(ctx context.Context, rec T) error {
	data, idx, err := t.encode(rec)
	if err != nil {
		return err
	}
	return t.backend.Mutate(ctx, t.schema.Name, rec.RecordID(), func([]byte, bool) ([]byte, map[string]string, error) {
		return data, idx, nil
	})
}

// Create inserts a record and fails with ErrConflict when the id exists.
func (t *Table[T]) Create(ctx context.Context, rec T) error {
	data, idx, err := t.encode(rec)
	if err != nil {
		return err
	}
	return t.backend.Mutate(ctx, t.schema.Name, rec.RecordID(), func(_ []byte, exists bool) ([]byte, map[string]string, error) {
		if exists {
			return nil, nil, fmt.Errorf("%w: %s/%s exists", ErrConflict, t.schema.Name, rec.RecordID())
		}
		return data, idx, nil
	})
}

// Update atomically reads, modifies and writes one record. fn may run more
// than once when a backend retries after a conflict, so it must not have
// side effects. Returning ErrNoChange from fn skips the write and is not
// reported as an error. The record id must not change.
func (t *Table[T]) Update(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var out T
	err := t.backend.Mutate(ctx, t.schema.Name, id, func(old []byte, exists bool) ([]byte, map[string]string, error) {
		if !exists {
			return nil, nil, ErrNotFound
		}
		rec, err := t.decode(old)
		if err != nil {
			return nil, nil, err
		}
		if err := fn(&rec); err != nil {
			if errors.Is(err, ErrNoChange) {
				out = rec
				return nil, nil, errSkip
			}
			return nil, nil, err
		}
		if rec.RecordID() != id {
			return nil, nil, fmt.Errorf("store: update changed id %q to %q", id, rec.RecordID())
		}
		data, idx, err := t.encode(rec)
		if err != nil {
			return nil, nil, err
		}
		out = rec
		return data, idx, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// ErrNoChange is returned by an Update callback that decided not to write.
var ErrNoChange = errors.New("store: no change")

func (t *Table[T]) Scan(ctx context.Context) ([]T, error) {
	rows, err := t.backend.Scan(ctx, t.schema.Name)
	if err != nil {
		return nil, err
	}
	return t.decodeAll(rows)
}

// ListBy returns the records whose index value equals value.
func (t *Table[T]) ListBy(ctx context.Context, index, value string) ([]T, error) {
	if _, ok := t.schema.Indexes[index]; !ok {
		return nil, fmt.Errorf("store: table %s has no index %q", t.schema.Name, index)
	}
	rows, err := t.backend.ListBy(ctx, t.schema.Name, index, value)
	if err != nil {
		return nil, err
	}
	return t.decodeAll(rows)
}

func (t *Table[T]) Delete(ctx context.Context, id string) error {
	return t.backend.Delete(ctx, t.schema.Name, id)
}

func (t *Table[T]) encode(rec T) ([]byte, map[string]string, error) {
	if rec.RecordID() == "" {
		return nil, nil, fmt.Errorf("store: %s record has empty id", t.schema.Name)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, nil, fmt.Errorf("store: encode %s: %w", t.schema.Name, err)
	}
	idx := make(map[string]string, len(t.schema.Indexes))
	for name, fn := range t.schema.Indexes {
		if v := fn(rec); v != "" {
			idx[name] = v
		}
	}
	return data, idx, nil
}

func (t *Table[T]) decode(raw []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("store: decode %s: %w", t.schema.Name, err)
	}
	return rec, nil
}

func (t *Table[T]) decodeAll(rows [][]byte) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, raw := range rows {
		rec, err := t.decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
