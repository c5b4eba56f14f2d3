package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/yigit/academia/internal/app/repositories"
	"github.com/yigit/academia/internal/pkg/apperrors"
)

// memStore is an in-memory Store that enforces the same unique columns as the schema.
type memStore[T any] struct {
	mu   sync.Mutex
	d    *repositories.Descriptor[T]
	recs map[string]*T
	ids  []string

	inserts     int
	updates     int
	lastChanged map[string]interface{}
	failWith    error
}

func newMemStore[T any](d *repositories.Descriptor[T]) *memStore[T] {
	return &memStore[T]{d: d, recs: map[string]*T{}}
}

func (m *memStore[T]) clone(rec *T) *T {
	b, _ := json.Marshal(rec)
	var out T
	_ = json.Unmarshal(b, &out)
	return &out
}

func (m *memStore[T]) findOne(column, value string) (*T, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, id := range m.ids {
		if m.d.StringValue(m.recs[id], column) == value {
			return m.clone(m.recs[id]), nil
		}
	}
	return nil, apperrors.NewResourceNotFoundError("not found")
}

func (m *memStore[T]) page(recs []*T, page, size int) []*T {
	start := page * size
	if start >= len(recs) {
		return []*T{}
	}
	end := start + size
	if end > len(recs) {
		end = len(recs)
	}
	return recs[start:end]
}

func (m *memStore[T]) List(_ context.Context, filter map[string]string, page, size int) ([]*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []*T{}
	for _, id := range m.ids {
		rec := m.recs[id]
		if name := filter["name"]; name != "" && !m.nameMatches(rec, name) {
			continue
		}
		out = append(out, m.clone(rec))
	}
	return m.page(out, page, size), nil
}

func (m *memStore[T]) nameMatches(rec *T, name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(strings.ToLower(m.d.StringValue(rec, repositories.ColumnFirstName)), name) ||
		strings.Contains(strings.ToLower(m.d.StringValue(rec, repositories.ColumnLastName)), name)
}

func (m *memStore[T]) GetByID(_ context.Context, id string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findOne(repositories.ColumnID, id)
}

func (m *memStore[T]) GetByNaturalKey(_ context.Context, dni string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findOne(repositories.ColumnDNI, dni)
}

func (m *memStore[T]) GetByEmail(_ context.Context, email string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findOne(repositories.ColumnEmail, email)
}

func (m *memStore[T]) SearchByName(_ context.Context, name string, page, size int) ([]*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*T{}
	for _, id := range m.ids {
		if m.nameMatches(m.recs[id], name) {
			out = append(out, m.clone(m.recs[id]))
		}
	}
	return m.page(out, page, size), nil
}

func (m *memStore[T]) FindBy(_ context.Context, field string, value interface{}, page, size int) ([]*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.d.Field(field)
	if !ok {
		return nil, apperrors.NewValidationError(field, "unknown", "unknown field")
	}
	out := []*T{}
	for _, id := range m.ids {
		if m.d.StringValue(m.recs[id], c.Name) == fmt.Sprint(value) {
			out = append(out, m.clone(m.recs[id]))
		}
	}
	return m.page(out, page, size), nil
}

func (m *memStore[T]) conflicts(rec *T, selfID string) bool {
	for _, id := range m.ids {
		if id == selfID {
			continue
		}
		for _, col := range []string{repositories.ColumnDNI, repositories.ColumnEmail} {
			if m.d.StringValue(m.recs[id], col) == m.d.StringValue(rec, col) {
				return true
			}
		}
	}
	return false
}

func (m *memStore[T]) Insert(_ context.Context, rec *T) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if m.conflicts(rec, "") {
		return nil, apperrors.NewConflictError("duplicate")
	}
	id := m.d.ID(rec)
	m.recs[id] = m.clone(rec)
	m.ids = append(m.ids, id)
	m.inserts++
	return m.clone(rec), nil
}

func (m *memStore[T]) UpdatePartial(_ context.Context, id string, changed map[string]interface{}) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, apperrors.ErrConsistency
	}

	byColumn := map[string]string{}
	for _, c := range m.d.Columns() {
		byColumn[c.Name] = c.Field
	}
	patch := map[string]json.RawMessage{}
	for col, v := range changed {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		patch[byColumn[col]] = raw
	}

	next := m.clone(rec)
	if err := m.d.Decode(patch, next); err != nil {
		return nil, err
	}
	if m.conflicts(next, id) {
		return nil, apperrors.NewConflictError("duplicate")
	}
	m.recs[id] = next
	m.updates++
	m.lastChanged = changed
	return m.clone(next), nil
}

func (m *memStore[T]) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[id]; !ok {
		return false, nil
	}
	delete(m.recs, id)
	for i, v := range m.ids {
		if v == id {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			break
		}
	}
	return true, nil
}
