package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory keeps records in process. Used when no database is configured
// and in tests.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]JobRecord
}

func NewMemory() *Memory {
	return &Memory{recs: make(map[string]JobRecord)}
}

func (m *Memory) Put(_ context.Context, rec JobRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.recs[rec.ID]; ok {
		rec.CreatedAt = old.CreatedAt
	}
	m.recs[rec.ID] = rec
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (JobRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[id]
	if !ok {
		return JobRecord{}, ErrNotFound
	}
	return rec, nil
}

// List returns the most recent records first.
func (m *Memory) List(_ context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	recs := make([]JobRecord, 0, len(m.recs))
	for _, rec := range m.recs {
		recs = append(recs, rec)
	}
	m.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (m *Memory) Close() error { return nil }
