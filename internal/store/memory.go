package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/payment-plan/internal/plan"
)

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	Record
	deleted bool
}

// NewMemory returns an empty in-memory store. A nil clock uses time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{records: make(map[string]*memoryRecord), now: now}
}

// Save stores c under a new id.
func (m *Memory) Save(_ context.Context, c plan.Configuration) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	r := Record{ID: uuid.NewString(), Plan: c.Clone(), CreatedAt: now, UpdatedAt: now}
	m.records[r.ID] = &memoryRecord{Record: r}
	return cloneRecord(r), nil
}

// Update replaces the plan stored under id, keeping its creation time.
func (m *Memory) Update(_ context.Context, id string, c plan.Configuration) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok || r.deleted {
		return Record{}, ErrNotFound
	}
	r.Plan = c.Clone()
	r.UpdatedAt = m.now().UTC()
	return cloneRecord(r.Record), nil
}

// Get returns the plan stored under id.
func (m *Memory) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	if !ok || r.deleted {
		return Record{}, ErrNotFound
	}
	return cloneRecord(r.Record), nil
}

// Delete hides the plan stored under id.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok || r.deleted {
		return ErrNotFound
	}
	r.deleted = true
	r.UpdatedAt = m.now().UTC()
	return nil
}

// List returns one page of plans matching q.
func (m *Memory) List(_ context.Context, q Query) (Page, error) {
	q = q.Normalize()

	var after *cursor
	if strings.TrimSpace(q.Cursor) != "" {
		c, err := decodeCursor(q.Cursor, q.Sort)
		if err != nil {
			return Page{}, err
		}
		after = &c
	}

	m.mu.RLock()
	var candidates []Record
	for _, r := range m.records {
		if r.deleted || !q.matches(r.Record) {
			continue
		}
		candidates = append(candidates, r.Record)
	}
	m.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		return before(candidates[i], candidates[j], q)
	})

	rows := make([]Record, 0, q.PageSize)
	for _, r := range candidates {
		if after != nil && !beyond(cursorFor(r, q.Sort), *after, q.Direction) {
			continue
		}
		rows = append(rows, cloneRecord(r))
		if len(rows) == q.PageSize {
			break
		}
	}
	return paginate(rows, q), nil
}

// before orders records for q.
func before(a, b Record, q Query) bool {
	result := compare(cursorFor(a, q.Sort), cursorFor(b, q.Sort))
	if q.Direction == Desc {
		return result > 0
	}
	return result < 0
}

// beyond reports whether c comes after the cursor in direction d.
func beyond(c, after cursor, d Direction) bool {
	result := compare(c, after)
	if d == Desc {
		return result < 0
	}
	return result > 0
}

func cloneRecord(r Record) Record {
	r.Plan = r.Plan.Clone()
	return r
}
