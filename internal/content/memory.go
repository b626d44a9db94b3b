package content

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu           sync.Mutex
	records      map[uuid.UUID]*Record
	byKey        map[Key]uuid.UUID
	scheduleHour int
	now          func() time.Time
}

// NewMemoryStore creates an empty store scheduling new records at hour.
func NewMemoryStore(scheduleHour int) *MemoryStore {
	return &MemoryStore{
		records:      make(map[uuid.UUID]*Record),
		byKey:        make(map[Key]uuid.UUID),
		scheduleHour: scheduleHour,
		now:          time.Now,
	}
}

// Upsert implements Store.
func (m *MemoryStore) Upsert(_ context.Context, key Key, f Fields) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if id, ok := m.byKey[key]; ok {
		rec := m.records[id]
		merge(rec, f)
		rec.UpdatedAt = now
		return id, nil
	}

	f = ApplyDefaults(key, f, now, m.scheduleHour)
	rec := &Record{ID: uuid.New(), Key: key, CreatedAt: now, UpdatedAt: now}
	merge(rec, f)
	m.records[rec.ID] = rec
	m.byKey[key] = rec.ID
	return rec.ID, nil
}

// SetImageURL implements Store.
func (m *MemoryStore) SetImageURL(_ context.Context, id uuid.UUID, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return false, nil
	}
	rec.ImageURL = url
	rec.UpdatedAt = m.now()
	return true, nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	c := *rec
	return &c, nil
}

// Len returns the number of records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Records returns copies of every record, in no particular order.
func (m *MemoryStore) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, *rec)
	}
	return out
}

func merge(rec *Record, f Fields) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&rec.Content, f.Content)
	set(&rec.ContentHTML, f.ContentHTML)
	set(&rec.Title, f.Title)
	set(&rec.PostTitle, f.PostTitle)
	set(&rec.PostExcerpt, f.PostExcerpt)
	set(&rec.Permalink, f.Permalink)
	set(&rec.ImageURL, f.ImageURL)
	set(&rec.Status, f.Status)
	if f.ScheduleTime != nil {
		rec.ScheduleTime = *f.ScheduleTime
	}
}
