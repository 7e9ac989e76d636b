package entry

import (
	"context"
	"sort"
	"time"
)

// StubRepository is an in-memory Repository for tests.
type StubRepository struct {
	nextId  int
	Entries map[string]DayEntry // uid -> entry
}

func NewStubRepository() *StubRepository {
	return &StubRepository{Entries: map[string]DayEntry{}}
}

func (s *StubRepository) Store(ctx context.Context, entry DayEntry) (DayEntry, error) {
	for _, e := range s.Entries {
		if !e.Deleted && e.Date.Equal(entry.Date) {
			return DayEntry{}, ErrDuplicateDate
		}
	}
	s.nextId++
	entry.ID = s.nextId
	s.Entries[entry.UID] = entry
	return entry, nil
}

func (s *StubRepository) Update(ctx context.Context, entry DayEntry) (DayEntry, error) {
	existing, ok := s.Entries[entry.UID]
	if !ok {
		return DayEntry{}, ErrNotFound
	}
	entry.ID = existing.ID
	s.Entries[entry.UID] = entry
	return entry, nil
}

func (s *StubRepository) Delete(ctx context.Context, uid string) error {
	e, ok := s.Entries[uid]
	if !ok || e.Deleted {
		return ErrNotFound
	}
	e.Deleted = true
	e.UpdatedAt = time.Now()
	s.Entries[uid] = e
	return nil
}

func (s *StubRepository) FindByDate(ctx context.Context, date time.Time) (*DayEntry, error) {
	for _, e := range s.Entries {
		if !e.Deleted && e.Date.Equal(date) {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

func (s *StubRepository) FindRange(ctx context.Context, from time.Time, to time.Time) ([]DayEntry, error) {
	entries := make([]DayEntry, 0)
	for _, e := range s.Entries {
		if e.Deleted {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries, nil
}

func (s *StubRepository) UpsertBatch(ctx context.Context, entries []DayEntry) (int, error) {
	applied := 0
	for _, e := range entries {
		existing, ok := s.Entries[e.UID]
		if ok && !e.UpdatedAt.After(existing.UpdatedAt) {
			continue
		}
		if ok {
			e.ID = existing.ID
		} else {
			s.nextId++
			e.ID = s.nextId
		}
		s.Entries[e.UID] = e
		applied++
	}
	return applied, nil
}

func (s *StubRepository) ChangedSince(ctx context.Context, since time.Time) ([]DayEntry, error) {
	entries := make([]DayEntry, 0)
	for _, e := range s.Entries {
		if e.UpdatedAt.After(since) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.Before(entries[j].UpdatedAt)
	})
	return entries, nil
}

func (s *StubRepository) Cleanup() {
	s.Entries = map[string]DayEntry{}
	s.nextId = 0
}
