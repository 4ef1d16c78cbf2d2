package schedule

import (
	"context"
	"sync"
)

type StubRepository struct {
	mu     sync.Mutex
	Stored map[string]*Schedule
	Err    error
}

func NewStubRepository() *StubRepository {
	return &StubRepository{Stored: make(map[string]*Schedule)}
}

func (s *StubRepository) FindByURL(ctx context.Context, url string) (*Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	stored, ok := s.Stored[url]
	if !ok {
		return nil, nil
	}
	// Return a detached copy of the durable fields, like a real store would.
	blob, refreshedAt := stored.Snapshot()
	return RestoreSchedule(stored.URL, blob, refreshedAt), nil
}

func (s *StubRepository) Store(ctx context.Context, schedule *Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	blob, refreshedAt := schedule.Snapshot()
	s.Stored[schedule.URL] = RestoreSchedule(schedule.URL, blob, refreshedAt)
	return nil
}
