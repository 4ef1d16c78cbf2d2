package feed

import (
	"context"
	"sync"
)

type StubFetcher struct {
	mu     sync.Mutex
	Events []Event
	Err    error
	Calls  int
}

func (s *StubFetcher) Fetch(ctx context.Context, url string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Events, nil
}
