package schedule

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/quietday/quietday/pkg/feed"
)

// Schedule is the cached, parsed copy of one feed. The feed URL is the
// natural key. The serialized events and refresh timestamp are the persisted
// fields; the per-cutoff memo lives only for the lifetime of this entity and
// is dropped whenever the underlying data is replaced.
//
// One instance is shared by every request in the process, so all field
// access goes through the mutex.
type Schedule struct {
	URL string

	mu              sync.Mutex
	eventsJSON      string
	refreshedAt     time.Time
	eventsByMinDate map[string][]feed.Event
}

// NewSchedule returns an empty cache entry for a feed URL.
func NewSchedule(url string) *Schedule {
	return &Schedule{URL: url}
}

// RestoreSchedule rebuilds a cache entry from its persisted fields.
func RestoreSchedule(url, eventsJSON string, refreshedAt time.Time) *Schedule {
	return &Schedule{URL: url, eventsJSON: eventsJSON, refreshedAt: refreshedAt}
}

// HasData reports whether any event data has ever been stored for this feed.
func (s *Schedule) HasData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventsJSON != ""
}

// RawEvents returns the serialized event blob, as served on /schedule.json.
func (s *Schedule) RawEvents() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventsJSON
}

// LastRefreshed returns the time of the last refresh attempt.
func (s *Schedule) LastRefreshed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshedAt
}

// MarkRefreshed records a refresh attempt, successful or not.
func (s *Schedule) MarkRefreshed(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshedAt = t
}

// Snapshot returns the durable fields as one consistent view, for persisting
// and for staleness decisions.
func (s *Schedule) Snapshot() (eventsJSON string, refreshedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventsJSON, s.refreshedAt
}

// SetEvents replaces the serialized event list and invalidates the memoized
// views.
func (s *Schedule) SetEvents(events []feed.Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("could not serialize events: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventsJSON = string(data)
	s.eventsByMinDate = nil
	return nil
}

// EventsFrom returns the events with date >= minDate, in stored order,
// memoized per cutoff date. The memo is purely an optimization: it is safe
// to drop at any time, costing only a re-decode of the blob.
func (s *Schedule) EventsFrom(minDate string) ([]feed.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.eventsByMinDate[minDate]; ok {
		return cached, nil
	}

	var all []feed.Event
	if s.eventsJSON != "" {
		if err := json.Unmarshal([]byte(s.eventsJSON), &all); err != nil {
			return nil, fmt.Errorf("could not decode stored events: %w", err)
		}
	}

	filtered := make([]feed.Event, 0, len(all))
	for _, e := range all {
		if e.Date >= minDate {
			filtered = append(filtered, e)
		}
	}

	if s.eventsByMinDate == nil {
		s.eventsByMinDate = make(map[string][]feed.Event)
	}
	s.eventsByMinDate[minDate] = filtered
	return filtered, nil
}
