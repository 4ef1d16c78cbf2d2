package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/quietday/quietday/internal/utils"
	"github.com/quietday/quietday/pkg/feed"
	"github.com/quietday/quietday/pkg/venue"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// Get returns the cached schedule for the URL, refreshing it first when
	// no data exists yet or the cache is older than maxAge. When a refresh
	// fails but a previous snapshot exists, the stale snapshot is served.
	Get(ctx context.Context, url string, maxAge time.Duration) (*Schedule, error)
	// Refresh unconditionally refetches the feed. The entry is persisted with
	// an updated refresh timestamp even when the fetch fails, so the backoff
	// survives process restarts.
	Refresh(ctx context.Context, url string) (*Schedule, error)
	// EventsFrom returns the schedule's events with date >= minDate. An empty
	// minDate means venue-local today.
	EventsFrom(schedule *Schedule, minDate string) ([]feed.Event, error)
}

type ServiceImpl struct {
	repo    Repository
	fetcher feed.Fetcher
	venue   *venue.Venue
	clock   utils.Clock

	// One live entity per feed URL, so that every request in this process
	// observes the same memo and sees new data as soon as a refresh lands.
	mu      sync.Mutex
	entries map[string]*Schedule
}

func NewService(repo Repository, fetcher feed.Fetcher, v *venue.Venue) *ServiceImpl {
	return &ServiceImpl{
		repo:    repo,
		fetcher: fetcher,
		venue:   v,
		clock:   &utils.SystemClock{},
		entries: make(map[string]*Schedule),
	}
}

// entry returns the process-wide entity for the URL, loading it from the
// store on first use. Returns nil when the store has no entry yet.
func (s *ServiceImpl) entry(ctx context.Context, url string) (*Schedule, error) {
	s.mu.Lock()
	cached := s.entries[url]
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	stored, err := s.repo.FindByURL(ctx, url)
	if err != nil || stored == nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.entries[url]; existing != nil {
		return existing, nil
	}
	s.entries[url] = stored
	return stored, nil
}

func (s *ServiceImpl) Get(ctx context.Context, url string, maxAge time.Duration) (*Schedule, error) {
	sched, err := s.entry(ctx, url)
	if err != nil {
		// Store trouble is handled like a missing entry: try the feed.
		log.Errorf("cannot load schedule for %s from store: %v", url, err)
		sched = nil
	}

	if sched != nil {
		eventsJSON, refreshedAt := sched.Snapshot()
		if eventsJSON != "" && s.clock.Now().Sub(refreshedAt) <= maxAge {
			return sched, nil
		}
	}

	refreshed, refreshErr := s.Refresh(ctx, url)
	if refreshErr != nil {
		if sched != nil && sched.HasData() {
			log.Warnf("refresh failed, serving stale schedule for %s: %v", url, refreshErr)
			return sched, nil
		}
		return nil, refreshErr
	}
	return refreshed, nil
}

func (s *ServiceImpl) Refresh(ctx context.Context, url string) (*Schedule, error) {
	sched, err := s.entry(ctx, url)
	if err != nil {
		log.Errorf("cannot load schedule for %s from store: %v", url, err)
	}
	if sched == nil {
		sched = NewSchedule(url)
		s.mu.Lock()
		if existing := s.entries[url]; existing != nil {
			sched = existing
		} else {
			s.entries[url] = sched
		}
		s.mu.Unlock()
	}

	events, fetchErr := s.fetcher.Fetch(ctx, url)
	if fetchErr == nil {
		if err := sched.SetEvents(events); err != nil {
			fetchErr = err
		}
	}

	// The timestamp moves on every attempt, success or not, so that callers
	// polling with a short maxAge don't hammer a failing upstream.
	sched.MarkRefreshed(s.clock.Now())
	if err := s.repo.Store(ctx, sched); err != nil {
		log.Errorf("cannot persist schedule for %s: %v", url, err)
	}

	if fetchErr != nil {
		return sched, fetchErr
	}
	log.Infof("refreshed schedule for %s", url)
	return sched, nil
}

func (s *ServiceImpl) EventsFrom(schedule *Schedule, minDate string) ([]feed.Event, error) {
	if minDate == "" {
		minDate = s.venue.Today(s.clock)
	}
	return schedule.EventsFrom(minDate)
}
