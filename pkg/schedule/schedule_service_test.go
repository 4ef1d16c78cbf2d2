package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quietday/quietday/internal/utils"
	"github.com/quietday/quietday/pkg/feed"
	"github.com/quietday/quietday/pkg/venue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeedURL = "http://example.com/schedule.csv"

func testVenue(t *testing.T) *venue.Venue {
	t.Helper()
	v, err := venue.New("Giants", "AT&T Park", "America/Los_Angeles")
	require.NoError(t, err)
	return v
}

func newTestService(t *testing.T, repo Repository, fetcher feed.Fetcher, clock utils.Clock) *ServiceImpl {
	t.Helper()
	return &ServiceImpl{
		repo:    repo,
		fetcher: fetcher,
		venue:   testVenue(t),
		clock:   clock,
		entries: make(map[string]*Schedule),
	}
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2015, time.April, 10, 12, 0, 0, 0, time.UTC)

	t.Run("absent entry triggers a refresh and persists the result", func(t *testing.T) {
		repo := NewStubRepository()
		fetcher := &feed.StubFetcher{Events: sampleEvents}
		service := newTestService(t, repo, fetcher, &utils.MockClock{FixedNow: now})

		sched, err := service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)
		require.NotNil(t, sched)
		assert.True(t, sched.HasData())
		assert.Equal(t, 1, fetcher.Calls)

		stored := repo.Stored[testFeedURL]
		require.NotNil(t, stored)
		assert.Equal(t, sched.RawEvents(), stored.RawEvents())
		assert.Equal(t, now.Unix(), stored.LastRefreshed().Unix())
	})

	t.Run("fresh entry is served without refetching", func(t *testing.T) {
		repo := NewStubRepository()
		fetcher := &feed.StubFetcher{Events: sampleEvents}
		service := newTestService(t, repo, fetcher, &utils.MockClock{FixedNow: now})

		_, err := service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)
		_, err = service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)

		assert.Equal(t, 1, fetcher.Calls)
	})

	t.Run("stale entry is refreshed", func(t *testing.T) {
		repo := NewStubRepository()
		fetcher := &feed.StubFetcher{Events: sampleEvents}
		clock := &utils.MockClock{FixedNow: now}
		service := newTestService(t, repo, fetcher, clock)

		_, err := service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)

		clock.SetNow(now.Add(48 * time.Hour))
		_, err = service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 2, fetcher.Calls)
	})

	t.Run("stale entry with a failing fetch is served as-is", func(t *testing.T) {
		repo := NewStubRepository()
		fetcher := &feed.StubFetcher{Events: sampleEvents}
		clock := &utils.MockClock{FixedNow: now}
		service := newTestService(t, repo, fetcher, clock)

		first, err := service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)

		clock.SetNow(now.Add(48 * time.Hour))
		fetcher.Err = feed.ErrFetchTimeout
		sched, err := service.Get(ctx, testFeedURL, 24*time.Hour)

		require.NoError(t, err)
		require.NotNil(t, sched)
		assert.Equal(t, first.RawEvents(), sched.RawEvents())
	})

	t.Run("failed refresh with no prior data is an error, not a crash", func(t *testing.T) {
		repo := NewStubRepository()
		fetcher := &feed.StubFetcher{Err: feed.ErrFetchHTTP}
		service := newTestService(t, repo, fetcher, &utils.MockClock{FixedNow: now})

		sched, err := service.Get(ctx, testFeedURL, 24*time.Hour)
		assert.ErrorIs(t, err, feed.ErrFetchHTTP)
		assert.Nil(t, sched)
	})

	t.Run("failed refresh still persists the attempt timestamp", func(t *testing.T) {
		repo := NewStubRepository()
		fetcher := &feed.StubFetcher{Err: feed.ErrFetchHTTP}
		service := newTestService(t, repo, fetcher, &utils.MockClock{FixedNow: now})

		_, err := service.Get(ctx, testFeedURL, 24*time.Hour)
		require.Error(t, err)

		stored := repo.Stored[testFeedURL]
		require.NotNil(t, stored)
		assert.False(t, stored.HasData())
		assert.Equal(t, now.Unix(), stored.LastRefreshed().Unix())
	})

	t.Run("failed attempt timestamp backs off further fetches", func(t *testing.T) {
		repo := NewStubRepository()
		fetcher := &feed.StubFetcher{Events: sampleEvents}
		clock := &utils.MockClock{FixedNow: now}
		service := newTestService(t, repo, fetcher, clock)

		_, err := service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)

		// Upstream goes down; the first stale Get refetches and fails, but
		// the bumped timestamp keeps the next Get from hammering it.
		clock.SetNow(now.Add(48 * time.Hour))
		fetcher.Err = feed.ErrFetchTimeout
		_, err = service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)
		_, err = service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)

		assert.Equal(t, 2, fetcher.Calls)
	})

	t.Run("store trouble is handled like a missing entry", func(t *testing.T) {
		repo := NewStubRepository()
		repo.Err = assert.AnError
		fetcher := &feed.StubFetcher{Events: sampleEvents}
		service := newTestService(t, repo, fetcher, &utils.MockClock{FixedNow: now})

		sched, err := service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)
		require.NotNil(t, sched)
		assert.True(t, sched.HasData())
	})
}

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2015, time.April, 10, 12, 0, 0, 0, time.UTC)

	t.Run("new data invalidates memoized queries process-wide", func(t *testing.T) {
		repo := NewStubRepository()
		fetcher := &feed.StubFetcher{Events: sampleEvents[:1]}
		service := newTestService(t, repo, fetcher, &utils.MockClock{FixedNow: now})

		sched, err := service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)
		events, err := service.EventsFrom(sched, "2015-04-01")
		require.NoError(t, err)
		require.Len(t, events, 1)

		fetcher.Events = sampleEvents
		refreshed, err := service.Refresh(ctx, testFeedURL)
		require.NoError(t, err)

		// Same entity instance: the earlier handle observes the new data too.
		assert.Same(t, sched, refreshed)
		events, err = service.EventsFrom(sched, "2015-04-01")
		require.NoError(t, err)
		assert.Len(t, events, 3)
	})

	t.Run("failed fetch leaves existing data untouched", func(t *testing.T) {
		repo := NewStubRepository()
		fetcher := &feed.StubFetcher{Events: sampleEvents}
		service := newTestService(t, repo, fetcher, &utils.MockClock{FixedNow: now})

		sched, err := service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)
		before := sched.RawEvents()

		fetcher.Err = feed.ErrFetchHTTP
		refreshed, err := service.Refresh(ctx, testFeedURL)
		assert.ErrorIs(t, err, feed.ErrFetchHTTP)
		require.NotNil(t, refreshed)
		assert.Equal(t, before, refreshed.RawEvents())
	})
}

func TestService_ConcurrentGetAndRefresh(t *testing.T) {
	// The background refresher and request handlers share one entity per
	// URL, so refreshes race against reads in normal operation. Run them
	// together; the race detector flags any unsynchronized field access.
	ctx := context.Background()
	now := time.Date(2015, time.April, 10, 12, 0, 0, 0, time.UTC)

	repo := NewStubRepository()
	fetcher := &feed.StubFetcher{Events: sampleEvents}
	service := newTestService(t, repo, fetcher, &utils.MockClock{FixedNow: now})

	_, err := service.Get(ctx, testFeedURL, 24*time.Hour)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, _ = service.Refresh(ctx, testFeedURL)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				sched, err := service.Get(ctx, testFeedURL, 24*time.Hour)
				if err != nil || sched == nil {
					continue
				}
				_ = sched.HasData()
				_ = sched.RawEvents()
				_, _ = sched.Snapshot()
				_, _ = service.EventsFrom(sched, "2015-04-01")
			}
		}()
	}
	wg.Wait()

	sched, err := service.Get(ctx, testFeedURL, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, sched.HasData())
}

func TestService_EventsFrom(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cutoff defaults to venue-local today", func(t *testing.T) {
		repo := NewStubRepository()
		fetcher := &feed.StubFetcher{Events: sampleEvents}
		// 1:00 UTC on April 29 is still April 28 at the park, so the
		// April 28 game is part of "today or later".
		clock := &utils.MockClock{FixedNow: time.Date(2015, time.April, 29, 1, 0, 0, 0, time.UTC)}
		service := newTestService(t, repo, fetcher, clock)

		sched, err := service.Get(ctx, testFeedURL, 24*time.Hour)
		require.NoError(t, err)

		events, err := service.EventsFrom(sched, "")
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "2015-04-28", events[0].Date)

		explicit, err := service.EventsFrom(sched, "2015-04-28")
		require.NoError(t, err)
		assert.Equal(t, explicit, events)
	})
}
