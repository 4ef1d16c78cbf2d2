package app

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quietday/quietday/internal/config"
	"github.com/quietday/quietday/internal/utils"
	"github.com/quietday/quietday/pkg/feed"
	"github.com/quietday/quietday/pkg/schedule"
	"github.com/quietday/quietday/pkg/venue"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Venue *venue.Venue

	FeedParser  feed.Parser
	FeedFetcher feed.Fetcher

	ScheduleRepo    schedule.Repository
	ScheduleService schedule.Service
	ScheduleHandler *schedule.Handler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	v, err := venue.New(cfg.Team.Name, cfg.Venue.Name, cfg.Venue.Timezone)
	if err != nil {
		return nil, err
	}
	deps.Venue = v

	deps.FeedParser, err = feed.NewParser(cfg.Feed.Format, v)
	if err != nil {
		return nil, err
	}
	deps.FeedFetcher = feed.NewHTTPFetcher(deps.FeedParser)

	maxAge, err := time.ParseDuration(cfg.Feed.MaxAge)
	if err != nil {
		return nil, fmt.Errorf("bad feed.maxage %q: %w", cfg.Feed.MaxAge, err)
	}
	throttle, err := time.ParseDuration(cfg.Refresh.Throttle)
	if err != nil {
		return nil, fmt.Errorf("bad refresh.throttle %q: %w", cfg.Refresh.Throttle, err)
	}

	deps.ScheduleRepo = schedule.NewRepository(db)
	deps.ScheduleService = schedule.NewService(deps.ScheduleRepo, deps.FeedFetcher, v)
	deps.ScheduleHandler = schedule.NewHandler(deps.ScheduleService, v, cfg.Feed.Url, maxAge, throttle)

	deps.Clock = &utils.SystemClock{}

	return deps, nil
}
