package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Repository is the persisted key-value store of schedules, keyed by feed URL.
type Repository interface {
	// FindByURL returns the stored schedule for the URL, or nil when absent.
	FindByURL(ctx context.Context, url string) (*Schedule, error)
	// Store upserts the schedule's durable fields.
	Store(ctx context.Context, schedule *Schedule) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) FindByURL(ctx context.Context, url string) (*Schedule, error) {
	query := "SELECT events_json, refreshed_at FROM schedule WHERE url = ?"
	row := r.db.QueryRowContext(ctx, query, url)

	var eventsJSON sql.NullString
	var refreshedAtUnix int64
	if err := row.Scan(&eventsJSON, &refreshedAtUnix); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		err := fmt.Errorf("failed when trying to find schedule: %w", err)
		log.Error(err)
		return nil, err
	}

	var refreshedAt time.Time
	if refreshedAtUnix != 0 {
		refreshedAt = time.Unix(refreshedAtUnix, 0)
	}
	return RestoreSchedule(url, eventsJSON.String, refreshedAt), nil
}

func (r *RepositoryImpl) Store(ctx context.Context, schedule *Schedule) error {
	query := `
		INSERT INTO schedule (url, events_json, refreshed_at) VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET events_json = excluded.events_json, refreshed_at = excluded.refreshed_at`

	// One snapshot for both columns, so a concurrent refresh cannot split
	// the row between an old blob and a new timestamp.
	blob, refreshedAt := schedule.Snapshot()
	var eventsJSON *string
	if blob != "" {
		eventsJSON = &blob
	}
	_, err := r.db.ExecContext(ctx, query, schedule.URL, eventsJSON, refreshedAt.Unix())
	if err != nil {
		err := fmt.Errorf("could not store schedule: %w", err)
		log.Error(err)
		return err
	}
	return nil
}
