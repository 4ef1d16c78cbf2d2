package venue

import (
	"fmt"
	"time"

	"github.com/quietday/quietday/internal/utils"
)

// Venue is the home ballpark. For sanity, all date and time storage and
// manipulation in the system happens in the venue's local timezone, backed
// by real zone-database rules so daylight-saving transitions behave.
type Venue struct {
	TeamName string
	Name     string
	loc      *time.Location
}

func New(teamName, name, timezone string) (*Venue, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("could not load location for timezone %s: %w", timezone, err)
	}
	return &Venue{TeamName: teamName, Name: name, loc: loc}, nil
}

// Location returns the venue's timezone.
func (v *Venue) Location() *time.Location {
	return v.loc
}

// Localize converts a zoned timestamp to the venue's timezone. Idempotent:
// localizing an already venue-local timestamp does not change the value.
func (v *Venue) Localize(t time.Time) time.Time {
	return t.In(v.loc)
}

// AttachLocal reinterprets a timestamp parsed without zone information as
// venue-local wall time, keeping the wall-clock fields and attaching the
// venue zone. Feed timestamps with no zone are given in venue-local time.
func (v *Venue) AttachLocal(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), v.loc)
}

// Now returns the current instant in venue-local time.
func (v *Venue) Now(clock utils.Clock) time.Time {
	return v.Localize(clock.Now())
}

// Today returns today's venue-local calendar date as an ISO date string.
func (v *Venue) Today(clock utils.Clock) string {
	return v.Now(clock).Format("2006-01-02")
}
