package schedule

import (
	"time"

	"github.com/quietday/quietday/pkg/feed"
)

// The query functions operate on an event list that is already filtered to
// the query window and sorted date-ascending, as produced by EventsFrom.

// NextHomeEvent returns the earliest event where the team is the host, or
// nil if none is scheduled.
func NextHomeEvent(events []feed.Event) *feed.Event {
	for i := range events {
		if events[i].IsHome {
			return &events[i]
		}
	}
	return nil
}

// NextHereEvent returns the earliest event played at the home venue, or nil
// if none is scheduled.
func NextHereEvent(events []feed.Event) *feed.Event {
	for i := range events {
		if events[i].IsHere {
			return &events[i]
		}
	}
	return nil
}

// NextFreeDate returns the earliest date on or after fromDate with no
// qualifying event. A date with any qualifying event counts as busy, so
// doubleheaders don't slip through.
func NextFreeDate(events []feed.Event, fromDate string, qualifies func(feed.Event) bool) string {
	date := fromDate
	i := 0
	for {
		busy := false
		for i < len(events) && events[i].Date <= date {
			if events[i].Date == date && qualifies(events[i]) {
				busy = true
			}
			i++
		}
		if !busy {
			return date
		}
		date = AddDays(date, 1)
	}
}

// AddDays adds days to an ISO date string.
func AddDays(isodate string, days int) string {
	d, err := time.Parse("2006-01-02", isodate)
	if err != nil {
		return isodate
	}
	return d.AddDate(0, 0, days).Format("2006-01-02")
}

// DayName returns the weekday name for an ISO date string.
func DayName(isodate string) string {
	d, err := time.Parse("2006-01-02", isodate)
	if err != nil {
		return ""
	}
	return d.Format("Monday")
}
