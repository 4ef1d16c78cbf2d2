package schedule

import (
	"fmt"

	"github.com/quietday/quietday/pkg/feed"
)

// Status is the two-line answer to "is there a game at the park today?".
// IsHome is true when a game is played at the home venue on the asked date.
type Status struct {
	IsHome  bool
	Today   string
	Outlook string
}

// ComposeStatus builds the status for the given venue-local date from an
// event list already filtered to date >= isodate.
func ComposeStatus(events []feed.Event, isodate, team string) Status {
	e := NextHereEvent(events)
	if e == nil {
		return Status{
			Today:   "No more home games!",
			Outlook: "(...until next year...)",
		}
	}

	if e.Date != isodate {
		return Status{
			Today: "No home game today!",
			Outlook: fmt.Sprintf("All quiet until %s, %s, when %s play %s at %s",
				DayName(e.Date), e.Date, team, e.Opponent, e.Time),
		}
	}

	quiet := NextFreeDate(events, isodate, func(ev feed.Event) bool { return ev.IsHere })
	return Status{
		IsHome: true,
		Today:  fmt.Sprintf("%s play %s at %s", team, e.Opponent, e.Time),
		Outlook: fmt.Sprintf("No peace and quiet until %s, %s",
			DayName(quiet), quiet),
	}
}
