package feed

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/quietday/quietday/pkg/venue"
)

var (
	ErrFetchTimeout = errors.New("feed fetch timed out")
	ErrFetchHTTP    = errors.New("feed fetch failed")
	ErrFeedParse    = errors.New("feed could not be parsed")
)

// Event is one scheduled game, normalized to the canonical shape shared by
// all feed formats. Date is always the venue-local calendar date.
type Event struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Time     string `json:"time"` // venue-local display string
	IsHome   bool   `json:"isHome"`
	IsHere   bool   `json:"isHere"`
	Location string `json:"location"`
	Opponent string `json:"opponent"`
}

// Parser turns raw feed bytes into a date-ascending list of events.
// Implementations are selected by configured feed format, not by sniffing
// the feed URL.
type Parser interface {
	Parse(data []byte) ([]Event, error)
}

// NewParser returns the parser for the configured feed format.
func NewParser(format string, v *venue.Venue) (Parser, error) {
	switch strings.ToLower(format) {
	case "csv":
		return NewCSVParser(v.TeamName, v.Name), nil
	case "ical", "ics":
		return NewICalParser(v), nil
	default:
		return nil, fmt.Errorf("unknown feed format %q", format)
	}
}

// Subject separators. "at" lists the home team second, "vs." lists the
// host first.
const (
	sepAt = " at "
	sepVs = " vs. "
)

// parseSubject extracts the home flag and the opponent from a subject line
// such as "Giants at Dodgers" or "Giants vs. Dodgers". The opponent is always
// the side that is not the subject team, regardless of home/away position.
func parseSubject(subject, team string) (isHome bool, opponent string, err error) {
	var away, home string
	switch {
	case strings.Contains(subject, sepAt):
		parts := strings.SplitN(subject, sepAt, 2)
		away, home = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	case strings.Contains(subject, sepVs):
		parts := strings.SplitN(subject, sepVs, 2)
		home, away = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	default:
		return false, "", fmt.Errorf("subject %q has no recognized separator", subject)
	}

	switch {
	case strings.HasSuffix(home, team):
		return true, away, nil
	case strings.HasSuffix(away, team):
		return false, home, nil
	default:
		return false, "", fmt.Errorf("subject %q does not mention team %q", subject, team)
	}
}

// isAtVenue reports whether a feed location string names the home venue.
// Feeds are not consistent about suffixes ("AT&T Park, San Francisco"), so a
// prefix match is enough.
func isAtVenue(location, venueName string) bool {
	return location == venueName || strings.HasPrefix(location, venueName)
}

// sortByDate sorts events date-ascending. Feeds are expected pre-sorted
// chronologically; this is defensive.
func sortByDate(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date < events[j].Date
	})
}
