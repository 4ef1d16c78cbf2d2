package feed

import (
	"bytes"
	"fmt"
	"strings"

	ical "github.com/arran4/golang-ical"
	"github.com/quietday/quietday/pkg/venue"
)

// playedPrefix marks VEVENTs for games that have already been played. Those
// are results, not schedule, and are excluded.
const playedPrefix = "FINAL"

// ICalParser parses the iCal schedule dialect: one VEVENT per game, with the
// matchup in the summary. Start timestamps are normalized to venue-local time.
type ICalParser struct {
	venue *venue.Venue
}

func NewICalParser(v *venue.Venue) *ICalParser {
	return &ICalParser{venue: v}
}

func (p *ICalParser) Parse(data []byte) ([]Event, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedParse, err)
	}

	events := make([]Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		summaryProp := ve.GetProperty(ical.ComponentPropertySummary)
		if summaryProp == nil {
			return nil, fmt.Errorf("%w: VEVENT without summary", ErrFeedParse)
		}
		summary := strings.TrimSpace(summaryProp.Value)
		if strings.HasPrefix(summary, playedPrefix) {
			continue
		}

		event, err := p.parseVEvent(ve, summary)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrFeedParse, summary, err)
		}
		events = append(events, event)
	}

	sortByDate(events)
	return events, nil
}

func (p *ICalParser) parseVEvent(ve *ical.VEvent, summary string) (Event, error) {
	start, err := ve.GetStartAt()
	if err != nil {
		return Event{}, fmt.Errorf("bad DTSTART: %v", err)
	}

	// A DTSTART with no zone designator is venue-local wall time; one with a
	// zone is converted.
	if dtStartHasZone(ve) {
		start = p.venue.Localize(start)
	} else {
		start = p.venue.AttachLocal(start)
	}

	isHome, opponent, err := parseSubject(summary, p.venue.TeamName)
	if err != nil {
		return Event{}, err
	}

	var location string
	if prop := ve.GetProperty(ical.ComponentPropertyLocation); prop != nil {
		location = strings.TrimSpace(prop.Value)
	}

	return Event{
		Date:     start.Format("2006-01-02"),
		Time:     start.Format("3:04 PM"),
		IsHome:   isHome,
		IsHere:   location != "" && isAtVenue(location, p.venue.Name),
		Location: location,
		Opponent: opponent,
	}, nil
}

func dtStartHasZone(ve *ical.VEvent) bool {
	prop := ve.GetProperty(ical.ComponentPropertyDtStart)
	if prop == nil {
		return false
	}
	if strings.HasSuffix(prop.Value, "Z") {
		return true
	}
	return len(prop.ICalParameters["TZID"]) > 0
}
