package feed

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
)

// csvDateFormats covers the two year widths seen in published schedule CSVs.
var csvDateFormats = []string{"1/2/06", "1/2/2006"}

// CSVParser parses the CSV schedule dialect: a header row with
// case-insensitive field names, then one row per game. CSV feed timestamps
// are given in venue-local time already, so no zone conversion is needed.
type CSVParser struct {
	team      string
	venueName string
}

func NewCSVParser(team, venueName string) *CSVParser {
	return &CSVParser{team: team, venueName: venueName}
}

func (p *CSVParser) Parse(data []byte) ([]Event, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedParse, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: feed is empty", ErrFeedParse)
	}

	fields := map[string]int{}
	for i, name := range records[0] {
		fields[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"start date", "start time", "subject", "location"} {
		if _, ok := fields[required]; !ok {
			return nil, fmt.Errorf("%w: missing %q column", ErrFeedParse, required)
		}
	}

	// A single bad row aborts the whole parse. Feed malformation is rare
	// enough that correctness beats availability here.
	events := make([]Event, 0, len(records)-1)
	for n, record := range records[1:] {
		event, err := p.parseRow(fields, record)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrFeedParse, n+1, err)
		}
		events = append(events, event)
	}

	sortByDate(events)
	return events, nil
}

func (p *CSVParser) parseRow(fields map[string]int, record []string) (Event, error) {
	field := func(name string) string {
		i := fields[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := parseCSVDate(field("start date"))
	if err != nil {
		return Event{}, err
	}

	subject := field("subject")
	isHome, opponent, err := parseSubject(subject, p.team)
	if err != nil {
		return Event{}, err
	}

	location := field("location")
	return Event{
		Date:     date,
		Time:     field("start time"),
		IsHome:   isHome,
		IsHere:   isAtVenue(location, p.venueName),
		Location: location,
		Opponent: opponent,
	}, nil
}

func parseCSVDate(value string) (string, error) {
	for _, format := range csvDateFormats {
		if d, err := time.Parse(format, value); err == nil {
			return d.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("bad start date %q", value)
}
