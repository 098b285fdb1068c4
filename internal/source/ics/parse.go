package ics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// item is one VEVENT of a feed.
type item struct {
	UID         string
	Summary     string
	Description string
	Location    string
	URL         string
	Start       time.Time
	End         time.Time
	AllDay      bool
	RRule       string
	ExDates     []time.Time
	// RecurrenceID is set on a VEVENT replacing one occurrence of a series.
	RecurrenceID *time.Time
}

// decode strips a byte order mark and converts UTF-16 feeds to UTF-8.
func decode(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// parse reads a VCALENDAR. Dates without a zone are read in loc. Events that
// cannot be read are skipped and reported in the returned error slice.
func parse(r io.Reader, loc *time.Location) ([]item, []error, error) {
	body, err := io.ReadAll(decode(r))
	if err != nil {
		return nil, nil, fmt.Errorf("read feed: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil, errors.New("empty feed")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse feed: %w", err)
	}

	var items []item
	var skipped []error
	for _, ve := range cal.Events() {
		it, err := parseEvent(ve, loc)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		items = append(items, it)
	}
	return items, skipped, nil
}

func parseEvent(ve *ical.VEvent, loc *time.Location) (item, error) {
	var it item

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return it, errors.New("event without UID")
	}
	it.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		it.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		it.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		it.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyUrl); p != nil {
		it.URL = p.Value
	}

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil {
		return it, fmt.Errorf("event %s: missing DTSTART", it.UID)
	}
	start, allDay, err := propertyTime(dtstart, loc)
	if err != nil {
		return it, fmt.Errorf("event %s: DTSTART: %w", it.UID, err)
	}
	it.Start, it.AllDay = start, allDay

	switch {
	case ve.GetProperty(ical.ComponentPropertyDtEnd) != nil:
		end, _, err := propertyTime(ve.GetProperty(ical.ComponentPropertyDtEnd), loc)
		if err != nil {
			return it, fmt.Errorf("event %s: DTEND: %w", it.UID, err)
		}
		it.End = end
	case allDay:
		it.End = start.AddDate(0, 0, 1)
	default:
		it.End = start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		it.RRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		tz := param(p, "TZID")
		for _, v := range strings.Split(p.Value, ",") {
			if t, _, err := parseTime(strings.TrimSpace(v), tz, loc); err == nil {
				it.ExDates = append(it.ExDates, t)
			}
		}
	}
	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, _, err := propertyTime(p, loc); err == nil {
			it.RecurrenceID = &t
		}
	}
	return it, nil
}

func propertyTime(p *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	t, dateOnly, err := parseTime(p.Value, param(p, "TZID"), loc)
	if err != nil {
		return t, false, err
	}
	return t, dateOnly || strings.EqualFold(param(p, "VALUE"), "DATE"), nil
}

// parseTime reads the DATE and DATE-TIME forms of RFC 5545: UTC, with a
// TZID, or floating in loc.
func parseTime(v, tzid string, loc *time.Location) (time.Time, bool, error) {
	if tzid != "" {
		if tz, err := time.LoadLocation(tzid); err == nil {
			loc = tz
		}
	}
	switch {
	case v == "":
		return time.Time{}, false, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse("20060102T150405Z", v)
		return t, false, err
	case strings.Contains(v, "T"):
		t, err := time.ParseInLocation("20060102T150405", v, loc)
		return t, false, err
	default:
		t, err := time.ParseInLocation("20060102", v, loc)
		return t, true, err
	}
}

func param(p *ical.IANAProperty, name string) string {
	if vs := p.ICalParameters[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}
