// Package export writes validated calendar records as an iCalendar document.
package export

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/dukerupert/planboard/internal/calendar"
)

const prodID = "-//planboard//calendar export//EN"

// ErrNoEvents is returned when no record could be exported. An iCalendar
// document needs at least one component.
var ErrNoEvents = errors.New("no events to export")

var byDay = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Write encodes records into one VCALENDAR. stamp is used as DTSTAMP of
// every event. Records whose dates cannot be read are skipped and counted.
func Write(w io.Writer, name string, records []*calendar.Record, stamp time.Time) (skipped int, err error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	if name != "" {
		// Clients expect the extension without a VALUE parameter.
		calName := ical.NewProp("X-WR-CALNAME")
		calName.SetText(name)
		calName.Params.Del(ical.ParamValue)
		cal.Props.Set(calName)
	}

	for _, r := range records {
		ev, err := event(r, stamp.UTC())
		if err != nil {
			skipped++
			continue
		}
		cal.Children = append(cal.Children, ev.Component)
	}

	if len(cal.Children) == 0 {
		return skipped, ErrNoEvents
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return skipped, fmt.Errorf("encode calendar: %w", err)
	}
	return skipped, nil
}

func event(r *calendar.Record, stamp time.Time) (*ical.Event, error) {
	start, err := time.Parse(time.RFC3339, r.Start)
	if err != nil {
		return nil, fmt.Errorf("record start: %w", err)
	}
	var end time.Time
	if r.End != "" {
		if end, err = time.Parse(time.RFC3339, r.End); err != nil {
			return nil, fmt.Errorf("record end: %w", err)
		}
	}
	allDay := r.AllDay != nil && *r.AllDay

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, uid(r))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ev.Props.SetText(ical.PropSummary, r.Title)

	if allDay {
		if end.IsZero() {
			end = start.AddDate(0, 0, 1)
		}
		ev.Props.SetDate(ical.PropDateTimeStart, start)
		ev.Props.SetDate(ical.PropDateTimeEnd, end)
	} else {
		ev.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
		if !end.IsZero() {
			ev.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
		}
	}

	if r.Content != "" {
		ev.Props.SetText(ical.PropDescription, plain(r.Content))
	}
	if r.Label != "" {
		ev.Props.SetText(ical.PropLocation, plain(r.Label))
	}
	if r.URL != "" {
		if u, err := url.Parse(r.URL); err == nil {
			ev.Props.SetURI(ical.PropURL, u)
		}
	}
	if len(r.ClassNames) > 0 {
		categories := ical.NewProp(ical.PropCategories)
		categories.Value = strings.Join(r.ClassNames, ",")
		ev.Props.Set(categories)
	}
	if rule := weeklyRule(r); rule != nil {
		ev.Props.SetRecurrenceRule(rule)
	}
	return ev, nil
}

// uid is stable across exports so subscribers update events in place.
func uid(r *calendar.Record) string {
	id := r.ID
	if id == nil {
		id = r.Start
	}
	return fmt.Sprintf("%s-%v@planboard", r.Source, id)
}

func weeklyRule(r *calendar.Record) *rrule.ROption {
	var days []rrule.Weekday
	for _, d := range r.DaysOfWeek {
		if d >= 0 && d < len(byDay) {
			days = append(days, byDay[d])
		}
	}
	if len(days) == 0 {
		return nil
	}
	rule := &rrule.ROption{Freq: rrule.WEEKLY, Byweekday: days}
	if r.EndRecur != "" {
		if until, err := time.Parse(time.RFC3339, r.EndRecur); err == nil {
			rule.Until = until.UTC()
		}
	}
	return rule
}

var unescape = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&#34;", `"`, "&#39;", "'", "&amp;", "&")

// plain turns rendered markup back into text for iCalendar clients.
func plain(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return unescape.Replace(b.String())
}
