// Package holiday provides Czech public holidays as background events.
package holiday

import (
	"context"
	"time"

	"github.com/dukerupert/planboard/internal/calendar"
	"github.com/dukerupert/planboard/internal/i18n"
)

// Source lists public holidays. It handles no event types and is read-only.
type Source struct {
	calendar.SourceBase
}

func New() *Source {
	return &Source{}
}

func (s *Source) FetchEvents(ctx context.Context, start, end time.Time, loc *time.Location) ([]any, error) {
	if loc == nil {
		loc = time.UTC
	}
	var out []any
	for year := start.In(loc).Year(); year <= end.In(loc).Year(); year++ {
		for _, h := range Holidays(year, loc) {
			if h.Date.Before(start) || !h.Date.Before(end) {
				continue
			}
			out = append(out, h)
		}
	}
	return out, nil
}

// Holiday is one public holiday. It becomes an event once its name is
// translated.
type Holiday struct {
	Date time.Time
	Key  string
}

func (h Holiday) CreateEvent(tr calendar.Translator) calendar.Event {
	return &calendar.Entry{
		ID:       h.Date.Unix(),
		Start:    h.Date,
		AllDay:   true,
		Title:    tr.Translate(h.Key),
		Display:  "background",
		Editable: calendar.Bool(false),
	}
}

// Holidays returns the holidays of year at midnight in loc, in date order.
func Holidays(year int, loc *time.Location) []Holiday {
	day := func(m time.Month, d int) time.Time {
		return time.Date(year, m, d, 0, 0, 0, 0, loc)
	}
	easter := Easter(year, loc)

	return []Holiday{
		{day(time.January, 1), i18n.HolidayNewYear},
		{easter.AddDate(0, 0, -2), i18n.HolidayGoodFriday},
		{easter.AddDate(0, 0, 1), i18n.HolidayEasterMonday},
		{day(time.May, 1), i18n.HolidayLabourDay},
		{day(time.May, 8), i18n.HolidayVictoryDay},
		{day(time.July, 5), i18n.HolidayCyrilMethodius},
		{day(time.July, 6), i18n.HolidayJanHus},
		{day(time.September, 28), i18n.HolidayStatehood},
		{day(time.October, 28), i18n.HolidayIndependence},
		{day(time.November, 17), i18n.HolidayFreedom},
		{day(time.December, 24), i18n.HolidayChristmasEve},
		{day(time.December, 25), i18n.HolidayChristmasDay},
		{day(time.December, 26), i18n.HolidayStStephen},
	}
}

// Easter returns Gregorian Easter Sunday of year (anonymous Gregorian
// algorithm).
func Easter(year int, loc *time.Location) time.Time {
	a := year % 19
	b, c := year/100, year%100
	d, e := b/4, b%4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i, k := c/4, c%4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
}
