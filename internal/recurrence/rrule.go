package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

type Freq int

const (
	Daily Freq = iota
	Weekly
	Monthly
	Yearly
)

var freqNames = map[Freq]string{
	Daily:   "DAILY",
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
	Yearly:  "YEARLY",
}

var freqToLib = map[Freq]rrule.Frequency{
	Daily:   rrule.DAILY,
	Weekly:  rrule.WEEKLY,
	Monthly: rrule.MONTHLY,
	Yearly:  rrule.YEARLY,
}

var dayToLib = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

var dayAbbrev = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// Rule is the part of RFC 5545 recurrence bookings can carry.
type Rule struct {
	Freq       Freq
	Interval   int            // default 1; 2 = biweekly when Freq=Weekly
	ByDay      []time.Weekday // for WEEKLY: which days (empty = same weekday as start)
	ByMonthDay int            // for MONTHLY: day of month (0 = same as start)
	Count      int            // max occurrences (0 = unlimited)
	Until      *time.Time     // stop after this date (nil = no limit)
}

// Parse parses an RRULE value like "FREQ=WEEKLY;BYDAY=MO,WE;INTERVAL=2". An
// "RRULE:" prefix is allowed. Positional weekdays (e.g. 2MO) and rule parts
// beyond the fields of Rule are rejected.
func Parse(rule string) (Rule, error) {
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	if rule == "" {
		return Rule{}, errors.New("empty rule")
	}

	hasFreq := false
	for _, part := range strings.Split(rule, ";") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return Rule{}, fmt.Errorf("invalid rule part: %q", part)
		}
		switch key {
		case "FREQ":
			hasFreq = true
		case "INTERVAL", "COUNT":
			if n, err := strconv.Atoi(val); err != nil || n < 1 {
				return Rule{}, fmt.Errorf("invalid %s: %q", strings.ToLower(key), val)
			}
		case "BYDAY", "BYMONTHDAY", "UNTIL":
		default:
			return Rule{}, fmt.Errorf("unsupported rule key: %q", key)
		}
	}
	if !hasFreq {
		return Rule{}, errors.New("FREQ is required")
	}

	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return Rule{}, fmt.Errorf("parse rule %q: %w", rule, err)
	}

	r := Rule{Interval: max(opt.Interval, 1), Count: opt.Count}
	found := false
	for f, lib := range freqToLib {
		if lib == opt.Freq {
			r.Freq, found = f, true
		}
	}
	if !found {
		return Rule{}, fmt.Errorf("unsupported frequency in %q", rule)
	}

	for _, wd := range opt.Byweekday {
		if wd.N() != 0 {
			return Rule{}, fmt.Errorf("positional weekdays are not supported: %q", rule)
		}
		r.ByDay = append(r.ByDay, time.Weekday((wd.Day()+1)%7))
	}

	switch len(opt.Bymonthday) {
	case 0:
	case 1:
		if n := opt.Bymonthday[0]; n < 1 || n > 31 {
			return Rule{}, fmt.Errorf("invalid BYMONTHDAY: %d", n)
		}
		r.ByMonthDay = opt.Bymonthday[0]
	default:
		return Rule{}, errors.New("only one BYMONTHDAY is supported")
	}

	if !opt.Until.IsZero() {
		until := opt.Until
		r.Until = &until
	}
	return r, nil
}

// option converts the rule for the rrule engine.
func (r Rule) option(dtstart time.Time) rrule.ROption {
	opt := rrule.ROption{
		Freq:     freqToLib[r.Freq],
		Dtstart:  dtstart,
		Interval: max(r.Interval, 1),
		Count:    r.Count,
	}
	for _, d := range r.ByDay {
		opt.Byweekday = append(opt.Byweekday, dayToLib[d])
	}
	if r.ByMonthDay > 0 {
		opt.Bymonthday = []int{r.ByMonthDay}
	}
	if r.Until != nil {
		opt.Until = *r.Until
	}
	return opt
}

// Weekly reports whether the rule is a plain every-week repetition that a
// browser calendar can expand on its own, and on which weekdays it falls.
func (r Rule) Weekly(start time.Time) ([]time.Weekday, bool) {
	if r.Freq != Weekly || r.Interval > 1 || r.Count > 0 || r.ByMonthDay > 0 {
		return nil, false
	}
	if len(r.ByDay) == 0 {
		return []time.Weekday{start.Weekday()}, true
	}
	return append([]time.Weekday(nil), r.ByDay...), true
}

// String serializes the rule back to an RRULE string.
func (r Rule) String() string {
	parts := []string{"FREQ=" + freqNames[r.Freq]}

	if r.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", r.Interval))
	}
	if len(r.ByDay) > 0 {
		days := make([]string, 0, len(r.ByDay))
		for _, d := range r.ByDay {
			days = append(days, dayAbbrev[d])
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	if r.ByMonthDay > 0 {
		parts = append(parts, fmt.Sprintf("BYMONTHDAY=%d", r.ByMonthDay))
	}
	if r.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", r.Count))
	}
	if r.Until != nil {
		parts = append(parts, "UNTIL="+r.Until.UTC().Format("20060102T150405Z"))
	}
	return strings.Join(parts, ";")
}

// Describe returns a human-readable description of the rule, used as the
// label of recurring bookings.
func (r Rule) Describe() string {
	every := func(unit, single string) string {
		if r.Interval > 1 {
			return fmt.Sprintf("Repeats every %d %s", r.Interval, unit)
		}
		return "Repeats " + single
	}

	var s string
	switch r.Freq {
	case Daily:
		s = every("days", "daily")
	case Weekly:
		s = every("weeks", "weekly")
		if len(r.ByDay) > 0 {
			names := make([]string, 0, len(r.ByDay))
			for _, d := range r.ByDay {
				names = append(names, d.String()[:3])
			}
			s += " on " + strings.Join(names, ", ")
		}
	case Monthly:
		s = every("months", "monthly")
	case Yearly:
		s = every("years", "yearly")
	}
	if r.Until != nil {
		s += " until " + r.Until.Format("2 Jan 2006")
	}
	return s
}
