package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// MaxOccurrences caps a single expansion so an open-ended daily rule asked
// for a huge window cannot flood a response.
const MaxOccurrences = 1000

// Occurrence represents a single generated occurrence of a recurring event.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// Expand generates the occurrences of a recurring event overlapping
// [rangeStart, rangeEnd). eventStart and eventEnd define the first
// occurrence; every occurrence keeps its duration. Starts listed in exdates
// are skipped.
func Expand(rule Rule, eventStart, eventEnd, rangeStart, rangeEnd time.Time, exdates ...time.Time) ([]Occurrence, error) {
	r, err := rrule.NewRRule(rule.option(eventStart))
	if err != nil {
		return nil, fmt.Errorf("build rule %q: %w", rule, err)
	}
	return between(r, eventStart, eventEnd, rangeStart, rangeEnd, exdates), nil
}

// ExpandRaw is Expand for an RRULE value taken as is, with every rule part
// rrule-go understands. Imported feeds use it.
func ExpandRaw(raw string, eventStart, eventEnd, rangeStart, rangeEnd time.Time, exdates ...time.Time) ([]Occurrence, error) {
	opt, err := rrule.StrToROptionInLocation(strings.TrimPrefix(strings.TrimSpace(raw), "RRULE:"), eventStart.Location())
	if err != nil {
		return nil, fmt.Errorf("parse rule %q: %w", raw, err)
	}
	opt.Dtstart = eventStart
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("build rule %q: %w", raw, err)
	}
	return between(r, eventStart, eventEnd, rangeStart, rangeEnd, exdates), nil
}

func between(r *rrule.RRule, eventStart, eventEnd, rangeStart, rangeEnd time.Time, exdates []time.Time) []Occurrence {
	set := &rrule.Set{}
	set.RRule(r)
	for _, ex := range exdates {
		set.ExDate(ex.In(eventStart.Location()))
	}

	duration := eventEnd.Sub(eventStart)
	if duration < 0 {
		duration = 0
	}

	// Occurrences starting before the range can still overlap it.
	from := rangeStart.Add(-duration).In(eventStart.Location())
	to := rangeEnd.In(eventStart.Location())

	var results []Occurrence
	for _, start := range set.Between(from, to, true) {
		end := start.Add(duration)
		overlaps := start.Before(rangeEnd) && end.After(rangeStart)
		if duration == 0 {
			overlaps = !start.Before(rangeStart) && start.Before(rangeEnd)
		}
		if !overlaps {
			continue
		}
		results = append(results, Occurrence{Start: start, End: end})
		if len(results) == MaxOccurrences {
			break
		}
	}
	return results
}
