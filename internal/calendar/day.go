package calendar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Day is a weekday number, 0=Sunday through 6=Saturday.
type Day int

const (
	Sunday Day = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// AnyDay asks FindMinTime/FindMaxTime to aggregate across the whole week.
const AnyDay Day = -1

var dayNames = map[string]Day{
	"sunday":    Sunday,
	"monday":    Monday,
	"tuesday":   Tuesday,
	"wednesday": Wednesday,
	"thursday":  Thursday,
	"friday":    Friday,
	"saturday":  Saturday,
}

// DayOf returns the weekday of t in t's own location.
func DayOf(t time.Time) Day {
	return Day(t.Weekday())
}

func (d Day) Valid() bool {
	return d >= Sunday && d <= Saturday
}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return time.Weekday(d).String()
}

// ParseDay accepts a day number or an English day name.
func ParseDay(s string) (Day, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		d := Day(n)
		if !d.Valid() {
			return 0, fmt.Errorf("day %d out of range 0-6", n)
		}
		return d, nil
	}
	if d, ok := dayNames[s]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

func (d *Day) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseDay(node.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Day(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("day must be a number or a name: %w", err)
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Hours is one weekday's business window. Empty strings mean closed.
type Hours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (h Hours) Closed() bool {
	return h.Start == "" || h.End == ""
}

// BusinessHourRule applies one time window to a list of weekdays.
type BusinessHourRule struct {
	DaysOfWeek []Day  `json:"daysOfWeek" yaml:"daysOfWeek"`
	StartTime  string `json:"startTime" yaml:"startTime"`
	EndTime    string `json:"endTime" yaml:"endTime"`
}

// parseClock parses "HH:MM" or "HH:MM:SS" into an offset from midnight.
// "24:00" is accepted as the end of the day.
func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || len(p) != 2 {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		vals[i] = n
	}
	if vals[1] > 59 || vals[2] > 59 || vals[0] > 24 || (vals[0] == 24 && (vals[1] > 0 || vals[2] > 0)) {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return time.Duration(vals[0])*time.Hour + time.Duration(vals[1])*time.Minute + time.Duration(vals[2])*time.Second, nil
}

func formatClock(d time.Duration) string {
	d %= 24 * time.Hour
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

// midnight returns 00:00 of t's calendar day in t's location.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// at returns t's calendar day at the given wall-clock offset. "24:00"
// lands on the following midnight.
func at(t time.Time, clock time.Duration) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, int(clock/time.Hour), int(clock%time.Hour/time.Minute), int(clock%time.Minute/time.Second), 0, t.Location())
}

func timeOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}
