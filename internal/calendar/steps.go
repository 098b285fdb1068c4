package calendar

import "time"

// Steps snaps a clock time onto a slot grid.
type Steps int

const (
	HalfHour Steps = iota
	FiveMin
)

func (s Steps) Normalize(t time.Time) time.Time {
	h, m := t.Hour(), t.Minute()
	switch s {
	case FiveMin:
		rest := m % 5
		switch {
		case m >= 56:
			h, m = h+1, 0
		case rest >= 1:
			m = m - rest + 5
		}
	default:
		switch {
		case m >= 45:
			h, m = h+1, 0
		case m >= 15:
			m = 30
		default:
			m = 0
		}
	}
	y, mo, d := t.Date()
	return time.Date(y, mo, d, h, m, 0, 0, t.Location())
}
