// Package ics shows a subscribed iCalendar feed, read from a URL or a file.
// The feed is cached in memory and reloaded by a Refresher.
package ics

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/planboard/internal/calendar"
	"github.com/dukerupert/planboard/internal/recurrence"
)

// Feed is one subscription as it appears in the options file.
type Feed struct {
	Name     string `yaml:"name" json:"name"`
	Location string `yaml:"location" json:"location"`
	Color    string `yaml:"color,omitempty" json:"color,omitempty"`
	Icon     string `yaml:"icon,omitempty" json:"icon,omitempty"`
}

func (f Feed) remote() bool {
	return strings.HasPrefix(f.Location, "http://") || strings.HasPrefix(f.Location, "https://")
}

// retryDelay spaces out loads attempted by FetchEvents while the feed has
// never been read. The Refresher keeps its own schedule.
const retryDelay = time.Minute

type Source struct {
	calendar.SourceBase

	feed   Feed
	client *http.Client
	loc    *time.Location
	logger *slog.Logger

	mu        sync.RWMutex
	items     []item
	fetched   time.Time
	attempted time.Time
}

type Option func(*Source)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) { s.client = c }
}

// WithLocation sets the zone of floating times and dates in the feed.
func WithLocation(loc *time.Location) Option {
	return func(s *Source) { s.loc = loc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) { s.logger = logger }
}

func New(feed Feed, opts ...Option) *Source {
	s := &Source{
		feed:   feed,
		client: &http.Client{Timeout: 15 * time.Second},
		loc:    time.UTC,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("feed", feed.Name)
	return s
}

// Event is one feed event or occurrence. Link is the URL property of the
// VEVENT.
type Event struct {
	calendar.Activity
	Link string
}

func (s *Source) Feed() Feed { return s.feed }

// Fetched returns when the feed was last loaded, zero before the first load.
func (s *Source) Fetched() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetched
}

func (s *Source) Legend() []calendar.Legend {
	return []calendar.Legend{{Label: s.feed.Name, Color: s.feed.Color, Icon: s.feed.Icon}}
}

// Refresh reloads the feed. On failure the previous copy stays in use.
func (s *Source) Refresh(ctx context.Context) error {
	body, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer body.Close()

	items, skipped, err := parse(body, s.loc)
	if err != nil {
		return err
	}
	for _, err := range skipped {
		s.logger.Warn("skip feed event", "error", err)
	}

	s.mu.Lock()
	s.items = items
	s.fetched = time.Now()
	s.mu.Unlock()
	s.logger.Info("feed loaded", "events", len(items))
	return nil
}

// shouldLoad reports whether the feed was never read and no load was tried
// within retryDelay. It records the attempt.
func (s *Source) shouldLoad() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fetched.IsZero() || time.Since(s.attempted) < retryDelay {
		return false
	}
	s.attempted = time.Now()
	return true
}

func (s *Source) open(ctx context.Context) (io.ReadCloser, error) {
	if !s.feed.remote() {
		f, err := os.Open(s.feed.Location)
		if err != nil {
			return nil, fmt.Errorf("open feed: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feed.Location, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch feed: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// FetchEvents loads the feed on first use, then answers from the cache. A
// feed that cannot be read shows no events rather than failing the fetch of
// the whole calendar.
func (s *Source) FetchEvents(ctx context.Context, start, end time.Time, loc *time.Location) ([]any, error) {
	if s.shouldLoad() {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("feed unavailable", "location", s.feed.Location, "error", err)
			return nil, nil
		}
	}
	if loc == nil {
		loc = time.UTC
	}

	s.mu.RLock()
	items := s.items
	s.mu.RUnlock()

	// Replaced occurrences are left out of their series.
	replaced := make(map[string][]time.Time)
	for _, it := range items {
		if it.RecurrenceID != nil {
			replaced[it.UID] = append(replaced[it.UID], *it.RecurrenceID)
		}
	}

	var out []any
	for i := range items {
		it := &items[i]
		if it.RRule == "" || it.RecurrenceID != nil {
			if it.Start.Before(end) && (it.End.After(start) || it.End.Equal(it.Start) && !it.Start.Before(start)) {
				out = append(out, s.event(it, eventID(it), it.Start, it.End, loc))
			}
			continue
		}

		exdates := append(append([]time.Time(nil), it.ExDates...), replaced[it.UID]...)
		occurrences, err := recurrence.ExpandRaw(it.RRule, it.Start, it.End, start, end, exdates...)
		if err != nil {
			s.logger.Warn("expand feed event", "uid", it.UID, "rrule", it.RRule, "error", err)
			continue
		}
		for _, occ := range occurrences {
			out = append(out, s.event(it, fmt.Sprintf("%s@%d", it.UID, occ.Start.Unix()), occ.Start, occ.End, loc))
		}
	}
	return out, nil
}

func eventID(it *item) string {
	if it.RecurrenceID != nil {
		return fmt.Sprintf("%s@%d", it.UID, it.RecurrenceID.Unix())
	}
	return it.UID
}

// event moves times into loc. All-day events keep their calendar date.
func (s *Source) event(it *item, id string, start, end time.Time, loc *time.Location) *Event {
	if it.AllDay {
		start, end = sameDate(start, loc), sameDate(end, loc)
	} else {
		start, end = start.In(loc), end.In(loc)
	}
	e := &Event{
		Activity: calendar.Activity{
			Entry: calendar.Entry{
				ID:         id,
				Title:      it.Summary,
				Start:      start,
				AllDay:     it.AllDay,
				ClassNames: []string{"feed"},
				Editable:   calendar.Bool(false),
			},
		},
		Link: it.URL,
	}
	if end.After(start) {
		e.End = end
	}
	if s.Config == nil || s.Config.ShowDetails {
		e.Content = template.HTML(template.HTMLEscapeString(it.Description))
		e.Label = template.HTML(template.HTMLEscapeString(it.Location))
	}
	return e
}

func sameDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EventLink returns the URL the feed gives for the event.
func (s *Source) EventLink(e calendar.Event) string {
	if fe, ok := e.(*Event); ok {
		return fe.Link
	}
	return ""
}
