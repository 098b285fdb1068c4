// Package booking serves room bookings stored in SQLite as calendar events.
// Bookings can be moved and resized from the calendar.
package booking

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strconv"
	"time"

	"github.com/dukerupert/planboard/internal/calendar"
	"github.com/dukerupert/planboard/internal/model"
	"github.com/dukerupert/planboard/internal/recurrence"
	"github.com/dukerupert/planboard/internal/store"
	"github.com/dukerupert/planboard/internal/websocket"
)

// Handler is the event type key bookings are dropped and resized under.
const Handler = "booking"

// Broadcaster pushes change notifications to open calendars.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

type Source struct {
	calendar.SourceBase

	bookings *store.BookingStore
	rooms    *store.RoomStore
	baseURL  string
	editable bool
	hub      Broadcaster
	logger   *slog.Logger
}

type Option func(*Source)

// WithBaseURL sets the prefix of booking detail links.
func WithBaseURL(u string) Option {
	return func(s *Source) { s.baseURL = u }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(s *Source) { s.hub = b }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) { s.logger = logger }
}

func New(bookings *store.BookingStore, rooms *store.RoomStore, opts ...Option) *Source {
	s := &Source{
		bookings: bookings,
		rooms:    rooms,
		editable: true,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Event is a booking, or one occurrence of a recurring booking.
type Event struct {
	calendar.Activity
	BookingID int64
}

func (s *Source) Handlers() []string {
	return []string{Handler}
}

// Legend lists one entry per room in sort order.
func (s *Source) Legend() []calendar.Legend {
	rooms, err := s.rooms.List(context.Background())
	if err != nil {
		s.logger.Warn("list rooms for legend", "error", err)
		return nil
	}
	legend := make([]calendar.Legend, 0, len(rooms))
	for _, r := range rooms {
		legend = append(legend, calendar.Legend{Label: r.Name, Color: r.Color, Icon: r.Icon})
	}
	return legend
}

func (s *Source) FetchEvents(ctx context.Context, start, end time.Time, loc *time.Location) ([]any, error) {
	if loc == nil {
		loc = time.UTC
	}

	rooms, err := s.roomsByID(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	var out []any
	for i := range bookings {
		b := &bookings[i]
		room := rooms[roomKey(b.RoomID)]
		if !b.Recurring() {
			out = append(out, s.event(b, room, b.StartTime.In(loc), b.EndTime.In(loc)))
			continue
		}

		rule, err := recurrence.Parse(b.RRule)
		if err != nil {
			// A broken rule still shows its first occurrence.
			s.logger.Warn("parse booking rule", "booking", b.ID, "rrule", b.RRule, "error", err)
			if b.StartTime.Before(end) && b.EndTime.After(start) {
				out = append(out, s.event(b, room, b.StartTime.In(loc), b.EndTime.In(loc)))
			}
			continue
		}

		if days, ok := rule.Weekly(b.StartTime.In(loc)); ok && !b.AllDay {
			if rule.Until != nil && rule.Until.Before(start) {
				continue
			}
			out = append(out, s.weekly(b, room, rule, days, loc))
			continue
		}

		occurrences, err := recurrence.Expand(rule, b.StartTime.In(loc), b.EndTime.In(loc), start, end)
		if err != nil {
			return nil, fmt.Errorf("expand booking %d: %w", b.ID, err)
		}
		for _, occ := range occurrences {
			e := s.event(b, room, occ.Start, occ.End)
			e.ID = fmt.Sprintf("%d@%d", b.ID, occ.Start.Unix())
			e.Editable = calendar.Bool(false)
			if s.Config == nil || s.Config.ShowDetails {
				e.Label = template.HTML(template.HTMLEscapeString(rule.Describe()))
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Source) event(b *model.Booking, room *model.Room, start, end time.Time) *Event {
	e := &Event{
		Activity: calendar.Activity{
			Entry: calendar.Entry{
				ID:         b.ID,
				Title:      b.Title,
				Start:      start,
				End:        end,
				AllDay:     b.AllDay,
				ClassNames: []string{"booking"},
			},
		},
		BookingID: b.ID,
	}
	if !s.editable {
		e.Editable = calendar.Bool(false)
	}
	if room != nil {
		e.ClassNames = append(e.ClassNames, fmt.Sprintf("room-%d", room.ID))
	}
	if s.Config == nil || s.Config.ShowDetails {
		e.Content = template.HTML(template.HTMLEscapeString(b.Description))
		if room != nil {
			e.Label = template.HTML(template.HTMLEscapeString(room.Name))
		}
	}
	return e
}

// weekly leaves the expansion of a plain weekly booking to the browser.
func (s *Source) weekly(b *model.Booking, room *model.Room, rule recurrence.Rule, days []time.Weekday, loc *time.Location) *Event {
	start, end := b.StartTime.In(loc), b.EndTime.In(loc)
	e := s.event(b, room, start, end)

	r := &calendar.Recurrence{
		StartRecur: dayStart(start),
		StartTime:  start.Format("15:04"),
		EndTime:    end.Format("15:04"),
	}
	for _, d := range days {
		r.DaysOfWeek = append(r.DaysOfWeek, calendar.Day(d))
	}
	if rule.Until != nil {
		r.EndRecur = dayStart(rule.Until.In(loc)).AddDate(0, 0, 1)
	}
	e.Repeat = r
	if s.Config == nil || s.Config.ShowDetails {
		e.Label = template.HTML(template.HTMLEscapeString(rule.Describe()))
	}
	return e
}

func (s *Source) roomsByID(ctx context.Context) (map[int64]*model.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	byID := make(map[int64]*model.Room, len(rooms))
	for i := range rooms {
		byID[rooms[i].ID] = &rooms[i]
	}
	return byID, nil
}

func roomKey(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

// EventLink points at the booking's detail page.
func (s *Source) EventLink(e calendar.Event) string {
	id := e.EventID()
	if be, ok := e.(*Event); ok {
		id = be.BookingID
	}
	return fmt.Sprintf("%s/bookings/%v", s.baseURL, id)
}

func (s *Source) IsEditable() bool { return s.editable }

func (s *Source) SetEditable(editable bool) { s.editable = editable }

// EventDrop moves a booking to start. The duration is kept unless the drop
// turns a timed booking into an all-day one (one day) or back (one hour).
func (s *Source) EventDrop(ctx context.Context, id int64, start time.Time, allDay bool) error {
	b, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	var end time.Time
	switch {
	case allDay && !b.AllDay:
		start = dayStart(start)
		end = start.AddDate(0, 0, 1)
	case !allDay && b.AllDay:
		end = start.Add(time.Hour)
	default:
		end = start.Add(b.Duration())
	}

	if _, err := s.bookings.Reschedule(ctx, id, start, end, allDay); err != nil {
		return err
	}
	s.logger.Info("booking moved", "booking", id, "start", start, "all_day", allDay)
	s.notify("moved", id)
	return nil
}

// EventResize gives a booking a new end.
func (s *Source) EventResize(ctx context.Context, id int64, end time.Time, allDay bool) error {
	b, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if end.Before(b.StartTime) {
		return &calendar.EndsBeforeStartError{Event: s.event(b, nil, b.StartTime, end)}
	}

	if _, err := s.bookings.Reschedule(ctx, id, b.StartTime, end, allDay); err != nil {
		return err
	}
	s.logger.Info("booking resized", "booking", id, "end", end)
	s.notify("resized", id)
	return nil
}

// Title returns the title of a booking, for user feedback.
func (s *Source) Title(ctx context.Context, id int64) string {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil || b == nil {
		return strconv.FormatInt(id, 10)
	}
	return b.Title
}

func (s *Source) find(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, &calendar.EventNotFoundError{Source: s.Name(), ID: strconv.FormatInt(id, 10)}
	}
	return b, nil
}

func (s *Source) notify(action string, id int64) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(websocket.NewMessage(s.Attached(), s.Name(), action, id, nil))
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
