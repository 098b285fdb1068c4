package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/planboard/internal/calendar"
	"github.com/dukerupert/planboard/internal/database"
	"github.com/dukerupert/planboard/internal/i18n"
	"github.com/dukerupert/planboard/internal/source/booking"
	"github.com/dukerupert/planboard/internal/store"
	"github.com/dukerupert/planboard/internal/websocket"
)

type recorder struct {
	mu   sync.Mutex
	msgs []websocket.Message
}

func (r *recorder) Broadcast(msg websocket.Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.msgs {
		out = append(out, m.Type)
	}
	return out
}

type fixture struct {
	cal      *calendar.Calendar
	src      *booking.Source
	bookings *store.BookingStore
	rooms    *store.RoomStore
	settings *store.SettingsStore
	hub      *recorder
	calendar *CalendarHandler
	booking  *BookingHandler
	room     *RoomHandler
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	opts := calendar.DefaultOptions()
	opts.TimeZone = "UTC"
	opts.BusinessHours = []calendar.BusinessHourRule{{
		DaysOfWeek: []calendar.Day{calendar.Monday, calendar.Tuesday, calendar.Wednesday, calendar.Thursday, calendar.Friday},
		StartTime:  "08:00",
		EndTime:    "18:00",
	}}

	tr := i18n.New("en")
	f := &fixture{
		bookings: store.NewBookingStore(db),
		rooms:    store.NewRoomStore(db),
		settings: store.NewSettingsStore(db),
		hub:      &recorder{},
		cal:      calendar.New("planboard", opts, calendar.WithTranslator(tr), calendar.WithLogger(discard())),
	}
	f.src = booking.New(f.bookings, f.rooms, booking.WithBaseURL("https://rooms.example"), booking.WithBroadcaster(f.hub), booking.WithLogger(discard()))
	if err := f.cal.AddSource(f.src, ""); err != nil {
		t.Fatalf("AddSource: %v", err)
	}

	f.calendar = NewCalendarHandler(f.cal, f.settings, f.hub, tr, discard())
	f.calendar.now = func() time.Time { return time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC) }
	f.booking = NewBookingHandler(f.bookings, f.rooms, f.hub, "planboard", time.UTC, discard())
	f.room = NewRoomHandler(f.rooms, f.hub, "planboard", discard())
	return f
}

// 2 February 2026 is a Monday.
func feb(day, hour, min int) time.Time {
	return time.Date(2026, time.February, day, hour, min, 0, 0, time.UTC)
}

func (f *fixture) mixing(t *testing.T) int64 {
	t.Helper()
	ctx := context.Background()
	room, err := f.rooms.Create(ctx, "Studio", "#ff0000", "mic")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	b, err := f.bookings.Create(ctx, "Mixing", "Final mix", &room.ID, feb(3, 10, 0), feb(3, 12, 0), false, "")
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b.ID
}

func serve(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func serveID(h http.HandlerFunc, method, target, id, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}
