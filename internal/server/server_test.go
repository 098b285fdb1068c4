package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/planboard/internal/calendar"
	"github.com/dukerupert/planboard/internal/database"
	"github.com/dukerupert/planboard/internal/i18n"
	"github.com/dukerupert/planboard/internal/middleware"
	"github.com/dukerupert/planboard/internal/source/booking"
	"github.com/dukerupert/planboard/internal/store"
	ws "github.com/dukerupert/planboard/internal/websocket"
)

func setupServer(t *testing.T, writeLimit int) *httptest.Server {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := ws.NewHub(logger)

	opts := calendar.DefaultOptions()
	opts.TimeZone = "UTC"
	cal := calendar.New("planboard", opts, calendar.WithLogger(logger))
	src := booking.New(store.NewBookingStore(db), store.NewRoomStore(db), booking.WithBroadcaster(hub), booking.WithLogger(logger))
	if err := cal.AddSource(src, ""); err != nil {
		t.Fatalf("AddSource: %v", err)
	}

	srv := New(db, hub, Config{
		Calendar:   cal,
		Translator: i18n.New("en"),
		Location:   time.UTC,
		WriteLimit: writeLimit,
	}, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := setupServer(t, 0)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get(middleware.RequestIDHeader) == "" {
		t.Error("response carries no request id")
	}
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestRoutes(t *testing.T) {
	ts := setupServer(t, 0)

	created := func() string {
		body := `{"title":"Mixing","start_time":"2026-02-03T10:00:00Z","end_time":"2026-02-03T12:00:00Z"}`
		resp, err := http.Post(ts.URL+"/api/bookings", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("create booking: %v", err)
		}
		defer resp.Body.Close()
		var b struct {
			ID int64 `json:"id"`
		}
		json.NewDecoder(resp.Body).Decode(&b)
		return strconv.FormatInt(b.ID, 10)
	}()

	tests := []struct {
		method   string
		path     string
		wantCode int
	}{
		{http.MethodGet, "/calendar/events?start=2026-02-02&end=2026-02-09", http.StatusOK},
		{http.MethodGet, "/calendar/click?start=2026-02-02", http.StatusNoContent},
		{http.MethodGet, "/calendar/options", http.StatusOK},
		{http.MethodGet, "/calendar/legend", http.StatusOK},
		{http.MethodGet, "/calendar/export.ics?start=2026-02-02&end=2026-02-09", http.StatusOK},
		{http.MethodGet, "/bookings/" + created, http.StatusOK},
		{http.MethodGet, "/api/rooms", http.StatusOK},
		{http.MethodDelete, "/calendar/events", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
		})
	}
}

func TestWritesAreRateLimited(t *testing.T) {
	ts := setupServer(t, 2)

	drop := func() int {
		body := `{"sourceType":"booking","itemId":"1","start":"2026-02-04T09:00:00"}`
		resp, err := http.Post(ts.URL+"/calendar/drop", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("drop: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	for i := 0; i < 2; i++ {
		if code := drop(); code != http.StatusOK {
			t.Fatalf("drop %d: status = %d, want 200", i+1, code)
		}
	}
	if code := drop(); code != http.StatusTooManyRequests {
		t.Errorf("third drop: status = %d, want 429", code)
	}

	// Reads are not limited.
	resp, err := http.Get(ts.URL + "/calendar/legend")
	if err != nil {
		t.Fatalf("legend: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("legend status = %d, want 200", resp.StatusCode)
	}
}
