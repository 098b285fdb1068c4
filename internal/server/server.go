package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/planboard/internal/calendar"
	"github.com/dukerupert/planboard/internal/handler"
	"github.com/dukerupert/planboard/internal/middleware"
	"github.com/dukerupert/planboard/internal/store"
	ws "github.com/dukerupert/planboard/internal/websocket"
)

// Config is the wiring the server needs besides the database.
type Config struct {
	Calendar   *calendar.Calendar
	Translator calendar.Translator
	Location   *time.Location
	Origins    []string
	// WriteLimit caps drag and drop and options writes per client and
	// minute. Zero disables the limit.
	WriteLimit int
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	calendarH   *handler.CalendarHandler
	bookingH    *handler.BookingHandler
	roomH       *handler.RoomHandler
	rateLimiter *middleware.RateLimiter
	origins     []string
	logger      *slog.Logger
}

func New(db *sql.DB, hub *ws.Hub, cfg Config, logger *slog.Logger) *Server {
	bookingStore := store.NewBookingStore(db)
	roomStore := store.NewRoomStore(db)
	settingsStore := store.NewSettingsStore(db)
	name := cfg.Calendar.Name()

	return &Server{
		db:          db,
		hub:         hub,
		calendarH:   handler.NewCalendarHandler(cfg.Calendar, settingsStore, hub, cfg.Translator, logger.With("component", "calendar")),
		bookingH:    handler.NewBookingHandler(bookingStore, roomStore, hub, name, cfg.Location, logger.With("component", "booking")),
		roomH:       handler.NewRoomHandler(roomStore, hub, name, logger.With("component", "room")),
		rateLimiter: middleware.NewRateLimiter(cfg.WriteLimit, time.Minute),
		origins:     cfg.Origins,
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"), s.origins...))

	// Widget endpoints
	mux.HandleFunc("GET /calendar/events", s.calendarH.Events)
	mux.HandleFunc("GET /calendar/click", s.calendarH.Click)
	mux.Handle("POST /calendar/drop", s.rateLimiter.Limit(http.HandlerFunc(s.calendarH.Drop)))
	mux.Handle("POST /calendar/resize", s.rateLimiter.Limit(http.HandlerFunc(s.calendarH.Resize)))
	mux.HandleFunc("GET /calendar/options", s.calendarH.GetOptions)
	mux.Handle("PUT /calendar/options", s.rateLimiter.Limit(http.HandlerFunc(s.calendarH.UpdateOptions)))
	mux.HandleFunc("GET /calendar/legend", s.calendarH.Legend)
	mux.HandleFunc("GET /calendar/export.ics", s.calendarH.Export)

	// Booking links point here
	mux.HandleFunc("GET /bookings/{id}", s.bookingH.Get)

	// Booking API routes
	mux.HandleFunc("POST /api/bookings", s.bookingH.Create)
	mux.HandleFunc("GET /api/bookings", s.bookingH.List)
	mux.HandleFunc("GET /api/bookings/{id}", s.bookingH.Get)
	mux.HandleFunc("PUT /api/bookings/{id}", s.bookingH.Update)
	mux.HandleFunc("DELETE /api/bookings/{id}", s.bookingH.Delete)

	// Room API routes
	mux.HandleFunc("GET /api/rooms", s.roomH.List)
	mux.HandleFunc("POST /api/rooms", s.roomH.Create)
	mux.HandleFunc("PUT /api/rooms/sort", s.roomH.UpdateSortOrder)
	mux.HandleFunc("PUT /api/rooms/{id}", s.roomH.Update)
	mux.HandleFunc("DELETE /api/rooms/{id}", s.roomH.Delete)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "clients": s.hub.ClientCount()})
}
