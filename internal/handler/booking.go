package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/planboard/internal/model"
	"github.com/dukerupert/planboard/internal/recurrence"
	"github.com/dukerupert/planboard/internal/source/booking"
	"github.com/dukerupert/planboard/internal/store"
	"github.com/dukerupert/planboard/internal/websocket"
)

type BookingHandler struct {
	bookings *store.BookingStore
	rooms    *store.RoomStore
	hub      Broadcaster
	calendar string
	loc      *time.Location
	logger   *slog.Logger
}

// NewBookingHandler serves booking CRUD. Changes are announced to the open
// pages of calendarName. Bare dates are read in loc.
func NewBookingHandler(bs *store.BookingStore, rs *store.RoomStore, hub Broadcaster, calendarName string, loc *time.Location, logger *slog.Logger) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{bookings: bs, rooms: rs, hub: hub, calendar: calendarName, loc: loc, logger: logger}
}

type bookingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	AllDay      bool   `json:"all_day"`
	RoomID      *int64 `json:"room_id"`
	RRule       string `json:"rrule"`
}

func (h *BookingHandler) parseAndValidate(r *http.Request, w http.ResponseWriter) (*bookingRequest, time.Time, time.Time, bool) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, time.Time{}, time.Time{}, false
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return nil, time.Time{}, time.Time{}, false
	}

	startTime, err := parseFlexibleTime(req.StartTime, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_time must be RFC3339 or YYYY-MM-DD format")
		return nil, time.Time{}, time.Time{}, false
	}

	endTime, err := parseFlexibleTime(req.EndTime, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_time must be RFC3339 or YYYY-MM-DD format")
		return nil, time.Time{}, time.Time{}, false
	}

	if !startTime.Before(endTime) {
		writeError(w, http.StatusBadRequest, "start_time must be before end_time")
		return nil, time.Time{}, time.Time{}, false
	}

	req.RRule = strings.TrimSpace(req.RRule)
	if req.RRule != "" {
		if _, err := recurrence.Parse(req.RRule); err != nil {
			writeError(w, http.StatusBadRequest, "invalid rrule: "+err.Error())
			return nil, time.Time{}, time.Time{}, false
		}
	}

	if req.RoomID != nil {
		room, err := h.rooms.GetByID(r.Context(), *req.RoomID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check room")
			return nil, time.Time{}, time.Time{}, false
		}
		if room == nil {
			writeError(w, http.StatusBadRequest, "room not found")
			return nil, time.Time{}, time.Time{}, false
		}
	}

	return &req, startTime, endTime, true
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, startTime, endTime, ok := h.parseAndValidate(r, w)
	if !ok {
		return
	}

	b, err := h.bookings.Create(r.Context(), req.Title, req.Description, req.RoomID, startTime, endTime, req.AllDay, req.RRule)
	if err != nil {
		h.logger.Error("create booking", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}

	h.notify("created", b.ID)
	writeJSON(w, http.StatusCreated, b)
}

// List returns the bookings overlapping [start, end), recurring series
// included whole.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}

	start, err := parseFlexibleTime(startStr, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be RFC3339 or YYYY-MM-DD format")
		return
	}

	end, err := parseFlexibleTime(endStr, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be RFC3339 or YYYY-MM-DD format")
		return
	}

	bookings, err := h.bookings.ListByDateRange(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}

	writeJSON(w, http.StatusOK, bookings)
}

// Get is also the target of the links the calendar puts on booking events.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	b, err := h.bookings.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get booking")
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}

	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.bookings.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get booking")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}

	req, startTime, endTime, ok := h.parseAndValidate(r, w)
	if !ok {
		return
	}

	b, err := h.bookings.Update(r.Context(), id, req.Title, req.Description, req.RoomID, startTime, endTime, req.AllDay, req.RRule)
	if err != nil {
		h.logger.Error("update booking", "booking", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}

	h.notify("updated", id)
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.bookings.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get booking")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}

	if err := h.bookings.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete booking")
		return
	}

	h.notify("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) notify(action string, id int64) {
	h.hub.Broadcast(websocket.NewMessage(h.calendar, booking.Handler, action, id, nil))
}
