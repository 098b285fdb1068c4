package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/planboard/internal/calendar"
	"github.com/dukerupert/planboard/internal/export"
	"github.com/dukerupert/planboard/internal/i18n"
	"github.com/dukerupert/planboard/internal/store"
	"github.com/dukerupert/planboard/internal/websocket"
)

// CalendarHandler is the HTTP boundary of one calendar: the widget's event
// feed, its drag and drop callbacks and its options.
type CalendarHandler struct {
	cal      *calendar.Calendar
	settings *store.SettingsStore
	hub      Broadcaster
	tr       calendar.Translator
	logger   *slog.Logger
	now      func() time.Time
}

func NewCalendarHandler(cal *calendar.Calendar, settings *store.SettingsStore, hub Broadcaster, tr calendar.Translator, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{
		cal:      cal,
		settings: settings,
		hub:      hub,
		tr:       tr,
		logger:   logger,
		now:      time.Now,
	}
}

// Events answers the widget's event feed. Failures, a missing window
// included, are logged by the calendar and answered with an empty list.
func (h *CalendarHandler) Events(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records := h.cal.HandleFetch(r.Context(), q.Get("start"), q.Get("end"), q.Get("timeZone"))
	writeJSON(w, http.StatusOK, records)
}

func (h *CalendarHandler) Click(w http.ResponseWriter, r *http.Request) {
	if !h.cal.IsClickHandled() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	loc, err := h.cal.Location(r.URL.Query().Get("timeZone"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown time zone")
		return
	}
	start, err := calendar.ParseTime(r.URL.Query().Get("start"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be a date or date-time")
		return
	}

	at, err := h.cal.Click(r.Context(), start)
	if err != nil {
		h.logger.Error("click handler failed", "start", start, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to handle click")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"start": at.Format(time.RFC3339)})
}

// itemID accepts the widget's event id as a JSON string or number.
type itemID string

func (id *itemID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = itemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("item id must be a string or number: %w", err)
	}
	*id = itemID(n.String())
	return nil
}

type moveRequest struct {
	SourceType string `json:"sourceType"`
	ItemID     itemID `json:"itemId"`
	Start      string `json:"start"`
	End        string `json:"end"`
	AllDay     bool   `json:"allDay"`
	TimeZone   string `json:"timeZone"`
}

type flash struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func writeFlash(w http.ResponseWriter, typ, msg string) {
	writeJSON(w, http.StatusOK, map[string]flash{"flash": {Type: typ, Message: msg}})
}

func (h *CalendarHandler) Drop(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeMove(w, r)
	if !ok {
		return
	}
	start, ok := h.moveTime(w, req, req.Start)
	if !ok {
		return
	}
	err := h.cal.Drop(r.Context(), req.SourceType, string(req.ItemID), start, req.AllDay)
	h.respondMove(w, r, req, err, i18n.FlashEventMoved)
}

func (h *CalendarHandler) Resize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeMove(w, r)
	if !ok {
		return
	}
	end, ok := h.moveTime(w, req, req.End)
	if !ok {
		return
	}
	err := h.cal.Resize(r.Context(), req.SourceType, string(req.ItemID), end, req.AllDay)
	h.respondMove(w, r, req, err, i18n.FlashEventResized)
}

func (h *CalendarHandler) decodeMove(w http.ResponseWriter, r *http.Request) (*moveRequest, bool) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}
	return &req, true
}

// moveTime reads the new start or end of a move. An unreadable value is
// reported to the user rather than failing the request.
func (h *CalendarHandler) moveTime(w http.ResponseWriter, req *moveRequest, value string) (time.Time, bool) {
	loc, err := h.cal.Location(req.TimeZone)
	if err == nil {
		var t time.Time
		if t, err = calendar.ParseTime(value, loc); err == nil {
			return t, true
		}
	}
	writeFlash(w, "warning", h.tr.Translate(i18n.FlashInvalidDate, value))
	return time.Time{}, false
}

func (h *CalendarHandler) respondMove(w http.ResponseWriter, r *http.Request, req *moveRequest, err error, doneKey string) {
	var (
		noSource    *calendar.SourceNotFoundError
		notEditable *calendar.SourceNotEditableError
		noEvent     *calendar.EventNotFoundError
	)
	switch {
	case err == nil:
		writeFlash(w, "success", h.tr.Translate(doneKey, h.title(r.Context(), req)))
	case errors.As(err, &noSource):
		writeFlash(w, "warning", h.tr.Translate(i18n.FlashSourceNotFound, req.SourceType))
	case errors.As(err, &notEditable):
		writeFlash(w, "warning", h.tr.Translate(i18n.FlashSourceNotEditable, notEditable.Source))
	case errors.As(err, &noEvent):
		writeFlash(w, "warning", h.tr.Translate(i18n.FlashEventNotFound))
	case errors.Is(err, calendar.ErrEventInvalid):
		writeFlash(w, "warning", err.Error())
	default:
		h.logger.Error("update event", "source", req.SourceType, "item", req.ItemID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update event")
	}
}

type titled interface {
	Title(ctx context.Context, id int64) string
}

func (h *CalendarHandler) title(ctx context.Context, req *moveRequest) string {
	if src, ok := h.cal.FindSourceByHandler(req.SourceType).(titled); ok {
		if id, err := strconv.ParseInt(string(req.ItemID), 10, 64); err == nil {
			return src.Title(ctx, id)
		}
	}
	return string(req.ItemID)
}

// GetOptions returns the widget options with the visitor's cookie state
// applied.
func (h *CalendarHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts := h.cal.Options()
	opts.LoadState(h.cal.Name(), func(name string) (string, bool) {
		c, err := r.Cookie(name)
		if err != nil {
			return "", false
		}
		return c.Value, true
	})
	h.writeOptions(w, opts)
}

// UpdateOptions changes options by parameter name and persists the change
// for the next start.
func (h *CalendarHandler) UpdateOptions(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(values) == 0 {
		writeError(w, http.StatusBadRequest, "no options given")
		return
	}

	if err := h.cal.SetParams(values); err != nil {
		var (
			badParam  *calendar.ConfigInvalidParamError
			badConfig *calendar.ConfigInvalidError
		)
		if errors.As(err, &badParam) || errors.As(err, &badConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("set options", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set options")
		return
	}

	if err := h.settings.SetAll(r.Context(), h.cal.Name(), values); err != nil {
		h.logger.Error("persist options", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save options")
		return
	}
	h.logger.Info("options updated", "params", len(values))
	h.hub.Broadcast(websocket.NewMessage(h.cal.Name(), "", "options_updated", 0, nil))

	h.writeOptions(w, h.cal.Options())
}

func (h *CalendarHandler) writeOptions(w http.ResponseWriter, opts *calendar.Options) {
	body, err := opts.MarshalJSON()
	if err != nil {
		h.logger.Error("encode options", "error", err)
		writeError(w, http.StatusInternalServerError, "invalid calendar options")
		return
	}
	writeJSON(w, http.StatusOK, json.RawMessage(body))
}

func (h *CalendarHandler) Legend(w http.ResponseWriter, r *http.Request) {
	legend := h.cal.Legend()
	if legend == nil {
		legend = []calendar.Legend{}
	}
	writeJSON(w, http.StatusOK, legend)
}

// Export serves the validated events of a window as an iCalendar file.
func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc, err := h.cal.Location(q.Get("timeZone"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown time zone")
		return
	}
	if q.Get("start") == "" || q.Get("end") == "" {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}
	start, err := calendar.ParseTime(q.Get("start"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be a date or date-time")
		return
	}
	end, err := calendar.ParseTime(q.Get("end"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be a date or date-time")
		return
	}

	records, err := h.cal.Fetch(r.Context(), start, end, loc)
	if err != nil {
		h.logger.Error("export fetch", "start", start, "end", end, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch events")
		return
	}

	var buf bytes.Buffer
	skipped, err := export.Write(&buf, h.cal.Name(), records, h.now())
	if errors.Is(err, export.ErrNoEvents) {
		writeError(w, http.StatusNotFound, "no events to export")
		return
	}
	if err != nil {
		h.logger.Error("export encode", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to encode calendar")
		return
	}
	if skipped > 0 {
		h.logger.Warn("export skipped events", "count", skipped)
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.cal.Name()+".ics"))
	w.Write(buf.Bytes())
}
