package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/dukerupert/planboard/internal/model"
	"github.com/dukerupert/planboard/internal/store"
	"github.com/dukerupert/planboard/internal/websocket"
)

var hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

const defaultRoomColor = "#3B82F6"

// RoomHandler manages the rooms bookings are made for. Rooms make up the
// calendar legend, so every change is announced.
type RoomHandler struct {
	store    *store.RoomStore
	hub      Broadcaster
	calendar string
	logger   *slog.Logger
}

func NewRoomHandler(s *store.RoomStore, hub Broadcaster, calendarName string, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{store: s, hub: hub, calendar: calendarName, logger: logger}
}

type roomRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func decodeRoom(w http.ResponseWriter, r *http.Request) (*roomRequest, bool) {
	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return nil, false
	}

	if req.Color == "" {
		req.Color = defaultRoomColor
	}
	if !hexColorRegexp.MatchString(req.Color) {
		writeError(w, http.StatusBadRequest, "color must be a hex color (e.g. #FF0000)")
		return nil, false
	}
	req.Icon = strings.TrimSpace(req.Icon)
	return &req, true
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRoom(w, r)
	if !ok {
		return
	}

	room, err := h.store.Create(r.Context(), req.Name, req.Color, req.Icon)
	if err != nil {
		h.logger.Error("create room", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	h.notify("created", room.ID)
	writeJSON(w, http.StatusCreated, room)
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get room")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	req, ok := decodeRoom(w, r)
	if !ok {
		return
	}

	room, err := h.store.Update(r.Context(), id, req.Name, req.Color, req.Icon)
	if err != nil {
		h.logger.Error("update room", "room", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update room")
		return
	}

	h.notify("updated", id)
	writeJSON(w, http.StatusOK, room)
}

// Delete removes a room. Its bookings stay, without a room.
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get room")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete room")
		return
	}

	h.notify("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoomHandler) UpdateSortOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}

	if err := h.store.UpdateSortOrder(r.Context(), req.IDs); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update sort order")
		return
	}

	h.notify("sorted", 0)
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoomHandler) notify(action string, id int64) {
	h.hub.Broadcast(websocket.NewMessage(h.calendar, "room", action, id, nil))
}
