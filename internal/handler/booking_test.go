package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"testing"

	"github.com/dukerupert/planboard/internal/model"
)

func TestBookingCreate(t *testing.T) {
	f := setup(t)
	room, _ := f.rooms.Create(context.Background(), "Studio", "#ff0000", "mic")

	body := `{"title":" Mixing ","start_time":"2026-02-03T10:00:00Z","end_time":"2026-02-03T12:00:00Z","room_id":` + itoa(room.ID) + `,"rrule":"FREQ=WEEKLY;BYDAY=TU;COUNT=4"}`
	rec := serve(f.booking.Create, http.MethodPost, "/api/bookings", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var b model.Booking
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Title != "Mixing" || b.RoomID == nil || *b.RoomID != room.ID || !b.Recurring() {
		t.Errorf("booking = %+v", b)
	}
	if !b.StartTime.Equal(feb(3, 10, 0)) || !b.EndTime.Equal(feb(3, 12, 0)) {
		t.Errorf("range = %s - %s", b.StartTime, b.EndTime)
	}
	if types := f.hub.types(); !slices.Equal(types, []string{"booking_created"}) {
		t.Errorf("broadcasts = %v", types)
	}
}

func TestBookingCreateAllDayDates(t *testing.T) {
	f := setup(t)

	rec := serve(f.booking.Create, http.MethodPost, "/api/bookings", `{"title":"Offsite","start_time":"2026-02-05","end_time":"2026-02-06","all_day":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var b model.Booking
	json.NewDecoder(rec.Body).Decode(&b)
	if !b.AllDay || !b.StartTime.Equal(feb(5, 0, 0)) {
		t.Errorf("booking = %+v", b)
	}
}

func TestBookingCreateValidation(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing title", `{"title":"  ","start_time":"2026-02-03T10:00:00Z","end_time":"2026-02-03T12:00:00Z"}`},
		{"bad start", `{"title":"A","start_time":"tuesday","end_time":"2026-02-03T12:00:00Z"}`},
		{"bad end", `{"title":"A","start_time":"2026-02-03T10:00:00Z","end_time":"noon"}`},
		{"end before start", `{"title":"A","start_time":"2026-02-03T12:00:00Z","end_time":"2026-02-03T10:00:00Z"}`},
		{"bad rrule", `{"title":"A","start_time":"2026-02-03T10:00:00Z","end_time":"2026-02-03T12:00:00Z","rrule":"FREQ=SOMETIMES"}`},
		{"unknown room", `{"title":"A","start_time":"2026-02-03T10:00:00Z","end_time":"2026-02-03T12:00:00Z","room_id":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(f.booking.Create, http.MethodPost, "/api/bookings", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
	if len(f.hub.types()) != 0 {
		t.Errorf("rejected bookings were announced: %v", f.hub.types())
	}
}

func TestBookingGetUpdateDelete(t *testing.T) {
	f := setup(t)
	id := f.mixing(t)
	sid := itoa(id)

	rec := serveID(f.booking.Get, http.MethodGet, "/bookings/"+sid, sid, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}

	body := `{"title":"Mastering","start_time":"2026-02-03T14:00:00Z","end_time":"2026-02-03T15:00:00Z"}`
	rec = serveID(f.booking.Update, http.MethodPut, "/api/bookings/"+sid, sid, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var b model.Booking
	json.NewDecoder(rec.Body).Decode(&b)
	if b.Title != "Mastering" || b.RoomID != nil || !b.StartTime.Equal(feb(3, 14, 0)) {
		t.Errorf("updated = %+v", b)
	}

	rec = serveID(f.booking.Delete, http.MethodDelete, "/api/bookings/"+sid, sid, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
	if rec := serveID(f.booking.Get, http.MethodGet, "/bookings/"+sid, sid, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}

	want := []string{"booking_updated", "booking_deleted"}
	if types := f.hub.types(); !slices.Equal(types, want) {
		t.Errorf("broadcasts = %v, want %v", types, want)
	}
}

func TestBookingNotFound(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name     string
		h        http.HandlerFunc
		id       string
		body     string
		wantCode int
	}{
		{"get", f.booking.Get, "7", "", http.StatusNotFound},
		{"update", f.booking.Update, "7", `{"title":"A"}`, http.StatusNotFound},
		{"delete", f.booking.Delete, "7", "", http.StatusNotFound},
		{"bad id", f.booking.Get, "seven", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveID(tt.h, http.MethodGet, "/bookings/"+tt.id, tt.id, tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestBookingList(t *testing.T) {
	f := setup(t)
	f.mixing(t)

	rec := serve(f.booking.List, http.MethodGet, "/api/bookings?start=2026-02-02&end=2026-02-09", "")
	var got []model.Booking
	json.NewDecoder(rec.Body).Decode(&got)
	if len(got) != 1 || got[0].Title != "Mixing" {
		t.Errorf("bookings = %+v", got)
	}

	rec = serve(f.booking.List, http.MethodGet, "/api/bookings?start=2026-03-02&end=2026-03-09", "")
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("empty window = %q", body)
	}

	if rec := serve(f.booking.List, http.MethodGet, "/api/bookings?start=2026-03-02", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing end = %d, want 400", rec.Code)
	}
}
