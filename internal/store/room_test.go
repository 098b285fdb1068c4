package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/planboard/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRoomCreateAndList(t *testing.T) {
	ctx := context.Background()
	s := NewRoomStore(setupTestDB(t))

	a, err := s.Create(ctx, "Studio A", "#ff0000", "music")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := s.Create(ctx, "Studio B", "#00ff00", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.SortOrder != 0 || b.SortOrder != 1 {
		t.Errorf("sort orders = %d, %d, want 0, 1", a.SortOrder, b.SortOrder)
	}
	if a.CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}

	rooms, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rooms) != 2 || rooms[0].Name != "Studio A" {
		t.Fatalf("rooms = %+v", rooms)
	}

	if _, err := s.Create(ctx, "Studio A", "", ""); err == nil {
		t.Error("expected unique name violation")
	}
}

func TestRoomGetByIDNotFound(t *testing.T) {
	s := NewRoomStore(setupTestDB(t))

	got, err := s.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent room")
	}
}

func TestRoomUpdateAndSortOrder(t *testing.T) {
	ctx := context.Background()
	s := NewRoomStore(setupTestDB(t))

	a, _ := s.Create(ctx, "A", "", "")
	b, _ := s.Create(ctx, "B", "", "")

	updated, err := s.Update(ctx, a.ID, "Attic", "#123456", "home")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Attic" || updated.Color != "#123456" || updated.Icon != "home" {
		t.Errorf("updated = %+v", updated)
	}

	if err := s.UpdateSortOrder(ctx, []int64{b.ID, a.ID}); err != nil {
		t.Fatalf("update sort order: %v", err)
	}
	rooms, _ := s.List(ctx)
	if rooms[0].ID != b.ID || rooms[1].ID != a.ID {
		t.Errorf("order = %d, %d, want %d, %d", rooms[0].ID, rooms[1].ID, b.ID, a.ID)
	}
}

func TestRoomDeleteKeepsBookings(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	rooms := NewRoomStore(db)
	bookings := NewBookingStore(db)

	room, _ := rooms.Create(ctx, "Hall", "", "")
	start := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)
	bk, err := bookings.Create(ctx, "Rehearsal", "", &room.ID, start, start.Add(time.Hour), false, "")
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	if err := rooms.Delete(ctx, room.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := bookings.GetByID(ctx, bk.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got == nil {
		t.Fatal("booking should survive its room")
	}
	if got.RoomID != nil {
		t.Errorf("room_id = %d, want nil", *got.RoomID)
	}
}
