package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/planboard/internal/model"
)

type BookingStore struct {
	db *sql.DB
}

func NewBookingStore(db *sql.DB) *BookingStore {
	return &BookingStore{db: db}
}

const bookingColumns = "id, title, description, room_id, start_time, end_time, all_day, rrule, created_at, updated_at"

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	var allDayInt int
	var roomID sql.NullInt64

	err := row.Scan(&b.ID, &b.Title, &b.Description, &roomID, &b.StartTime, &b.EndTime, &allDayInt, &b.RRule, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	b.AllDay = allDayInt != 0
	if roomID.Valid {
		b.RoomID = &roomID.Int64
	}
	return &b, nil
}

func nullRoom(roomID *int64) sql.NullInt64 {
	if roomID == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *roomID, Valid: true}
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (s *BookingStore) Create(ctx context.Context, title, description string, roomID *int64, startTime, endTime time.Time, allDay bool, rrule string) (*model.Booking, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings (title, description, room_id, start_time, end_time, all_day, rrule)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, description, nullRoom(roomID), startTime.UTC(), endTime.UTC(), boolInt(allDay), rrule,
	)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *BookingStore) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query booking: %w", err)
	}
	return b, nil
}

// ListByDateRange returns the bookings overlapping [start, end) plus every
// recurring booking that begins before end, whose occurrences may fall
// inside the range.
func (s *BookingStore) ListByDateRange(ctx context.Context, start, end time.Time) ([]model.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE start_time < ? AND (end_time > ? OR rrule != '')
		 ORDER BY all_day DESC, start_time ASC, id ASC`,
		end.UTC(), start.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (s *BookingStore) Update(ctx context.Context, id int64, title, description string, roomID *int64, startTime, endTime time.Time, allDay bool, rrule string) (*model.Booking, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bookings
		 SET title = ?, description = ?, room_id = ?, start_time = ?, end_time = ?, all_day = ?, rrule = ?
		 WHERE id = ?`,
		title, description, nullRoom(roomID), startTime.UTC(), endTime.UTC(), boolInt(allDay), rrule, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Reschedule changes only the time range of a booking. It returns nil when
// the booking does not exist.
func (s *BookingStore) Reschedule(ctx context.Context, id int64, startTime, endTime time.Time, allDay bool) (*model.Booking, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE bookings SET start_time = ?, end_time = ?, all_day = ? WHERE id = ?",
		startTime.UTC(), endTime.UTC(), boolInt(allDay), id,
	)
	if err != nil {
		return nil, fmt.Errorf("reschedule booking: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

func (s *BookingStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}
