package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/planboard/internal/model"
)

// SettingsStore keeps option overrides per calendar. Values are stored as
// JSON so any option type round-trips.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get decodes one override into dst. It reports false when the key is not set.
func (s *SettingsStore) Get(ctx context.Context, calendar, key string, dst any) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE calendar = ? AND key = ?`, calendar, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get setting %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return false, fmt.Errorf("decode setting %q: %w", key, err)
	}
	return true, nil
}

// GetAll returns every override of a calendar, decoded into plain JSON values.
func (s *SettingsStore) GetAll(ctx context.Context, calendar string) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE calendar = ? ORDER BY key`, calendar,
	)
	if err != nil {
		return nil, fmt.Errorf("get all settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]any)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return nil, fmt.Errorf("decode setting %q: %w", key, err)
		}
		settings[key] = v
	}
	return settings, rows.Err()
}

func (s *SettingsStore) List(ctx context.Context, calendar string) ([]model.Setting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT calendar, key, value, updated_at FROM settings WHERE calendar = ? ORDER BY key`, calendar,
	)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []model.Setting
	for rows.Next() {
		var st model.Setting
		if err := rows.Scan(&st.Calendar, &st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, st)
	}
	return settings, rows.Err()
}

func (s *SettingsStore) Set(ctx context.Context, calendar, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (calendar, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(calendar, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		calendar, key, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// SetAll stores several overrides in one transaction.
func (s *SettingsStore) SetAll(ctx context.Context, calendar string, values map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode setting %q: %w", key, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO settings (calendar, key, value, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(calendar, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			calendar, key, string(data), now,
		)
		if err != nil {
			return fmt.Errorf("set setting %q: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *SettingsStore) Delete(ctx context.Context, calendar, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE calendar = ? AND key = ?`, calendar, key)
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}
