package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/planboard/internal/calendar"
	"github.com/dukerupert/planboard/internal/source/ics"
)

// File is the options file: the calendar display policy and the feeds to
// show next to the bookings.
type File struct {
	Options *calendar.Options `yaml:"options"`
	Feeds   []ics.Feed        `yaml:"feeds"`
}

func DefaultFile() *File {
	opts := calendar.DefaultOptions()
	opts.BusinessHours = []calendar.BusinessHourRule{{
		DaysOfWeek: []calendar.Day{calendar.Monday, calendar.Tuesday, calendar.Wednesday, calendar.Thursday, calendar.Friday},
		StartTime:  "08:00",
		EndTime:    "18:00",
	}}
	return &File{Options: opts, Feeds: []ics.Feed{}}
}

// LoadFile reads the options file. On first run the defaults are written to
// path and returned. Options missing from the file keep their defaults.
func LoadFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("options file path is empty")
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		f := DefaultFile()
		if err := SaveFile(path, f); err != nil {
			return f, err
		}
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read options file: %w", err)
	}

	f := &File{Options: calendar.DefaultOptions()}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse options file: %w", err)
	}
	if f.Options == nil {
		f.Options = calendar.DefaultOptions()
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Validate() error {
	if err := f.Options.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for i, feed := range f.Feeds {
		if feed.Name == "" || feed.Location == "" {
			return fmt.Errorf("feeds[%d]: name and location are required", i)
		}
		if seen[feed.Name] {
			return fmt.Errorf("feeds[%d]: duplicate feed name %q", i, feed.Name)
		}
		seen[feed.Name] = true
	}
	return nil
}

// SaveFile writes f atomically with 0600 permissions.
func SaveFile(path string, f *File) error {
	if path == "" {
		return errors.New("options file path is empty")
	}
	if f == nil {
		return errors.New("options file is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create options dir: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode options file: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".planboard-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace options file: %w", err)
	}
	return nil
}
