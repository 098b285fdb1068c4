package calendar

import (
	"context"
	"path"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Source supplies events for a window. Results are Events or EventProviders.
type Source interface {
	Name() string
	// Attached returns the name of the calendar the source is registered
	// with, or "" when it is free.
	Attached() string
	Attach(calendar, name string)
	SetConfig(opts *Options)
	Legend() []Legend
	// Handlers lists the event type keys this source is responsible for.
	Handlers() []string
	FetchEvents(ctx context.Context, start, end time.Time, loc *time.Location) ([]any, error)
}

// Editable sources accept drag and drop changes from the widget.
type Editable interface {
	IsEditable() bool
	SetEditable(editable bool)
	EventDrop(ctx context.Context, id int64, start time.Time, allDay bool) error
	EventResize(ctx context.Context, id int64, end time.Time, allDay bool) error
}

// LinkSource resolves the url of its Linkable events.
type LinkSource interface {
	EventLink(e Event) string
}

type Legend struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// SourceBase holds the registration state every Source needs. Embed it and
// implement FetchEvents.
type SourceBase struct {
	name     string
	calendar string
	Config   *Options
}

func (b *SourceBase) Name() string { return b.name }
func (b *SourceBase) Attached() string { return b.calendar }

func (b *SourceBase) Attach(calendar, name string) {
	b.calendar, b.name = calendar, name
}

func (b *SourceBase) SetConfig(opts *Options) { b.Config = opts }
func (b *SourceBase) Legend() []Legend { return nil }
func (b *SourceBase) Handlers() []string { return nil }

// sourceName derives a registration name from the source's type: the type
// name without a "Source" suffix, camel cased. A type called just Source is
// named after its package.
func sourceName(s Source) string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := strings.TrimSuffix(t.Name(), "Source")
	if name == "" {
		name = path.Base(t.PkgPath())
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}
