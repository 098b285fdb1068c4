package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FetchHook runs before a source is asked for events. Returning an error
// aborts the fetch.
type FetchHook func(ctx context.Context, src Source, start, end time.Time) error

// ClickHandler receives the resolved time of a click on an empty slot.
type ClickHandler func(ctx context.Context, at time.Time) error

// Calendar aggregates events from its registered sources.
type Calendar struct {
	name      string
	logger    *slog.Logger
	tr        Translator
	validator *Validator
	parallel  bool
	steps     Steps

	mu       sync.RWMutex
	opts     *Options
	sources  []Source
	byName   map[string]Source
	handlers map[string]string
	hooks    []FetchHook
	onClick  ClickHandler
}

type Option func(*Calendar)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Calendar) { c.logger = logger }
}

func WithTranslator(tr Translator) Option {
	return func(c *Calendar) { c.tr = tr }
}

func WithValidator(v *Validator) Option {
	return func(c *Calendar) { c.validator = v }
}

// WithParallelFetch queries sources concurrently. Results keep registration
// order.
func WithParallelFetch() Option {
	return func(c *Calendar) { c.parallel = true }
}

// WithSteps sets the grid clicks are snapped to.
func WithSteps(s Steps) Option {
	return func(c *Calendar) { c.steps = s }
}

func New(name string, opts *Options, options ...Option) *Calendar {
	if opts == nil {
		opts = DefaultOptions()
	}
	c := &Calendar{
		name:     name,
		opts:     opts,
		logger:   slog.Default(),
		tr:       passthrough{},
		byName:   make(map[string]Source),
		handlers: make(map[string]string),
	}
	for _, o := range options {
		o(c)
	}
	if c.validator == nil {
		c.validator = NewValidator()
	}
	c.logger = c.logger.With("calendar", name)
	return c
}

func (c *Calendar) Name() string { return c.name }

// Options returns a copy of the current options.
func (c *Calendar) Options() *Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts.Clone()
}

// SetParam changes one option. The change is validated as a whole before it
// replaces the options shared with the sources.
func (c *Calendar) SetParam(param string, value any) error {
	return c.SetParams(map[string]any{param: value})
}

func (c *Calendar) SetParams(values map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.opts.Clone()
	if err := next.SetParams(values); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c.opts = *next
	return nil
}

func (c *Calendar) GetParam(param string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts.GetParam(param)
}

// AddSource registers src under name, or under a name derived from its type
// when name is empty.
func (c *Calendar) AddSource(src Source, name string) error {
	if name == "" {
		name = sourceName(src)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if parent := src.Attached(); parent != "" {
		return &SourceAttachedError{Name: name, Calendar: parent}
	}
	if _, ok := c.byName[name]; ok {
		return &SourceAttachedError{Name: name, Calendar: c.name}
	}

	claimed := make(map[string]bool)
	for _, h := range src.Handlers() {
		if claimed[h] {
			return &SourceTypeHandledError{Handler: h}
		}
		if owner, ok := c.handlers[h]; ok {
			return &SourceHandledError{Handler: h, Source: owner}
		}
		claimed[h] = true
	}

	src.Attach(c.name, name)
	src.SetConfig(c.opts)
	c.sources = append(c.sources, src)
	c.byName[name] = src
	for h := range claimed {
		c.handlers[h] = name
	}
	c.logger.Debug("source added", "source", name, "handlers", src.Handlers())
	return nil
}

func (c *Calendar) GetSource(name string) (Source, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src, ok := c.byName[name]
	if !ok {
		return nil, &SourceNotFoundError{Name: name}
	}
	return src, nil
}

// FindSourceByHandler returns the source handling the given event type, or
// nil.
func (c *Calendar) FindSourceByHandler(handler string) Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byName[c.handlers[handler]]
}

// Sources returns the registered sources in registration order.
func (c *Calendar) Sources() []Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Source(nil), c.sources...)
}

func (c *Calendar) Legend() []Legend {
	var out []Legend
	for _, src := range c.Sources() {
		out = append(out, src.Legend()...)
	}
	return out
}

func (c *Calendar) OnFetch(hook FetchHook) {
	c.mu.Lock()
	c.hooks = append(c.hooks, hook)
	c.mu.Unlock()
}

func (c *Calendar) SetClickHandler(h ClickHandler) {
	c.mu.Lock()
	c.onClick = h
	c.mu.Unlock()
}

func (c *Calendar) IsClickHandled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onClick != nil
}

// Click resolves a clicked slot and passes it to the click handler. A click
// on a whole day (midnight) lands on the opening time of that weekday. The
// result is snapped to the calendar's steps. Without a handler Click does
// nothing and returns the zero time.
func (c *Calendar) Click(ctx context.Context, start time.Time) (time.Time, error) {
	c.mu.RLock()
	handler := c.onClick
	opening := c.opts.FindMinTime(DayOf(start), false)
	c.mu.RUnlock()
	if handler == nil {
		return time.Time{}, nil
	}

	if isMidnight(start) && opening != "" {
		if d, err := parseClock(opening); err == nil {
			start = at(start, d)
		}
	}
	start = c.steps.Normalize(start)

	if err := handler(ctx, start); err != nil {
		return time.Time{}, err
	}
	return start, nil
}

// Drop moves an event of the given type to a new start.
func (c *Calendar) Drop(ctx context.Context, sourceType, itemID string, start time.Time, allDay bool) error {
	ed, id, err := c.editable(sourceType, itemID)
	if err != nil {
		return err
	}
	return ed.EventDrop(ctx, id, start, allDay)
}

// Resize sets a new end on an event of the given type.
func (c *Calendar) Resize(ctx context.Context, sourceType, itemID string, end time.Time, allDay bool) error {
	ed, id, err := c.editable(sourceType, itemID)
	if err != nil {
		return err
	}
	return ed.EventResize(ctx, id, end, allDay)
}

func (c *Calendar) editable(sourceType, itemID string) (Editable, int64, error) {
	if sourceType == "" || itemID == "" {
		return nil, 0, &EventNotFoundError{Source: sourceType, ID: itemID}
	}
	src := c.FindSourceByHandler(sourceType)
	if src == nil {
		return nil, 0, &SourceNotFoundError{Name: sourceType}
	}
	ed, ok := src.(Editable)
	if !ok || !ed.IsEditable() {
		return nil, 0, &SourceNotEditableError{Source: src.Name()}
	}
	id, err := strconv.ParseInt(itemID, 10, 64)
	if err != nil {
		return nil, 0, &EventNotFoundError{Source: src.Name(), ID: itemID, Err: err}
	}
	return ed, id, nil
}

// HandleFetch is the string boundary of Fetch used by the widget. Any
// failure is logged and answered with an empty list.
func (c *Calendar) HandleFetch(ctx context.Context, start, end, timeZone string) []*Record {
	records, err := c.handleFetch(ctx, start, end, timeZone)
	if err != nil {
		c.logger.Error("fetch events", "start", start, "end", end, "timeZone", timeZone, "error", err)
		return []*Record{}
	}
	return records
}

func (c *Calendar) handleFetch(ctx context.Context, start, end, timeZone string) ([]*Record, error) {
	loc, err := c.Location(timeZone)
	if err != nil {
		return nil, err
	}
	from, err := ParseTime(start, loc)
	if err != nil {
		return nil, err
	}
	to, err := ParseTime(end, loc)
	if err != nil {
		return nil, err
	}
	return c.Fetch(ctx, from, to, loc)
}

// Location resolves a widget time zone name. "local", "UTC" and the empty
// string fall back to the configured zone.
func (c *Calendar) Location(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		c.mu.RLock()
		name = c.opts.TimeZone
		c.mu.RUnlock()
	}
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return loc, nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime accepts the date formats sent by the widget. Values without an
// offset are read in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

type passthrough struct{}

func (passthrough) Translate(key string, args ...any) string {
	if len(args) == 0 {
		return key
	}
	return fmt.Sprintf(key, args...)
}
