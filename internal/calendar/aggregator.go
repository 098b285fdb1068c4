package calendar

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"golang.org/x/sync/errgroup"
)

// Fetch collects, normalizes and validates the events of every source for
// the window [start, end). Events failing validation are logged and dropped.
// A source error or a result that is not an event aborts the whole fetch.
//
// Each event goes through these steps in order:
//  1. adapted from an EventProvider when needed
//  2. tagged with the name of its source
//  3. given a url by a LinkSource
//  4. turned all-day when it falls outside the visible hours
//  5. deduplicated by (source, id)
//  6. split into business-hour fragments when all-day rows are disabled
//  7. validated against its source
func (c *Calendar) Fetch(ctx context.Context, start, end time.Time, loc *time.Location) ([]*Record, error) {
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}
	if loc == nil {
		loc = start.Location()
	}
	start, end = start.In(loc), end.In(loc)

	c.mu.RLock()
	defer c.mu.RUnlock()

	batches, err := c.collect(ctx, start, end, loc)
	if err != nil {
		return nil, err
	}

	events := dedupe(batches)
	if !c.opts.ShowAllDayEvents {
		events = c.explode(events)
	}

	records := make([]*Record, 0, len(events))
	for _, e := range events {
		src := c.byName[e.SourceName()]
		rec, err := c.validator.Validate(e, src)
		if err != nil {
			c.logger.Warn("dropping event", "source", e.SourceName(), "event", describe(e), "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Calendar) collect(ctx context.Context, start, end time.Time, loc *time.Location) ([][]Event, error) {
	batches := make([][]Event, len(c.sources))
	if !c.parallel {
		for i, src := range c.sources {
			events, err := c.fetchSource(ctx, src, start, end, loc)
			if err != nil {
				return nil, err
			}
			batches[i] = events
		}
		return batches, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			events, err := c.fetchSource(ctx, src, start, end, loc)
			batches[i] = events
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}

func (c *Calendar) fetchSource(ctx context.Context, src Source, start, end time.Time, loc *time.Location) ([]Event, error) {
	for _, hook := range c.hooks {
		if err := hook(ctx, src, start, end); err != nil {
			return nil, fmt.Errorf("before fetching %s: %w", src.Name(), err)
		}
	}

	items, err := src.FetchEvents(ctx, start, end, loc)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.Name(), err)
	}

	linker, _ := src.(LinkSource)
	events := make([]Event, 0, len(items))
	for _, item := range items {
		e, err := c.adapt(item)
		if err != nil {
			return nil, err
		}
		e.SetSource(src.Name())
		if l, ok := e.(Linkable); ok && linker != nil {
			l.SetURL(linker.EventLink(e))
		}
		// Events the widget cannot place in its time grid are kept as
		// all-day markers rather than hidden.
		if !c.opts.IsVisible(e) {
			e.SetAllDay(true)
		}
		events = append(events, e)
	}
	return events, nil
}

func (c *Calendar) adapt(item any) (Event, error) {
	var e Event
	switch v := item.(type) {
	case EventProvider:
		e = v.CreateEvent(c.tr)
	case Event:
		e = v
	}
	if e == nil || !isStructPointer(e) {
		return nil, &EventInvalidError{Value: item}
	}
	return e, nil
}

func isStructPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct
}

// dedupe flattens the per-source batches keeping the first position of each
// (source, id) pair and the value of its last occurrence.
func dedupe(batches [][]Event) []Event {
	var out []Event
	seen := make(map[string]int)
	for _, batch := range batches {
		for _, e := range batch {
			if e.EventID() == nil {
				out = append(out, e)
				continue
			}
			key := eventKey(e)
			if i, ok := seen[key]; ok {
				out[i] = e
				continue
			}
			seen[key] = len(out)
			out = append(out, e)
		}
	}
	return out
}

func eventKey(e Event) string {
	return e.SourceName() + "|" + fmt.Sprint(e.EventID())
}

// stableID is the event id, or for events without one a value derived from
// their start.
func stableID(e Event) any {
	if id := e.EventID(); id != nil {
		return id
	}
	return fmt.Sprintf("@%d", e.Starts().Unix())
}

// explode replaces every all-day event with one timed fragment per business
// day it covers. Without any business hours configured there is nothing to
// align to and events are left alone.
func (c *Calendar) explode(events []Event) []Event {
	if !c.opts.hasBusinessHours() {
		return events
	}
	hours := c.opts.BusinessWeek()

	out := make([]Event, 0, len(events))
	for _, e := range events {
		if !e.IsAllDay() || c.opts.CheckOutOfBounds(e, false) != nil {
			out = append(out, e)
			continue
		}
		parts := fragments(e, hours)
		if len(parts) == 0 {
			// Nothing overlaps an open window; keep it as an all-day marker.
			out = append(out, e)
			continue
		}
		out = append(out, parts...)
	}
	return out
}

func fragments(e Event, hours [7]Hours) []Event {
	start, end := e.Starts(), e.Ends()
	if end.IsZero() {
		end = midnight(start).AddDate(0, 0, 1)
	}
	group := stableID(e)

	var out []Event
	for day := midnight(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		h := hours[DayOf(day)]
		if h.Closed() {
			continue
		}
		open, err := parseClock(h.Start)
		if err != nil {
			continue
		}
		closing, err := parseClock(h.End)
		if err != nil {
			continue
		}

		from, to := at(day, open), at(day, closing)
		if start.After(from) {
			from = start
		}
		if end.Before(to) {
			to = end
		}
		if !from.Before(to) {
			continue
		}

		f := cloneEvent(e)
		f.SetStart(from)
		f.SetEnd(to)
		f.SetAllDay(false)
		f.SetGroup(group)
		f.SetEventID(fmt.Sprintf("%v-%d", group, len(out)))
		out = append(out, f)
	}
	return out
}

// cloneEvent makes a shallow copy of the struct behind e.
func cloneEvent(e Event) Event {
	rv := reflect.ValueOf(e)
	cp := reflect.New(rv.Elem().Type())
	cp.Elem().Set(rv.Elem())
	return cp.Interface().(Event)
}
