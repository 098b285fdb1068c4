package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSource struct {
	SourceBase
	handlers []string
	events   []any
	err      error
	calls    atomic.Int32
}

func (s *fakeSource) Handlers() []string { return s.handlers }

func (s *fakeSource) FetchEvents(ctx context.Context, start, end time.Time, loc *time.Location) ([]any, error) {
	s.calls.Add(1)
	return s.events, s.err
}

type roomSource struct {
	fakeSource
	editable bool
	dropped  []int64
	resized  []int64
}

func (s *roomSource) IsEditable() bool { return s.editable }
func (s *roomSource) SetEditable(editable bool) { s.editable = editable }

func (s *roomSource) EventDrop(ctx context.Context, id int64, start time.Time, allDay bool) error {
	s.dropped = append(s.dropped, id)
	return nil
}

func (s *roomSource) EventResize(ctx context.Context, id int64, end time.Time, allDay bool) error {
	s.resized = append(s.resized, id)
	return nil
}

func (s *roomSource) EventLink(e Event) string {
	return fmt.Sprintf("/rooms/%v", e.EventID())
}

type holidayProvider struct {
	day   time.Time
	title string
}

func (p holidayProvider) CreateEvent(tr Translator) Event {
	return &Entry{Start: p.day, AllDay: true, Title: tr.Translate(p.title), Display: "background"}
}

type upperTranslator struct{}

func (upperTranslator) Translate(key string, args ...any) string { return "T:" + key }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCalendar(t *testing.T, opts *Options, options ...Option) *Calendar {
	t.Helper()
	return New("test", opts, append([]Option{WithLogger(quietLogger())}, options...)...)
}

func mondayNineToFive() *Options {
	o := DefaultOptions()
	o.BusinessHours = []BusinessHourRule{{DaysOfWeek: []Day{Monday}, StartTime: "09:00", EndTime: "17:00"}}
	return o
}

func TestAddSourceDerivesName(t *testing.T) {
	c := newTestCalendar(t, nil)
	src := &roomSource{}
	if err := c.AddSource(src, ""); err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if src.Name() != "room" {
		t.Errorf("Name = %q, want room", src.Name())
	}
	if src.Attached() != "test" {
		t.Errorf("Attached = %q, want test", src.Attached())
	}
	if src.Config == nil {
		t.Error("source did not receive the options")
	}
	got, err := c.GetSource("room")
	if err != nil || got != src {
		t.Errorf("GetSource = %v, %v", got, err)
	}
}

func TestAddSourceConflicts(t *testing.T) {
	t.Run("handler claimed by another source", func(t *testing.T) {
		c := newTestCalendar(t, nil)
		if err := c.AddSource(&fakeSource{handlers: []string{"booking"}}, "first"); err != nil {
			t.Fatalf("AddSource: %v", err)
		}
		err := c.AddSource(&fakeSource{handlers: []string{"room", "booking"}}, "second")
		var handled *SourceHandledError
		if !errors.As(err, &handled) || handled.Source != "first" {
			t.Fatalf("AddSource() = %v, want SourceHandledError from first", err)
		}
		if c.FindSourceByHandler("room") != nil {
			t.Error("a rejected source must not claim handlers")
		}
	})

	t.Run("handler declared twice", func(t *testing.T) {
		c := newTestCalendar(t, nil)
		err := c.AddSource(&fakeSource{handlers: []string{"booking", "booking"}}, "")
		var typeHandled *SourceTypeHandledError
		if !errors.As(err, &typeHandled) {
			t.Fatalf("AddSource() = %v, want SourceTypeHandledError", err)
		}
	})

	t.Run("already attached", func(t *testing.T) {
		c := newTestCalendar(t, nil)
		src := &fakeSource{}
		if err := c.AddSource(src, "one"); err != nil {
			t.Fatalf("AddSource: %v", err)
		}
		var attached *SourceAttachedError
		if err := c.AddSource(src, "two"); !errors.As(err, &attached) {
			t.Fatalf("re-adding = %v, want SourceAttachedError", err)
		}
		if err := New("other", nil).AddSource(src, ""); !errors.As(err, &attached) {
			t.Fatalf("adding to another calendar = %v, want SourceAttachedError", err)
		}
		if err := c.AddSource(&fakeSource{}, "one"); !errors.As(err, &attached) {
			t.Fatalf("duplicate name = %v, want SourceAttachedError", err)
		}
	})

	t.Run("missing source", func(t *testing.T) {
		c := newTestCalendar(t, nil)
		var notFound *SourceNotFoundError
		if _, err := c.GetSource("nope"); !errors.As(err, &notFound) {
			t.Fatalf("GetSource() = %v, want SourceNotFoundError", err)
		}
	})
}

func TestFetchExplodesAllDayIntoBusinessHours(t *testing.T) {
	c := newTestCalendar(t, mondayNineToFive())
	src := &fakeSource{events: []any{
		&Entry{ID: 7, Title: "Offsite", AllDay: true, Start: date(15, 0, 0), End: date(17, 0, 0)},
	}}
	if err := c.AddSource(src, "rooms"); err != nil {
		t.Fatalf("AddSource: %v", err)
	}

	records, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(records), records)
	}
	r := records[0]
	if r.Start != "2024-01-15T09:00:00Z" || r.End != "2024-01-15T17:00:00Z" {
		t.Errorf("fragment = %s - %s, want Monday 09:00-17:00", r.Start, r.End)
	}
	if r.AllDay == nil || *r.AllDay {
		t.Errorf("AllDay = %v, want false", r.AllDay)
	}
	if r.GroupID != 7 {
		t.Errorf("GroupID = %v, want 7", r.GroupID)
	}
	if r.ID != "7-0" {
		t.Errorf("ID = %v, want 7-0", r.ID)
	}
	if r.Source != "rooms" {
		t.Errorf("Source = %q, want rooms", r.Source)
	}
}

func TestFetchFragmentsFollowEachBusinessDay(t *testing.T) {
	c := newTestCalendar(t, officeHours())
	src := &fakeSource{events: []any{
		// Wednesday noon to Saturday: Wed 12-16, Thu 8-16, Fri 7:30-13.
		&Entry{ID: "trip", Title: "Trip", AllDay: true, Start: date(17, 12, 0), End: date(20, 0, 0)},
		&Entry{ID: "talk", Title: "Talk", Start: date(17, 9, 0), End: date(17, 10, 0)},
	}}
	c.AddSource(src, "rooms")

	records, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []struct{ id, start, end string }{
		{"trip-0", "2024-01-17T12:00:00Z", "2024-01-17T16:00:00Z"},
		{"trip-1", "2024-01-18T08:00:00Z", "2024-01-18T16:00:00Z"},
		{"trip-2", "2024-01-19T07:30:00Z", "2024-01-19T13:00:00Z"},
		{"talk", "2024-01-17T09:00:00Z", "2024-01-17T10:00:00Z"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, w := range want {
		r := records[i]
		if r.ID != w.id || r.Start != w.start || r.End != w.end {
			t.Errorf("record %d = %v %s-%s, want %s %s-%s", i, r.ID, r.Start, r.End, w.id, w.start, w.end)
		}
	}
}

func TestFragmentsNeverExceedOriginalDuration(t *testing.T) {
	hours := officeHours().BusinessWeek()
	tests := []struct{ start, end time.Time }{
		{date(15, 0, 0), date(22, 0, 0)},
		{date(15, 10, 0), date(15, 11, 0)},
		{date(16, 15, 30), date(19, 8, 0)},
		{date(13, 0, 0), date(15, 0, 0)},
		{date(19, 12, 59), time.Time{}},
	}
	for _, tt := range tests {
		e := &Entry{ID: 1, AllDay: true, Start: tt.start, End: tt.end}
		raw := tt.end.Sub(tt.start)
		if tt.end.IsZero() {
			raw = midnight(tt.start).AddDate(0, 0, 1).Sub(tt.start)
		}

		var total time.Duration
		for _, f := range fragments(e, hours) {
			if f.IsAllDay() {
				t.Errorf("fragment %v is still all-day", f.EventID())
			}
			if f.Starts().Before(tt.start) {
				t.Errorf("fragment %v starts before the event", f.EventID())
			}
			total += f.Ends().Sub(f.Starts())
		}
		if total > raw {
			t.Errorf("%v-%v: fragments last %v, event only %v", tt.start, tt.end, total, raw)
		}
	}
}

func TestFetchKeepsAllDayRowsWhenEnabled(t *testing.T) {
	o := mondayNineToFive()
	o.ShowAllDayEvents = true
	c := newTestCalendar(t, o)
	c.AddSource(&fakeSource{events: []any{
		&Entry{ID: 1, Title: "Offsite", AllDay: true, Start: date(15, 0, 0), End: date(17, 0, 0)},
	}}, "rooms")

	records, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 || records[0].ID != 1 || *records[0].AllDay != true {
		t.Fatalf("records = %+v, want the untouched all-day event", records)
	}
}

func TestFetchInvisibleEventBecomesAllDay(t *testing.T) {
	o := DefaultOptions()
	o.SlotMaxTime = "18:00"
	o.ShowAllDayEvents = true
	c := newTestCalendar(t, o)
	c.AddSource(&fakeSource{events: []any{
		&Entry{ID: 1, Title: "Late show", Start: date(15, 19, 0), End: date(15, 21, 0)},
	}}, "rooms")

	records, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if !*records[0].AllDay {
		t.Error("invisible event should be turned all-day")
	}
	if records[0].End != "2024-01-16T00:00:00Z" {
		t.Errorf("End = %q, want next midnight", records[0].End)
	}
}

func TestFetchKeepsAllDayEventOutsideBusinessHours(t *testing.T) {
	o := mondayNineToFive()
	o.SlotMaxTime = "18:00"
	c := newTestCalendar(t, o)
	c.AddSource(&fakeSource{events: []any{
		&Entry{ID: 1, Title: "Late show", Start: date(15, 19, 0), End: date(15, 21, 0)},
		// Tuesday is closed.
		&Entry{ID: 2, Title: "Inventory", AllDay: true, Start: date(16, 0, 0), End: date(17, 0, 0)},
	}}, "rooms")

	records, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}
	for i, r := range records {
		if r.ID != i+1 || r.AllDay == nil || !*r.AllDay {
			t.Errorf("record %d = %v allDay=%v, want id %d kept all-day", i, r.ID, r.AllDay, i+1)
		}
		if r.GroupID != nil {
			t.Errorf("record %d has group %v, want none", i, r.GroupID)
		}
	}
}

func TestFetchDropsInvalidEventsOnly(t *testing.T) {
	c := newTestCalendar(t, nil)
	c.AddSource(&fakeSource{events: []any{
		&Entry{ID: 1, Title: "Good", Start: date(15, 9, 0)},
		&Entry{ID: 2, Start: date(15, 10, 0)},
		&Entry{ID: 3, Title: "Backwards", Start: date(15, 11, 0), End: date(15, 10, 0)},
		&Entry{ID: 4, Title: "Also good", Start: date(15, 12, 0)},
	}}, "rooms")

	records, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 || records[0].ID != 1 || records[1].ID != 4 {
		t.Fatalf("records = %+v, want ids 1 and 4", records)
	}
}

func TestFetchDeduplicatesBySourceAndID(t *testing.T) {
	c := newTestCalendar(t, nil)
	c.AddSource(&fakeSource{events: []any{
		&Entry{ID: 1, Title: "First", Start: date(15, 9, 0)},
		&Entry{ID: 2, Title: "Other", Start: date(15, 10, 0)},
		&Entry{ID: 1, Title: "Replacement", Start: date(15, 9, 0)},
	}}, "a")
	c.AddSource(&fakeSource{events: []any{
		&Entry{ID: 1, Title: "Same id, other source", Start: date(15, 9, 0)},
	}}, "b")

	records, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0].Title != "Replacement" || records[1].Title != "Other" || records[2].Source != "b" {
		t.Errorf("records = %+v", records)
	}
}

func TestFetchAdaptsProvidersAndLinks(t *testing.T) {
	c := newTestCalendar(t, nil, WithTranslator(upperTranslator{}))
	c.AddSource(&fakeSource{events: []any{holidayProvider{day: date(16, 0, 0), title: "holiday.newYear"}}}, "holiday")
	c.AddSource(&roomSource{fakeSource: fakeSource{events: []any{
		&Activity{Entry: Entry{ID: 5, Title: "Yoga", Start: date(15, 18, 0), End: date(15, 19, 0)}},
	}}}, "")

	records, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Title != "T:holiday.newYear" || records[0].Source != "holiday" {
		t.Errorf("holiday record = %+v", records[0])
	}
	if records[0].ID != nil {
		t.Errorf("holiday ID = %v, want none", records[0].ID)
	}
	if records[1].URL != "/rooms/5" || records[1].Source != "room" {
		t.Errorf("room record = %+v", records[1])
	}
}

func TestFetchRejectsNonEvents(t *testing.T) {
	c := newTestCalendar(t, nil)
	c.AddSource(&fakeSource{events: []any{"not an event"}}, "rooms")

	_, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC)
	var invalid *EventInvalidError
	if !errors.As(err, &invalid) || invalid.Value != "not an event" {
		t.Fatalf("Fetch() = %v, want EventInvalidError for the value", err)
	}
	if got := c.HandleFetch(context.Background(), "2024-01-15", "2024-01-22", "UTC"); len(got) != 0 {
		t.Errorf("HandleFetch = %v, want empty", got)
	}
}

func TestFetchReversedWindow(t *testing.T) {
	c := newTestCalendar(t, nil)
	src := &fakeSource{events: []any{&Entry{ID: 1, Title: "x", Start: date(15, 9, 0)}}}
	c.AddSource(src, "rooms")

	if _, err := c.Fetch(context.Background(), date(22, 0, 0), date(15, 0, 0), time.UTC); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("Fetch() = %v, want ErrInvalidWindow", err)
	}
	got := c.HandleFetch(context.Background(), "2024-01-22T00:00:00Z", "2024-01-15T00:00:00Z", "UTC")
	if got == nil || len(got) != 0 {
		t.Fatalf("HandleFetch = %v, want empty list", got)
	}
	if src.calls.Load() != 0 {
		t.Error("sources must not be queried for a reversed window")
	}
}

func TestFetchSourceErrorAborts(t *testing.T) {
	c := newTestCalendar(t, nil)
	boom := errors.New("database is gone")
	c.AddSource(&fakeSource{events: []any{&Entry{ID: 1, Title: "x", Start: date(15, 9, 0)}}}, "ok")
	c.AddSource(&fakeSource{err: boom}, "broken")

	if _, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC); !errors.Is(err, boom) {
		t.Fatalf("Fetch() = %v, want %v", err, boom)
	}
}

func TestParallelFetchKeepsOrder(t *testing.T) {
	c := newTestCalendar(t, nil, WithParallelFetch())
	for i := range 5 {
		c.AddSource(&fakeSource{events: []any{
			&Entry{ID: i, Title: fmt.Sprint(i), Start: date(15, 9, 0)},
		}}, fmt.Sprintf("s%d", i))
	}

	records, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("got %d records, want 5", len(records))
	}
	for i, r := range records {
		if r.Source != fmt.Sprintf("s%d", i) {
			t.Errorf("record %d from %s", i, r.Source)
		}
	}
}

func TestOnFetchHooks(t *testing.T) {
	c := newTestCalendar(t, nil)
	c.AddSource(&fakeSource{}, "a")
	c.AddSource(&fakeSource{}, "b")

	var seen []string
	c.OnFetch(func(ctx context.Context, src Source, start, end time.Time) error {
		seen = append(seen, src.Name())
		return nil
	})
	if _, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("hooks saw %v, want [a b]", seen)
	}

	stop := errors.New("stop")
	c.OnFetch(func(ctx context.Context, src Source, start, end time.Time) error { return stop })
	if _, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC); !errors.Is(err, stop) {
		t.Fatalf("Fetch() = %v, want hook error", err)
	}
}

func TestHandleFetchParsesWidgetDates(t *testing.T) {
	c := newTestCalendar(t, nil)
	c.AddSource(&fakeSource{events: []any{&Entry{ID: 1, Title: "x", Start: date(15, 9, 0)}}}, "rooms")

	got := c.HandleFetch(context.Background(), "2024-01-15T00:00:00+01:00", "2024-01-22", "UTC")
	if len(got) != 1 {
		t.Fatalf("HandleFetch = %v, want one record", got)
	}
	if got := c.HandleFetch(context.Background(), "yesterday", "2024-01-22", ""); len(got) != 0 {
		t.Errorf("bad start should give an empty list, got %v", got)
	}
	if got := c.HandleFetch(context.Background(), "2024-01-15", "2024-01-22", "Mars/Olympus"); len(got) != 0 {
		t.Errorf("bad zone should give an empty list, got %v", got)
	}
}

func TestClick(t *testing.T) {
	c := newTestCalendar(t, mondayNineToFive())
	if got, err := c.Click(context.Background(), date(15, 0, 0)); err != nil || !got.IsZero() {
		t.Fatalf("Click without handler = %v, %v", got, err)
	}

	var clicked []time.Time
	c.SetClickHandler(func(ctx context.Context, at time.Time) error {
		clicked = append(clicked, at)
		return nil
	})
	if !c.IsClickHandled() {
		t.Fatal("IsClickHandled should be true")
	}

	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{date(15, 0, 0), date(15, 9, 0)},
		{date(16, 0, 0), date(16, 0, 0)},
		{date(15, 10, 20), date(15, 10, 30)},
		{date(15, 10, 50), date(15, 11, 0)},
	}
	for _, tt := range tests {
		got, err := c.Click(context.Background(), tt.in)
		if err != nil {
			t.Fatalf("Click(%v): %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("Click(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if len(clicked) != len(tests) {
		t.Errorf("handler called %d times, want %d", len(clicked), len(tests))
	}
}

func TestDropAndResize(t *testing.T) {
	c := newTestCalendar(t, nil)
	rooms := &roomSource{fakeSource: fakeSource{handlers: []string{"room"}}, editable: true}
	c.AddSource(rooms, "")
	c.AddSource(&roomSource{fakeSource: fakeSource{handlers: []string{"locked"}}}, "locked")
	ctx := context.Background()

	if err := c.Drop(ctx, "room", "12", date(16, 9, 0), false); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if err := c.Resize(ctx, "room", "13", date(16, 11, 0), false); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if len(rooms.dropped) != 1 || rooms.dropped[0] != 12 || len(rooms.resized) != 1 || rooms.resized[0] != 13 {
		t.Errorf("dropped %v resized %v", rooms.dropped, rooms.resized)
	}

	var (
		notFound    *SourceNotFoundError
		notEditable *SourceNotEditableError
		noEvent     *EventNotFoundError
	)
	if err := c.Drop(ctx, "car", "1", date(16, 9, 0), false); !errors.As(err, &notFound) {
		t.Errorf("unknown type = %v, want SourceNotFoundError", err)
	}
	if err := c.Drop(ctx, "locked", "1", date(16, 9, 0), false); !errors.As(err, &notEditable) {
		t.Errorf("locked source = %v, want SourceNotEditableError", err)
	}
	if err := c.Resize(ctx, "room", "", date(16, 9, 0), false); !errors.As(err, &noEvent) {
		t.Errorf("missing id = %v, want EventNotFoundError", err)
	}
	if err := c.Resize(ctx, "room", "abc", date(16, 9, 0), false); !errors.As(err, &noEvent) {
		t.Errorf("bad id = %v, want EventNotFoundError", err)
	}
}

func TestSetParamsValidatesBeforeApplying(t *testing.T) {
	c := newTestCalendar(t, nil)
	if err := c.SetParam("slotMinTime", "07:00"); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	var invalid *ConfigInvalidError
	if err := c.SetParams(map[string]any{"slotMaxTime": "late", "locale": "cs"}); !errors.As(err, &invalid) {
		t.Fatalf("SetParams() = %v, want ConfigInvalidError", err)
	}
	opts := c.Options()
	if opts.SlotMinTime != "07:00" || opts.Locale != "" {
		t.Errorf("options = %+v, want only the valid change", opts)
	}
}

func TestLegendKeepsRegistrationOrder(t *testing.T) {
	c := newTestCalendar(t, nil)
	c.AddSource(&legendSource{items: []Legend{{Label: "A"}}}, "a")
	c.AddSource(&legendSource{items: []Legend{{Label: "B"}, {Label: "C"}}}, "b")

	got := c.Legend()
	if len(got) != 3 || got[0].Label != "A" || got[2].Label != "C" {
		t.Errorf("Legend = %+v", got)
	}
}

type legendSource struct {
	fakeSource
	items []Legend
}

func (s *legendSource) Legend() []Legend { return s.items }

func TestFetchKeepsEventsWithoutID(t *testing.T) {
	c := newTestCalendar(t, nil)
	c.AddSource(&fakeSource{events: []any{
		&Entry{Title: "Standup", Start: date(15, 9, 0)},
		&Entry{Title: "Dentist", Start: date(15, 9, 0)},
	}}, "rooms")

	records, err := c.Fetch(context.Background(), date(15, 0, 0), date(22, 0, 0), time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Title != "Standup" || records[1].Title != "Dentist" {
		t.Errorf("titles = %q, %q", records[0].Title, records[1].Title)
	}
}
