package calendar

import (
	"html/template"
	"strings"
	"time"
)

// Event is the mutable record the fetch pipeline works on. Implementations
// must be pointers to structs so the pipeline can make shallow copies.
type Event interface {
	EventID() any
	SetEventID(id any)
	Group() any
	SetGroup(id any)
	SourceName() string
	SetSource(name string)
	Starts() time.Time
	SetStart(t time.Time)
	// Ends returns the zero time when the event has no end.
	Ends() time.Time
	SetEnd(t time.Time)
	IsAllDay() bool
	SetAllDay(allDay bool)
	// Fields returns the serializable properties keyed by wire name. Unset
	// values are left out.
	Fields() map[string]any
}

// Linkable events carry a url resolved by their source.
type Linkable interface {
	SetURL(url string)
}

// Detailed events carry popover content and a label.
type Detailed interface {
	Detail() (content, label template.HTML)
}

// Recurring events are expanded by the browser widget.
type Recurring interface {
	Recurrence() *Recurrence
}

// EventProvider is a source result that still needs localizing before it
// becomes an Event.
type EventProvider interface {
	CreateEvent(tr Translator) Event
}

type Translator interface {
	Translate(key string, args ...any) string
}

// Renderer is rich text that knows its own markup.
type Renderer interface {
	Render() string
}

type Recurrence struct {
	DaysOfWeek []Day
	StartRecur time.Time
	EndRecur   time.Time
	StartTime  string
	EndTime    string
}

// Entry is the plain event with no optional capabilities.
type Entry struct {
	ID         any
	GroupID    any
	Source     string
	AllDay     bool
	Start      time.Time
	End        time.Time
	Title      string
	TitleHTML  template.HTML
	ClassNames []string
	Editable   *bool
	Display    string
}

func (e *Entry) EventID() any { return e.ID }
func (e *Entry) SetEventID(id any) { e.ID = id }
func (e *Entry) Group() any { return e.GroupID }
func (e *Entry) SetGroup(id any) { e.GroupID = id }
func (e *Entry) SourceName() string { return e.Source }
func (e *Entry) SetSource(name string) { e.Source = name }
func (e *Entry) Starts() time.Time { return e.Start }
func (e *Entry) SetStart(t time.Time) { e.Start = t }
func (e *Entry) Ends() time.Time { return e.End }
func (e *Entry) SetEnd(t time.Time) { e.End = t }
func (e *Entry) IsAllDay() bool { return e.AllDay }
func (e *Entry) SetAllDay(allDay bool) { e.AllDay = allDay }

func (e *Entry) Fields() map[string]any {
	f := map[string]any{
		"allDay": e.AllDay,
	}
	if e.ID != nil {
		f["id"] = e.ID
	}
	if e.GroupID != nil {
		f["groupId"] = e.GroupID
	}
	if e.Source != "" {
		f["source"] = e.Source
	}
	if !e.Start.IsZero() {
		f["start"] = e.Start
	}
	if !e.End.IsZero() {
		f["end"] = e.End
	}
	if e.Title != "" {
		f["title"] = collapseNewlines(e.Title)
	}
	if e.TitleHTML != "" {
		f["titleHtml"] = e.TitleHTML
	}
	if len(e.ClassNames) > 0 {
		f["classNames"] = append([]string(nil), e.ClassNames...)
	}
	if e.Editable != nil {
		f["editable"] = *e.Editable
	}
	if e.Display != "" {
		f["display"] = e.Display
	}
	return f
}

// Activity supports every capability: link, detail and recurrence.
type Activity struct {
	Entry
	URL     string
	Content template.HTML
	Label   template.HTML
	Repeat  *Recurrence
}

func (a *Activity) SetURL(url string) { a.URL = url }

func (a *Activity) Detail() (content, label template.HTML) { return a.Content, a.Label }

func (a *Activity) Recurrence() *Recurrence { return a.Repeat }

func (a *Activity) Fields() map[string]any {
	f := a.Entry.Fields()
	if a.URL != "" {
		f["url"] = a.URL
	}
	if a.Content != "" {
		f["content"] = a.Content
	}
	if a.Label != "" {
		f["label"] = a.Label
	}
	if r := a.Repeat; r != nil {
		if len(r.DaysOfWeek) > 0 {
			f["daysOfWeek"] = append([]Day(nil), r.DaysOfWeek...)
		}
		if !r.StartRecur.IsZero() {
			f["startRecur"] = r.StartRecur
		}
		if !r.EndRecur.IsZero() {
			f["endRecur"] = r.EndRecur
		}
		if r.StartTime != "" {
			f["startTime"] = r.StartTime
		}
		if r.EndTime != "" {
			f["endTime"] = r.EndTime
		}
	}
	return f
}

func collapseNewlines(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ").Replace(s)
}

// Bool returns a pointer for the optional flags on Entry.
func Bool(v bool) *bool {
	return &v
}
