package calendar

import (
	"errors"
	"fmt"
	"html/template"
	"maps"
	"slices"
	"sync"
	"time"
)

// Record is the wire form of one validated event. Empty values are omitted.
type Record struct {
	ID         any      `json:"id,omitempty"`
	GroupID    any      `json:"groupId,omitempty"`
	Source     string   `json:"source"`
	AllDay     *bool    `json:"allDay,omitempty"`
	Start      string   `json:"start"`
	End        string   `json:"end,omitempty"`
	Title      string   `json:"title"`
	TitleHTML  string   `json:"titleHtml,omitempty"`
	ClassNames []string `json:"classNames,omitempty"`
	Editable   *bool    `json:"editable,omitempty"`
	Display    string   `json:"display,omitempty"`

	URL string `json:"url,omitempty"`

	Content string `json:"content,omitempty"`
	Label   string `json:"label,omitempty"`

	DaysOfWeek []int  `json:"daysOfWeek,omitempty"`
	StartRecur string `json:"startRecur,omitempty"`
	EndRecur   string `json:"endRecur,omitempty"`
	StartTime  string `json:"startTime,omitempty"`
	EndTime    string `json:"endTime,omitempty"`
}

// capability is the signature the validator keys its schemas by.
type capability uint8

const (
	capLinkable capability = 1 << iota
	capDetailed
	capRecurring
)

func capabilitiesOf(e Event) capability {
	var c capability
	if _, ok := e.(Linkable); ok {
		c |= capLinkable
	}
	if _, ok := e.(Detailed); ok {
		c |= capDetailed
	}
	if _, ok := e.(Recurring); ok {
		c |= capRecurring
	}
	return c
}

type fieldSpec struct {
	required bool
	set      func(r *Record, v any) error
}

type schema map[string]fieldSpec

// Validator turns events into Records. Schemas depend only on which
// capabilities an event implements and are built once per signature.
type Validator struct {
	mu      sync.Mutex
	schemas map[capability]schema
}

func NewValidator() *Validator {
	return &Validator{schemas: make(map[capability]schema)}
}

func (v *Validator) schemaFor(e Event) schema {
	c := capabilitiesOf(e)
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.schemas[c]
	if !ok {
		s = buildSchema(c)
		v.schemas[c] = s
	}
	return s
}

// Validate normalizes e and converts it to its wire form. An all-day event
// with a non-midnight end is extended to the next midnight first. Every
// failure is returned as *EventInvalidError.
func (v *Validator) Validate(e Event, src Source) (*Record, error) {
	rec, err := v.validate(e, src)
	if err != nil {
		return nil, &EventInvalidError{Event: e, Err: err}
	}
	return rec, nil
}

func (v *Validator) validate(e Event, src Source) (*Record, error) {
	s := v.schemaFor(e)

	if end := e.Ends(); !end.IsZero() && e.IsAllDay() && !isMidnight(end) {
		e.SetEnd(midnight(end).AddDate(0, 0, 1))
	}
	if end := e.Ends(); !end.IsZero() && end.Before(e.Starts()) {
		return nil, &EndsBeforeStartError{Event: e}
	}
	if src == nil {
		return nil, errors.New("event has no source to validate against")
	}
	if e.SourceName() != src.Name() {
		return nil, fmt.Errorf("event source %q has to match its source name %q", e.SourceName(), src.Name())
	}

	fields := e.Fields()
	rec := &Record{}
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		spec, ok := s[name]
		if !ok {
			return nil, fmt.Errorf("unexpected field %q", name)
		}
		if err := spec.set(rec, fields[name]); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(s)) {
		if _, ok := fields[name]; s[name].required && !ok {
			return nil, fmt.Errorf("missing required field %q", name)
		}
	}

	if rec.GroupID != nil {
		rec.ClassNames = append(rec.ClassNames, fmt.Sprintf("fc-group-%v", rec.GroupID))
	}
	return rec, nil
}

func buildSchema(c capability) schema {
	s := schema{
		"id":         {set: set(toScalar, func(r *Record, v any) { r.ID = v })},
		"groupId":    {set: set(toScalar, func(r *Record, v any) { r.GroupID = v })},
		"source":     {required: true, set: set(toString, func(r *Record, v string) { r.Source = v })},
		"allDay":     {set: set(toBool, func(r *Record, v bool) { r.AllDay = &v })},
		"start":      {required: true, set: set(toDate, func(r *Record, v string) { r.Start = v })},
		"end":        {set: set(toDate, func(r *Record, v string) { r.End = v })},
		"title":      {required: true, set: set(toString, func(r *Record, v string) { r.Title = v })},
		"titleHtml":  {set: set(toHTML, func(r *Record, v string) { r.TitleHTML = v })},
		"classNames": {set: set(toStrings, func(r *Record, v []string) { r.ClassNames = v })},
		"editable":   {set: set(toBool, func(r *Record, v bool) { r.Editable = &v })},
		"display":    {set: set(toString, func(r *Record, v string) { r.Display = v })},
	}
	if c&capDetailed != 0 {
		s["content"] = fieldSpec{set: set(toHTML, func(r *Record, v string) { r.Content = v })}
		s["label"] = fieldSpec{set: set(toHTML, func(r *Record, v string) { r.Label = v })}
	}
	if c&capLinkable != 0 {
		s["url"] = fieldSpec{set: set(toURL, func(r *Record, v string) { r.URL = v })}
	}
	if c&capRecurring != 0 {
		s["daysOfWeek"] = fieldSpec{set: set(toDays, func(r *Record, v []int) { r.DaysOfWeek = v })}
		s["startRecur"] = fieldSpec{set: set(toDate, func(r *Record, v string) { r.StartRecur = v })}
		s["endRecur"] = fieldSpec{set: set(toDate, func(r *Record, v string) { r.EndRecur = v })}
		s["startTime"] = fieldSpec{set: set(toString, func(r *Record, v string) { r.StartTime = v })}
		s["endTime"] = fieldSpec{set: set(toString, func(r *Record, v string) { r.EndTime = v })}
	}
	return s
}

func set[T any](coerce func(any) (T, error), assign func(*Record, T)) func(*Record, any) error {
	return func(r *Record, v any) error {
		c, err := coerce(v)
		if err != nil {
			return err
		}
		assign(r, c)
		return nil
	}
}

func toScalar(v any) (any, error) {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, string:
		return v, nil
	}
	return nil, fmt.Errorf("expected int or string, %T given", v)
}

func toString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("expected string, %T given", v)
}

func toBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("expected bool, %T given", v)
}

func toDate(v any) (string, error) {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339), nil
	case *time.Time:
		if t != nil {
			return t.Format(time.RFC3339), nil
		}
	case string:
		return t, nil
	}
	return "", fmt.Errorf("expected date, %T given", v)
}

func toHTML(v any) (string, error) {
	switch h := v.(type) {
	case template.HTML:
		return string(h), nil
	case string:
		return h, nil
	case Renderer:
		return h.Render(), nil
	}
	return "", fmt.Errorf("expected markup, %T given", v)
}

func toURL(v any) (string, error) {
	switch u := v.(type) {
	case string:
		return u, nil
	case fmt.Stringer:
		return u.String(), nil
	}
	return "", fmt.Errorf("expected url, %T given", v)
}

func toStrings(v any) ([]string, error) {
	if s, ok := v.([]string); ok {
		return append([]string(nil), s...), nil
	}
	return nil, fmt.Errorf("expected list of strings, %T given", v)
}

func toDays(v any) ([]int, error) {
	var out []int
	switch days := v.(type) {
	case []Day:
		for _, d := range days {
			out = append(out, int(d))
		}
	case []int:
		out = append(out, days...)
	default:
		return nil, fmt.Errorf("expected list of days, %T given", v)
	}
	for _, d := range out {
		if !Day(d).Valid() {
			return nil, fmt.Errorf("day %d out of range 0-6", d)
		}
	}
	return out, nil
}
