package calendar

import (
	"errors"
	"fmt"
)

// ErrEventInvalid matches every event data problem, including the bounds
// failures (ends before start, starts too soon, ends too late, not displayable).
var ErrEventInvalid = errors.New("event invalid")

// ErrInvalidWindow is returned by Fetch when the requested range is reversed.
var ErrInvalidWindow = errors.New("fetch window ends before it starts")

type ConfigInvalidParamError struct {
	Param string
}

func (e *ConfigInvalidParamError) Error() string {
	return fmt.Sprintf("config parameter %q not found", e.Param)
}

type ConfigInvalidError struct {
	Err error
}

func (e *ConfigInvalidError) Error() string {
	return fmt.Sprintf("calendar configuration is invalid: %v", e.Err)
}

func (e *ConfigInvalidError) Unwrap() error { return e.Err }

// EventInvalidError wraps a failure to accept or validate one event. When the
// value was not an event at all, Event is nil and Value holds what was given.
type EventInvalidError struct {
	Event Event
	Value any
	Err   error
}

func (e *EventInvalidError) Error() string {
	switch {
	case e.Event == nil:
		return fmt.Sprintf("value of type %T is not a calendar event", e.Value)
	case e.Err != nil:
		return fmt.Sprintf("%s is invalid: %v", describe(e.Event), e.Err)
	default:
		return describe(e.Event) + " is invalid"
	}
}

func (e *EventInvalidError) Unwrap() error { return e.Err }

func (e *EventInvalidError) Is(target error) bool { return target == ErrEventInvalid }

type EndsBeforeStartError struct {
	Event Event
}

func (e *EndsBeforeStartError) Error() string {
	return describe(e.Event) + " ends before it starts"
}

func (e *EndsBeforeStartError) Is(target error) bool { return target == ErrEventInvalid }

// StartsTooSoonError carries the earliest allowed time for the event's
// weekday, empty when the day has no business hours.
type StartsTooSoonError struct {
	Event Event
	Time  string
}

func (e *StartsTooSoonError) Error() string {
	return fmt.Sprintf("%s starts before the minimum allowed time of %q", describe(e.Event), e.Time)
}

func (e *StartsTooSoonError) Is(target error) bool { return target == ErrEventInvalid }

type EndsTooLateError struct {
	Event Event
	Time  string
}

func (e *EndsTooLateError) Error() string {
	return fmt.Sprintf("%s ends after the maximum allowed time of %q", describe(e.Event), e.Time)
}

func (e *EndsTooLateError) Is(target error) bool { return target == ErrEventInvalid }

type UnableToDisplayError struct {
	Event Event
}

func (e *UnableToDisplayError) Error() string {
	return describe(e.Event) + " is outside visible calendar range"
}

func (e *UnableToDisplayError) Is(target error) bool { return target == ErrEventInvalid }

type SourceAttachedError struct {
	Name     string
	Calendar string
}

func (e *SourceAttachedError) Error() string {
	return fmt.Sprintf("source %q is already attached to %q", e.Name, e.Calendar)
}

// SourceHandledError reports a handler key already claimed by another source.
type SourceHandledError struct {
	Handler string
	Source  string
}

func (e *SourceHandledError) Error() string {
	return fmt.Sprintf("source handler %q has already been added by %q", e.Handler, e.Source)
}

// SourceTypeHandledError reports a source declaring the same handler key twice.
type SourceTypeHandledError struct {
	Handler string
}

func (e *SourceTypeHandledError) Error() string {
	return fmt.Sprintf("source handler %q has already been added", e.Handler)
}

type SourceNotFoundError struct {
	Name string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source for %q could not be found, did you register it?", e.Name)
}

type SourceNotEditableError struct {
	Source string
}

func (e *SourceNotEditableError) Error() string {
	return fmt.Sprintf("source %q is not editable", e.Source)
}

type EventNotFoundError struct {
	Source string
	ID     string
	Err    error
}

func (e *EventNotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("event from source %q was not identified", e.Source)
	}
	return fmt.Sprintf("event #%s from source %q was not found", e.ID, e.Source)
}

func (e *EventNotFoundError) Unwrap() error { return e.Err }

type EventNotEditableError struct {
	Event Event
}

func (e *EventNotEditableError) Error() string {
	return describe(e.Event) + " is not editable"
}

func describe(e Event) string {
	if e == nil {
		return "event"
	}
	id := e.EventID()
	if id == nil {
		id = "unknown"
	}
	return fmt.Sprintf("%T#%v", e, id)
}
