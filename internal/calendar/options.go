package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var timePattern = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)

// serverOnly parameters drive policy here and are never sent to the widget.
var serverOnly = map[string]bool{
	"paddingStart":      true,
	"paddingEnd":        true,
	"forceStrictBounds": true,
	"showAllDayEvents":  true,
	"viewsCollapsed":    true,
	"autoRefresh":       true,
	"showDetails":       true,
	"responsive":        true,
}

type Toolbar struct {
	Start  string `json:"start,omitempty" yaml:"start"`
	Center string `json:"center,omitempty" yaml:"center"`
	End    string `json:"end,omitempty" yaml:"end"`
}

// Options is the calendar-wide display policy shared by the calendar and
// every attached source. It is only changed during setup and state loading;
// a fetch treats it as read-only.
type Options struct {
	ThemeSystem       string             `json:"themeSystem" yaml:"themeSystem"`
	HeaderToolbar     *Toolbar           `json:"headerToolbar" yaml:"headerToolbar"`
	InitialView       string             `json:"initialView" yaml:"initialView"`
	InitialDate       string             `json:"initialDate" yaml:"initialDate"`
	TimeZone          string             `json:"timeZone" yaml:"timeZone"`
	Locale            string             `json:"locale" yaml:"locale"`
	Height            string             `json:"height" yaml:"height"`
	FirstDay          Day                `json:"firstDay" yaml:"firstDay"`
	BusinessHours     []BusinessHourRule `json:"businessHours" yaml:"businessHours"`
	HiddenDays        []Day              `json:"hiddenDays" yaml:"hiddenDays"`
	SlotMinTime       string             `json:"slotMinTime" yaml:"slotMinTime"`
	SlotMaxTime       string             `json:"slotMaxTime" yaml:"slotMaxTime"`
	PaddingStart      int                `json:"paddingStart" yaml:"paddingStart"`
	PaddingEnd        int                `json:"paddingEnd" yaml:"paddingEnd"`
	ExpandRows        bool               `json:"expandRows" yaml:"expandRows"`
	NowIndicator      bool               `json:"nowIndicator" yaml:"nowIndicator"`
	Weekends          bool               `json:"weekends" yaml:"weekends"`
	ForceStrictBounds bool               `json:"forceStrictBounds" yaml:"forceStrictBounds"`
	ShowAllDayEvents  bool               `json:"showAllDayEvents" yaml:"showAllDayEvents"`
	ViewsCollapsed    bool               `json:"viewsCollapsed" yaml:"viewsCollapsed"`
	AutoRefresh       bool               `json:"autoRefresh" yaml:"autoRefresh"`
	Editable          *bool              `json:"editable" yaml:"editable"`
	ShowDetails       bool               `json:"showDetails" yaml:"showDetails"`
	Responsive        bool               `json:"responsive" yaml:"responsive"`
	LongPressDelay    int                `json:"longPressDelay" yaml:"longPressDelay"`
	LazyFetching      bool               `json:"lazyFetching" yaml:"lazyFetching"`
}

func DefaultOptions() *Options {
	return &Options{
		ThemeSystem:    "bootstrap4",
		InitialView:    "timeGridWeek",
		TimeZone:       "Europe/Prague",
		Height:         "auto",
		FirstDay:       Monday,
		HiddenDays:     []Day{},
		PaddingStart:   1,
		PaddingEnd:     1,
		ExpandRows:     true,
		NowIndicator:   true,
		Weekends:       true,
		AutoRefresh:    true,
		ShowDetails:    true,
		Responsive:     true,
		LongPressDelay: 200,
	}
}

// Clone returns a deep copy, used to apply per-visitor state without
// touching the shared options.
func (o *Options) Clone() *Options {
	c := *o
	if o.HeaderToolbar != nil {
		tb := *o.HeaderToolbar
		c.HeaderToolbar = &tb
	}
	if o.Editable != nil {
		c.Editable = Bool(*o.Editable)
	}
	c.HiddenDays = append([]Day(nil), o.HiddenDays...)
	c.BusinessHours = make([]BusinessHourRule, len(o.BusinessHours))
	for i, r := range o.BusinessHours {
		r.DaysOfWeek = append([]Day(nil), r.DaysOfWeek...)
		c.BusinessHours[i] = r
	}
	return &c
}

var (
	paramsOnce  sync.Once
	paramFields map[string]int
	paramOrder  []string
)

func params() (map[string]int, []string) {
	paramsOnce.Do(func() {
		paramFields = make(map[string]int)
		t := reflect.TypeOf(Options{})
		for i := 0; i < t.NumField(); i++ {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			paramFields[name] = i
			paramOrder = append(paramOrder, name)
		}
	})
	return paramFields, paramOrder
}

func (o *Options) field(param string) (reflect.Value, error) {
	fields, _ := params()
	i, ok := fields[param]
	if !ok {
		return reflect.Value{}, &ConfigInvalidParamError{Param: param}
	}
	return reflect.ValueOf(o).Elem().Field(i), nil
}

// SetParam sets one parameter by its wire name. Values that do not match the
// field type directly are converted through their JSON form, so decoded
// request bodies can be applied as they are.
func (o *Options) SetParam(param string, value any) error {
	f, err := o.field(param)
	if err != nil {
		return err
	}
	if b, ok := value.(bool); value == nil || (ok && !b && (f.Kind() == reflect.Slice || f.Kind() == reflect.Pointer)) {
		f.SetZero()
		return nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(f.Type()) {
		f.Set(v)
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return &ConfigInvalidError{Err: fmt.Errorf("parameter %q: %w", param, err)}
	}
	ptr := reflect.New(f.Type())
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return &ConfigInvalidError{Err: fmt.Errorf("parameter %q: %w", param, err)}
	}
	f.Set(ptr.Elem())
	return nil
}

func (o *Options) SetParams(values map[string]any) error {
	for k, v := range values {
		if err := o.SetParam(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (o *Options) GetParam(param string) (any, error) {
	f, err := o.field(param)
	if err != nil {
		return nil, err
	}
	return f.Interface(), nil
}

// Validate checks the options against the widget's expectations.
func (o *Options) Validate() error {
	var errs []error
	checkTime := func(name, v string, optional bool) {
		if v == "" && optional {
			return
		}
		if !timePattern.MatchString(v) {
			errs = append(errs, fmt.Errorf("%s: %q is not HH:MM", name, v))
			return
		}
		if _, err := parseClock(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	checkDay := func(name string, d Day) {
		if !d.Valid() {
			errs = append(errs, fmt.Errorf("%s: day %d out of range 0-6", name, int(d)))
		}
	}

	checkDay("firstDay", o.FirstDay)
	for _, d := range o.HiddenDays {
		checkDay("hiddenDays", d)
	}
	checkTime("slotMinTime", o.SlotMinTime, true)
	checkTime("slotMaxTime", o.SlotMaxTime, true)
	for i, r := range o.BusinessHours {
		name := fmt.Sprintf("businessHours[%d]", i)
		checkTime(name+".startTime", r.StartTime, false)
		checkTime(name+".endTime", r.EndTime, false)
		for _, d := range r.DaysOfWeek {
			checkDay(name+".daysOfWeek", d)
		}
	}
	if o.PaddingStart < 0 || o.PaddingEnd < 0 {
		errs = append(errs, errors.New("padding must not be negative"))
	}

	if len(errs) > 0 {
		return &ConfigInvalidError{Err: errors.Join(errs...)}
	}
	return nil
}

// Params returns the widget-facing parameters. Server-only and unset values
// are left out; missing business hours and toolbar serialize as false.
func (o *Options) Params() (map[string]any, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	fields, order := params()
	rv := reflect.ValueOf(o).Elem()
	out := make(map[string]any, len(order))
	for _, name := range order {
		if serverOnly[name] {
			continue
		}
		f := rv.Field(fields[name])
		switch name {
		case "headerToolbar":
			if o.HeaderToolbar == nil {
				out[name] = false
				continue
			}
		case "businessHours":
			if len(o.BusinessHours) == 0 {
				out[name] = false
				continue
			}
		}
		switch f.Kind() {
		case reflect.String:
			if f.String() == "" {
				continue
			}
		case reflect.Pointer:
			if f.IsNil() {
				continue
			}
			f = f.Elem()
		}
		out[name] = f.Interface()
	}
	return out, nil
}

func (o *Options) MarshalJSON() ([]byte, error) {
	p, err := o.Params()
	if err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// BusinessWeek merges the configured rules onto an all-closed week. Later
// rules win for the same weekday.
func (o *Options) BusinessWeek() [7]Hours {
	var week [7]Hours
	for _, r := range o.BusinessHours {
		for _, d := range r.DaysOfWeek {
			if !d.Valid() {
				continue
			}
			week[d] = Hours{Start: r.StartTime, End: r.EndTime}
		}
	}
	return week
}

func (o *Options) hasBusinessHours() bool {
	for _, h := range o.BusinessWeek() {
		if !h.Closed() {
			return true
		}
	}
	return false
}

// FindMinTime returns the earliest opening time for day, or for the whole
// week with AnyDay. Empty means no business hours. Padding moves the time
// earlier by PaddingStart hours unless that would cross midnight.
func (o *Options) FindMinTime(day Day, padding bool) string {
	best, ok := o.extreme(day, func(h Hours) string { return h.Start }, func(a, b time.Duration) bool { return a < b })
	if !ok {
		return ""
	}
	pad := time.Duration(o.PaddingStart) * time.Hour
	if padding && best/time.Hour-time.Duration(o.PaddingStart) >= 0 {
		best = max(best-pad, 0)
	}
	return formatClock(best)
}

// FindMaxTime mirrors FindMinTime for closing times. A result that lands on
// midnight means "no limit" and is returned empty.
func (o *Options) FindMaxTime(day Day, padding bool) string {
	best, ok := o.extreme(day, func(h Hours) string { return h.End }, func(a, b time.Duration) bool { return a > b })
	if !ok {
		return ""
	}
	pad := time.Duration(o.PaddingEnd) * time.Hour
	if padding && best/time.Hour+time.Duration(o.PaddingEnd) <= 24 {
		best = min(best+pad, 24*time.Hour)
	}
	if best%(24*time.Hour) == 0 {
		return ""
	}
	return formatClock(best)
}

func (o *Options) extreme(day Day, pick func(Hours) string, better func(a, b time.Duration) bool) (time.Duration, bool) {
	var best time.Duration
	found := false
	for d, h := range o.BusinessWeek() {
		if day != AnyDay && Day(d) != day {
			continue
		}
		v := pick(h)
		if v == "" {
			continue
		}
		c, err := parseClock(v)
		if err != nil {
			continue
		}
		if !found || better(c, best) {
			best, found = c, true
		}
	}
	return best, found
}

// IsVisible reports whether the widget can show the event in its time grid.
func (o *Options) IsVisible(e Event) bool {
	start, end := e.Starts(), e.Ends()

	for _, d := range o.HiddenDays {
		if d == DayOf(start) {
			return false
		}
	}
	if o.SlotMaxTime != "" {
		if limit, err := parseClock(o.SlotMaxTime); err == nil && minutes(timeOfDay(start)) >= minutes(limit) {
			return false
		}
	}
	if o.SlotMinTime != "" && !end.IsZero() {
		if limit, err := parseClock(o.SlotMinTime); err == nil && minutes(timeOfDay(end)) <= minutes(limit) {
			return false
		}
	}
	return true
}

// CheckOutOfBounds always rejects an event that ends before it starts. The
// business-hours checks only run in strict mode or when ForceStrictBounds is
// set, and there an event the widget cannot display is rejected too.
func (o *Options) CheckOutOfBounds(e Event, strict bool) error {
	start, end := e.Starts(), e.Ends()

	if !end.IsZero() && end.Before(start) {
		return &EndsBeforeStartError{Event: e}
	}
	if !strict && !o.ForceStrictBounds {
		return nil
	}
	if o.startsTooSoon(start) || o.endsTooLate(start) {
		return &StartsTooSoonError{Event: e, Time: o.FindMinTime(DayOf(start), false)}
	}
	if !end.IsZero() && (o.endsTooLate(end) || o.startsTooSoon(end)) {
		return &EndsTooLateError{Event: e, Time: o.FindMaxTime(DayOf(end), false)}
	}
	if !o.IsVisible(e) {
		return &UnableToDisplayError{Event: e}
	}
	return nil
}

// startsTooSoon treats a closed day as too soon for anything.
func (o *Options) startsTooSoon(t time.Time) bool {
	v := o.FindMinTime(DayOf(t), false)
	if v == "" {
		return true
	}
	c, err := parseClock(v)
	if err != nil {
		return true
	}
	return t.Before(at(t, c))
}

func (o *Options) endsTooLate(t time.Time) bool {
	v := o.FindMaxTime(DayOf(t), false)
	if v == "" {
		return false
	}
	c, err := parseClock(v)
	if err != nil {
		return false
	}
	return t.After(at(t, c))
}

// LoadState applies per-visitor state stored in "<calendar>-<param>" cookies
// and fills the visible slot range from business hours when unset.
func (o *Options) LoadState(calendar string, cookie func(name string) (string, bool)) {
	get := func(param string) (string, bool) {
		v, ok := cookie(calendar + "-" + param)
		return v, ok && v != ""
	}

	if v, ok := get("view"); ok {
		o.InitialView = v
	}
	if v, ok := get("date"); ok {
		o.InitialDate = v
	}
	if v, ok := get("editable"); ok {
		o.Editable = Bool(cookieBool(v))
	}
	if v, ok := get("autoRefresh"); ok {
		o.AutoRefresh = cookieBool(v)
	}
	if v, ok := get("showDetails"); ok {
		o.ShowDetails = cookieBool(v)
	}
	if v, ok := get("responsive"); ok {
		o.Responsive = cookieBool(v)
	}
	if o.SlotMinTime == "" {
		o.SlotMinTime = o.FindMinTime(AnyDay, true)
	}
	if o.SlotMaxTime == "" {
		o.SlotMaxTime = o.FindMaxTime(AnyDay, true)
	}
}

func cookieBool(v string) bool {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v != "" && v != "0"
}

func minutes(d time.Duration) int {
	return int(d / time.Minute)
}
