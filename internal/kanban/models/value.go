package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value wraps a raw property value as stored on a card. Storage backends
// decode into plain Go values (string, []any, float64, int, bool, map), so
// every accessor tolerates any of those shapes.
type Value struct {
	raw any
}

// ValueOf wraps a raw value.
func ValueOf(raw any) Value {
	return Value{raw: raw}
}

// Raw returns the wrapped value.
func (v Value) Raw() any {
	return v.raw
}

// IsEmpty reports whether the value is missing, an empty string, or an empty list.
func (v Value) IsEmpty() bool {
	switch r := v.raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(r) == ""
	case []string:
		return len(r) == 0
	case []any:
		return len(r) == 0
	case map[string]any:
		return len(r) == 0
	}
	return false
}

// String renders the value as a single string. Lists are joined with ", ".
func (v Value) String() string {
	switch r := v.raw.(type) {
	case nil:
		return ""
	case string:
		return r
	case bool:
		return strconv.FormatBool(r)
	case int:
		return strconv.Itoa(r)
	case int64:
		return strconv.FormatInt(r, 10)
	case float64:
		return strconv.FormatFloat(r, 'f', -1, 64)
	case []string, []any:
		return strings.Join(v.Strings(), ", ")
	}
	return fmt.Sprint(v.raw)
}

// Strings returns the value as a list of strings. A scalar becomes a
// one-element list; an empty string becomes an empty list.
func (v Value) Strings() []string {
	switch r := v.raw.(type) {
	case nil:
		return nil
	case string:
		if r == "" {
			return nil
		}
		return []string{r}
	case []string:
		return r
	case []any:
		out := make([]string, 0, len(r))
		for _, item := range r {
			if s := ValueOf(item).String(); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := v.String(); s != "" {
		return []string{s}
	}
	return nil
}

// Number returns the value as a float. Numeric strings are parsed.
func (v Value) Number() (float64, bool) {
	switch r := v.raw.(type) {
	case int:
		return float64(r), true
	case int64:
		return float64(r), true
	case float64:
		return r, true
	case float32:
		return float64(r), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Bool returns the value as a checkbox state. Anything but true or "true" is false.
func (v Value) Bool() bool {
	switch r := v.raw.(type) {
	case bool:
		return r
	case string:
		return strings.EqualFold(strings.TrimSpace(r), "true")
	}
	return false
}

// DateValue is a resolved date property. To is set for ranges.
type DateValue struct {
	From time.Time
	To   *time.Time
}

type storedDate struct {
	From *float64 `json:"from"`
	To   *float64 `json:"to"`
}

// Date resolves the value into a DateValue.
func (v Value) Date() (DateValue, bool) {
	switch r := v.raw.(type) {
	case time.Time:
		return DateValue{From: r}, !r.IsZero()
	case int, int64, float64:
		ms, _ := v.Number()
		return DateValue{From: fromMillis(ms)}, true
	case map[string]any:
		return dateFromMap(r)
	case string:
		return parseDateString(r)
	}
	return DateValue{}, false
}

func dateFromMap(m map[string]any) (DateValue, bool) {
	from, ok := ValueOf(m["from"]).Number()
	if !ok {
		return DateValue{}, false
	}
	d := DateValue{From: fromMillis(from)}
	if to, ok := ValueOf(m["to"]).Number(); ok {
		t := fromMillis(to)
		d.To = &t
	}
	return d, true
}

func parseDateString(s string) (DateValue, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateValue{}, false
	}
	if strings.HasPrefix(s, "{") {
		var sd storedDate
		if err := json.Unmarshal([]byte(s), &sd); err != nil || sd.From == nil {
			return DateValue{}, false
		}
		d := DateValue{From: fromMillis(*sd.From)}
		if sd.To != nil {
			t := fromMillis(*sd.To)
			d.To = &t
		}
		return d, true
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return DateValue{From: fromMillis(ms)}, true
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return DateValue{From: t}, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateValue{From: t}, true
	}
	return DateValue{}, false
}

func fromMillis(ms float64) time.Time {
	return time.UnixMilli(int64(ms))
}

// EncodeDate produces the stored JSON form of a date property value.
func EncodeDate(from time.Time, to *time.Time) string {
	sd := storedDate{}
	f := float64(from.UnixMilli())
	sd.From = &f
	if to != nil {
		t := float64(to.UnixMilli())
		sd.To = &t
	}
	b, _ := json.Marshal(sd)
	return string(b)
}
