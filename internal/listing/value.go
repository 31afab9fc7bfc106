package listing

import (
	"sort"
	"time"
)

// DateLayout is the wire format for date filter values.
const DateLayout = "2006-01-02"

// ChipDateLayout is the display format for date values in filter chips.
const ChipDateLayout = "Jan 02, 2006"

// FilterKind selects the control used to edit a filter field.
type FilterKind string

const (
	KindSelect FilterKind = "select"
	KindText   FilterKind = "text"
	KindDate   FilterKind = "date"
)

// SelectOption is one entry of a closed enumeration filter.
type SelectOption struct {
	Label string
	Value string
}

// FilterOption describes one filterable field of a list screen.
type FilterOption struct {
	Label       string
	Key         string
	Kind        FilterKind
	Options     []SelectOption
	Placeholder string
}

// OptionLabel maps a select value back to its human label. Values that
// are not part of the enumeration are returned unchanged.
func (o FilterOption) OptionLabel(value string) string {
	for _, opt := range o.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

// SortOption describes one sortable field of a list screen.
type SortOption struct {
	Label string
	Key   string
}

// FilterValue is the current value of one filter field: a string, a date,
// or nothing at all. The zero value is the null value.
type FilterValue struct {
	text   string
	date   time.Time
	isDate bool
}

// Null is the absent filter value.
var Null = FilterValue{}

// Text returns a string filter value.
func Text(s string) FilterValue {
	return FilterValue{text: s}
}

// Date returns a date filter value truncated to the calendar day.
func Date(t time.Time) FilterValue {
	y, m, d := t.Date()
	return FilterValue{date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), isDate: true}
}

// IsEmpty reports whether the value counts as absent: null, unset, or "".
func (v FilterValue) IsEmpty() bool {
	return !v.isDate && v.text == ""
}

// IsDate reports whether the value holds a date.
func (v FilterValue) IsDate() bool { return v.isDate }

// Time returns the date held by the value and whether there was one.
func (v FilterValue) Time() (time.Time, bool) {
	return v.date, v.isDate
}

// String encodes the value for a query string. Dates use DateLayout.
func (v FilterValue) String() string {
	if v.isDate {
		return v.date.Format(DateLayout)
	}
	return v.text
}

// Equal reports whether two values are identical.
func (v FilterValue) Equal(o FilterValue) bool {
	if v.isDate != o.isDate {
		return false
	}
	if v.isDate {
		return v.date.Equal(o.date)
	}
	return v.text == o.text
}

// FilterValues maps filter keys to their current values.
type FilterValues map[string]FilterValue

// Clone returns an independent copy. A nil map clones to an empty map.
func (f FilterValues) Clone() FilterValues {
	out := make(FilterValues, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Equal reports whether both maps hold the same keys with equal values.
func (f FilterValues) Equal(o FilterValues) bool {
	if len(f) != len(o) {
		return false
	}
	for k, v := range f {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// ActiveKeys returns the sorted keys whose values are non-empty.
func (f FilterValues) ActiveKeys() []string {
	var keys []string
	for k, v := range f {
		if !v.IsEmpty() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
