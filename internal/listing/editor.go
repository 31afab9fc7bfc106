package listing

// Editor buffers in-progress filter edits separately from the committed
// filters. Edits become visible only through Apply.
type Editor struct {
	temp FilterValues
	open bool
}

// Open starts an edit session seeded with the committed filters.
func (e *Editor) Open(committed FilterValues) {
	e.temp = committed.Clone()
	e.open = true
}

// IsOpen reports whether an edit session is active.
func (e Editor) IsOpen() bool { return e.open }

// Set edits one key of the temporary buffer.
func (e *Editor) Set(key string, value FilterValue) {
	if e.temp == nil {
		e.temp = FilterValues{}
	}
	e.temp[key] = value
}

// Value returns the buffered value for key.
func (e Editor) Value(key string) FilterValue {
	return e.temp[key]
}

// Apply closes the session and returns the buffer contents, which replace
// the committed filters.
func (e *Editor) Apply() FilterValues {
	out := e.temp.Clone()
	e.temp = nil
	e.open = false
	return out
}

// Cancel closes the session and discards the buffer.
func (e *Editor) Cancel() {
	e.temp = nil
	e.open = false
}

// Reset empties the buffer. The session stays open; the caller clears the
// committed filters at the same time.
func (e *Editor) Reset() {
	e.temp = FilterValues{}
}

// Chip is a removable label for one committed filter.
type Chip struct {
	Key     string
	Label   string
	Display string
}

// Chips returns one chip per non-empty committed filter whose key is
// described by options, in option order. Select values resolve to their
// option label and dates render with ChipDateLayout.
func Chips(filters FilterValues, options []FilterOption) []Chip {
	var chips []Chip
	for _, opt := range options {
		v, ok := filters[opt.Key]
		if !ok || v.IsEmpty() {
			continue
		}
		chips = append(chips, Chip{
			Key:     opt.Key,
			Label:   opt.Label,
			Display: displayValue(opt, v),
		})
	}
	return chips
}

func displayValue(opt FilterOption, v FilterValue) string {
	if t, ok := v.Time(); ok {
		return t.Format(ChipDateLayout)
	}
	if opt.Kind == KindSelect {
		return opt.OptionLabel(v.String())
	}
	return v.String()
}
