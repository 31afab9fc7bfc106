package listing

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// ParseDirection reads a direction, defaulting to Asc for anything but "desc".
func ParseDirection(s string) Direction {
	if Direction(s) == Desc {
		return Desc
	}
	return Asc
}

// Snapshot is the complete list-browsing state of one screen.
type Snapshot struct {
	Search    string
	Sort      string
	Direction Direction
	Filters   FilterValues
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	s.Filters = s.Filters.Clone()
	return s
}

// Equal reports whether two snapshots are identical.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Search == o.Search &&
		s.Sort == o.Sort &&
		s.Direction == o.Direction &&
		s.Filters.Equal(o.Filters)
}

// State holds the transient search, sort and filter state of a list screen
// together with the snapshot it was constructed from.
//
// Filter maps are never mutated after they are stored, so copies of a State
// (Bubble Tea models are passed by value) do not share writes.
type State struct {
	initial Snapshot
	current Snapshot
}

// NewState creates a State whose initial and current snapshots equal
// initial. The snapshot may carry server defaults echoed from the query.
// A missing direction starts as Asc.
func NewState(initial Snapshot) State {
	initial = initial.Clone()
	initial.Direction = ParseDirection(string(initial.Direction))
	return State{initial: initial, current: initial.Clone()}
}

// Search returns the current search text.
func (s State) Search() string { return s.current.Search }

// Sort returns the current sort key.
func (s State) Sort() string { return s.current.Sort }

// Direction returns the current sort direction.
func (s State) Direction() Direction { return s.current.Direction }

// Filters returns a copy of the committed filter values.
func (s State) Filters() FilterValues { return s.current.Filters.Clone() }

// Snapshot returns a deep copy of the current state.
func (s State) Snapshot() Snapshot { return s.current.Clone() }

// Initial returns a deep copy of the construction snapshot.
func (s State) Initial() Snapshot { return s.initial.Clone() }

// SetSearch replaces the search text.
func (s *State) SetSearch(value string) {
	s.current.Search = value
}

// SetSort replaces sort key and direction together.
func (s *State) SetSort(key string, direction Direction) {
	s.current.Sort = key
	s.current.Direction = ParseDirection(string(direction))
}

// ToggleDirection flips the sort direction and keeps the sort key.
func (s *State) ToggleDirection() {
	s.current.Direction = s.current.Direction.Toggle()
}

// SetFilters replaces the committed filters wholesale.
func (s *State) SetFilters(values FilterValues) {
	s.current.Filters = values.Clone()
}

// RemoveFilter drops a single committed filter key.
func (s *State) RemoveFilter(key string) {
	next := s.current.Filters.Clone()
	delete(next, key)
	s.current.Filters = next
}

// Reset restores the construction snapshot.
func (s *State) Reset() {
	s.current = s.initial.Clone()
}

// HasActiveFilters reports whether search, sort or direction differ from
// the initial snapshot, or any filter value is non-empty.
func (s State) HasActiveFilters() bool {
	if s.current.Search != s.initial.Search ||
		s.current.Sort != s.initial.Sort ||
		s.current.Direction != s.initial.Direction {
		return true
	}
	return s.ActiveFilterCount() > 0
}

// ActiveFilterCount returns the number of non-empty committed filters.
func (s State) ActiveFilterCount() int {
	n := 0
	for _, v := range s.current.Filters {
		if !v.IsEmpty() {
			n++
		}
	}
	return n
}
