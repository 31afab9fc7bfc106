package listing

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initialSnapshot() Snapshot {
	return Snapshot{Search: "", Sort: "name", Direction: Asc, Filters: FilterValues{}}
}

func TestResetRestoresInitialSnapshot(t *testing.T) {
	initial := Snapshot{
		Search:    "acme",
		Sort:      "created_at",
		Direction: Desc,
		Filters:   FilterValues{"status": Text("active")},
	}
	s := NewState(initial)

	s.SetSearch("globex")
	s.SetSort("name", Asc)
	s.SetFilters(FilterValues{"industry": Text("retail")})
	s.RemoveFilter("status")
	s.ToggleDirection()
	s.Reset()

	if diff := cmp.Diff(initial, s.Snapshot()); diff != "" {
		t.Fatalf("snapshot after reset mismatch (-want +got):\n%s", diff)
	}
}

func TestNewStateCopiesInitialFilters(t *testing.T) {
	filters := FilterValues{"status": Text("active")}
	s := NewState(Snapshot{Sort: "name", Direction: Asc, Filters: filters})

	filters["status"] = Text("inactive")
	s.Reset()

	assert.True(t, s.Filters()["status"].Equal(Text("active")))
}

func TestHasActiveFilters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*State)
		want   bool
	}{
		{"untouched", func(*State) {}, false},
		{"search changed", func(s *State) { s.SetSearch("acme") }, true},
		{"sort changed", func(s *State) { s.SetSort("email", Asc) }, true},
		{"direction changed", func(s *State) { s.ToggleDirection() }, true},
		{"filter set", func(s *State) { s.SetFilters(FilterValues{"status": Text("active")}) }, true},
		{"date filter set", func(s *State) {
			s.SetFilters(FilterValues{"created_from": Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))})
		}, true},
		{"empty string filter", func(s *State) { s.SetFilters(FilterValues{"status": Text("")}) }, false},
		{"null filter", func(s *State) { s.SetFilters(FilterValues{"status": Null}) }, false},
		{"search set back to initial", func(s *State) {
			s.SetSearch("acme")
			s.SetSearch("")
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(initialSnapshot())
			tt.mutate(&s)
			assert.Equal(t, tt.want, s.HasActiveFilters())
		})
	}
}

func TestSetFiltersReplacesWholesale(t *testing.T) {
	s := NewState(initialSnapshot())
	s.SetFilters(FilterValues{"status": Text("active"), "industry": Text("retail")})
	s.SetFilters(FilterValues{"owner": Text("7")})

	got := s.Filters()
	require.Len(t, got, 1)
	assert.True(t, got["owner"].Equal(Text("7")))
	_, stale := got["status"]
	assert.False(t, stale)
}

func TestRemoveFilterLeavesOtherKeys(t *testing.T) {
	s := NewState(initialSnapshot())
	s.SetFilters(FilterValues{"status": Text("active"), "industry": Text("retail")})

	before := s
	s.RemoveFilter("status")

	assert.Equal(t, []string{"industry"}, s.Filters().ActiveKeys())
	// Copies taken before the removal keep their own filters.
	assert.Equal(t, []string{"industry", "status"}, before.Filters().ActiveKeys())
}

func TestResetAllScenario(t *testing.T) {
	s := NewState(initialSnapshot())
	s.SetFilters(FilterValues{"status": Text("active")})
	require.True(t, s.HasActiveFilters())

	s.Reset()

	assert.True(t, s.Snapshot().Equal(initialSnapshot()))
	assert.False(t, s.HasActiveFilters())
}

func TestToggleDirectionKeepsSortKey(t *testing.T) {
	s := NewState(initialSnapshot())

	s.ToggleDirection()
	assert.Equal(t, "name", s.Sort())
	assert.Equal(t, Desc, s.Direction())

	s.ToggleDirection()
	assert.Equal(t, "name", s.Sort())
	assert.Equal(t, Asc, s.Direction())
}

func TestActiveFilterCountIgnoresEmptyValues(t *testing.T) {
	s := NewState(initialSnapshot())
	s.SetFilters(FilterValues{
		"status":   Text("active"),
		"industry": Text(""),
		"owner":    Null,
		"since":    Date(time.Now()),
	})
	assert.Equal(t, 2, s.ActiveFilterCount())
}
