package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clientFilterOptions = []FilterOption{
	{
		Label: "Status",
		Key:   "status",
		Kind:  KindSelect,
		Options: []SelectOption{
			{Label: "Active", Value: "active"},
			{Label: "Inactive", Value: "inactive"},
		},
	},
	{Label: "Industry", Key: "industry", Kind: KindText},
	{Label: "Created after", Key: "created_from", Kind: KindDate},
}

func TestEditorApplyReplacesCommittedFilters(t *testing.T) {
	s := NewState(initialSnapshot())
	s.SetFilters(FilterValues{"status": Text("active"), "industry": Text("retail")})

	var e Editor
	e.Open(s.Filters())
	e.Set("status", Text("inactive"))
	delete(e.temp, "industry")

	// Nothing is visible before Apply.
	assert.True(t, s.Filters()["status"].Equal(Text("active")))

	s.SetFilters(e.Apply())

	got := s.Filters()
	require.Len(t, got, 1)
	assert.True(t, got["status"].Equal(Text("inactive")))
	assert.False(t, e.IsOpen())
}

func TestEditorCancelLeavesCommittedFilters(t *testing.T) {
	s := NewState(initialSnapshot())
	s.SetFilters(FilterValues{"status": Text("active")})
	committed := s.Filters()

	var e Editor
	e.Open(committed)
	e.Set("status", Text("inactive"))
	e.Set("industry", Text("retail"))
	e.Cancel()

	assert.True(t, s.Filters().Equal(committed))
	assert.False(t, e.IsOpen())
}

func TestEditorEditsDoNotAliasCommittedMap(t *testing.T) {
	committed := FilterValues{"status": Text("active")}

	var e Editor
	e.Open(committed)
	e.Set("status", Text("inactive"))

	assert.True(t, committed["status"].Equal(Text("active")))
}

func TestEditorResetClearsBuffer(t *testing.T) {
	var e Editor
	e.Open(FilterValues{"status": Text("active")})
	e.Reset()

	assert.True(t, e.IsOpen())
	assert.True(t, e.Value("status").IsEmpty())
	assert.Empty(t, e.Apply())
}

func TestChips(t *testing.T) {
	filters := FilterValues{
		"created_from": Date(time.Date(2024, time.March, 5, 15, 0, 0, 0, time.UTC)),
		"status":       Text("inactive"),
		"industry":     Text(""),
		"unknown":      Text("ignored"),
	}

	chips := Chips(filters, clientFilterOptions)

	assert.Equal(t, []Chip{
		{Key: "status", Label: "Status", Display: "Inactive"},
		{Key: "created_from", Label: "Created after", Display: "Mar 05, 2024"},
	}, chips)
}

func TestChipsUnknownSelectValueFallsBackToRaw(t *testing.T) {
	chips := Chips(FilterValues{"status": Text("archived")}, clientFilterOptions)
	require.Len(t, chips, 1)
	assert.Equal(t, "archived", chips[0].Display)
}
