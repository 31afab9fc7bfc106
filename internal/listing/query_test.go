package listing

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueryOmitsEmptyValues(t *testing.T) {
	s := Snapshot{
		Search:    "",
		Sort:      "name",
		Direction: Desc,
		Filters: FilterValues{
			"status":       Text("active"),
			"industry":     Text(""),
			"owner":        Null,
			"created_from": Date(time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)),
		},
	}

	q := Query(s, 1)

	assert.Equal(t, url.Values{
		"sort":         {"name"},
		"direction":    {"desc"},
		"status":       {"active"},
		"created_from": {"2024-01-09"},
	}, q)
}

func TestQueryPageOnlyPastFirst(t *testing.T) {
	s := Snapshot{Search: "acme"}

	assert.False(t, Query(s, 1).Has(ParamPage))
	assert.False(t, Query(s, 0).Has(ParamPage))
	assert.Equal(t, "3", Query(s, 3).Get(ParamPage))
}

func TestQueryDropsReservedFilterKeys(t *testing.T) {
	q := Query(Snapshot{
		Search: "acme",
		Filters: FilterValues{
			ParamSearch: Text("shadow"),
			ParamPage:   Text("9"),
			"status":    Text("active"),
		},
	}, 2)

	assert.Equal(t, "acme", q.Get(ParamSearch))
	assert.Equal(t, "2", q.Get(ParamPage))
	assert.Equal(t, "active", q.Get("status"))
	assert.True(t, Reserved(ParamPerPage))
	assert.False(t, Reserved("status"))
}

func TestQueryWithoutSortOmitsDirection(t *testing.T) {
	q := Query(Snapshot{Direction: Desc}, 1)
	assert.Empty(t, q)
}

func TestParseQueryRoundTrip(t *testing.T) {
	s := Snapshot{
		Search:    "acme",
		Sort:      "created_at",
		Direction: Desc,
		Filters: FilterValues{
			"status":       Text("inactive"),
			"created_from": Date(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
		},
	}

	got := ParseQuery(Query(s, 2), clientFilterOptions, Snapshot{Sort: "name", Direction: Asc})

	assert.True(t, got.Equal(s), "got %+v", got)
}

func TestParseQueryIgnoresUndescribedKeys(t *testing.T) {
	q := url.Values{"tenant": {"9"}, "created_from": {"not-a-date"}, "industry": {"retail"}}

	got := ParseQuery(q, clientFilterOptions, Snapshot{Sort: "name", Direction: Asc})

	assert.Equal(t, []string{"industry"}, got.Filters.ActiveKeys())
	assert.Equal(t, "name", got.Sort)
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, ParsePage(url.Values{}))
	assert.Equal(t, 1, ParsePage(url.Values{"page": {"-2"}}))
	assert.Equal(t, 4, ParsePage(url.Values{"page": {"4"}}))
	assert.Equal(t, 15, ParsePerPage(url.Values{"per_page": {"500"}}, 15, 100))
	assert.Equal(t, 50, ParsePerPage(url.Values{"per_page": {"50"}}, 15, 100))
}
