package listing

import (
	"net/url"
	"strconv"
	"time"
)

// Reserved query keys. Query drops filters that collide with them.
const (
	ParamSearch    = "search"
	ParamSort      = "sort"
	ParamDirection = "direction"
	ParamPage      = "page"
	ParamPerPage   = "per_page"
)

// Reserved reports whether key is one of the Param query keys.
func Reserved(key string) bool {
	switch key {
	case ParamSearch, ParamSort, ParamDirection, ParamPage, ParamPerPage:
		return true
	}
	return false
}

// Query builds the query string understood by the backend for a snapshot
// and a 1-based page. Empty values are omitted rather than sent as "";
// page is only present past the first page.
func Query(s Snapshot, page int) url.Values {
	q := url.Values{}
	if s.Search != "" {
		q.Set(ParamSearch, s.Search)
	}
	if s.Sort != "" {
		q.Set(ParamSort, s.Sort)
		if s.Direction != "" {
			q.Set(ParamDirection, string(s.Direction))
		}
	}
	for key, v := range s.Filters {
		if v.IsEmpty() || Reserved(key) {
			continue
		}
		q.Set(key, v.String())
	}
	if page > 1 {
		q.Set(ParamPage, strconv.Itoa(page))
	}
	return q
}

// ParseQuery reads a snapshot back from a query string, starting from
// defaults. Only keys described by options become filters; date filters
// that fail to parse are dropped.
func ParseQuery(q url.Values, options []FilterOption, defaults Snapshot) Snapshot {
	s := defaults.Clone()
	if q.Has(ParamSearch) {
		s.Search = q.Get(ParamSearch)
	}
	if v := q.Get(ParamSort); v != "" {
		s.Sort = v
	}
	if v := q.Get(ParamDirection); v != "" {
		s.Direction = ParseDirection(v)
	}
	for _, opt := range options {
		raw := q.Get(opt.Key)
		if raw == "" || Reserved(opt.Key) {
			continue
		}
		if opt.Kind == KindDate {
			t, err := time.Parse(DateLayout, raw)
			if err != nil {
				continue
			}
			s.Filters[opt.Key] = Date(t)
			continue
		}
		s.Filters[opt.Key] = Text(raw)
	}
	return s
}

// ParsePage reads the 1-based page number, defaulting to 1.
func ParsePage(q url.Values) int {
	n, err := strconv.Atoi(q.Get(ParamPage))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParsePerPage reads the page size, falling back to def when missing or
// out of the 1..limit range.
func ParsePerPage(q url.Values, def, limit int) int {
	n, err := strconv.Atoi(q.Get(ParamPerPage))
	if err != nil || n < 1 || n > limit {
		return def
	}
	return n
}
