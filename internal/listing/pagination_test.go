package listing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopePageDropsLinkLabels(t *testing.T) {
	raw := `{
		"current_page": 2, "last_page": 5, "per_page": 10, "total": 43,
		"from": 11, "to": 20,
		"links": [
			{"url": null, "label": "&laquo; Previous", "active": false},
			{"url": "/clients?page=2", "label": "2", "active": true}
		]
	}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))

	assert.Equal(t, Page{Number: 2, TotalPages: 5, PerPage: 10, Total: 43, From: 11, To: 20}, env.Page())
}

func TestEnvelopeEmptyResult(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"current_page":1,"last_page":1,"per_page":15,"total":0,"from":null,"to":null}`), &env))

	p := env.Page()
	assert.Equal(t, 0, p.From)
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrev())
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		name               string
		number, per, total int
		want               Page
	}{
		{"first", 1, 10, 25, Page{Number: 1, TotalPages: 3, PerPage: 10, Total: 25, From: 1, To: 10}},
		{"last partial", 3, 10, 25, Page{Number: 3, TotalPages: 3, PerPage: 10, Total: 25, From: 21, To: 25}},
		{"clamped", 9, 10, 25, Page{Number: 3, TotalPages: 3, PerPage: 10, Total: 25, From: 21, To: 25}},
		{"empty", 1, 10, 0, Page{Number: 1, TotalPages: 1, PerPage: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPage(tt.number, tt.per, tt.total))
		})
	}
}

func TestPageNavigation(t *testing.T) {
	p := NewPage(2, 10, 25)
	assert.Equal(t, 1, p.Prev())
	assert.Equal(t, 3, p.Next())
	assert.Equal(t, 10, p.Offset())

	last := NewPage(3, 10, 25)
	assert.Equal(t, 3, last.Next())
}
