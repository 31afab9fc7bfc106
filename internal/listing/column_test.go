package listing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   *int64
	Name string
	Tags []string
}

func testColumns() []Column[row] {
	return []Column[row]{
		{Label: "ID", Render: func(r row) string {
			if r.ID == nil {
				return "-"
			}
			return fmt.Sprint(*r.ID)
		}},
		{Label: "Name", Render: func(r row) string { return r.Name }},
		{Label: "Tags", Render: func(r row) string { return strings.Join(r.Tags, ",") }},
	}
}

func TestRowsShape(t *testing.T) {
	id := int64(7)
	data := []row{
		{ID: &id, Name: "Acme", Tags: []string{"b2b"}},
		{Name: "Globex"},
	}
	cols := testColumns()

	rows := Rows(cols, data)

	require.Len(t, rows, len(data))
	for j, r := range rows {
		require.Len(t, r, len(cols))
		for i := range cols {
			assert.Equal(t, cols[i].Render(data[j]), r[i])
		}
	}
	assert.Equal(t, []string{"7", "Acme", "b2b"}, rows[0])
	assert.Equal(t, []string{"-", "Globex", ""}, rows[1])
}

func TestHeaderIndependentOfData(t *testing.T) {
	assert.Equal(t, []string{"ID", "Name", "Tags"}, Header(testColumns()))
	assert.Empty(t, Rows(testColumns(), nil))
}

func TestRowsPropagatesRenderPanic(t *testing.T) {
	cols := []Column[row]{{Label: "Boom", Render: func(row) string { panic("render failed") }}}
	assert.PanicsWithValue(t, "render failed", func() { Rows(cols, []row{{}}) })
}

func TestDecide(t *testing.T) {
	tests := []struct {
		dataLen     int
		active      bool
		originalLen int
		want        Presentation
	}{
		{3, false, 3, HasData},
		{3, true, 10, HasData},
		{0, true, 10, EmptyFiltered},
		{0, true, 0, EmptyAbsolute},
		{0, false, 10, EmptyAbsolute},
		{0, false, 0, EmptyAbsolute},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%v/%d", tt.dataLen, tt.active, tt.originalLen), func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.dataLen, tt.active, tt.originalLen))
		})
	}
}
