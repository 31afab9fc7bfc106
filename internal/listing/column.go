package listing

// Column describes one table column for rows of type T. Render may return
// any text, including styled badges; the table never inspects rows itself.
type Column[T any] struct {
	Label  string
	Render func(T) string
	// Width is the cell width in terminal cells; zero shares the remainder.
	Width int
	// Class names a cell style: "badge", "muted", or "truncate" to cut
	// long text with an ellipsis instead of clipping it.
	Class string
}

// KeyFunc extracts the nullable id of a row.
type KeyFunc[T any] func(T) *int64

// Header returns the column labels. It does not depend on any data.
func Header[T any](columns []Column[T]) []string {
	labels := make([]string, len(columns))
	for i, c := range columns {
		labels[i] = c.Label
	}
	return labels
}

// Rows renders data against columns: one row per item in input order,
// one cell per column. A panicking Render propagates to the caller.
func Rows[T any](columns []Column[T], data []T) [][]string {
	rows := make([][]string, len(data))
	for j, item := range data {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = c.Render(item)
		}
		rows[j] = cells
	}
	return rows
}
