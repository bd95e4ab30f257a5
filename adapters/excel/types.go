package excel

// RawRowData represents a row of raw data as header-keyed strings
type RawRowData map[string]string

// Table is a named result table ready to be written as CSV or as one
// workbook sheet. Cells are strings, ints, bools or float64; a NaN float
// is written as an empty cell.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// AddRow appends one row of cells
func (t *Table) AddRow(cells ...interface{}) {
	t.Rows = append(t.Rows, cells)
}
