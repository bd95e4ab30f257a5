package ports

import (
	"context"
)

// SessionTable is the raw tabular content of one session file
type SessionTable struct {
	Path    string              // source file
	Headers []string            // column names in file order
	Rows    []map[string]string // one map per data row, keyed by header
}

// Column returns the values of one column in row order. Missing cells
// come back as "" with present set to false.
func (t *SessionTable) Column(name string) (values []string, present []bool) {
	values = make([]string, len(t.Rows))
	present = make([]bool, len(t.Rows))
	for i, row := range t.Rows {
		values[i], present[i] = row[name]
	}
	return values, present
}

// SessionReaderPort reads one session file into a table. Implementations
// fail with an input error when a required column is absent or the file
// holds no data rows.
type SessionReaderPort interface {
	ReadSession(ctx context.Context, path string, required []string) (*SessionTable, error)
}
