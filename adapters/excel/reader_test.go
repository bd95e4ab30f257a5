package excel

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"leavingrate/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestReadSession_TabSeparated(t *testing.T) {
	content := "TRIAL_INDEX\tLADO\tACCURACY\n1\t1\t1\n2\t2\t0\n\n3\t1\n"
	path := writeFile(t, "F__P1_C1_S1_O1.txt", append(append([]byte{}, utf8BOM...), content...))

	table, err := NewDataReader().ReadSession(context.Background(), path, []string{"TRIAL_INDEX", "LADO"})
	require.NoError(t, err)

	assert.Equal(t, []string{"TRIAL_INDEX", "LADO", "ACCURACY"}, table.Headers)
	require.Len(t, table.Rows, 3)

	acc, present := table.Column("ACCURACY")
	assert.Equal(t, []string{"1", "0", ""}, acc)
	assert.Equal(t, []bool{true, true, false}, present)
}

func TestReadSession_CSV(t *testing.T) {
	path := writeFile(t, "session.csv", []byte("LADO,ACCURACY\n2,1\n"))

	table, err := NewDataReader().ReadSession(context.Background(), path, []string{"LADO"})
	require.NoError(t, err)
	lado, _ := table.Column("LADO")
	assert.Equal(t, []string{"2"}, lado)
}

func TestReadSession_Windows1252(t *testing.T) {
	// 0xE9 is e-acute in Windows-1252 and invalid as UTF-8
	path := writeFile(t, "session.txt", []byte("LADO\tNOTE\n1\tcaf\xe9\n"))

	table, err := NewDataReader().ReadSession(context.Background(), path, []string{"LADO"})
	require.NoError(t, err)
	note, _ := table.Column("NOTE")
	assert.Equal(t, []string{"café"}, note)
}

func TestReadSession_Errors(t *testing.T) {
	reader := NewDataReader()
	ctx := context.Background()

	t.Run("missing columns", func(t *testing.T) {
		path := writeFile(t, "a.txt", []byte("TRIAL_INDEX\tACCURACY\n1\t1\n"))
		_, err := reader.ReadSession(ctx, path, []string{"TRIAL_INDEX", "LADO", "ACCURACY"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrMissingColumns))
		assert.Contains(t, err.Error(), "LADO")
	})

	t.Run("header only", func(t *testing.T) {
		path := writeFile(t, "b.txt", []byte("LADO\n"))
		_, err := reader.ReadSession(ctx, path, []string{"LADO"})
		assert.True(t, errors.Is(err, core.ErrEmptyInput))
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, "c.txt", nil)
		_, err := reader.ReadSession(ctx, path, nil)
		assert.True(t, errors.Is(err, core.ErrEmptyInput))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := reader.ReadSession(ctx, filepath.Join(t.TempDir(), "nope.txt"), nil)
		assert.True(t, errors.Is(err, core.ErrUnreadableInput))
		assert.True(t, core.IsInputError(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := reader.ReadSession(cancelled, "ignored.txt", nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWriteCSV(t *testing.T) {
	table := Table{Name: "summary", Headers: []string{"participant", "lambda_a", "exact"}}
	table.AddRow(1, 0.25, true)
	table.AddRow(2, math.NaN(), false)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	assert.Equal(t, "\ufeffparticipant,lambda_a,exact\n1,0.25,true\n2,,false\n", buf.String())
}

func TestWorkbook_RoundTrip(t *testing.T) {
	sessions := Table{Name: "sessions", Headers: []string{"LADO", "lambda_a"}}
	sessions.AddRow(1, 0.5)
	sessions.AddRow(2, math.NaN())
	aggregates := Table{Name: "aggregates", Headers: []string{"participant"}}
	aggregates.AddRow(7)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, []Table{sessions, aggregates}))
	path := writeFile(t, "results.xlsx", buf.Bytes())

	table, err := NewDataReader().ReadSession(context.Background(), path, []string{"LADO"})
	require.NoError(t, err)
	lado, _ := table.Column("LADO")
	lambda, _ := table.Column("lambda_a")
	assert.Equal(t, []string{"1", "2"}, lado)
	assert.Equal(t, "0.5", lambda[0])
	assert.Equal(t, "", lambda[1])
}

func TestWriteWorkbook_NoTables(t *testing.T) {
	assert.Error(t, WriteWorkbook(&bytes.Buffer{}, nil))
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", FormatCell(math.Inf(1)))
	assert.Equal(t, "0.7", FormatCell(0.7))
	assert.Equal(t, "abc", FormatCell("abc"))
	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "12", FormatCell(int64(12)))
}
