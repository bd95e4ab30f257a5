package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"leavingrate/domain/core"
	"leavingrate/ports"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DataReader reads session exports: tab-separated .txt/.tsv, .csv and .xlsx
type DataReader struct{}

var _ ports.SessionReaderPort = (*DataReader)(nil)

// NewDataReader creates a new data reader
func NewDataReader() *DataReader {
	return &DataReader{}
}

// ReadSession reads one session file, checks the required columns and
// returns its rows keyed by header
func (r *DataReader) ReadSession(ctx context.Context, path string, required []string) (*ports.SessionTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := r.readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header", core.ErrEmptyInput, path)
	}

	table := processRows(path, rows)

	if missing := missingColumns(table.Headers, required); len(missing) > 0 {
		return nil, core.NewMissingColumnsError(path, missing)
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no data rows", core.ErrEmptyInput, path)
	}
	return table, nil
}

func (r *DataReader) readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readExcelRows(path)
	case ".csv":
		return readDelimitedRows(path, ',')
	default:
		return readDelimitedRows(path, '\t')
	}
}

// readExcelRows reads the first sheet of a workbook
func readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook %s: %v", core.ErrUnreadableInput, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", core.ErrEmptyInput, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %s: %v", core.ErrUnreadableInput, sheets[0], err)
	}
	return rows, nil
}

// readDelimitedRows reads a delimited text file. A UTF-8 byte order mark is
// stripped; content that is not valid UTF-8 is decoded as Windows-1252.
func readDelimitedRows(path string, comma rune) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableInput, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not valid text: %v", core.ErrUnreadableInput, path, err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", core.ErrUnreadableInput, path, err)
	}
	return rows, nil
}

// processRows converts raw string rows into a session table. Blank lines
// are skipped and short rows leave their trailing columns absent.
func processRows(path string, rows [][]string) *ports.SessionTable {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	return &ports.SessionTable{
		Path:    path,
		Headers: headers,
		Rows:    dataRows,
	}
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func missingColumns(headers, required []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
