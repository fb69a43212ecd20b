// Package spreadsheet reads content rows from csv and xlsx files and writes
// the starter templates users fill in. Headers are normalized (lowercased,
// trimmed, required-marker suffix stripped) so "Slug *" and "slug" address
// the same column. Every row remembers its 1-based source row number for
// error reporting.
package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one spreadsheet row: normalized header -> trimmed cell value.
type Row struct {
	// SourceRow is the 1-based row number in the file, header row included.
	SourceRow int
	Values    map[string]string
}

// Get returns the value of the named column, empty if absent.
func (r Row) Get(column string) string {
	return r.Values[column]
}

// File is a parsed spreadsheet.
type File struct {
	Path    string
	Headers []string
	Rows    []Row
}

// MissingColumns returns the required columns absent from the file's header
// row, in the order given.
func (f *File) MissingColumns(required []string) []string {
	present := make(map[string]bool, len(f.Headers))
	for _, h := range f.Headers {
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

// Read parses a csv or xlsx file by extension.
func Read(path string) (*File, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q: use .csv or .xlsx", filepath.Ext(path))
	}
}

// NormalizeHeader lowercases and trims a header cell and strips the
// trailing required marker (" *").
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	h = strings.TrimSuffix(h, " *")
	return strings.TrimSpace(h)
}

func readCSV(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty: expected a header row", filepath.Base(path))
	}

	return buildFile(path, records), nil
}

func readXLSX(path string) (*File, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", filepath.Base(path))
	}
	// Data lives on the first sheet; an Instructions sheet may follow.
	records, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty: expected a header row", filepath.Base(path))
	}

	return buildFile(path, records), nil
}

func buildFile(path string, records [][]string) *File {
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = NormalizeHeader(h)
	}

	file := &File{Path: path, Headers: headers}
	for i, record := range records[1:] {
		values := make(map[string]string, len(headers))
		empty := true
		for col, header := range headers {
			if header == "" {
				continue
			}
			var cell string
			if col < len(record) {
				cell = strings.TrimSpace(record[col])
			}
			values[header] = cell
			if cell != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		file.Rows = append(file.Rows, Row{SourceRow: i + 2, Values: values})
	}
	return file
}

// TemplateColumn describes one column of a starter template.
type TemplateColumn struct {
	Header   string
	Required bool
	Example  string
	Note     string
}

// WriteTemplate writes a starter xlsx with a styled header row, one example
// row, and an Instructions sheet explaining each column.
func WriteTemplate(path, sheet string, columns []TemplateColumn, instructions []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create template directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, col := range columns {
		header := col.Header
		if col.Required {
			header += " *"
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)

		example, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, example, col.Example)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, colName, colName, 22)
	}

	const instrSheet = "Instructions"
	if _, err := f.NewSheet(instrSheet); err != nil {
		return fmt.Errorf("create instructions sheet: %w", err)
	}
	rowNum := 1
	for _, line := range instructions {
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		f.SetCellValue(instrSheet, cell, line)
		rowNum++
	}
	rowNum++
	for _, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		label := col.Header
		if col.Required {
			label += " (required)"
		}
		f.SetCellValue(instrSheet, cell, label)
		note, _ := excelize.CoordinatesToCellName(2, rowNum)
		f.SetCellValue(instrSheet, note, col.Note)
		rowNum++
	}
	f.SetColWidth(instrSheet, "A", "A", 28)
	f.SetColWidth(instrSheet, "B", "B", 70)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}
