// Package spreadsheet loads workbooks into memory and turns their sheets into
// header-keyed records.
package spreadsheet

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook is a fully loaded workbook. It holds no file handle, so parsing it
// is a pure function of the bytes it was read from.
type Workbook struct {
	name   string
	sheets []string
	rows   map[string][][]string
}

// Record is one data row of a sheet, keyed by normalized header. Row is the
// 1-based row number in the sheet.
type Record struct {
	Row   int
	Cells map[string]string
}

// Open reads the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return load(filepath.Base(path), f)
}

// Read reads a workbook from r. name is used in error messages only.
func Read(name string, r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook %q: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	return load(name, f)
}

func load(name string, f *excelize.File) (*Workbook, error) {
	wb := New(name)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		wb.AddSheet(sheet, rows)
	}
	return wb, nil
}

// New returns an empty workbook.
func New(name string) *Workbook {
	return &Workbook{name: name, rows: make(map[string][][]string)}
}

// AddSheet appends a sheet or replaces the rows of an existing one.
func (w *Workbook) AddSheet(name string, rows [][]string) {
	if _, ok := w.rows[name]; !ok {
		w.sheets = append(w.sheets, name)
	}
	w.rows[name] = rows
}

// Name returns the name the workbook was opened with.
func (w *Workbook) Name() string { return w.name }

// SheetNames returns sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return slices.Clone(w.sheets)
}

// HasSheet reports whether the workbook has a sheet with exactly this name.
func (w *Workbook) HasSheet(name string) bool {
	_, ok := w.rows[name]
	return ok
}

// MissingSheets returns the names in required that the workbook lacks, in
// the order given.
func (w *Workbook) MissingSheets(required []string) []string {
	var missing []string
	for _, name := range required {
		if !w.HasSheet(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Records returns the data rows of a table sheet: headers in row 1, data
// from row 2 on. Rows whose cells are all blank are skipped.
func (w *Workbook) Records(sheet string) ([]Record, error) {
	rows, ok := w.rows[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	headers := headerRow(rows[0])
	var out []Record
	for i := 1; i < len(rows); i++ {
		rec := Record{Row: i + 1, Cells: cellsFor(headers, rows[i])}
		if rec.blank() {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Info returns the single record of an info sheet: headers in row 1, values
// in row 2. A missing data row yields a record of empty values.
func (w *Workbook) Info(sheet string) (Record, error) {
	rows, ok := w.rows[sheet]
	if !ok {
		return Record{}, fmt.Errorf("sheet %q not found", sheet)
	}
	if len(rows) == 0 {
		return Record{Row: 2, Cells: map[string]string{}}, nil
	}

	var data []string
	if len(rows) > 1 {
		data = rows[1]
	}
	return Record{Row: 2, Cells: cellsFor(headerRow(rows[0]), data)}, nil
}

func (r Record) blank() bool {
	for _, v := range r.Cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// headerRow normalizes the header cells. Empty headers stay empty and their
// columns are ignored. When a header repeats, the rightmost column wins.
func headerRow(row []string) []string {
	headers := make([]string, len(row))
	for i, h := range row {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return headers
}

func cellsFor(headers, row []string) map[string]string {
	cells := make(map[string]string, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(row) {
			cells[h] = row[i]
		} else {
			cells[h] = ""
		}
	}
	return cells
}
