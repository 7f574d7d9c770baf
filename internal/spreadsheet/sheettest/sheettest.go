// Package sheettest writes workbook fixtures for tests.
package sheettest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is one named sheet of a fixture, rows in order starting at row 1.
type Sheet struct {
	Name string
	Rows [][]any
}

// Write saves sheets as an .xlsx file at path.
func Write(t *testing.T, path string, sheets ...Sheet) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const defaultSheet = "Sheet1"
	keepDefault := false
	for _, sh := range sheets {
		if sh.Name == defaultSheet {
			keepDefault = true
			continue
		}
		if _, err := f.NewSheet(sh.Name); err != nil {
			t.Fatalf("NewSheet(%q) error = %v", sh.Name, err)
		}
	}
	if !keepDefault && len(sheets) > 0 {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			t.Fatalf("DeleteSheet() error = %v", err)
		}
	}

	for _, sh := range sheets {
		for i, row := range sh.Rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName() error = %v", err)
			}
			if err := f.SetSheetRow(sh.Name, cell, &row); err != nil {
				t.Fatalf("SetSheetRow(%q, %s) error = %v", sh.Name, cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs(%q) error = %v", path, err)
	}
}

// WriteTemp saves sheets as name inside dir and returns the full path.
func WriteTemp(t *testing.T, dir, name string, sheets ...Sheet) string {
	t.Helper()
	path := filepath.Join(dir, name)
	Write(t, path, sheets...)
	return path
}

// Table builds a sheet from a header row and data rows.
func Table(name string, header []string, rows ...[]any) Sheet {
	h := make([]any, len(header))
	for i, v := range header {
		h[i] = v
	}
	return Sheet{Name: name, Rows: append([][]any{h}, rows...)}
}

// Info builds a two-row info sheet from ordered key/value pairs.
func Info(name string, pairs ...any) Sheet {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("sheettest.Info(%q): odd number of arguments", name))
	}
	var header, values []any
	for i := 0; i < len(pairs); i += 2 {
		header = append(header, pairs[i])
		values = append(values, pairs[i+1])
	}
	return Sheet{Name: name, Rows: [][]any{header, values}}
}
