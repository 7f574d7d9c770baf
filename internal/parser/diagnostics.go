package parser

import (
	"fmt"

	"github.com/p-n-ai/pai-content/internal/curriculum"
	"github.com/p-n-ai/pai-content/internal/schema"
	"github.com/p-n-ai/pai-content/internal/spreadsheet"
)

// diagnostics accumulates errors and warnings for one parse.
type diagnostics struct {
	errors   []string
	warnings []string
}

func (d *diagnostics) errorf(format string, args ...any) {
	d.errors = append(d.errors, fmt.Sprintf(format, args...))
}

func (d *diagnostics) warnf(format string, args ...any) {
	d.warnings = append(d.warnings, fmt.Sprintf(format, args...))
}

func (d *diagnostics) result(kind Kind) *Result {
	return &Result{Kind: kind, Errors: d.errors, Warnings: d.warnings}
}

// validate records one error per violation, prefixed with where.
func (d *diagnostics) validate(kind schema.Kind, f spreadsheet.Fields, where string) bool {
	violations, err := schema.Validate(kind, f)
	if err != nil {
		d.errorf("%s: %v", where, err)
		return false
	}
	for _, v := range violations {
		d.errorf("%s: %s", where, v)
	}
	return len(violations) == 0
}

// parseInfo reads and validates an info sheet.
func parseInfo[T any](wb *spreadsheet.Workbook, sheet string, kind schema.Kind, d *diagnostics, build func(spreadsheet.Fields) T) (T, bool) {
	var zero T
	rec, err := wb.Info(sheet)
	if err != nil {
		d.errorf("%s: %v", sheet, err)
		return zero, false
	}
	f := spreadsheet.Normalize(rec.Cells)
	if !d.validate(kind, f, sheet) {
		return zero, false
	}
	return build(f), true
}

// parseRows reads and validates every data row of a table sheet. Invalid
// rows are reported and left out of the returned slice.
func parseRows[T any](wb *spreadsheet.Workbook, sheet string, kind schema.Kind, d *diagnostics, build func(spreadsheet.Fields) T) []T {
	records, err := wb.Records(sheet)
	if err != nil {
		d.errorf("%s: %v", sheet, err)
		return nil
	}

	var out []T
	for _, rec := range records {
		f := spreadsheet.Normalize(rec.Cells)
		if !d.validate(kind, f, fmt.Sprintf("%s row %d", sheet, rec.Row)) {
			continue
		}
		out = append(out, build(f))
	}
	return out
}

func optionsOf(f spreadsheet.Fields) curriculum.Options {
	return curriculum.Options{
		A: f.Text("option_a"),
		B: f.Text("option_b"),
		C: f.Text("option_c"),
		D: f.Text("option_d"),
	}
}
