package spreadsheet

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// numericFields are parsed as numbers. Every other field is text.
var numericFields = map[string]bool{
	"order_index":       true,
	"estimated_minutes": true,
	"year":              true,
	"question_number":   true,
}

// MaxInt is the largest value an integer field may hold. Every numeric
// column is stored as a 32-bit INTEGER.
const MaxInt = math.MaxInt32

// Fields is a normalized record: numbers are int or float64, text is a
// trimmed NFC string.
type Fields map[string]any

// Normalize coerces raw cells into typed fields. Numeric fields that are
// empty or not numbers become 0.
func Normalize(cells map[string]string) Fields {
	out := make(Fields, len(cells))
	for k, v := range cells {
		if numericFields[k] {
			out[k] = normalizeNumber(v)
			continue
		}
		out[k] = NormalizeString(v)
	}
	return out
}

// NormalizeString trims v and converts it to Unicode NFC.
func NormalizeString(v string) string {
	return strings.TrimSpace(norm.NFC.String(v))
}

func normalizeNumber(v string) any {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f == math.Trunc(f) && math.Abs(f) <= MaxInt {
		return int(f)
	}
	return f
}

// Text returns a text field, or "" when it is absent.
func (f Fields) Text(key string) string {
	s, _ := f[key].(string)
	return s
}

// Int returns a numeric field truncated to int. It returns 0 when the field
// is absent or its magnitude exceeds MaxInt.
func (f Fields) Int(key string) int {
	switch v := f[key].(type) {
	case int:
		if v >= -MaxInt && v <= MaxInt {
			return v
		}
	case float64:
		if math.Abs(v) <= MaxInt {
			return int(v)
		}
	}
	return 0
}

// SplitList splits a comma-separated value, dropping empty items.
func SplitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
