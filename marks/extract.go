package marks

import (
	"math"
	"strconv"
	"strings"
)

// Row is one decoded record of tabular input. Cells keep their column order and
// may hold strings, numbers or nil.
type Row []any

// isHexFloat reports whether s uses the 0x form that ParseFloat also accepts.
func isHexFloat(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Parse attempts to read a single cell as a mark. Strings are trimmed before
// parsing; numeric values are accepted as-is. Anything that does not yield a
// finite number is rejected.
func Parse(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" || isHexFloat(s) {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FromRow returns the first cell of the row that parses as a mark.
func FromRow(row Row) (float64, bool) {
	for _, cell := range row {
		if m, ok := Parse(cell); ok {
			return m, true
		}
	}
	return 0, false
}

// FromLine applies the first-parseable-cell rule to one comma separated line.
func FromLine(line string) (float64, bool) {
	for _, cell := range strings.Split(line, ",") {
		if m, ok := Parse(cell); ok {
			return m, true
		}
	}
	return 0, false
}

// ExtractRows returns one mark per row that contains a parseable cell, in row
// order. Rows without one are skipped silently.
func ExtractRows(rows []Row) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		if m, ok := FromRow(row); ok {
			out = append(out, m)
		}
	}
	return out
}

// ExtractText reads comma separated text line by line. When the first cell of
// the first non-blank line is not numeric, that whole line is treated as a
// header and dropped.
func ExtractText(text string) []float64 {
	lines := nonBlankLines(text)
	out := make([]float64, 0, len(lines))
	for i, line := range lines {
		if i == 0 && isHeader(line) {
			continue
		}
		if m, ok := FromLine(line); ok {
			out = append(out, m)
		}
	}
	return out
}

func isHeader(line string) bool {
	first, _, _ := strings.Cut(line, ",")
	_, ok := Parse(first)
	return !ok
}

func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func isBlankRow(row Row) bool {
	for _, cell := range row {
		switch x := cell.(type) {
		case nil:
		case string:
			if strings.TrimSpace(x) != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}
