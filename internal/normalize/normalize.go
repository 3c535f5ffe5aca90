package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/askblob/askblob/internal/omni"
)

// internalColumnMarkers flag Omni model artifacts that are never meant for
// end users.
var internalColumnMarkers = []string{"raw", "pivot", "sort"}

// Normalize reshapes a raw query result for display: internal columns are
// dropped, column names are humanized, and currency/count columns are
// coerced to display strings. The function is pure and idempotent; the
// coercion re-parses from string representations, so applying it twice
// yields the same table.
func Normalize(table omni.Table) omni.Table {
	keep := make([]int, 0, len(table.Columns))
	columns := make([]string, 0, len(table.Columns))
	for i, column := range table.Columns {
		if isInternalColumn(column) {
			continue
		}
		keep = append(keep, i)
		columns = append(columns, DisplayName(column))
	}

	rows := make([][]any, len(table.Rows))
	for rowIdx, row := range table.Rows {
		cells := make([]any, len(keep))
		for outIdx, srcIdx := range keep {
			if srcIdx >= len(row) {
				continue
			}
			cells[outIdx] = FormatValue(columns[outIdx], row[srcIdx])
		}
		rows[rowIdx] = cells
	}

	return omni.Table{Columns: columns, Rows: rows}
}

// DisplayName keeps only the segment after the last dot of a qualified
// column name and replaces underscores with spaces.
func DisplayName(column string) string {
	if idx := strings.LastIndex(column, "."); idx >= 0 {
		column = column[idx+1:]
	}
	return strings.ReplaceAll(column, "_", " ")
}

// FormatValue applies the per-column display rule to a single cell. The
// column name may be in either raw or display form; matching happens on
// the normalized (space to underscore, lowercased) name. Null and
// non-parseable cells pass through unchanged.
func FormatValue(column string, value any) any {
	key := strings.ToLower(strings.ReplaceAll(column, " ", "_"))
	switch {
	case strings.Contains(key, "sale_price") || strings.Contains(key, "margin"):
		return formatCurrency(value)
	case strings.Contains(key, "total_order"):
		return formatCount(value)
	default:
		return value
	}
}

func isInternalColumn(column string) bool {
	lower := strings.ToLower(column)
	for _, marker := range internalColumnMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func formatCurrency(value any) any {
	number, ok := parseNumeric(value)
	if !ok {
		return value
	}
	return "$" + humanize.FormatFloat("#,###.##", number)
}

func formatCount(value any) any {
	number, ok := parseNumeric(value)
	if !ok {
		return value
	}
	return humanize.Comma(int64(math.Trunc(number)))
}

// parseNumeric extracts a float from a cell, stripping any grouping commas
// and dollar signs that earlier formatting may have added.
func parseNumeric(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		cleaned := strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(v))
		if cleaned == "" {
			return 0, false
		}
		number, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return number, true
	default:
		return 0, false
	}
}
