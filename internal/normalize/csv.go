package normalize

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/askblob/askblob/internal/omni"
)

// WriteCSV serializes a normalized table as UTF-8 CSV with a header row of
// display column names and no index column. Null cells become empty fields.
func WriteCSV(w io.Writer, table omni.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) && row[i] != nil {
				record[i] = CellString(row[i])
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// CellString renders a cell for plain-text output (CSV fields, headline
// values).
func CellString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; render integral values without
		// a trailing .0 so counts export cleanly.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}
