package normalize

import (
	"bytes"
	"testing"

	"github.com/askblob/askblob/internal/omni"
)

func TestWriteCSV(t *testing.T) {
	table := omni.Table{
		Columns: []string{"state", "total orders"},
		Rows: [][]any{
			{"Vermont", "1,234"},
			{nil, 42.0},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "state,total orders\nVermont,\"1,234\"\n,42\n"
	if buf.String() != want {
		t.Fatalf("csv = %q, want %q", buf.String(), want)
	}
}

func TestWriteCSVEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, omni.Table{Columns: []string{"a"}}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if buf.String() != "a\n" {
		t.Fatalf("csv = %q", buf.String())
	}
}
