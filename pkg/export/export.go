package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Table is one titled section of an export document. The by-room reservation
// export emits one table per room; the single-sheet mode emits exactly one.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Format selects the rendered output encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Render produces document bytes for the tables in the requested format.
func Render(format Format, title string, tables []Table) ([]byte, error) {
	switch format {
	case FormatCSV:
		return renderCSV(tables)
	case FormatPDF:
		return renderPDF(title, tables)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func renderCSV(tables []Table) ([]byte, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("csv export requires at least one table")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	for i, table := range tables {
		if len(table.Headers) == 0 {
			return nil, fmt.Errorf("csv table %q requires headers", table.Title)
		}
		if i > 0 {
			// blank separator row between sections
			if err := writer.Write([]string{}); err != nil {
				return nil, fmt.Errorf("write csv separator: %w", err)
			}
		}
		if len(tables) > 1 && table.Title != "" {
			if err := writer.Write([]string{table.Title}); err != nil {
				return nil, fmt.Errorf("write csv title: %w", err)
			}
		}
		if err := writer.Write(table.Headers); err != nil {
			return nil, fmt.Errorf("write csv headers: %w", err)
		}
		for _, row := range table.Rows {
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
