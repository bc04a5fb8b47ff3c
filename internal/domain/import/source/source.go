// Package source acquires raw transaction rows from local CSV/TSV statement
// exports, standing in for the spreadsheet import collaborator.
package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ret-tracker/ret/internal/domain/import/sniffer"
	"github.com/ret-tracker/ret/internal/domain/transaction"
)

var ErrNoDataRows = errors.New("file has no data rows")

// FileSource reads statement files from disk.
type FileSource struct {
	logger *slog.Logger
}

// NewFileSource creates a file-backed row source.
func NewFileSource(logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{logger: logger}
}

// Load reads and parses the statement at path into raw rows.
func (s *FileSource) Load(path string) ([]transaction.Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading statement file: %w", err)
	}
	return s.Parse(data)
}

// Parse detects the file layout, locates the date/merchant/amount columns
// and extracts one raw row per data line. Field content is passed through
// untouched; normalization is the cleaner's job. Row numbers are 1-indexed
// positions in the source file, matching what a spreadsheet would show.
func (s *FileSource) Parse(data []byte) ([]transaction.Raw, error) {
	layout, err := sniffer.DetectLayout(data)
	if err != nil {
		return nil, fmt.Errorf("detecting file layout: %w", err)
	}

	cols := sniffer.SuggestColumns(layout.Headers)
	if !cols.Complete() {
		return nil, fmt.Errorf("%w: headers %v", sniffer.ErrMissingColumns, layout.Headers)
	}

	s.logger.Debug("statement layout detected",
		"delimiter", string(layout.Delimiter),
		"skip_lines", layout.SkipLines,
		"double_entry", cols.IsDoubleEntry)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = layout.Delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	// Skip metadata lines and the header row.
	for i := 0; i <= layout.SkipLines; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, ErrNoDataRows
		}
	}

	var rows []transaction.Raw
	lineNum := layout.SkipLines + 2 // 1-indexed, first line after the header
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed lines become rows that will fail normalization, so
			// they count against the cleaner's error tolerance instead of
			// silently disappearing.
			s.logger.Debug("unreadable line", "line", lineNum, "error", err)
			rows = append(rows, transaction.Raw{Row: lineNum})
			lineNum++
			continue
		}
		if isBlank(record) {
			lineNum++
			continue
		}

		rows = append(rows, rawFromRecord(record, cols, lineNum))
		lineNum++
	}

	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

// rawFromRecord picks the mapped columns out of one CSV record. Double-entry
// statements carry the amount in either the debit or the credit column;
// debits are money out, so they take a leading minus.
func rawFromRecord(record []string, cols *sniffer.Columns, lineNum int) transaction.Raw {
	row := transaction.Raw{Row: lineNum}
	row.Date = fieldAt(record, cols.DateCol)
	row.Merchant = fieldAt(record, cols.MerchantCol)

	if cols.IsDoubleEntry {
		debit := strings.TrimSpace(fieldAt(record, cols.DebitCol))
		credit := strings.TrimSpace(fieldAt(record, cols.CreditCol))
		switch {
		case debit != "":
			row.Amount = "-" + strings.TrimPrefix(debit, "-")
		case credit != "":
			row.Amount = credit
		}
	} else {
		row.Amount = fieldAt(record, cols.AmountCol)
	}
	return row
}

func fieldAt(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return record[col]
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
