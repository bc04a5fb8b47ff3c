// Package sniffer detects the layout of CSV/TSV bank statement exports:
// delimiter, metadata lines before the header, and which columns carry the
// date, merchant and amount fields.
package sniffer

import (
	"encoding/csv"
	"errors"
	"strings"
)

// Common bank statement header keywords (multi-language)
var headerKeywords = []string{
	// Portuguese
	"data mov", "data mov.", "descrição", "descricao", "débito", "debito", "crédito", "credito",
	"data valor", "saldo", "categoria",
	// English
	"date", "description", "amount", "debit", "credit", "balance", "merchant", "payee",
	// Spanish
	"fecha", "descripción", "descripcion", "importe", "cargo", "abono",
	// German
	"datum", "buchungstag", "verwendungszweck", "betrag",
}

// Layout holds the detected shape of a statement file.
type Layout struct {
	Delimiter rune     // field delimiter (';', ',', '\t', '|')
	SkipLines int      // metadata lines before the header row
	Headers   []string // trimmed header names
}

// Columns maps header positions to the three fields the engine needs.
// An index of -1 means the column was not found. Statements either carry a
// single signed amount column or separate debit/credit columns.
type Columns struct {
	DateCol       int
	MerchantCol   int
	AmountCol     int
	DebitCol      int
	CreditCol     int
	IsDoubleEntry bool
}

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("could not find data headers")
	ErrMissingColumns   = errors.New("required columns not found in headers")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// DetectLayout analyzes a statement file and returns its layout.
func DetectLayout(data []byte) (*Layout, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")

	delimiter, skipLines, err := findHeaderRow(lines)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(lines[skipLines]))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	return &Layout{
		Delimiter: delimiter,
		SkipLines: skipLines,
		Headers:   headers,
	}, nil
}

// SuggestColumns matches header names against known keywords to locate the
// date, merchant and amount columns.
func SuggestColumns(headers []string) *Columns {
	cols := &Columns{
		DateCol:     -1,
		MerchantCol: -1,
		AmountCol:   -1,
		DebitCol:    -1,
		CreditCol:   -1,
	}

	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))

		if cols.DateCol == -1 {
			if strings.Contains(h, "data mov") || strings.Contains(h, "date") ||
				strings.Contains(h, "fecha") || strings.Contains(h, "datum") ||
				strings.Contains(h, "buchungstag") || h == "data" {
				cols.DateCol = i
			}
		}

		if cols.MerchantCol == -1 {
			if strings.Contains(h, "descri") || strings.Contains(h, "merchant") ||
				strings.Contains(h, "payee") || strings.Contains(h, "verwendungszweck") ||
				h == "nome" || h == "name" || h == "text" {
				cols.MerchantCol = i
			}
		}

		if cols.DebitCol == -1 {
			if strings.Contains(h, "débito") || strings.Contains(h, "debito") ||
				strings.Contains(h, "debit") || strings.Contains(h, "cargo") {
				cols.DebitCol = i
			}
		}

		if cols.CreditCol == -1 {
			if strings.Contains(h, "crédito") || strings.Contains(h, "credito") ||
				strings.Contains(h, "credit") || strings.Contains(h, "abono") {
				cols.CreditCol = i
			}
		}

		if cols.AmountCol == -1 {
			if h == "amount" || h == "valor" || h == "importe" ||
				h == "montante" || h == "betrag" {
				cols.AmountCol = i
			}
		}
	}

	cols.IsDoubleEntry = cols.AmountCol == -1 && cols.DebitCol != -1 && cols.CreditCol != -1

	return cols
}

// Complete reports whether the suggestions cover all three engine fields.
func (c *Columns) Complete() bool {
	if c.DateCol == -1 || c.MerchantCol == -1 {
		return false
	}
	return c.AmountCol != -1 || c.IsDoubleEntry
}

// findHeaderRow locates the header row and its delimiter.
func findHeaderRow(lines []string) (rune, int, error) {
	delimiters := []rune{';', '\t', ',', '|'}

	for i, line := range lines {
		if i > 20 { // don't search more than 20 lines
			break
		}

		lineLower := strings.ToLower(line)

		keywordHits := 0
		for _, kw := range headerKeywords {
			if strings.Contains(lineLower, kw) {
				keywordHits++
			}
		}
		if keywordHits == 0 {
			continue
		}

		// Found a potential header row, detect delimiter. A two-column line
		// only counts as a header when several keywords match, so metadata
		// lines like "Saldo inicial;1000,00" don't qualify.
		for _, d := range delimiters {
			count := strings.Count(line, string(d))
			if count >= 2 || (count >= 1 && keywordHits >= 2) {
				return d, i, nil
			}
		}
	}

	return 0, 0, ErrNoHeadersFound
}
