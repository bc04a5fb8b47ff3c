// Package cleaner turns raw statement rows into clean transactions, dropping
// rows that fail field normalization and refusing batches that are too dirty
// to trust.
package cleaner

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ret-tracker/ret/internal/domain/import/normalizer"
	"github.com/ret-tracker/ret/internal/domain/transaction"
)

// DefaultErrorTolerance is the share of failed rows above which the whole
// batch is rejected.
const DefaultErrorTolerance = 0.10

var (
	ErrBatchTooDirty = errors.New("too many rows failed to normalize")
	ErrEmptyDataset  = errors.New("no clean transactions in dataset")
)

// Stats reports how the batch cleaned up.
type Stats struct {
	Total   int
	Cleaned int
	Failed  int
}

// Clean runs the three field normalizers over every raw row in original
// order. A row failing any normalizer is discarded but still counts toward
// the failure ratio. When the failed share exceeds tolerance the whole batch
// is rejected and no partial result is returned; the caller must re-acquire
// the raw data.
//
// The date-format mode must be decided (inferred or forced) before calling
// Clean — see normalizer.InferDateFormat.
func Clean(rows []transaction.Raw, mode normalizer.DateFormatMode, tolerance float64, logger *slog.Logger) ([]transaction.Clean, Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	stats := Stats{Total: len(rows)}
	if len(rows) == 0 {
		return nil, stats, ErrEmptyDataset
	}

	cleaned := make([]transaction.Clean, 0, len(rows))
	for _, row := range rows {
		tx, err := cleanRow(row, mode)
		if err != nil {
			stats.Failed++
			logger.Debug("dropping row", "row", row.Row, "error", err)
			continue
		}
		cleaned = append(cleaned, tx)
	}
	stats.Cleaned = len(cleaned)

	// The boundary is exclusive: 1 bad row out of 10 at tolerance 0.10 is
	// still acceptable, 2 are not.
	if float64(stats.Failed) > tolerance*float64(stats.Total) {
		logger.Warn("batch rejected",
			"failed", stats.Failed, "total", stats.Total, "tolerance", tolerance)
		return nil, stats, ErrBatchTooDirty
	}

	if len(cleaned) == 0 {
		return nil, stats, ErrEmptyDataset
	}

	return cleaned, stats, nil
}

// cleanRow applies the three normalizers to a single raw row. Row numbering
// is preserved from the source.
func cleanRow(row transaction.Raw, mode normalizer.DateFormatMode) (transaction.Clean, error) {
	date, err := normalizer.ParseDate(row.Date, mode)
	if err != nil {
		return transaction.Clean{}, fmt.Errorf("date %q: %w", row.Date, err)
	}

	merchant, err := normalizer.NormalizeMerchant(row.Merchant)
	if err != nil {
		return transaction.Clean{}, fmt.Errorf("merchant %q: %w", row.Merchant, err)
	}

	amount, err := normalizer.ParseAmount(row.Amount)
	if err != nil {
		return transaction.Clean{}, fmt.Errorf("amount %q: %w", row.Amount, err)
	}

	return transaction.Clean{
		Row:      row.Row,
		Date:     date,
		Merchant: merchant,
		Amount:   amount.Round(2),
	}, nil
}

// DateSamples extracts the raw date strings in order, for format inference.
func DateSamples(rows []transaction.Raw) []string {
	samples := make([]string, len(rows))
	for i, row := range rows {
		samples[i] = row.Date
	}
	return samples
}
