package recurrence

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ret-tracker/ret/internal/domain/import/cleaner"
	"github.com/ret-tracker/ret/internal/domain/import/normalizer"
	"github.com/ret-tracker/ret/internal/domain/transaction"
)

// Options configures one analysis run.
type Options struct {
	// ErrorTolerance is the failed-row share above which cleaning rejects
	// the batch.
	ErrorTolerance float64
	// FlexDays and FlexAmount are the classifier tolerances.
	FlexDays   int
	FlexAmount decimal.Decimal
	// ForceDateMode overrides date-format inference when non-nil.
	ForceDateMode *normalizer.DateFormatMode
}

// DefaultOptions returns the standard engine configuration.
func DefaultOptions() Options {
	return Options{
		ErrorTolerance: cleaner.DefaultErrorTolerance,
		FlexDays:       DefaultFlexDays,
		FlexAmount:     DefaultFlexAmount,
	}
}

// Result is the outcome of one analysis run, handed to whatever renders or
// uploads it.
type Result struct {
	RunID         uuid.UUID
	DateMode      normalizer.DateFormatMode
	Window        transaction.AnalysisWindow
	Subscriptions []transaction.SubscriptionRecord
	Recurring     []transaction.RecurringMerchantRecord
	RowsTotal     int
	RowsCleaned   int
	RowsFailed    int
}

// Analyzer runs the full pipeline: infer date format, clean, sequence,
// derive the analysis window, classify. It holds no per-run state, so one
// Analyzer can serve any number of independent runs.
type Analyzer struct {
	opts   Options
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer with the given options.
func NewAnalyzer(opts Options, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{opts: opts, logger: logger}
}

// Analyze processes one batch of raw rows. On cleaner.ErrBatchTooDirty the
// caller should re-acquire the raw data and call again; no partial result is
// ever returned.
func (a *Analyzer) Analyze(rows []transaction.Raw) (*Result, error) {
	mode := normalizer.DayFirst
	if a.opts.ForceDateMode != nil {
		mode = *a.opts.ForceDateMode
	} else {
		mode = normalizer.InferDateFormat(cleaner.DateSamples(rows))
	}
	a.logger.Info("analyzing batch", "rows", len(rows), "date_mode", mode.String())

	cleaned, stats, err := cleaner.Clean(rows, mode, a.opts.ErrorTolerance, a.logger)
	if err != nil {
		return nil, fmt.Errorf("cleaning batch: %w", err)
	}

	window, err := Window(cleaned)
	if err != nil {
		return nil, fmt.Errorf("deriving analysis window: %w", err)
	}

	sequenced := make([]transaction.Clean, len(cleaned))
	copy(sequenced, cleaned)
	SortByMerchantThenDateDesc(sequenced)

	subs, recs := Classify(sequenced, window, Config{
		FlexDays:   a.opts.FlexDays,
		FlexAmount: a.opts.FlexAmount,
	})

	result := &Result{
		RunID:         uuid.New(),
		DateMode:      mode,
		Window:        window,
		Subscriptions: subs,
		Recurring:     recs,
		RowsTotal:     stats.Total,
		RowsCleaned:   stats.Cleaned,
		RowsFailed:    stats.Failed,
	}

	a.logger.Info("analysis complete",
		"run_id", result.RunID,
		"subscriptions", len(subs),
		"recurring_merchants", len(recs),
		"window_start", window.Start.Format("2006-01-02"),
		"window_end", window.End.Format("2006-01-02"))

	return result, nil
}
