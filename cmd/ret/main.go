// Command ret analyzes a bank/card statement export and reports detected
// subscriptions and recurring merchants.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/ret-tracker/ret/internal/domain/import/cleaner"
	"github.com/ret-tracker/ret/internal/domain/import/source"
	"github.com/ret-tracker/ret/internal/domain/recurrence"
	"github.com/ret-tracker/ret/pkg/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("error loading .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	path := cfg.CSVPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: ret <statement.csv>  (or set RET_CSV_PATH)")
		os.Exit(2)
	}

	if err := run(path, cfg, logger); err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}
}

func run(path string, cfg *config.Config, logger *slog.Logger) error {
	rows, err := source.NewFileSource(logger).Load(path)
	if err != nil {
		return err
	}

	analyzer := recurrence.NewAnalyzer(recurrence.Options{
		ErrorTolerance: cfg.ErrorTolerance,
		FlexDays:       cfg.FlexDays,
		FlexAmount:     decimal.NewFromFloat(cfg.FlexAmount),
		ForceDateMode:  cfg.ForcedDateMode(),
	}, logger)

	result, err := analyzer.Analyze(rows)
	if errors.Is(err, cleaner.ErrBatchTooDirty) {
		return fmt.Errorf("statement too dirty to trust (%w); re-export and try again", err)
	}
	if err != nil {
		return err
	}

	printReport(result)
	return nil
}

func printReport(result *recurrence.Result) {
	fmt.Printf("Analyzed %d rows (%d cleaned, %d dropped), %s dates\n",
		result.RowsTotal, result.RowsCleaned, result.RowsFailed, result.DateMode)
	fmt.Printf("Window: %s to %s\n\n",
		result.Window.Start.Format("2006-01-02"), result.Window.End.Format("2006-01-02"))

	fmt.Printf("Subscriptions (%d):\n", len(result.Subscriptions))
	for _, s := range result.Subscriptions {
		status := "lapsed"
		if s.Active {
			status = "active"
		}
		fmt.Printf("  %-30s %9s  day %2d  %-9s %s  (%d charges, %s total)\n",
			s.Merchant, s.LastAmount.StringFixed(2), s.DayOfMonth,
			s.Frequency, status, s.TxCount, s.MerchantSum.StringFixed(2))
	}

	fmt.Printf("\nRecurring merchants (%d):\n", len(result.Recurring))
	for _, r := range result.Recurring {
		fmt.Printf("  %-30s %9s  %s to %s  (%d purchases, %s total)\n",
			r.Merchant, r.LastAmount.StringFixed(2),
			r.FirstTxDate.Format("2006-01-02"), r.LastTxDate.Format("2006-01-02"),
			r.TxCount, r.MerchantSum.StringFixed(2))
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
