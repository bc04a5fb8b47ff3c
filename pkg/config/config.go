// Package config loads engine configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/ret-tracker/ret/internal/domain/import/normalizer"
)

// Config carries everything the engine and CLI need for one run.
type Config struct {
	// CSVPath is the statement file to analyze. The CLI also accepts it as
	// a positional argument, which wins over the environment.
	CSVPath string

	ErrorTolerance float64 `validate:"gte=0,lte=1"`
	FlexDays       int     `validate:"gte=0,lte=15"`
	FlexAmount     float64 `validate:"gte=0"`
	DateMode       string  `validate:"oneof=auto dayfirst monthfirst"`
	LogLevel       string  `validate:"oneof=debug info warn error"`
}

// Load reads configuration from the environment, applying defaults for
// anything unset, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		CSVPath:        os.Getenv("RET_CSV_PATH"),
		ErrorTolerance: 0.10,
		FlexDays:       4,
		FlexAmount:     1.00,
		DateMode:       "auto",
		LogLevel:       "info",
	}

	var err error
	if cfg.ErrorTolerance, err = envFloat("RET_ERROR_TOLERANCE", cfg.ErrorTolerance); err != nil {
		return nil, err
	}
	if cfg.FlexDays, err = envInt("RET_FLEX_DAYS", cfg.FlexDays); err != nil {
		return nil, err
	}
	if cfg.FlexAmount, err = envFloat("RET_FLEX_AMOUNT", cfg.FlexAmount); err != nil {
		return nil, err
	}
	if v := os.Getenv("RET_DATE_MODE"); v != "" {
		cfg.DateMode = v
	}
	if v := os.Getenv("RET_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ForcedDateMode maps the configured date mode onto the normalizer's flag;
// nil means infer from the data.
func (c *Config) ForcedDateMode() *normalizer.DateFormatMode {
	var mode normalizer.DateFormatMode
	switch c.DateMode {
	case "dayfirst":
		mode = normalizer.DayFirst
	case "monthfirst":
		mode = normalizer.MonthFirst
	default:
		return nil
	}
	return &mode
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}
