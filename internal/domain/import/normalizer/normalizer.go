// Package normalizer converts raw, locale-ambiguous statement fields into
// canonical typed values: calendar dates, decimal amounts, merchant keys.
package normalizer

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDate   = errors.New("invalid date format")
	ErrInvalidAmount = errors.New("invalid amount format")
	ErrEmptyMerchant = errors.New("empty merchant name")
)

// DateFormatMode says how the two leading components of an ambiguous
// numeric date (e.g. 03/04/2024) are ordered.
type DateFormatMode int

const (
	DayFirst DateFormatMode = iota
	MonthFirst
)

func (m DateFormatMode) String() string {
	if m == MonthFirst {
		return "month-first"
	}
	return "day-first"
}

// datePattern matches D{1,2}SEP D{1,2}SEP YYYY with '.', '/' or '-' separators.
var datePattern = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{4})$`)

// thousandsPattern matches a ',' or '.' followed by exactly three digits and
// then a non-digit or end of string, i.e. a thousands separator.
var thousandsPattern = regexp.MustCompile(`[.,](\d{3})([^0-9]|$)`)

// ParseDate parses a numeric date string, assigning day and month according
// to mode. Fails when the text does not match the pattern or the components
// do not form a real calendar date (month 13, day 32, Feb 30).
func ParseDate(raw string, mode DateFormatMode) (time.Time, error) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return time.Time{}, ErrInvalidDate
	}

	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	day, month := first, second
	if mode == MonthFirst {
		day, month = second, first
	}

	// time.Date normalizes out-of-range components (month 13 becomes January
	// of the next year), so round-trip the values to validate them.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// InferDateFormat scans raw date samples in order and decides how ambiguous
// dates should be read. The first sample whose second component cannot be a
// month (>12) but can be a day (<=31) proves the dataset is month-first; the
// scan stops there. Without a decisive sample the mode stays day-first.
func InferDateFormat(samples []string) DateFormatMode {
	for _, raw := range samples {
		m := datePattern.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil {
			continue
		}
		second, _ := strconv.Atoi(m[2])
		if second > 12 && second <= 31 {
			return MonthFirst
		}
	}
	return DayFirst
}

// ParseAmount parses a money string without knowing its locale up front.
// Separator resolution:
//   - a ',' or '.' followed by exactly three digits and a non-digit (or end
//     of string) is a thousands separator and is dropped;
//   - if both ',' and '.' remain, the later one is the decimal point and the
//     earlier one is dropped;
//   - a lone remaining ',' is the decimal point.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}

	// Repeat until stable: "1.000.000,00" needs two passes because the
	// matches overlap on the separator that follows each group.
	for {
		out := thousandsPattern.ReplaceAllString(s, "${1}${2}")
		if out == s {
			break
		}
		s = out
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if dot > comma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

// NormalizeMerchant produces the canonical merchant key: trimmed, lowercased,
// truncated at the first ',' or ';' (card statements append branch and city
// after a separator).
func NormalizeMerchant(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(s, ",;"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyMerchant
	}
	return s, nil
}
