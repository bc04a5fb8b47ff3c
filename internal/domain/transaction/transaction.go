// Package transaction defines the core records exchanged between the import
// layer, the recurrence engine, and whatever renders the results.
package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Raw is one imported spreadsheet/CSV row before any normalization.
// Row keeps the original 1-indexed position so failures can be reported
// against the source file.
type Raw struct {
	Row      int
	Date     string
	Merchant string
	Amount   string
}

// Clean is a Raw row that passed all field normalizers.
// Amount is rounded to 2 decimal places at construction.
type Clean struct {
	Row      int
	Date     time.Time
	Merchant string
	Amount   decimal.Decimal
}

// Frequency is the detected cadence of a subscription.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyUnknown   Frequency = "unknown"
)

// SubscriptionRecord describes a merchant whose charges recur on a stable
// day of month with a stable amount. PeriodEnd, LastAmount and Active are
// fixed when the record is opened (they describe the newest occurrence);
// PeriodStart keeps shifting earlier while the backward scan extends the run.
type SubscriptionRecord struct {
	Merchant    string
	DayOfMonth  int
	LastAmount  decimal.Decimal
	PeriodStart time.Time
	PeriodEnd   time.Time
	Frequency   Frequency
	MerchantSum decimal.Decimal
	TxCount     int
	Active      bool
}

// RecurringMerchantRecord describes a merchant with repeat purchases that do
// not look subscription-like (varying day and/or amount).
type RecurringMerchantRecord struct {
	Merchant    string
	FirstTxDate time.Time
	LastTxDate  time.Time
	LastAmount  decimal.Decimal
	MerchantSum decimal.Decimal
	TxCount     int
}

// AnalysisWindow is the [earliest, latest] transaction date span of the
// dataset, used to judge whether a subscription is still active.
type AnalysisWindow struct {
	Start time.Time
	End   time.Time
}
