package recurrence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ret-tracker/ret/internal/domain/transaction"
)

func tx(t *testing.T, merchant, date, amount string) transaction.Clean {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	return transaction.Clean{
		Merchant: merchant,
		Date:     d,
		Amount:   decimal.RequireFromString(amount).Round(2),
	}
}

// classify sequences the given transactions, derives the window and runs the
// classifier with default tolerances.
func classify(t *testing.T, txs []transaction.Clean) ([]transaction.SubscriptionRecord, []transaction.RecurringMerchantRecord) {
	t.Helper()
	window, err := Window(txs)
	require.NoError(t, err)
	SortByMerchantThenDateDesc(txs)
	subs, recs := Classify(txs, window, DefaultConfig())
	return subs, recs
}

func TestClassify_MonthlySubscription(t *testing.T) {
	txs := []transaction.Clean{
		tx(t, "netflix", "2024-01-01", "9.99"),
		tx(t, "netflix", "2024-02-01", "9.99"),
		tx(t, "netflix", "2024-03-01", "9.99"),
	}

	subs, recs := classify(t, txs)
	require.Len(t, subs, 1)
	assert.Empty(t, recs)

	sub := subs[0]
	assert.Equal(t, "netflix", sub.Merchant)
	assert.Equal(t, transaction.FrequencyMonthly, sub.Frequency)
	assert.Equal(t, 3, sub.TxCount)
	assert.Equal(t, 1, sub.DayOfMonth)
	assert.Equal(t, "9.99", sub.LastAmount.String())
	assert.Equal(t, "29.97", sub.MerchantSum.String())
	assert.Equal(t, "2024-01-01", sub.PeriodStart.Format("2006-01-02"))
	assert.Equal(t, "2024-03-01", sub.PeriodEnd.Format("2006-01-02"))
	assert.True(t, sub.Active, "newest charge is in the window's final month")
}

func TestClassify_AmountDivergenceOpensNewRecord(t *testing.T) {
	// Newest to oldest: 9.99, 9.99, 19.99 — the old 19.99 regime is outside
	// the one-unit amount flex and must land in a separate, inactive record.
	txs := []transaction.Clean{
		tx(t, "netflix", "2024-01-01", "19.99"),
		tx(t, "netflix", "2024-02-01", "9.99"),
		tx(t, "netflix", "2024-03-01", "9.99"),
	}

	subs, recs := classify(t, txs)
	require.Len(t, subs, 2)
	assert.Empty(t, recs)

	newest, older := subs[0], subs[1]
	assert.True(t, newest.Active)
	assert.Equal(t, 2, newest.TxCount)
	assert.Equal(t, "9.99", newest.LastAmount.String())

	assert.False(t, older.Active, "a regime behind a divergence is never active")
	assert.Equal(t, 1, older.TxCount)
	assert.Equal(t, "19.99", older.LastAmount.String())
	assert.Equal(t, older.PeriodStart, older.PeriodEnd)
}

func TestClassify_IrregularRepeatPurchases(t *testing.T) {
	txs := []transaction.Clean{
		tx(t, "corner shop", "2024-01-03", "12.50"),
		tx(t, "corner shop", "2024-01-17", "3.20"),
		tx(t, "corner shop", "2024-01-28", "45.00"),
	}

	subs, recs := classify(t, txs)
	assert.Empty(t, subs)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "corner shop", rec.Merchant)
	assert.Equal(t, 3, rec.TxCount)
	assert.Equal(t, "2024-01-03", rec.FirstTxDate.Format("2006-01-02"))
	assert.Equal(t, "2024-01-28", rec.LastTxDate.Format("2006-01-02"))
	assert.Equal(t, "45", rec.LastAmount.String(), "last amount is the newest charge")
	assert.Equal(t, "60.7", rec.MerchantSum.String())
}

func TestClassify_DayAndAmountFlex(t *testing.T) {
	// Day drifts 14→16→13, amount drifts 9.99→10.49→9.49: both within flex.
	txs := []transaction.Clean{
		tx(t, "gymflex", "2024-01-14", "9.99"),
		tx(t, "gymflex", "2024-02-16", "10.49"),
		tx(t, "gymflex", "2024-03-13", "9.49"),
	}

	subs, recs := classify(t, txs)
	require.Len(t, subs, 1)
	assert.Empty(t, recs)
	assert.Equal(t, 3, subs[0].TxCount)
	assert.Equal(t, transaction.FrequencyMonthly, subs[0].Frequency)
}

func TestClassify_QuarterlyAndYearly(t *testing.T) {
	txs := []transaction.Clean{
		tx(t, "insurer", "2024-01-05", "120.00"),
		tx(t, "insurer", "2024-04-05", "120.00"),
		tx(t, "insurer", "2024-07-05", "120.00"),
		tx(t, "registry", "2023-06-15", "12.00"),
		tx(t, "registry", "2024-06-15", "12.00"),
	}

	subs, recs := classify(t, txs)
	require.Len(t, subs, 2)
	assert.Empty(t, recs)

	byMerchant := map[string]transaction.SubscriptionRecord{}
	for _, s := range subs {
		byMerchant[s.Merchant] = s
	}
	assert.Equal(t, transaction.FrequencyQuarterly, byMerchant["insurer"].Frequency)
	assert.Equal(t, transaction.FrequencyYearly, byMerchant["registry"].Frequency)
}

func TestClassify_SameAmountIrregularGapIsUnknownFrequency(t *testing.T) {
	// Amount and day match but the gap fits no named cadence: still a
	// subscription, frequency unknown.
	txs := []transaction.Clean{
		tx(t, "storage", "2024-01-10", "5.00"),
		tx(t, "storage", "2024-03-11", "5.00"), // 61-day gap
	}

	subs, _ := classify(t, txs)
	require.Len(t, subs, 1)
	assert.Equal(t, transaction.FrequencyUnknown, subs[0].Frequency)
}

func TestClassify_SingleOccurrenceProducesNoRecord(t *testing.T) {
	txs := []transaction.Clean{
		tx(t, "one-off", "2024-01-10", "99.00"),
		tx(t, "netflix", "2024-02-01", "9.99"),
		tx(t, "netflix", "2024-03-01", "9.99"),
	}

	subs, recs := classify(t, txs)
	require.Len(t, subs, 1)
	assert.Equal(t, "netflix", subs[0].Merchant)
	assert.Empty(t, recs)
}

func TestClassify_LapsedSubscriptionInactive(t *testing.T) {
	// Subscription stopped in March; dataset runs through June.
	txs := []transaction.Clean{
		tx(t, "oldmag", "2024-01-12", "4.99"),
		tx(t, "oldmag", "2024-02-12", "4.99"),
		tx(t, "oldmag", "2024-03-12", "4.99"),
		tx(t, "grocer", "2024-06-20", "54.10"),
		tx(t, "grocer", "2024-06-28", "17.35"),
	}

	subs, _ := classify(t, txs)
	require.Len(t, subs, 1)
	assert.Equal(t, "oldmag", subs[0].Merchant)
	assert.False(t, subs[0].Active)
}

func TestClassify_Empty(t *testing.T) {
	subs, recs := Classify(nil, transaction.AnalysisWindow{}, DefaultConfig())
	assert.Nil(t, subs)
	assert.Nil(t, recs)
}

func TestIsActive(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return d
	}

	tests := []struct {
		name         string
		candidateEnd string
		analysisEnd  string
		expected     bool
	}{
		{"same month", "2024-03-05", "2024-03-20", true},
		{"previous month, charge not yet due", "2024-02-25", "2024-03-10", true},
		{"previous month, charge overdue", "2024-02-05", "2024-03-20", false},
		{"two months behind", "2024-01-05", "2024-03-20", false},
		{"december to january carryover", "2023-12-15", "2024-01-10", true},
		{"december a year earlier", "2022-12-15", "2024-01-10", false},
		{"same month a year earlier", "2023-03-05", "2024-03-20", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, isActive(day(tc.candidateEnd), day(tc.analysisEnd)))
		})
	}
}
