// Package recurrence classifies cleaned transactions into subscriptions
// (stable day-of-month, stable amount) and irregular repeat merchants.
package recurrence

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ret-tracker/ret/internal/domain/transaction"
)

// Defaults for the classifier tolerances.
const (
	DefaultFlexDays = 4
)

// DefaultFlexAmount is one unit of currency.
var DefaultFlexAmount = decimal.NewFromInt(1)

// Known cadences in days between consecutive charges.
const (
	monthlyGapDays   = 30
	quarterlyGapDays = 91
	yearlyGapDays    = 365
)

// Config holds the classifier tolerances. Flex absorbs real-world drift:
// weekend settlement shifts the day, FX rates shift the amount.
type Config struct {
	FlexDays   int
	FlexAmount decimal.Decimal
}

// DefaultConfig returns the standard tolerances: 4 days, 1 unit of currency.
func DefaultConfig() Config {
	return Config{
		FlexDays:   DefaultFlexDays,
		FlexAmount: DefaultFlexAmount,
	}
}

// Classify walks transactions sorted by SortByMerchantThenDateDesc in a
// single pass, newest to oldest within each merchant, and produces the
// subscription and recurring-merchant record lists.
//
// All state is local to the call; running Classify twice over the same input
// yields identical output.
func Classify(txs []transaction.Clean, window transaction.AnalysisWindow, cfg Config) ([]transaction.SubscriptionRecord, []transaction.RecurringMerchantRecord) {
	if len(txs) == 0 {
		return nil, nil
	}

	var (
		subs []transaction.SubscriptionRecord
		recs []transaction.RecurringMerchantRecord

		merchantSum    = txs[0].Amount
		txCount        = 1
		lastAmountPaid = txs[0].Amount
	)

	for i := 1; i < len(txs); i++ {
		cur, prev := txs[i], txs[i-1]

		if cur.Merchant != prev.Merchant {
			// Merchant boundary: restart the running aggregates. The newest
			// transaction of the new merchant seeds them.
			merchantSum = cur.Amount
			txCount = 1
			lastAmountPaid = cur.Amount
			continue
		}

		merchantSum = merchantSum.Add(cur.Amount)
		txCount++

		isSub, freq := cfg.classifyPair(cur, prev)

		// Merchant runs are contiguous, so only the most recently appended
		// record can still belong to the current merchant.
		inSubs := len(subs) > 0 && subs[len(subs)-1].Merchant == cur.Merchant
		inRecs := len(recs) > 0 && recs[len(recs)-1].Merchant == cur.Merchant

		switch {
		case isSub && !inSubs:
			subs = append(subs, transaction.SubscriptionRecord{
				Merchant:    cur.Merchant,
				DayOfMonth:  cur.Date.Day(),
				LastAmount:  lastAmountPaid,
				PeriodStart: cur.Date,
				PeriodEnd:   prev.Date,
				Frequency:   freq,
				MerchantSum: merchantSum,
				TxCount:     txCount,
				Active:      isActive(prev.Date, window.End),
			})

		case isSub && inSubs:
			// Extend the open record backward in time. PeriodEnd, LastAmount
			// and Active stay as fixed at creation: they describe the newest
			// occurrence.
			rec := &subs[len(subs)-1]
			rec.PeriodStart = cur.Date
			rec.DayOfMonth = cur.Date.Day()
			rec.Frequency = freq
			rec.MerchantSum = merchantSum
			rec.TxCount = txCount

		case !isSub && inSubs:
			// The pattern broke (amount or day diverged beyond flex). Close
			// the open record as-is and start a fresh one for the older
			// regime. A regime discovered behind a divergence can never be
			// the currently active subscription.
			merchantSum = cur.Amount
			txCount = 1
			lastAmountPaid = cur.Amount
			subs = append(subs, transaction.SubscriptionRecord{
				Merchant:    cur.Merchant,
				DayOfMonth:  cur.Date.Day(),
				LastAmount:  lastAmountPaid,
				PeriodStart: cur.Date,
				PeriodEnd:   cur.Date,
				Frequency:   transaction.FrequencyUnknown,
				MerchantSum: merchantSum,
				TxCount:     txCount,
				Active:      false,
			})

		default: // !isSub && !inSubs: plain repeat purchaser
			if inRecs {
				rec := &recs[len(recs)-1]
				rec.FirstTxDate = cur.Date
				rec.MerchantSum = merchantSum
				rec.TxCount = txCount
			} else {
				recs = append(recs, transaction.RecurringMerchantRecord{
					Merchant:    cur.Merchant,
					FirstTxDate: cur.Date,
					LastTxDate:  prev.Date,
					LastAmount:  lastAmountPaid,
					MerchantSum: merchantSum,
					TxCount:     txCount,
				})
			}
		}
	}

	return subs, recs
}

// classifyPair decides whether two consecutive charges of the same merchant
// look subscription-like. prev is the newer transaction (the scan runs date
// descending). An amount and day match with an unnamed gap still counts as a
// subscription with FrequencyUnknown.
func (c Config) classifyPair(cur, prev transaction.Clean) (bool, transaction.Frequency) {
	if !c.amountMatches(cur.Amount, prev.Amount) {
		return false, transaction.FrequencyUnknown
	}
	if !c.dayMatches(cur.Date, prev.Date) {
		return false, transaction.FrequencyUnknown
	}

	gapDays := int(prev.Date.Sub(cur.Date).Hours() / 24)
	switch {
	case c.gapNear(gapDays, monthlyGapDays):
		return true, transaction.FrequencyMonthly
	case c.gapNear(gapDays, quarterlyGapDays):
		return true, transaction.FrequencyQuarterly
	case c.gapNear(gapDays, yearlyGapDays):
		return true, transaction.FrequencyYearly
	default:
		return true, transaction.FrequencyUnknown
	}
}

func (c Config) amountMatches(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(c.FlexAmount)
}

// dayMatches checks the current day-of-month against the previous one,
// clamped so the flex window never leaves the previous month's calendar.
func (c Config) dayMatches(cur, prev time.Time) bool {
	prevDay := prev.Day()
	if prevDay-c.FlexDays < 1 {
		prevDay = 1 + c.FlexDays
	}
	if last := daysInMonth(prev); prevDay+c.FlexDays > last {
		prevDay = last - c.FlexDays
	}

	day := cur.Day()
	return day >= prevDay-c.FlexDays && day <= prevDay+c.FlexDays
}

func (c Config) gapNear(gapDays, target int) bool {
	return gapDays >= target-c.FlexDays && gapDays <= target+c.FlexDays
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// isActive reports whether a subscription whose newest charge is at
// candidateEnd should count as still running at the end of the analysis
// window: the charge must fall in the window's final calendar month, or in
// the month before when the next charge would not be due yet. Month
// arithmetic is done on a normalized month index so December to January
// carries over correctly.
func isActive(candidateEnd, analysisEnd time.Time) bool {
	candidate := candidateEnd.Year()*12 + int(candidateEnd.Month()) - 1
	end := analysisEnd.Year()*12 + int(analysisEnd.Month()) - 1

	if candidateEnd.Day() > analysisEnd.Day() {
		return candidate == end-1
	}
	return candidate == end
}
