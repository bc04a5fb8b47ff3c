package recurrence

import (
	"sort"

	"github.com/ret-tracker/ret/internal/domain/transaction"
)

// SortByMerchantThenDateDesc orders transactions by merchant ascending, then
// date descending, so each merchant's history is contiguous and runs newest
// to oldest. This is the order the classifier's backward scan requires.
func SortByMerchantThenDateDesc(txs []transaction.Clean) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Merchant != txs[j].Merchant {
			return txs[i].Merchant < txs[j].Merchant
		}
		return txs[i].Date.After(txs[j].Date)
	})
}

// SortByDateAsc orders transactions by date ascending, used to derive the
// analysis window.
func SortByDateAsc(txs []transaction.Clean) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
}
