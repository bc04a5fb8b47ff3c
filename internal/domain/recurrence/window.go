package recurrence

import (
	"errors"

	"github.com/ret-tracker/ret/internal/domain/transaction"
)

var ErrNoTransactions = errors.New("no transactions to analyze")

// Window derives the [earliest, latest] transaction date span of the
// dataset. The input slice is left untouched.
func Window(txs []transaction.Clean) (transaction.AnalysisWindow, error) {
	if len(txs) == 0 {
		return transaction.AnalysisWindow{}, ErrNoTransactions
	}

	ordered := make([]transaction.Clean, len(txs))
	copy(ordered, txs)
	SortByDateAsc(ordered)

	return transaction.AnalysisWindow{
		Start: ordered[0].Date,
		End:   ordered[len(ordered)-1].Date,
	}, nil
}
