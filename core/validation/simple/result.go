package simple

import (
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/txn"
	"go.dedis.ch/bazaar/core/validation"
)

// TransactionResult is the outcome of one transaction.
//
// - implements validation.TransactionResult
type TransactionResult struct {
	tx     txn.Transaction
	reason string
	err    error
	events []events.Event
	ok     bool
}

// Accepted returns the result of an accepted transaction with the events it
// recorded.
func Accepted(tx txn.Transaction, evts []events.Event) TransactionResult {
	return TransactionResult{tx: tx, ok: true, events: evts}
}

// Refused returns the result of a refused transaction. The error is the
// failure of the contract, or nil when the host refused the transaction before
// the execution.
func Refused(tx txn.Transaction, reason string, err error) TransactionResult {
	return TransactionResult{tx: tx, reason: reason, err: err}
}

// GetTransaction implements validation.TransactionResult.
func (res TransactionResult) GetTransaction() txn.Transaction {
	return res.tx
}

// GetStatus implements validation.TransactionResult.
func (res TransactionResult) GetStatus() (bool, string) {
	return res.ok, res.reason
}

// GetError implements validation.TransactionResult.
func (res TransactionResult) GetError() error {
	return res.err
}

// GetEvents implements validation.TransactionResult.
func (res TransactionResult) GetEvents() []events.Event {
	return res.events
}

// Result is the list of the results of a batch, in the order of the
// transactions.
//
// - implements validation.Result
type Result []TransactionResult

// GetTransactionResults implements validation.Result.
func (r Result) GetTransactionResults() []validation.TransactionResult {
	res := make([]validation.TransactionResult, 0, len(r))
	for _, txRes := range r {
		res = append(res, txRes)
	}

	return res
}
