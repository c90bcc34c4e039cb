// Package validation defines the validator of a batch of transactions
// submitted to the host.
package validation

import (
	"go.dedis.ch/bazaar/core/access"
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/store"
	"go.dedis.ch/bazaar/core/txn"
)

// TransactionResult is the outcome of one transaction of a batch.
type TransactionResult interface {
	GetTransaction() txn.Transaction

	// GetStatus returns true if the transaction is accepted, otherwise false
	// with the reason of the refusal.
	GetStatus() (bool, string)

	// GetError returns the error of the contract for a refused transaction,
	// or nil.
	GetError() error

	// GetEvents returns the events recorded by an accepted transaction.
	GetEvents() []events.Event
}

// Result is the result of a validation.
type Result interface {
	GetTransactionResults() []TransactionResult
}

// Service is the validation service that will process a batch of transactions
// and update the snapshot with the accepted ones.
type Service interface {
	// GetNonce returns the nonce expected for the next transaction of the
	// identity.
	GetNonce(store.Readable, access.Identity) (uint64, error)

	// Validate executes the transactions in order. A refused transaction
	// leaves no trace in the snapshot except for the nonce of its identity.
	Validate(store.Snapshot, []txn.Transaction) (Result, error)
}
