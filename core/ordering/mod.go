// Package ordering defines the interface of the ordering service. The
// high-level purpose of this service is to order the transactions submitted to
// the host and to commit their effects on the state.
package ordering

import (
	"context"

	"go.dedis.ch/bazaar/core/access"
	"go.dedis.ch/bazaar/core/store"
	"go.dedis.ch/bazaar/core/txn"
	"go.dedis.ch/bazaar/core/validation"
)

// Service is the interface of an ordering service. It provides the primitives
// to submit transactions and to read the committed state.
type Service interface {
	// Submit executes the transactions in order and commits the batch. It
	// returns one result per transaction.
	Submit(ctx context.Context, txs ...txn.Transaction) ([]validation.TransactionResult, error)

	// GetNonce returns the nonce expected for the next transaction of the
	// identity.
	GetNonce(ident access.Identity) (uint64, error)

	// View executes the function on a read-only snapshot of the committed
	// state.
	View(fn func(store.Snapshot) error) error
}
