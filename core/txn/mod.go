// Package txn defines the abstraction of transactions.
//
// A transaction is the input of a single call to a contract. It is uniquely
// identifiable via a digest and it is ordered with the nonce that acts as a
// sequence number of its identity. The identity is the authenticated caller
// that contracts rely on for every authorization decision.
package txn

import (
	"go.dedis.ch/bazaar/core/access"
)

// Transaction is what triggers a smart contract execution by passing it as part
// of the input.
type Transaction interface {
	// GetID returns the unique identifier for the transaction.
	GetID() []byte

	// GetNonce returns the nonce of the transaction which corresponds to the
	// sequence number of a unique identity.
	GetNonce() uint64

	// GetIdentity returns the identity that created the transaction.
	GetIdentity() access.Identity

	// GetArg is a getter for the arguments of the transaction.
	GetArg(key string) []byte
}

// Factory restores transactions from their wire form.
type Factory interface {
	TransactionOf(data []byte) (Transaction, error)
}

// Arg is a generic argument that can be stored in a transaction.
type Arg struct {
	Key   string
	Value []byte
}

// Manager is a manager to create transactions. It can help creating
// transactions when some information is required like the current nonce.
type Manager interface {
	Make(args ...Arg) (Transaction, error)

	Sync() error
}
