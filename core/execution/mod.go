// Package execution defines the primitives to execute one transaction against
// a snapshot of the state.
package execution

import (
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/store"
	"go.dedis.ch/bazaar/core/txn"
)

// Step is the input of an execution. It provides the transaction to execute
// and the ones that were executed before it in the same batch.
type Step struct {
	Previous []txn.Transaction
	Current  txn.Transaction

	// Events receives the notifications of the execution. It can be nil when
	// nobody listens.
	Events events.Recorder
}

// Record forwards the event to the recorder of the step, if any.
func (s Step) Record(evt events.Event) {
	if s.Events != nil {
		s.Events.Record(evt)
	}
}

// Result is the result of a transaction execution.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Message gives a chance to the execution to explain why a transaction
	// has failed.
	Message string

	// Err is the failure of the contract when the transaction is refused.
	Err error

	// Events are the notifications of an accepted transaction.
	Events []events.Event
}

// Service is the execution service that defines the primitives to execute a
// transaction.
type Service interface {
	// Execute must apply the transaction to the snapshot and return the
	// result of it. An error is returned only when the failure is not related
	// to the transaction itself.
	Execute(snap store.Snapshot, step Step) (Result, error)
}
