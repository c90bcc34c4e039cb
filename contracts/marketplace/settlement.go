package marketplace

import "go.dedis.ch/bazaar/core/store"

// Settlement is the hook to move value along the lifecycle of an order. It is
// called inside the same call as the transition, after the order is written,
// so a failure refuses the whole call.
type Settlement interface {
	OnOrderCreated(snap store.Snapshot, order Order) error

	OnOrderReceived(snap store.Snapshot, order Order) error

	OnOrderCancelled(snap store.Snapshot, order Order) error
}

// NoSettlement is a settlement that does nothing.
//
// - implements Settlement
type NoSettlement struct{}

// OnOrderCreated implements Settlement.
func (NoSettlement) OnOrderCreated(store.Snapshot, Order) error {
	return nil
}

// OnOrderReceived implements Settlement.
func (NoSettlement) OnOrderReceived(store.Snapshot, Order) error {
	return nil
}

// OnOrderCancelled implements Settlement.
func (NoSettlement) OnOrderCancelled(store.Snapshot, Order) error {
	return nil
}
