package marketplace

import (
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/store"
	"golang.org/x/xerrors"
)

// ledger owns the orders and drives their lifecycle:
//
//	Pending -> Shipped -> Received
//	Pending -> Cancelled (both parties requested it)
type ledger struct {
	catalog    catalog
	settlement Settlement
}

// create reserves the stock and appends a pending order. Nothing is written
// if the reservation fails.
func (l ledger) create(snap store.Snapshot, rec events.Recorder, buyer Address,
	productID uint32, quantity uint64) (uint32, error) {

	seller, err := l.catalog.reserve(snap, productID, quantity)
	if err != nil {
		return 0, err
	}

	id, err := nextIndex(snap, ordersCount)
	if err != nil {
		return 0, err
	}

	order := Order{
		ID:        id,
		Buyer:     buyer,
		Seller:    seller,
		ProductID: productID,
		Quantity:  quantity,
		Status:    Pending,
	}

	err = writeRecord(snap, orderKey(id), order)
	if err != nil {
		return 0, err
	}

	err = l.settlement.OnOrderCreated(snap, order)
	if err != nil {
		return 0, xerrors.Errorf("settlement: %v", err)
	}

	record(rec, newOrderCreated(order))

	return id, nil
}

func (ledger) get(snap store.Readable, id uint32) (Order, error) {
	var order Order

	found, err := readRecord(snap, orderKey(id), &order)
	if err != nil {
		return Order{}, err
	}

	if !found {
		return Order{}, xerrors.Errorf("order %d: %w", id, ErrOrderNotFound)
	}

	return order, nil
}

func (l ledger) markShipped(snap store.Snapshot, rec events.Recorder, caller Address, id uint32) error {
	order, err := l.get(snap, id)
	if err != nil {
		return err
	}

	if caller != order.Seller {
		return xerrors.Errorf("only the seller ships order %d: %w", id, ErrForbidden)
	}

	if order.Status != Pending {
		return xerrors.Errorf("order %d is %v: %w", id, order.Status, ErrInvalidTransition)
	}

	return l.transition(snap, rec, order, Shipped)
}

func (l ledger) markReceived(snap store.Snapshot, rec events.Recorder, caller Address, id uint32) error {
	order, err := l.get(snap, id)
	if err != nil {
		return err
	}

	if caller != order.Buyer {
		return xerrors.Errorf("only the buyer receives order %d: %w", id, ErrForbidden)
	}

	if order.Status != Shipped {
		return xerrors.Errorf("order %d is %v: %w", id, order.Status, ErrInvalidTransition)
	}

	err = l.transition(snap, rec, order, Received)
	if err != nil {
		return err
	}

	order.Status = Received

	err = l.settlement.OnOrderReceived(snap, order)
	if err != nil {
		return xerrors.Errorf("settlement: %v", err)
	}

	return nil
}

// requestCancel sets the cancel flag of the caller. The order is cancelled and
// the stock released as soon as both flags are set. A repeated request is a
// no-op.
func (l ledger) requestCancel(snap store.Snapshot, rec events.Recorder, caller Address, id uint32) error {
	order, err := l.get(snap, id)
	if err != nil {
		return err
	}

	if order.Status != Pending {
		return xerrors.Errorf("order %d is %v: %w", id, order.Status, ErrInvalidTransition)
	}

	if caller != order.Buyer && caller != order.Seller {
		return xerrors.Errorf("only the parties cancel order %d: %w", id, ErrForbidden)
	}

	before := order

	if caller == order.Buyer {
		order.BuyerCancel = true
	}
	if caller == order.Seller {
		order.SellerCancel = true
	}

	if order == before {
		return nil
	}

	if !order.BuyerCancel || !order.SellerCancel {
		return writeRecord(snap, orderKey(id), order)
	}

	err = l.catalog.release(snap, order.ProductID, order.Quantity)
	if err != nil {
		return xerrors.Errorf("failed to release stock: %v", err)
	}

	err = l.transition(snap, rec, order, Cancelled)
	if err != nil {
		return err
	}

	order.Status = Cancelled

	err = l.settlement.OnOrderCancelled(snap, order)
	if err != nil {
		return xerrors.Errorf("settlement: %v", err)
	}

	return nil
}

func (ledger) transition(snap store.Snapshot, rec events.Recorder, order Order, status Status) error {
	order.Status = status

	err := writeRecord(snap, orderKey(order.ID), order)
	if err != nil {
		return err
	}

	record(rec, newOrderStatusChanged(order))

	return nil
}

func (l ledger) all(snap store.Readable) ([]Order, error) {
	count, err := readCount(snap, ordersCount)
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0, count)

	for i := uint32(0); i < count; i++ {
		order, err := l.get(snap, i)
		if err != nil {
			return nil, err
		}

		orders = append(orders, order)
	}

	return orders, nil
}
