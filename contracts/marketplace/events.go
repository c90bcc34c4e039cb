package marketplace

import (
	"strconv"

	"go.dedis.ch/bazaar/core/events"
)

const (
	// EventOrderCreated is the type of the event recorded when an order is
	// created.
	EventOrderCreated = "OrderCreated"

	// EventOrderStatusChanged is the type of the event recorded when an order
	// moves to a new status.
	EventOrderStatusChanged = "OrderStatusChanged"
)

// Attributes of the events.
const (
	AttrID        = "id"
	AttrBuyer     = "buyer"
	AttrSeller    = "seller"
	AttrProductID = "product_id"
	AttrQuantity  = "quantity"
	AttrNewStatus = "new_status"
)

func newOrderCreated(order Order) events.Event {
	return events.Event{
		Type: EventOrderCreated,
		Attributes: map[string]string{
			AttrID:        formatID(order.ID),
			AttrBuyer:     string(order.Buyer),
			AttrSeller:    string(order.Seller),
			AttrProductID: formatID(order.ProductID),
			AttrQuantity:  strconv.FormatUint(order.Quantity, 10),
		},
	}
}

func newOrderStatusChanged(order Order) events.Event {
	return events.Event{
		Type: EventOrderStatusChanged,
		Attributes: map[string]string{
			AttrID:        formatID(order.ID),
			AttrBuyer:     string(order.Buyer),
			AttrNewStatus: order.Status.String(),
		},
	}
}

func formatID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

func record(rec events.Recorder, evt events.Event) {
	if rec != nil {
		rec.Record(evt)
	}
}
