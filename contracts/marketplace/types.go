package marketplace

import (
	"golang.org/x/xerrors"
)

// Address is the text form of the caller identity as authenticated by the
// host. It is opaque to the contract.
type Address string

// Role is the capability of a registered user.
type Role int

const (
	// Buyer allows a user to create orders.
	Buyer Role = iota
	// Seller allows a user to publish products.
	Seller
	// Both allows a user to buy and to sell.
	Both
)

var roleNames = map[Role]string{
	Buyer:  "buyer",
	Seller: "seller",
	Both:   "both",
}

// ParseRole returns the role of the text form.
func ParseRole(text string) (Role, error) {
	for role, name := range roleNames {
		if name == text {
			return role, nil
		}
	}

	return 0, xerrors.Errorf("unknown role '%s'", text)
}

// Satisfies returns true if the role grants the required one. Both satisfies
// any role, otherwise the roles must be equal.
func (r Role) Satisfies(required Role) bool {
	return r == Both || r == required
}

// String implements fmt.Stringer.
func (r Role) String() string {
	name, ok := roleNames[r]
	if !ok {
		return "unknown"
	}

	return name
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	name, ok := roleNames[r]
	if !ok {
		return nil, xerrors.Errorf("unknown role %d", int(r))
	}

	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}

	*r = role

	return nil
}

// Status is the lifecycle state of an order.
type Status int

const (
	// Pending is the initial status of an order. The stock is reserved.
	Pending Status = iota
	// Shipped means the seller has sent the goods.
	Shipped
	// Received means the buyer has confirmed the delivery. It is terminal.
	Received
	// Cancelled means both parties agreed to cancel. It is terminal and the
	// stock has been released.
	Cancelled
)

var statusNames = map[Status]string{
	Pending:   "pending",
	Shipped:   "shipped",
	Received:  "received",
	Cancelled: "cancelled",
}

// String implements fmt.Stringer.
func (s Status) String() string {
	name, ok := statusNames[s]
	if !ok {
		return "unknown"
	}

	return name
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, xerrors.Errorf("unknown status %d", int(s))
	}

	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}

	return xerrors.Errorf("unknown status '%s'", text)
}

// User is the profile of a registered address.
type User struct {
	Address          Address `json:"address"`
	Role             Role    `json:"role"`
	BuyerReputation  uint64  `json:"buyer_reputation"`
	SellerReputation uint64  `json:"seller_reputation"`
}

// ProductSpec is the description of a product to publish.
type ProductSpec struct {
	Name        string
	Description string
	Price       uint64
	Quantity    uint64
	Category    string
}

// Product is a listing of the catalog. Only the quantity changes after the
// publication.
type Product struct {
	ID          uint32  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       uint64  `json:"price"`
	Quantity    uint64  `json:"quantity"`
	Category    string  `json:"category"`
	Seller      Address `json:"seller"`
}

// Order is a purchase of a quantity of a product. The cancel flags are only
// meaningful while the order is pending.
type Order struct {
	ID           uint32  `json:"id"`
	Buyer        Address `json:"buyer"`
	Seller       Address `json:"seller"`
	ProductID    uint32  `json:"product_id"`
	Quantity     uint64  `json:"quantity"`
	Status       Status  `json:"status"`
	BuyerCancel  bool    `json:"buyer_cancel"`
	SellerCancel bool    `json:"seller_cancel"`
	BuyerRated   bool    `json:"buyer_rated"`
	SellerRated  bool    `json:"seller_rated"`
}
