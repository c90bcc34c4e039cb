// Package marketplace implements the native contract of a peer-to-peer
// marketplace. It keeps a registry of users with their role, a catalog of
// products with their stock, and a ledger of orders with their lifecycle.
//
// The host authenticates the caller and executes one call at a time. A failed
// call returns an error that wraps one of the kinds of errors.go and the host
// discards every write of that call.
package marketplace

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"go.dedis.ch/bazaar"
	"go.dedis.ch/bazaar/core/access"
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/execution"
	"go.dedis.ch/bazaar/core/execution/native"
	"go.dedis.ch/bazaar/core/store"
	"golang.org/x/xerrors"
)

// commands defines the commands of the marketplace contract. This interface
// helps in testing the contract.
type commands interface {
	registerUser(snap store.Snapshot, step execution.Step, caller Address) error
	publishProduct(snap store.Snapshot, step execution.Step, caller Address) error
	listOwnProducts(snap store.Snapshot, caller Address) error
	createOrder(snap store.Snapshot, step execution.Step, caller Address) error
	markOrderShipped(snap store.Snapshot, step execution.Step, caller Address) error
	markOrderReceived(snap store.Snapshot, step execution.Step, caller Address) error
	requestCancelOrder(snap store.Snapshot, step execution.Step, caller Address) error
}

const (
	// ContractName is the name of the contract.
	ContractName = "go.dedis.ch/bazaar.Marketplace"

	// ContractUID is the unique identifier of the contract.
	ContractUID = "MKTP"

	// CmdArg is the argument's name to indicate the kind of command we want to
	// run on the contract. Should be one of the Command type.
	CmdArg = "marketplace:command"

	// RoleArg is the argument's name in the transaction that contains the
	// role to register with.
	RoleArg = "marketplace:role"

	// NameArg is the argument's name in the transaction that contains the
	// name of the product to publish.
	NameArg = "marketplace:name"

	// DescriptionArg is the argument's name in the transaction that contains
	// the description of the product to publish.
	DescriptionArg = "marketplace:description"

	// PriceArg is the argument's name in the transaction that contains the
	// price of the product to publish, in decimal.
	PriceArg = "marketplace:price"

	// QuantityArg is the argument's name in the transaction that contains the
	// quantity to publish or to order, in decimal.
	QuantityArg = "marketplace:quantity"

	// CategoryArg is the argument's name in the transaction that contains the
	// category of the product to publish.
	CategoryArg = "marketplace:category"

	// ProductArg is the argument's name in the transaction that contains the
	// id of the product to order.
	ProductArg = "marketplace:product_id"

	// OrderArg is the argument's name in the transaction that contains the id
	// of the order to update.
	OrderArg = "marketplace:order_id"
)

// Command defines a type of command for the marketplace contract
type Command string

const (
	// CmdRegisterUser defines the command to register the caller with a role
	CmdRegisterUser Command = "REGISTER_USER"

	// CmdPublishProduct defines the command to publish a product
	CmdPublishProduct Command = "PUBLISH_PRODUCT"

	// CmdListOwnProducts defines the command to display the products of the
	// caller
	CmdListOwnProducts Command = "LIST_OWN_PRODUCTS"

	// CmdCreateOrder defines the command to order a quantity of a product
	CmdCreateOrder Command = "CREATE_ORDER"

	// CmdMarkOrderShipped defines the command for the seller to ship an order
	CmdMarkOrderShipped Command = "MARK_ORDER_SHIPPED"

	// CmdMarkOrderReceived defines the command for the buyer to confirm the
	// delivery of an order
	CmdMarkOrderReceived Command = "MARK_ORDER_RECEIVED"

	// CmdRequestCancelOrder defines the command for a party to request the
	// cancellation of an order
	CmdRequestCancelOrder Command = "REQUEST_CANCEL_ORDER"
)

// RegisterContract registers the marketplace contract to the given execution
// service.
func RegisterContract(exec *native.Service, c Contract) error {
	err := exec.Set(ContractName, c)
	if err != nil {
		return xerrors.Errorf("failed to register contract: %v", err)
	}

	return nil
}

// Option is the type of options to create a contract.
type Option func(*Contract)

// WithSettlement sets the settlement called along the lifecycle of the orders.
func WithSettlement(s Settlement) Option {
	return func(c *Contract) {
		c.ledger.settlement = s
	}
}

// WithPrinter sets the output of the LIST_OWN_PRODUCTS command.
func WithPrinter(w io.Writer) Option {
	return func(c *Contract) {
		c.printer = w
	}
}

// Contract is the marketplace smart contract.
//
// - implements native.Contract
type Contract struct {
	registry registry
	catalog  catalog
	ledger   ledger
	guard    guard

	// cmd provides the commands executions
	cmd commands

	// printer is the output used by the LIST_OWN_PRODUCTS command
	printer io.Writer
}

// NewContract creates a new marketplace contract.
func NewContract(opts ...Option) Contract {
	contract := Contract{
		ledger: ledger{
			settlement: NoSettlement{},
		},
		printer: infoLog{},
	}

	for _, opt := range opts {
		opt(&contract)
	}

	contract.cmd = marketplaceCommand{Contract: &contract}

	return contract
}

// UID implements native.Contract.
func (c Contract) UID() string {
	return ContractUID
}

// Execute implements native.Contract. It runs the appropriate command on
// behalf of the identity of the transaction.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) error {
	text, err := access.TextOf(step.Current.GetIdentity())
	if err != nil {
		return xerrors.Errorf("invalid caller: %v", err)
	}

	caller := Address(text)

	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	}

	switch Command(cmd) {
	case CmdRegisterUser:
		err := c.cmd.registerUser(snap, step, caller)
		if err != nil {
			return xerrors.Errorf("failed to REGISTER_USER: %w", err)
		}
	case CmdPublishProduct:
		err := c.cmd.publishProduct(snap, step, caller)
		if err != nil {
			return xerrors.Errorf("failed to PUBLISH_PRODUCT: %w", err)
		}
	case CmdListOwnProducts:
		err := c.cmd.listOwnProducts(snap, caller)
		if err != nil {
			return xerrors.Errorf("failed to LIST_OWN_PRODUCTS: %w", err)
		}
	case CmdCreateOrder:
		err := c.cmd.createOrder(snap, step, caller)
		if err != nil {
			return xerrors.Errorf("failed to CREATE_ORDER: %w", err)
		}
	case CmdMarkOrderShipped:
		err := c.cmd.markOrderShipped(snap, step, caller)
		if err != nil {
			return xerrors.Errorf("failed to MARK_ORDER_SHIPPED: %w", err)
		}
	case CmdMarkOrderReceived:
		err := c.cmd.markOrderReceived(snap, step, caller)
		if err != nil {
			return xerrors.Errorf("failed to MARK_ORDER_RECEIVED: %w", err)
		}
	case CmdRequestCancelOrder:
		err := c.cmd.requestCancelOrder(snap, step, caller)
		if err != nil {
			return xerrors.Errorf("failed to REQUEST_CANCEL_ORDER: %w", err)
		}
	default:
		return xerrors.Errorf("unknown command: %s", cmd)
	}

	return nil
}

// RegisterUser creates the profile of the caller with the role.
func (c Contract) RegisterUser(snap store.Snapshot, caller Address, role Role) error {
	return c.registry.register(snap, caller, role)
}

// PublishProduct adds a product sold by the caller to the catalog and returns
// its id.
func (c Contract) PublishProduct(snap store.Snapshot, caller Address, spec ProductSpec) (uint32, error) {
	_, err := c.guard.mustHaveRole(snap, caller, Seller)
	if err != nil {
		return 0, err
	}

	err = c.guard.mustBePositive(spec.Quantity)
	if err != nil {
		return 0, err
	}

	return c.catalog.publish(snap, caller, spec)
}

// ListOwnProducts returns an iterator over the products published by the
// caller. An unregistered caller has no product.
func (c Contract) ListOwnProducts(snap store.Readable, caller Address) *ProductIterator {
	return c.catalog.listBySeller(snap, caller)
}

// CreateOrder reserves the quantity of the product for the caller and returns
// the id of the pending order.
func (c Contract) CreateOrder(snap store.Snapshot, rec events.Recorder, caller Address,
	productID uint32, quantity uint64) (uint32, error) {

	_, err := c.guard.mustHaveRole(snap, caller, Buyer)
	if err != nil {
		return 0, err
	}

	err = c.guard.mustBePositive(quantity)
	if err != nil {
		return 0, err
	}

	return c.ledger.create(snap, rec, caller, productID, quantity)
}

// MarkOrderShipped moves a pending order of the caller, as the seller, to
// shipped.
func (c Contract) MarkOrderShipped(snap store.Snapshot, rec events.Recorder, caller Address, id uint32) error {
	_, err := c.guard.mustBeRegistered(snap, caller)
	if err != nil {
		return err
	}

	return c.ledger.markShipped(snap, rec, caller, id)
}

// MarkOrderReceived moves a shipped order of the caller, as the buyer, to
// received.
func (c Contract) MarkOrderReceived(snap store.Snapshot, rec events.Recorder, caller Address, id uint32) error {
	_, err := c.guard.mustBeRegistered(snap, caller)
	if err != nil {
		return err
	}

	return c.ledger.markReceived(snap, rec, caller, id)
}

// RequestCancelOrder records the consent of the caller to cancel a pending
// order. The order is cancelled once both parties consented.
func (c Contract) RequestCancelOrder(snap store.Snapshot, rec events.Recorder, caller Address, id uint32) error {
	_, err := c.guard.mustBeRegistered(snap, caller)
	if err != nil {
		return err
	}

	return c.ledger.requestCancel(snap, rec, caller, id)
}

// GetUser returns the profile of the address.
func (c Contract) GetUser(snap store.Readable, addr Address) (User, error) {
	return c.guard.mustBeRegistered(snap, addr)
}

// HasRole returns true if the address is registered with a role that
// satisfies the given one.
func (c Contract) HasRole(snap store.Readable, addr Address, role Role) (bool, error) {
	return c.registry.hasRole(snap, addr, role)
}

// GetProduct returns the product of the id.
func (c Contract) GetProduct(snap store.Readable, id uint32) (Product, error) {
	return c.catalog.get(snap, id)
}

// GetOrder returns the order of the id.
func (c Contract) GetOrder(snap store.Readable, id uint32) (Order, error) {
	return c.ledger.get(snap, id)
}

// Users returns every user in the order of registration.
func (c Contract) Users(snap store.Readable) ([]User, error) {
	return c.registry.all(snap)
}

// Products returns every product in the order of publication.
func (c Contract) Products(snap store.Readable) ([]Product, error) {
	return c.catalog.all(snap).Collect()
}

// Orders returns every order in the order of creation.
func (c Contract) Orders(snap store.Readable) ([]Order, error) {
	return c.ledger.all(snap)
}

// marketplaceCommand implements the commands of the marketplace contract
//
// - implements commands
type marketplaceCommand struct {
	*Contract
}

// registerUser implements commands. It performs the REGISTER_USER command
func (c marketplaceCommand) registerUser(snap store.Snapshot, step execution.Step, caller Address) error {
	role, err := ParseRole(string(step.Current.GetArg(RoleArg)))
	if err != nil {
		return xerrors.Errorf("invalid '%s': %v", RoleArg, err)
	}

	err = c.RegisterUser(snap, caller, role)
	if err != nil {
		return err
	}

	bazaar.Logger.Info().Str("contract", "marketplace").Msgf("registered %s as %v", caller, role)

	return nil
}

// publishProduct implements commands. It performs the PUBLISH_PRODUCT command
func (c marketplaceCommand) publishProduct(snap store.Snapshot, step execution.Step, caller Address) error {
	name := step.Current.GetArg(NameArg)
	if len(name) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", NameArg)
	}

	price, err := parseUint(step, PriceArg, 64)
	if err != nil {
		return err
	}

	quantity, err := parseUint(step, QuantityArg, 64)
	if err != nil {
		return err
	}

	spec := ProductSpec{
		Name:        string(name),
		Description: string(step.Current.GetArg(DescriptionArg)),
		Price:       price,
		Quantity:    quantity,
		Category:    string(step.Current.GetArg(CategoryArg)),
	}

	id, err := c.PublishProduct(snap, caller, spec)
	if err != nil {
		return err
	}

	bazaar.Logger.Info().Str("contract", "marketplace").Msgf("product %d published by %s", id, caller)

	return nil
}

// listOwnProducts implements commands. It performs the LIST_OWN_PRODUCTS
// command
func (c marketplaceCommand) listOwnProducts(snap store.Snapshot, caller Address) error {
	products, err := c.ListOwnProducts(snap, caller).Collect()
	if err != nil {
		return xerrors.Errorf("failed to list: %v", err)
	}

	data, err := json.Marshal(products)
	if err != nil {
		return xerrors.Errorf("failed to marshal products: %v", err)
	}

	fmt.Fprint(c.printer, string(data))

	return nil
}

// createOrder implements commands. It performs the CREATE_ORDER command
func (c marketplaceCommand) createOrder(snap store.Snapshot, step execution.Step, caller Address) error {
	productID, err := parseUint(step, ProductArg, 32)
	if err != nil {
		return err
	}

	quantity, err := parseUint(step, QuantityArg, 64)
	if err != nil {
		return err
	}

	id, err := c.CreateOrder(snap, step.Events, caller, uint32(productID), quantity)
	if err != nil {
		return err
	}

	bazaar.Logger.Info().Str("contract", "marketplace").Msgf("order %d created by %s", id, caller)

	return nil
}

// markOrderShipped implements commands. It performs the MARK_ORDER_SHIPPED
// command
func (c marketplaceCommand) markOrderShipped(snap store.Snapshot, step execution.Step, caller Address) error {
	id, err := parseUint(step, OrderArg, 32)
	if err != nil {
		return err
	}

	return c.MarkOrderShipped(snap, step.Events, caller, uint32(id))
}

// markOrderReceived implements commands. It performs the MARK_ORDER_RECEIVED
// command
func (c marketplaceCommand) markOrderReceived(snap store.Snapshot, step execution.Step, caller Address) error {
	id, err := parseUint(step, OrderArg, 32)
	if err != nil {
		return err
	}

	return c.MarkOrderReceived(snap, step.Events, caller, uint32(id))
}

// requestCancelOrder implements commands. It performs the
// REQUEST_CANCEL_ORDER command
func (c marketplaceCommand) requestCancelOrder(snap store.Snapshot, step execution.Step, caller Address) error {
	id, err := parseUint(step, OrderArg, 32)
	if err != nil {
		return err
	}

	return c.RequestCancelOrder(snap, step.Events, caller, uint32(id))
}

func parseUint(step execution.Step, key string, bitSize int) (uint64, error) {
	arg := step.Current.GetArg(key)
	if len(arg) == 0 {
		return 0, xerrors.Errorf("'%s' not found in tx arg", key)
	}

	value, err := strconv.ParseUint(string(arg), 10, bitSize)
	if err != nil {
		return 0, xerrors.Errorf("invalid '%s': %v", key, err)
	}

	return value, nil
}

// infoLog defines an output using zerolog
//
// - implements io.writer
type infoLog struct{}

func (h infoLog) Write(p []byte) (int, error) {
	bazaar.Logger.Info().Str("contract", "marketplace").Msg(string(p))

	return len(p), nil
}
