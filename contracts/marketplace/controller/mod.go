// Package controller implements the initializer of the marketplace contract and
// the commands of the participants.
package controller

import (
	"go.dedis.ch/bazaar/cli"
	"go.dedis.ch/bazaar/cli/node"
	"go.dedis.ch/bazaar/config"
	"go.dedis.ch/bazaar/contracts/marketplace"
	"go.dedis.ch/bazaar/contracts/marketplace/query"
	"go.dedis.ch/bazaar/core/execution/native"
	"go.dedis.ch/bazaar/core/ordering"
	"go.dedis.ch/bazaar/core/ordering/api"
	"go.dedis.ch/bazaar/core/store"
	"go.dedis.ch/bazaar/crypto/ed25519/command"
	"go.dedis.ch/bazaar/proxy"
	"golang.org/x/xerrors"
)

// Names of the flags.
const (
	roleFlag        = "role"
	nameFlag        = "name"
	descriptionFlag = "description"
	priceFlag       = "price"
	quantityFlag    = "quantity"
	categoryFlag    = "category"
	productFlag     = "product"
	orderFlag       = "order"
	addressFlag     = "address"
	idFlag          = "id"
)

// reader is the read-only view of the marketplace used by the commands.
type reader interface {
	GetUser(addr marketplace.Address) (marketplace.User, error)
	GetProduct(id uint32) (marketplace.Product, error)
	GetOrder(id uint32) (marketplace.Order, error)
	ListOwnProducts(addr marketplace.Address) ([]marketplace.Product, error)
}

// miniController is a CLI initializer to register the marketplace contract
//
// - implements node.Initializer
type miniController struct{}

// NewController creates a new controller for the marketplace contract.
func NewController() node.Initializer {
	return miniController{}
}

// SetCommands implements node.Initializer.
func (miniController) SetCommands(builder node.Builder) {
	keyFlag := cli.StringFlag{
		Name:     command.KeyFlag,
		Usage:    "path to the key that signs the transaction",
		Required: true,
		EnvVars:  []string{"BAZAAR_KEY"},
	}

	cmd := builder.SetCommand("user")
	cmd.SetDescription("manage the profile of the caller")

	sub := cmd.SetSubCommand("register")
	sub.SetDescription("register the caller with a role")
	sub.SetFlags(keyFlag, cli.StringFlag{
		Name:     roleFlag,
		Usage:    "the role of the user: buyer, seller or both",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(txAction{cmd: marketplace.CmdRegisterUser, args: registerUserArgs}))

	cmd = builder.SetCommand("product")
	cmd.SetDescription("manage the products of the caller")

	sub = cmd.SetSubCommand("publish")
	sub.SetDescription("publish a product")
	sub.SetFlags(keyFlag,
		cli.StringFlag{Name: nameFlag, Usage: "the name of the product", Required: true},
		cli.StringFlag{Name: descriptionFlag, Usage: "the description of the product"},
		cli.Uint64Flag{Name: priceFlag, Usage: "the price of one unit", Required: true},
		cli.Uint64Flag{Name: quantityFlag, Usage: "the number of units in stock", Required: true},
		cli.StringFlag{Name: categoryFlag, Usage: "the category of the product"},
	)
	sub.SetAction(builder.MakeAction(txAction{cmd: marketplace.CmdPublishProduct, args: publishProductArgs}))

	sub = cmd.SetSubCommand("list")
	sub.SetDescription("list the products published by the caller")
	sub.SetFlags(keyFlag)
	sub.SetAction(builder.MakeAction(listAction{}))

	cmd = builder.SetCommand("order")
	cmd.SetDescription("manage the orders of the caller")

	sub = cmd.SetSubCommand("create")
	sub.SetDescription("order a quantity of a product")
	sub.SetFlags(keyFlag,
		cli.Uint64Flag{Name: productFlag, Usage: "the id of the product", Required: true},
		cli.Uint64Flag{Name: quantityFlag, Usage: "the number of units", Value: 1},
	)
	sub.SetAction(builder.MakeAction(txAction{cmd: marketplace.CmdCreateOrder, args: createOrderArgs}))

	orderID := cli.Uint64Flag{Name: orderFlag, Usage: "the id of the order", Required: true}

	for _, update := range orderUpdates {
		sub = cmd.SetSubCommand(update.name)
		sub.SetDescription(update.description)
		sub.SetFlags(keyFlag, orderID)
		sub.SetAction(builder.MakeAction(txAction{cmd: update.cmd, args: orderArgs}))
	}

	cmd = builder.SetCommand("show")
	cmd.SetDescription("print a record of the marketplace")

	sub = cmd.SetSubCommand("user")
	sub.SetFlags(cli.StringFlag{Name: addressFlag, Usage: "the address of the user", Required: true})
	sub.SetAction(builder.MakeAction(showAction{kind: "user"}))

	sub = cmd.SetSubCommand("product")
	sub.SetFlags(cli.Uint64Flag{Name: idFlag, Usage: "the id of the product", Required: true})
	sub.SetAction(builder.MakeAction(showAction{kind: "product"}))

	sub = cmd.SetSubCommand("order")
	sub.SetFlags(cli.Uint64Flag{Name: idFlag, Usage: "the id of the order", Required: true})
	sub.SetAction(builder.MakeAction(showAction{kind: "order"}))
}

var orderUpdates = []struct {
	name        string
	description string
	cmd         marketplace.Command
}{
	{"ship", "mark an order as shipped, as the seller", marketplace.CmdMarkOrderShipped},
	{"receive", "confirm the delivery of an order, as the buyer", marketplace.CmdMarkOrderReceived},
	{"cancel", "request the cancellation of a pending order", marketplace.CmdRequestCancelOrder},
}

// OnStart implements node.Initializer. In local mode, it registers the
// contract on the native execution service and mounts the queries on the
// proxy. In remote mode, the queries are sent to the node.
func (miniController) OnStart(flags cli.Flags, inj node.Injector) error {
	contract := marketplace.NewContract()

	inj.Inject(api.KindOf(marketplace.KindOf))

	var exec *native.Service

	err := inj.Resolve(&exec)
	if err != nil {
		return startRemote(flags, inj)
	}

	err = marketplace.RegisterContract(exec, contract)
	if err != nil {
		return err
	}

	var host ordering.Service

	err = inj.Resolve(&host)
	if err != nil {
		return xerrors.Errorf("failed to resolve host: %v", err)
	}

	inj.Inject(api.NewLocal(host, api.WithKindOf(marketplace.KindOf)))
	inj.Inject(localReader{host: host, contract: contract})

	var srv proxy.Proxy

	err = inj.Resolve(&srv)
	if err == nil {
		srv.Mount(query.DefaultPath, query.NewRouter(host, contract))
	}

	return nil
}

func startRemote(flags cli.Flags, inj node.Injector) error {
	remote := flags.String(node.RemoteFlag)
	if remote == "" {
		return xerrors.New("no local host nor remote node")
	}

	var cfg config.Config

	err := inj.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("failed to resolve config: %v", err)
	}

	inj.Inject(query.NewClient(remote+query.DefaultPath, cfg.Server.Timeout))

	return nil
}

// OnStop implements node.Initializer.
func (miniController) OnStop(node.Injector) error {
	return nil
}

// localReader reads the committed state of the host.
//
// - implements controller.reader
type localReader struct {
	host     ordering.Service
	contract marketplace.Contract
}

func (r localReader) GetUser(addr marketplace.Address) (user marketplace.User, err error) {
	err = r.host.View(func(snap store.Snapshot) error {
		user, err = r.contract.GetUser(snap, addr)
		return err
	})

	return
}

func (r localReader) GetProduct(id uint32) (product marketplace.Product, err error) {
	err = r.host.View(func(snap store.Snapshot) error {
		product, err = r.contract.GetProduct(snap, id)
		return err
	})

	return
}

func (r localReader) GetOrder(id uint32) (order marketplace.Order, err error) {
	err = r.host.View(func(snap store.Snapshot) error {
		order, err = r.contract.GetOrder(snap, id)
		return err
	})

	return
}

func (r localReader) ListOwnProducts(addr marketplace.Address) (products []marketplace.Product, err error) {
	err = r.host.View(func(snap store.Snapshot) error {
		products, err = r.contract.ListOwnProducts(snap, addr).Collect()
		return err
	})

	return
}
