package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"go.dedis.ch/bazaar"
	"go.dedis.ch/bazaar/cli"
	"go.dedis.ch/bazaar/cli/node"
	"go.dedis.ch/bazaar/contracts/marketplace"
	"go.dedis.ch/bazaar/core/ordering/api"
	"go.dedis.ch/bazaar/core/txn"
	"go.dedis.ch/bazaar/core/txn/signed"
	"go.dedis.ch/bazaar/crypto/ed25519"
	"go.dedis.ch/bazaar/crypto/ed25519/command"
	"go.dedis.ch/bazaar/crypto/loader"
	"golang.org/x/xerrors"
)

// txAction signs a transaction of the marketplace with the key of the caller
// and submits it to the host.
//
// - implements node.ActionTemplate
type txAction struct {
	cmd  marketplace.Command
	args func(cli.Flags) []txn.Arg
}

// Execute implements node.ActionTemplate.
func (a txAction) Execute(ctx node.Context) error {
	signer, err := loadSigner(ctx.Flags)
	if err != nil {
		return err
	}

	var host api.Host

	err = ctx.Injector.Resolve(&host)
	if err != nil {
		return xerrors.Errorf("failed to resolve host: %v", err)
	}

	mgr := signed.NewManager(signer, host)

	err = mgr.Sync()
	if err != nil {
		return xerrors.Errorf("failed to sync nonce: %v", err)
	}

	args := []txn.Arg{
		{Key: bazaar.ContractArg, Value: []byte(marketplace.ContractName)},
		{Key: marketplace.CmdArg, Value: []byte(a.cmd)},
	}

	if a.args != nil {
		args = append(args, a.args(ctx.Flags)...)
	}

	tx, err := mgr.Make(args...)
	if err != nil {
		return xerrors.Errorf("failed to create transaction: %v", err)
	}

	receipts, err := host.Submit(context.Background(), tx)
	if err != nil {
		return xerrors.Errorf("failed to submit: %v", err)
	}

	receipt := receipts[0]

	if !receipt.Accepted {
		fmt.Fprintf(ctx.Out, "transaction %s rejected: %s\n", receipt.ID, receipt.Reason)

		if receipt.Kind != "" {
			return xerrors.Errorf("transaction rejected: %s", receipt.Kind)
		}

		return xerrors.New("transaction rejected")
	}

	fmt.Fprintf(ctx.Out, "transaction %s accepted\n", receipt.ID)

	for _, evt := range receipt.Events {
		evt := evt.Event()

		fmt.Fprintf(ctx.Out, "event %s", evt.Type)

		for _, key := range evt.Keys() {
			fmt.Fprintf(ctx.Out, " %s=%s", key, evt.Attributes[key])
		}

		fmt.Fprintln(ctx.Out)
	}

	return nil
}

func registerUserArgs(flags cli.Flags) []txn.Arg {
	return []txn.Arg{
		{Key: marketplace.RoleArg, Value: []byte(flags.String(roleFlag))},
	}
}

func publishProductArgs(flags cli.Flags) []txn.Arg {
	return []txn.Arg{
		{Key: marketplace.NameArg, Value: []byte(flags.String(nameFlag))},
		{Key: marketplace.DescriptionArg, Value: []byte(flags.String(descriptionFlag))},
		{Key: marketplace.PriceArg, Value: formatUint(flags.Uint64(priceFlag))},
		{Key: marketplace.QuantityArg, Value: formatUint(flags.Uint64(quantityFlag))},
		{Key: marketplace.CategoryArg, Value: []byte(flags.String(categoryFlag))},
	}
}

func createOrderArgs(flags cli.Flags) []txn.Arg {
	return []txn.Arg{
		{Key: marketplace.ProductArg, Value: formatUint(flags.Uint64(productFlag))},
		{Key: marketplace.QuantityArg, Value: formatUint(flags.Uint64(quantityFlag))},
	}
}

func orderArgs(flags cli.Flags) []txn.Arg {
	return []txn.Arg{
		{Key: marketplace.OrderArg, Value: formatUint(flags.Uint64(orderFlag))},
	}
}

// listAction prints the products published by the caller.
//
// - implements node.ActionTemplate
type listAction struct{}

// Execute implements node.ActionTemplate.
func (listAction) Execute(ctx node.Context) error {
	signer, err := loadSigner(ctx.Flags)
	if err != nil {
		return err
	}

	addr, err := signer.GetPublicKey().MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal pubkey: %v", err)
	}

	var r reader

	err = ctx.Injector.Resolve(&r)
	if err != nil {
		return xerrors.Errorf("failed to resolve reader: %v", err)
	}

	products, err := r.ListOwnProducts(marketplace.Address(addr))
	if err != nil {
		return xerrors.Errorf("failed to list: %v", err)
	}

	return printJSON(ctx, products)
}

// showAction prints a record of the marketplace.
//
// - implements node.ActionTemplate
type showAction struct {
	kind string
}

// Execute implements node.ActionTemplate.
func (a showAction) Execute(ctx node.Context) error {
	var r reader

	err := ctx.Injector.Resolve(&r)
	if err != nil {
		return xerrors.Errorf("failed to resolve reader: %v", err)
	}

	var record interface{}

	switch a.kind {
	case "user":
		record, err = r.GetUser(marketplace.Address(ctx.Flags.String(addressFlag)))
	case "product":
		var id uint32
		id, err = parseID(ctx.Flags)
		if err == nil {
			record, err = r.GetProduct(id)
		}
	case "order":
		var id uint32
		id, err = parseID(ctx.Flags)
		if err == nil {
			record, err = r.GetOrder(id)
		}
	default:
		err = xerrors.Errorf("unknown record '%s'", a.kind)
	}

	if err != nil {
		return xerrors.Errorf("failed to show %s: %v", a.kind, err)
	}

	return printJSON(ctx, record)
}

func parseID(flags cli.Flags) (uint32, error) {
	id := flags.Uint64(idFlag)
	if id > math.MaxUint32 {
		return 0, xerrors.Errorf("id %d out of range", id)
	}

	return uint32(id), nil
}

func loadSigner(flags cli.Flags) (ed25519.Signer, error) {
	return loader.LoadSigner(loader.NewFileLoader(flags.Path(command.KeyFlag)), false)
}

func printJSON(ctx node.Context, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to encode: %v", err)
	}

	fmt.Fprintln(ctx.Out, string(data))

	return nil
}

func formatUint(v uint64) []byte {
	return []byte(strconv.FormatUint(v, 10))
}
