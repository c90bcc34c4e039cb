// Package main implements the CLI of a bazaar node.
//
// The node keeps the marketplace ledger in a local database. Each command
// opens it, executes and closes it, unless the --remote flag points to a node
// started with the serve command.
//
//	bazaar keys generate --key alice.key
//	bazaar user register --key alice.key --role seller
//	bazaar product publish --key alice.key --name lamp --price 10 --quantity 5
//	bazaar --config bazaar.yaml serve
package main

import (
	"fmt"
	"io"
	"os"

	"go.dedis.ch/bazaar/cli/node"
	marketplace "go.dedis.ch/bazaar/contracts/marketplace/controller"
	host "go.dedis.ch/bazaar/core/ordering/serial/controller"
	keys "go.dedis.ch/bazaar/crypto/ed25519/command"
	proxy "go.dedis.ch/bazaar/proxy/http/controller"
)

var printer io.Writer = os.Stderr

func main() {
	err := run(os.Args, nil, os.Stdout)
	if err != nil {
		fmt.Fprintf(printer, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string, sigs chan os.Signal, out io.Writer) error {
	builder := node.NewBuilderWithCfg("bazaar", sigs, out,
		host.NewController(),
		proxy.NewController(),
		marketplace.NewController(),
		keys.Initializer{},
	)

	app := builder.Build()

	return app.Run(args)
}
