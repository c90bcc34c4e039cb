// Package command defines the cli commands to manage the key of a marketplace
// participant.
package command

import (
	"os"

	"go.dedis.ch/bazaar/cli"
	"go.dedis.ch/bazaar/cli/node"
	"go.dedis.ch/bazaar/crypto/loader"
)

// KeyFlag is the flag of the path to the key file.
const KeyFlag = "key"

// Initializer implements the keys initializer. Its commands do not need the
// host.
//
// - implements node.Initializer
type Initializer struct{}

// SetCommands implements node.Initializer.
func (i Initializer) SetCommands(builder node.Builder) {
	action := action{
		printer:   os.Stdout,
		newLoader: loader.NewFileLoader,
		exists:    fileExist,
		remove:    os.Remove,
	}

	cmd := builder.SetCommand("keys")
	cmd.SetDescription("manage the key that signs the transactions")

	gen := cmd.SetSubCommand("generate")
	gen.SetDescription("create a new key and print its address")
	gen.SetFlags(cli.StringFlag{
		Name:     KeyFlag,
		Usage:    "path to the key file",
		Required: true,
	}, cli.BoolFlag{
		Name:  "force",
		Usage: "overwrite the key file if it exists",
	})
	gen.SetAction(action.generateAction)

	show := cmd.SetSubCommand("show")
	show.SetDescription("print the public key of a key file")
	show.SetFlags(cli.StringFlag{
		Name:     KeyFlag,
		Usage:    "path to the key file",
		Required: true,
	}, cli.StringFlag{
		Name:  "format",
		Usage: "output format: [ADDRESS | BASE64_PUBKEY]",
		Value: Address,
	})
	show.SetAction(action.showAction)
}

// OnStart implements node.Initializer.
func (Initializer) OnStart(cli.Flags, node.Injector) error {
	return nil
}

// OnStop implements node.Initializer.
func (Initializer) OnStop(node.Injector) error {
	return nil
}
