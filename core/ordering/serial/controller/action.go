package controller

import (
	"fmt"
	"io"
	"os"

	"go.dedis.ch/bazaar/cli"
	"go.dedis.ch/bazaar/cli/node"
	"go.dedis.ch/bazaar/config"
	"go.dedis.ch/bazaar/core/store/kv"
	"golang.org/x/xerrors"
)

var printer io.Writer = os.Stdout

// showConfig prints the configuration without starting the host.
func showConfig(flags cli.Flags) error {
	cfg, err := config.Load(flags.Path(node.ConfigFlag))
	if err != nil {
		return xerrors.Errorf("failed to load config: %v", err)
	}

	data, err := cfg.Encode()
	if err != nil {
		return err
	}

	fmt.Fprint(printer, string(data))

	return nil
}

// backupAction writes a copy of the local database to a file.
//
// - implements node.ActionTemplate
type backupAction struct{}

// Execute implements node.ActionTemplate.
func (backupAction) Execute(ctx node.Context) error {
	var db kv.DB

	err := ctx.Injector.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("backup needs the local database: %v", err)
	}

	out := ctx.Flags.Path(outFlag)

	file, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return xerrors.Errorf("failed to create backup: %v", err)
	}

	n, err := db.Backup(file)
	if err != nil {
		file.Close()
		os.Remove(out)

		return xerrors.Errorf("failed to backup: %v", err)
	}

	err = file.Close()
	if err != nil {
		return xerrors.Errorf("failed to close backup: %v", err)
	}

	fmt.Fprintf(ctx.Out, "backup of %d bytes written to %s\n", n, out)

	return nil
}
