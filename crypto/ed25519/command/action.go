package command

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"go.dedis.ch/bazaar/cli"
	"go.dedis.ch/bazaar/crypto/loader"
	"golang.org/x/xerrors"
)

// Output formats of the public key.
const (
	Address      = "ADDRESS"
	Base64Pubkey = "BASE64_PUBKEY"
)

// action defines the different cli actions of the keys commands. Defining
// functions and printer helps in testing the commands.
type action struct {
	printer io.Writer

	newLoader func(path string) loader.Loader
	exists    func(path string) bool
	remove    func(path string) error
}

func (a action) generateAction(flags cli.Flags) error {
	path := flags.Path(KeyFlag)

	if a.exists(path) {
		if !flags.Bool("force") {
			return xerrors.Errorf("file '%s' already exist, use --force if you "+
				"want to overwrite", path)
		}

		err := a.remove(path)
		if err != nil {
			return xerrors.Errorf("failed to remove key: %v", err)
		}
	}

	signer, err := loader.LoadSigner(a.newLoader(path), true)
	if err != nil {
		return err
	}

	text, err := signer.GetPublicKey().MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal pubkey: %v", err)
	}

	fmt.Fprintf(a.printer, "key saved to %s\naddress: %s\n", path, text)

	return nil
}

func (a action) showAction(flags cli.Flags) error {
	signer, err := loader.LoadSigner(a.newLoader(flags.Path(KeyFlag)), false)
	if err != nil {
		return err
	}

	var out []byte

	switch flags.String("format") {
	case Address:
		out, err = signer.GetPublicKey().MarshalText()
		if err != nil {
			return xerrors.Errorf("failed to marshal pubkey: %v", err)
		}
	case Base64Pubkey:
		buf, err := signer.GetPublicKey().MarshalBinary()
		if err != nil {
			return xerrors.Errorf("failed to marshal pubkey: %v", err)
		}

		out = []byte(base64.StdEncoding.EncodeToString(buf))
	default:
		return xerrors.Errorf("unknown format '%s'", flags.String("format"))
	}

	fmt.Fprintln(a.printer, string(out))

	return nil
}

func fileExist(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
