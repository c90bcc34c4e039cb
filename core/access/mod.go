// Package access defines the identity under which the host authenticates the
// caller of a transaction.
package access

import (
	"encoding"

	"golang.org/x/xerrors"
)

// Identity is an abstraction to uniquely identify a signer. The host
// guarantees that the identity attached to a transaction produced its
// signature, so contracts can trust it without verifying anything.
type Identity interface {
	encoding.TextMarshaler
}

// TextOf returns the text form of the identity, which contracts use as the
// address of the caller.
func TextOf(ident Identity) (string, error) {
	if ident == nil {
		return "", xerrors.New("missing identity")
	}

	text, err := ident.MarshalText()
	if err != nil {
		return "", xerrors.Errorf("failed to marshal identity: %v", err)
	}

	if len(text) == 0 {
		return "", xerrors.New("empty identity")
	}

	return string(text), nil
}
