// Package signed implements transactions authenticated by the signature of
// their identity.
//
// The identity of a transaction is the public key of its signer, and the
// marketplace address of the caller is the text form of that key. The nonce is
// a counter per identity that the host expects to grow by one with every
// transaction, so that a signed transaction cannot be replayed.
package signed

import "go.dedis.ch/bazaar/core/access"

// fingerprintTag is written first in every fingerprint so that the digest of a
// transaction cannot be confused with another signed message.
const fingerprintTag = "bazaar.tx.v1"

// Client is the interface the manager uses to get the nonce of an identity. It
// is either the local host or a client of a remote node.
type Client interface {
	GetNonce(access.Identity) (uint64, error)
}
