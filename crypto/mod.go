// Package crypto defines the signing primitives used to authenticate the
// caller of a marketplace transaction.
package crypto

import (
	"encoding"
	"hash"
)

// HashFactory is an interface to produce a hash digest.
type HashFactory interface {
	New() hash.Hash
}

// PublicKey is a public identity that can be used to verify a signature. Its
// text form is the address the contracts see.
type PublicKey interface {
	encoding.BinaryMarshaler
	encoding.TextMarshaler

	// Verify returns nil if the signature matches the message for this
	// public key.
	Verify(msg []byte, signature Signature) error

	// Equal returns true when the other object is the same public key.
	Equal(other interface{}) bool
}

// Signature is a verifiable element for a unique message.
type Signature interface {
	encoding.BinaryMarshaler

	Equal(other Signature) bool
}

// Signer provides the primitives to sign messages.
type Signer interface {
	GetPublicKey() PublicKey

	Sign(msg []byte) (Signature, error)
}
