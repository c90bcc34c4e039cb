package crypto

import (
	"crypto/sha256"
	"hash"
)

// sha256Factory is a hash factory that is using SHA-256.
//
// - implements crypto.HashFactory
type sha256Factory struct{}

// NewSha256Factory returns a new instance of the factory.
func NewSha256Factory() HashFactory {
	return sha256Factory{}
}

// New implements crypto.HashFactory. It returns a new Hash instance.
func (f sha256Factory) New() hash.Hash {
	return sha256.New()
}
