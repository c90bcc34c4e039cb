// Package fake provides fake implementations for interfaces commonly used in
// the repository.
//
// The implementations offer configuration to return errors when it is needed
// by the unit test.
package fake

import (
	"bytes"
	"fmt"

	"go.dedis.ch/bazaar/crypto"
	"golang.org/x/xerrors"
)

var fakeErr = xerrors.New("fake error")

// GetError returns the fake error.
func GetError() error {
	return fakeErr
}

// Err returns the expected message of an error wrapping the fake error.
func Err(msg string) string {
	return fmt.Sprintf("%s: %v", msg, fakeErr)
}

// Counter is a helper to delay errors or actions. It can be nil without
// panics.
type Counter struct {
	Value int
}

// NewCounter returns a new counter set to the given value.
func NewCounter(value int) *Counter {
	return &Counter{
		Value: value,
	}
}

// Done returns true when the counter reached zero.
func (c *Counter) Done() bool {
	return c == nil || c.Value <= 0
}

// Decrease decrements the counter.
func (c *Counter) Decrease() {
	if c == nil {
		return
	}

	c.Value--
}

// PublicKey is a fake implementation of crypto.PublicKey that is also a valid
// access identity. Its text form is the name given at creation.
//
// - implements crypto.PublicKey
type PublicKey struct {
	Name   string
	err    error
	verify error
}

// NewPublicKey returns a public key with the given name.
func NewPublicKey(name string) PublicKey {
	return PublicKey{Name: name}
}

// NewBadPublicKey returns a public key that fails to marshal and verify.
func NewBadPublicKey() PublicKey {
	return PublicKey{err: fakeErr, verify: fakeErr}
}

// NewRejectingPublicKey returns a public key that marshals but refuses every
// signature.
func NewRejectingPublicKey(name string) PublicKey {
	return PublicKey{Name: name, verify: fakeErr}
}

// Verify implements crypto.PublicKey.
func (pk PublicKey) Verify([]byte, crypto.Signature) error {
	return pk.verify
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other interface{}) bool {
	o, ok := other.(PublicKey)
	return ok && o.Name == pk.Name
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return []byte(pk.Name), pk.err
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	if pk.err != nil {
		return nil, pk.err
	}

	if pk.Name == "" {
		return []byte("fake.PublicKey"), nil
	}

	return []byte(pk.Name), nil
}

// String implements fmt.Stringer.
func (pk PublicKey) String() string {
	text, _ := pk.MarshalText()
	return string(text)
}

// Signature is a fake implementation of crypto.Signature.
//
// - implements crypto.Signature
type Signature struct {
	Data []byte
	err  error
}

// NewBadSignature returns a signature that fails to marshal.
func NewBadSignature() Signature {
	return Signature{err: fakeErr}
}

// Equal implements crypto.Signature.
func (s Signature) Equal(o crypto.Signature) bool {
	other, ok := o.(Signature)
	return ok && bytes.Equal(other.Data, s.Data)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Signature) MarshalBinary() ([]byte, error) {
	return s.Data, s.err
}

// Signer is a fake implementation of crypto.Signer.
//
// - implements crypto.Signer
type Signer struct {
	PublicKey PublicKey
	err       error
}

// NewSigner returns a signer for the given name.
func NewSigner(name string) Signer {
	return Signer{PublicKey: NewPublicKey(name)}
}

// NewBadSigner returns a signer that always fails to sign.
func NewBadSigner(name string) Signer {
	return Signer{PublicKey: NewPublicKey(name), err: fakeErr}
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return s.PublicKey
}

// Sign implements crypto.Signer.
func (s Signer) Sign(msg []byte) (crypto.Signature, error) {
	if s.err != nil {
		return nil, s.err
	}

	return Signature{Data: msg}, nil
}
