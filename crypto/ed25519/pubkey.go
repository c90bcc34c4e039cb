package ed25519

import (
	"bytes"
	"encoding/hex"
	"strings"

	"go.dedis.ch/bazaar/crypto"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"golang.org/x/xerrors"
)

// PublicKey is the identity of a signer.
//
// - implements crypto.PublicKey
type PublicKey struct {
	point kyber.Point
}

// NewPublicKey decodes the public key from its binary form.
func NewPublicKey(data []byte) (PublicKey, error) {
	point := suite.Point()

	err := point.UnmarshalBinary(data)
	if err != nil {
		return PublicKey{}, xerrors.Errorf("failed to decode point: %v", err)
	}

	return PublicKey{point: point}, nil
}

// ParsePublicKey decodes the public key from its text form, which is also the
// address of a user.
func ParsePublicKey(text string) (PublicKey, error) {
	hexa := strings.TrimPrefix(text, textPrefix)
	if len(hexa) == len(text) {
		return PublicKey{}, xerrors.Errorf("missing '%s' prefix in '%s'", textPrefix, text)
	}

	data, err := hex.DecodeString(hexa)
	if err != nil {
		return PublicKey{}, xerrors.Errorf("malformed address: %v", err)
	}

	return NewPublicKey(data)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return pk.point.MarshalBinary()
}

// MarshalText implements encoding.TextMarshaler. It returns the address of the
// key.
func (pk PublicKey) MarshalText() ([]byte, error) {
	data, err := pk.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("failed to encode point: %v", err)
	}

	text := make([]byte, len(textPrefix)+hex.EncodedLen(len(data)))
	copy(text, textPrefix)
	hex.Encode(text[len(textPrefix):], data)

	return text, nil
}

// Verify implements crypto.PublicKey. It returns nil if the signature of the
// message was produced by the owner of the key.
func (pk PublicKey) Verify(msg []byte, sig crypto.Signature) error {
	signature, ok := sig.(Signature)
	if !ok {
		return xerrors.Errorf("invalid signature type '%T'", sig)
	}

	if len(signature.data) != SignatureSize {
		return xerrors.Errorf("invalid signature size %d", len(signature.data))
	}

	err := schnorr.Verify(suite, pk.point, msg, signature.data)
	if err != nil {
		return xerrors.Errorf("schnorr verify failed: %v", err)
	}

	return nil
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other interface{}) bool {
	pubkey, ok := other.(PublicKey)

	return ok && pubkey.point.Equal(pk.point)
}

// String implements fmt.Stringer. It returns the prefix of the address, which
// is enough to tell users apart in the logs.
func (pk PublicKey) String() string {
	text, err := pk.MarshalText()
	if err != nil {
		return textPrefix + "malformed"
	}

	return string(text[:len(textPrefix)+16])
}

// Signature is a Schnorr signature.
//
// - implements crypto.Signature
type Signature struct {
	data []byte
}

// NewSignature returns the signature of the binary form.
func NewSignature(data []byte) Signature {
	return Signature{data: data}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (sig Signature) MarshalBinary() ([]byte, error) {
	return sig.data, nil
}

// Equal implements crypto.Signature.
func (sig Signature) Equal(other crypto.Signature) bool {
	o, ok := other.(Signature)

	return ok && bytes.Equal(sig.data, o.data)
}
