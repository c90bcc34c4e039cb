package ed25519

import (
	"go.dedis.ch/bazaar/crypto"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"go.dedis.ch/kyber/v3/util/key"
	"golang.org/x/xerrors"
)

// Signer owns the private key of an identity.
//
// - implements crypto.Signer
type Signer struct {
	private kyber.Scalar
	public  kyber.Point
}

// NewSigner returns a signer with a random key.
func NewSigner() Signer {
	kp := key.NewKeyPair(suite)

	return Signer{private: kp.Private, public: kp.Public}
}

// NewSignerFromBytes restores the signer of a private key in binary form, as
// written in a key file.
func NewSignerFromBytes(data []byte) (Signer, error) {
	private := suite.Scalar()

	err := private.UnmarshalBinary(data)
	if err != nil {
		return Signer{}, xerrors.Errorf("failed to decode scalar: %v", err)
	}

	return Signer{
		private: private,
		public:  suite.Point().Mul(private, nil),
	}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler. It returns the private
// key.
func (s Signer) MarshalBinary() ([]byte, error) {
	return s.private.MarshalBinary()
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return PublicKey{point: s.public}
}

// Sign implements crypto.Signer.
func (s Signer) Sign(msg []byte) (crypto.Signature, error) {
	sig, err := schnorr.Sign(suite, s.private, msg)
	if err != nil {
		return nil, xerrors.Errorf("failed to sign: %v", err)
	}

	return Signature{data: sig}, nil
}
