package signed

import (
	"encoding/json"

	"go.dedis.ch/bazaar/core/txn"
	"go.dedis.ch/bazaar/crypto"
	"go.dedis.ch/bazaar/crypto/ed25519"
	"golang.org/x/xerrors"
)

// TransactionJSON is the JSON message of a transaction.
type TransactionJSON struct {
	Nonce     uint64
	Args      map[string][]byte
	PublicKey string
	Signature []byte
}

// MarshalJSON implements json.Marshaler. The public key is written in its text
// form.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	pubkey, err := t.pubkey.MarshalText()
	if err != nil {
		return nil, xerrors.Errorf("failed to encode public key: %v", err)
	}

	m := TransactionJSON{
		Nonce:     t.nonce,
		Args:      t.args,
		PublicKey: string(pubkey),
	}

	if t.sig != nil {
		m.Signature, err = t.sig.MarshalBinary()
		if err != nil {
			return nil, xerrors.Errorf("failed to encode signature: %v", err)
		}
	}

	return json.Marshal(m)
}

// PublicKeyParser returns the public key of a text form.
type PublicKeyParser func(text string) (crypto.PublicKey, error)

// SignatureParser returns the signature of a binary form.
type SignatureParser func(data []byte) crypto.Signature

// TransactionFactory is a factory to deserialize transactions.
//
// - implements txn.Factory
type TransactionFactory struct {
	pubkeyOf PublicKeyParser
	sigOf    SignatureParser
}

// NewTransactionFactory returns a new factory for transactions signed by
// Ed25519 keys.
func NewTransactionFactory() TransactionFactory {
	return TransactionFactory{
		pubkeyOf: func(text string) (crypto.PublicKey, error) {
			return ed25519.ParsePublicKey(text)
		},
		sigOf: func(data []byte) crypto.Signature {
			return ed25519.NewSignature(data)
		},
	}
}

// NewTransactionFactoryWith returns a factory using the given parsers.
func NewTransactionFactoryWith(pk PublicKeyParser, sig SignatureParser) TransactionFactory {
	return TransactionFactory{
		pubkeyOf: pk,
		sigOf:    sig,
	}
}

// TransactionOf populates the transaction from the data if appropriate,
// otherwise it returns an error. A signature is mandatory and is verified.
func (f TransactionFactory) TransactionOf(data []byte) (txn.Transaction, error) {
	m := TransactionJSON{}
	err := json.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal: %v", err)
	}

	pubkey, err := f.pubkeyOf(m.PublicKey)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode public key: %v", err)
	}

	if len(m.Signature) == 0 {
		return nil, xerrors.New("missing signature")
	}

	opts := make([]TransactionOption, 0, len(m.Args)+1)
	for key, value := range m.Args {
		opts = append(opts, WithArg(key, value))
	}

	opts = append(opts, WithSignature(f.sigOf(m.Signature)))

	tx, err := NewTransaction(m.Nonce, pubkey, opts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to create tx: %v", err)
	}

	return tx, nil
}
