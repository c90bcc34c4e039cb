package signed

import (
	"encoding/binary"
	"io"
	"sort"

	"go.dedis.ch/bazaar/core/access"
	"go.dedis.ch/bazaar/crypto"
	"golang.org/x/xerrors"
)

// Transaction is a transaction signed by its identity.
//
// - implements txn.Transaction
type Transaction struct {
	nonce  uint64
	args   map[string][]byte
	pubkey crypto.PublicKey
	sig    crypto.Signature
	digest []byte
}

type txTemplate struct {
	args    map[string][]byte
	sig     crypto.Signature
	hashFac crypto.HashFactory
}

// TransactionOption is the type of options to create a transaction.
type TransactionOption func(*txTemplate)

// WithArg sets the argument of the key. A later option for the same key wins.
func WithArg(key string, value []byte) TransactionOption {
	return func(tmpl *txTemplate) {
		tmpl.args[key] = value
	}
}

// WithSignature sets the signature of the transaction. It must be valid for the
// digest and the public key.
func WithSignature(sig crypto.Signature) TransactionOption {
	return func(tmpl *txTemplate) {
		tmpl.sig = sig
	}
}

// WithHashFactory sets the hash used to compute the digest.
func WithHashFactory(f crypto.HashFactory) TransactionOption {
	return func(tmpl *txTemplate) {
		tmpl.hashFac = f
	}
}

// NewTransaction creates a transaction of the public key with the nonce. When
// a signature is given, it is verified against the digest.
func NewTransaction(nonce uint64, pk crypto.PublicKey, opts ...TransactionOption) (*Transaction, error) {
	tmpl := txTemplate{
		args:    make(map[string][]byte),
		hashFac: crypto.NewSha256Factory(),
	}

	for _, opt := range opts {
		opt(&tmpl)
	}

	tx := &Transaction{
		nonce:  nonce,
		args:   tmpl.args,
		pubkey: pk,
	}

	h := tmpl.hashFac.New()

	err := tx.Fingerprint(h)
	if err != nil {
		return nil, xerrors.Errorf("failed to fingerprint: %v", err)
	}

	tx.digest = h.Sum(nil)

	if tmpl.sig == nil {
		return tx, nil
	}

	err = pk.Verify(tx.digest, tmpl.sig)
	if err != nil {
		return nil, xerrors.Errorf("invalid signature: %v", err)
	}

	tx.sig = tmpl.sig

	return tx, nil
}

// GetID implements txn.Transaction. The ID is the digest of the fingerprint.
func (t *Transaction) GetID() []byte {
	return t.digest
}

// GetNonce implements txn.Transaction.
func (t *Transaction) GetNonce() uint64 {
	return t.nonce
}

// GetIdentity implements txn.Transaction. It returns the public key of the
// signer.
func (t *Transaction) GetIdentity() access.Identity {
	return t.pubkey
}

// GetPublicKey returns the public key of the signer.
func (t *Transaction) GetPublicKey() crypto.PublicKey {
	return t.pubkey
}

// GetSignature returns the signature, or nil if the transaction is not signed
// yet.
func (t *Transaction) GetSignature() crypto.Signature {
	return t.sig
}

// GetArgs returns the keys of the arguments in lexicographic order.
func (t *Transaction) GetArgs() []string {
	keys := make([]string, 0, len(t.args))
	for key := range t.args {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// GetArg implements txn.Transaction. It returns nil when the argument is not
// set.
func (t *Transaction) GetArg(key string) []byte {
	return t.args[key]
}

// Sign signs the digest with the signer, which must own the identity of the
// transaction.
func (t *Transaction) Sign(signer crypto.Signer) error {
	if len(t.digest) == 0 {
		return xerrors.New("transaction has no digest")
	}

	if !signer.GetPublicKey().Equal(t.pubkey) {
		return xerrors.New("signer does not own the identity")
	}

	sig, err := signer.Sign(t.digest)
	if err != nil {
		return xerrors.Errorf("failed to sign: %v", err)
	}

	t.sig = sig

	return nil
}

// Fingerprint writes the canonical binary form of the transaction: the tag, the
// nonce in big-endian, the number of arguments, then each key and value in key
// order, and finally the public key. Keys, values and the key are prefixed by
// their length.
func (t *Transaction) Fingerprint(w io.Writer) error {
	_, err := io.WriteString(w, fingerprintTag)
	if err != nil {
		return xerrors.Errorf("failed to write tag: %v", err)
	}

	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], t.nonce)

	_, err = w.Write(nonce[:])
	if err != nil {
		return xerrors.Errorf("failed to write nonce: %v", err)
	}

	err = writeVarBytes(w, binary.AppendUvarint(nil, uint64(len(t.args))))
	if err != nil {
		return xerrors.Errorf("failed to write arg count: %v", err)
	}

	for _, key := range t.GetArgs() {
		err = writeVarBytes(w, []byte(key))
		if err == nil {
			err = writeVarBytes(w, t.args[key])
		}

		if err != nil {
			return xerrors.Errorf("failed to write arg '%s': %v", key, err)
		}
	}

	pubkey, err := t.pubkey.MarshalBinary()
	if err != nil {
		return xerrors.Errorf("failed to marshal public key: %v", err)
	}

	err = writeVarBytes(w, pubkey)
	if err != nil {
		return xerrors.Errorf("failed to write public key: %v", err)
	}

	return nil
}

func writeVarBytes(w io.Writer, data []byte) error {
	_, err := w.Write(binary.AppendUvarint(nil, uint64(len(data))))
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}
