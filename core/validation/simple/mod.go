// Package simple implements a simple validation service.
//
// Every transaction must be signed by its identity and carry the nonce that
// follows the last one of that identity. The contract is executed on an
// overlay of the snapshot so that a refused transaction has no effect on the
// state, except the nonce that is consumed anyway.
package simple

import (
	"encoding/binary"

	"go.dedis.ch/bazaar/core/access"
	"go.dedis.ch/bazaar/core/execution"
	"go.dedis.ch/bazaar/core/store"
	"go.dedis.ch/bazaar/core/store/mem"
	"go.dedis.ch/bazaar/core/txn"
	"go.dedis.ch/bazaar/core/validation"
	"go.dedis.ch/bazaar/crypto"
	"golang.org/x/xerrors"
)

// NoncePrefix is the prefix of the keys holding the nonces.
const NoncePrefix = "nonce:"

// signedTx is the interface of a transaction that carries the proof of its
// identity.
type signedTx interface {
	GetPublicKey() crypto.PublicKey
	GetSignature() crypto.Signature
}

// Service is a standard validation service that will process the batch and
// update the snapshot accordingly.
//
// - implements validation.Service
type Service struct {
	execution execution.Service
	hashFac   crypto.HashFactory
}

// NewService creates a new validation service.
func NewService(exec execution.Service) Service {
	return Service{
		execution: exec,
		hashFac:   crypto.NewSha256Factory(),
	}
}

// GetNonce implements validation.Service. It returns the nonce associated with
// the identity. The value returned should be used for the next transaction to
// be valid.
func (s Service) GetNonce(store store.Readable, ident access.Identity) (uint64, error) {
	key, err := s.keyFromIdentity(ident)
	if err != nil {
		return 0, xerrors.Errorf("key: %v", err)
	}

	value, err := store.Get(key)
	if err != nil {
		return 0, xerrors.Errorf("store: %v", err)
	}

	if len(value) != 8 {
		return 0, nil
	}

	return binary.LittleEndian.Uint64(value) + 1, nil
}

// Validate implements validation.Service. It processes the list of transactions
// while updating the snapshot then returns a bundle of the transaction results.
func (s Service) Validate(snap store.Snapshot, txs []txn.Transaction) (validation.Result, error) {
	results := make(Result, len(txs))

	for i, tx := range txs {
		res, err := s.validateTx(snap, tx, txs[:i])
		if err != nil {
			return nil, xerrors.Errorf("tx %#x: %v", tx.GetID(), err)
		}

		results[i] = res
	}

	return results, nil
}

func (s Service) validateTx(snap store.Snapshot, tx txn.Transaction,
	previous []txn.Transaction) (TransactionResult, error) {

	reason := s.authenticate(tx)
	if reason != "" {
		return Refused(tx, reason, nil), nil
	}

	expected, err := s.GetNonce(snap, tx.GetIdentity())
	if err != nil {
		return TransactionResult{}, xerrors.Errorf("nonce: %v", err)
	}

	if expected != tx.GetNonce() {
		reason := xerrors.Errorf("nonce '%d' != '%d'", tx.GetNonce(), expected).Error()
		return Refused(tx, reason, nil), nil
	}

	err = s.set(snap, tx.GetIdentity(), tx.GetNonce())
	if err != nil {
		return TransactionResult{}, xerrors.Errorf("failed to set nonce: %v", err)
	}

	overlay := mem.NewOverlay(snap)

	step := execution.Step{
		Previous: previous,
		Current:  tx,
	}

	res, err := s.execution.Execute(overlay, step)
	if err != nil {
		// This is a critical error unrelated to the transaction itself.
		return TransactionResult{}, xerrors.Errorf("failed to execute tx: %v", err)
	}

	if !res.Accepted {
		return Refused(tx, res.Message, res.Err), nil
	}

	err = overlay.ApplyTo(snap)
	if err != nil {
		return TransactionResult{}, xerrors.Errorf("failed to apply tx: %v", err)
	}

	return Accepted(tx, res.Events), nil
}

// authenticate returns the reason why the transaction cannot be attributed to
// its identity, or an empty string.
func (s Service) authenticate(tx txn.Transaction) string {
	stx, ok := tx.(signedTx)
	if !ok {
		return "transaction is not signed"
	}

	if stx.GetSignature() == nil {
		return "missing signature"
	}

	err := stx.GetPublicKey().Verify(tx.GetID(), stx.GetSignature())
	if err != nil {
		return xerrors.Errorf("invalid signature: %v", err).Error()
	}

	return ""
}

func (s Service) set(store store.Snapshot, ident access.Identity, nonce uint64) error {
	key, err := s.keyFromIdentity(ident)
	if err != nil {
		return xerrors.Errorf("key: %v", err)
	}

	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, nonce)

	err = store.Set(key, buffer)
	if err != nil {
		return xerrors.Errorf("store: %v", err)
	}

	return nil
}

func (s Service) keyFromIdentity(ident access.Identity) ([]byte, error) {
	if ident == nil {
		return nil, xerrors.New("missing identity in transaction")
	}

	data, err := ident.MarshalText()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	h := s.hashFac.New()
	_, err = h.Write(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to write identity: %v", err)
	}

	return append([]byte(NoncePrefix), h.Sum(nil)...), nil
}
