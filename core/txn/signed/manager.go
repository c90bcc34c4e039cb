package signed

import (
	"go.dedis.ch/bazaar/core/txn"
	"go.dedis.ch/bazaar/crypto"
	"golang.org/x/xerrors"
)

// Manager creates the transactions of one signer. It fetches the nonce of the
// signer before the first transaction, then counts locally. After a failed
// submission, it must be synchronized again since the host may or may not have
// consumed the nonce.
//
// - implements txn.Manager
type Manager struct {
	client  Client
	signer  crypto.Signer
	hashFac crypto.HashFactory
	nonce   uint64
	synced  bool
}

// NewManager creates a new manager for the signer.
func NewManager(signer crypto.Signer, client Client) *Manager {
	return &Manager{
		client:  client,
		signer:  signer,
		hashFac: crypto.NewSha256Factory(),
	}
}

// Make implements txn.Manager. It creates a transaction signed with the next
// nonce of the signer.
func (mgr *Manager) Make(args ...txn.Arg) (txn.Transaction, error) {
	if !mgr.synced {
		err := mgr.Sync()
		if err != nil {
			return nil, xerrors.Errorf("failed to sync: %v", err)
		}
	}

	opts := make([]TransactionOption, 0, len(args)+1)
	for _, arg := range args {
		opts = append(opts, WithArg(arg.Key, arg.Value))
	}

	opts = append(opts, WithHashFactory(mgr.hashFac))

	tx, err := NewTransaction(mgr.nonce, mgr.signer.GetPublicKey(), opts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to create tx: %v", err)
	}

	err = tx.Sign(mgr.signer)
	if err != nil {
		return nil, xerrors.Errorf("failed to create tx: %v", err)
	}

	mgr.nonce++

	return tx, nil
}

// Sync implements txn.Manager. It fetches the nonce the host expects for the
// next transaction of the signer.
func (mgr *Manager) Sync() error {
	nonce, err := mgr.client.GetNonce(mgr.signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("failed to fetch nonce: %v", err)
	}

	mgr.nonce = nonce
	mgr.synced = true

	return nil
}
