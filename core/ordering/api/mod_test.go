package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/bazaar/core/access"
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/store"
	"go.dedis.ch/bazaar/core/txn"
	"go.dedis.ch/bazaar/core/validation"
	"go.dedis.ch/bazaar/internal/testing/fake"
	"golang.org/x/xerrors"
)

var errKind = xerrors.New("some kind")

func TestReceiptOf(t *testing.T) {
	res := fakeResult{
		tx:       fakeTx{ID: "abcd"},
		accepted: false,
		reason:   "oops",
		err:      xerrors.Errorf("oops: %w", errKind),
	}

	receipt := ReceiptOf(res, kindOf)
	require.Equal(t, Receipt{ID: "abcd", Reason: "oops", Kind: "some kind"}, receipt)

	res.err = fake.GetError()
	receipt = ReceiptOf(res, kindOf)
	require.Empty(t, receipt.Kind)

	receipt = ReceiptOf(res, nil)
	require.Empty(t, receipt.Kind)

	res = fakeResult{
		tx:       fakeTx{ID: "ef"},
		accepted: true,
		events:   []events.Event{{Type: "A", Attributes: map[string]string{"k": "v"}}},
	}

	receipt = ReceiptOf(res, kindOf)
	require.True(t, receipt.Accepted)
	require.Len(t, receipt.Events, 1)
	require.Equal(t, res.events[0], receipt.Events[0].Event())
}

func TestRouter_Submit(t *testing.T) {
	host := &fakeHost{}
	router := NewRouter(host, fakeFactory{}, WithKindOf(kindOf))

	rec := post(t, router, `{"transactions":[{"ID":"aa"},{"ID":"bb"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ReceiptsJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, []Receipt{
		{ID: "aa", Accepted: true},
		{ID: "bb", Reason: "refused", Kind: "some kind"},
	}, resp.Receipts)
	require.Len(t, host.submitted, 2)
}

func TestRouter_SubmitBadRequest(t *testing.T) {
	router := NewRouter(&fakeHost{}, fakeFactory{})

	rec := post(t, router, `{`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, errorOf(t, rec), "failed to decode request: ")

	rec = post(t, router, `{"transactions":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "no transaction", errorOf(t, rec))

	router = NewRouter(&fakeHost{}, fakeFactory{err: fake.GetError()})

	rec = post(t, router, `{"transactions":[{"ID":"aa"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, fake.Err("tx 0"), errorOf(t, rec))

	router = NewRouter(&fakeHost{err: fake.GetError()}, fakeFactory{})

	rec = post(t, router, `{"transactions":[{"ID":"aa"}]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, fake.Err("failed to submit"), errorOf(t, rec))
}

func TestRouter_Nonce(t *testing.T) {
	router := NewRouter(&fakeHost{nonce: 3}, fakeFactory{})

	req := httptest.NewRequest(http.MethodGet, "/nonces/alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var msg NonceJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	require.Equal(t, NonceJSON{Identity: "alice", Nonce: 3}, msg)

	router = NewRouter(&fakeHost{err: fake.GetError()}, fakeFactory{})

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nonces/alice", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, fake.Err("failed to get nonce"), errorOf(t, rec))
}

func TestClient_RoundTrip(t *testing.T) {
	host := &fakeHost{nonce: 5}

	srv := httptest.NewServer(NewRouter(host, fakeFactory{}, WithKindOf(kindOf)))
	defer srv.Close()

	client := NewClient(srv.URL+"/", 0)

	nonce, err := client.GetNonce(fake.NewPublicKey("alice"))
	require.NoError(t, err)
	require.Equal(t, uint64(5), nonce)

	receipts, err := client.Submit(context.Background(), fakeTx{ID: "aa"}, fakeTx{ID: "bb"})
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	require.True(t, receipts[0].Accepted)
	require.Equal(t, "some kind", receipts[1].Kind)

	_, err = client.GetNonce(fake.NewBadPublicKey())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid identity: ")
}

func TestClient_Failures(t *testing.T) {
	srv := httptest.NewServer(NewRouter(&fakeHost{err: fake.GetError()}, fakeFactory{}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)

	_, err := client.GetNonce(fake.NewPublicKey("alice"))
	require.EqualError(t, err, "server replied 500: "+fake.Err("failed to get nonce"))

	_, err = client.Submit(context.Background(), fakeTx{ID: "aa"})
	require.EqualError(t, err, "server replied 500: "+fake.Err("failed to submit"))

	_, err = client.Submit(context.Background(), badTx{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to encode tx 0: ")

	client = NewClient("http://127.0.0.1:0", 0)

	_, err = client.GetNonce(fake.NewPublicKey("alice"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to get nonce: ")
}

func TestLocal(t *testing.T) {
	host := &fakeHost{nonce: 2}
	local := NewLocal(host, WithKindOf(kindOf))

	nonce, err := local.GetNonce(fake.NewPublicKey("alice"))
	require.NoError(t, err)
	require.Equal(t, uint64(2), nonce)

	receipts, err := local.Submit(context.Background(), fakeTx{ID: "aa"}, fakeTx{ID: "bb"})
	require.NoError(t, err)
	require.Equal(t, "some kind", receipts[1].Kind)

	local = NewLocal(&fakeHost{err: fake.GetError()})

	_, err = local.Submit(context.Background(), fakeTx{ID: "aa"})
	require.Equal(t, fake.GetError(), err)
}

// -----------------------------------------------------------------------------
// Utility functions

func kindOf(err error) error {
	if xerrors.Is(err, errKind) {
		return errKind
	}

	return nil
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	var msg ErrorJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))

	return msg.Error
}

type fakeTx struct {
	txn.Transaction

	ID string
}

func (tx fakeTx) GetID() []byte {
	id, _ := hex.DecodeString(tx.ID)
	return id
}

type badTx struct {
	txn.Transaction
}

func (badTx) MarshalJSON() ([]byte, error) {
	return nil, fake.GetError()
}

type fakeFactory struct {
	err error
}

func (f fakeFactory) TransactionOf(data []byte) (txn.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}

	var tx fakeTx
	err := json.Unmarshal(data, &tx)

	return tx, err
}

type fakeResult struct {
	tx       txn.Transaction
	accepted bool
	reason   string
	err      error
	events   []events.Event
}

func (r fakeResult) GetTransaction() txn.Transaction { return r.tx }

func (r fakeResult) GetStatus() (bool, string) { return r.accepted, r.reason }

func (r fakeResult) GetError() error { return r.err }

func (r fakeResult) GetEvents() []events.Event { return r.events }

// fakeHost accepts the first transaction of a batch and refuses the others.
type fakeHost struct {
	nonce     uint64
	err       error
	submitted []txn.Transaction
}

func (h *fakeHost) Submit(ctx context.Context, txs ...txn.Transaction) ([]validation.TransactionResult, error) {
	if h.err != nil {
		return nil, h.err
	}

	h.submitted = append(h.submitted, txs...)

	results := make([]validation.TransactionResult, len(txs))
	for i, tx := range txs {
		if i == 0 {
			results[i] = fakeResult{tx: tx, accepted: true}
		} else {
			results[i] = fakeResult{tx: tx, reason: "refused", err: xerrors.Errorf("refused: %w", errKind)}
		}
	}

	return results, nil
}

func (h *fakeHost) GetNonce(access.Identity) (uint64, error) {
	return h.nonce, h.err
}

func (h *fakeHost) View(fn func(store.Snapshot) error) error {
	return fn(fake.NewSnapshot())
}
