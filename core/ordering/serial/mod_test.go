package serial

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/execution"
	"go.dedis.ch/bazaar/core/store"
	"go.dedis.ch/bazaar/core/store/kv"
	"go.dedis.ch/bazaar/core/txn"
	"go.dedis.ch/bazaar/core/txn/signed"
	"go.dedis.ch/bazaar/core/validation"
	"go.dedis.ch/bazaar/core/validation/simple"
	"go.dedis.ch/bazaar/internal/testing/fake"
)

func TestService_Submit(t *testing.T) {
	emitter := &fakeEmitter{}
	tracer := mocktracer.New()

	srvc := newTestService(t, fakeExec{}, WithEmitter(emitter), WithTracer(tracer))

	results, err := srvc.Submit(context.Background(),
		makeTx(t, "alice", 0, "A"),
		makeTx(t, "alice", 0, "B"),
		makeTx(t, "bob", 0, "refuse"),
		makeTx(t, "bob", 1, "C"))
	require.NoError(t, err)
	require.Len(t, results, 4)

	accepted, _ := results[0].GetStatus()
	require.True(t, accepted)

	accepted, reason := results[1].GetStatus()
	require.False(t, accepted)
	require.Equal(t, "nonce '0' != '1'", reason)

	accepted, reason = results[2].GetStatus()
	require.False(t, accepted)
	require.Equal(t, fake.GetError().Error(), reason)

	accepted, _ = results[3].GetStatus()
	require.True(t, accepted)

	require.Equal(t, []events.Event{
		{Type: "written", Attributes: map[string]string{"key": "A"}},
		{Type: "written", Attributes: map[string]string{"key": "C"}},
	}, emitter.evts)

	err = srvc.View(func(snap store.Snapshot) error {
		for key, expected := range map[string][]byte{"A": {1}, "B": nil, "C": {1}, "refuse": nil} {
			value, err := snap.Get([]byte(key))
			require.NoError(t, err)
			require.Equal(t, expected, value)
		}

		return nil
	})
	require.NoError(t, err)

	nonce, err := srvc.GetNonce(fake.NewPublicKey("bob"))
	require.NoError(t, err)
	require.Equal(t, uint64(2), nonce)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "submit", spans[0].OperationName)
	require.Equal(t, 2, spans[0].Tag("rejected"))
}

func TestService_SubmitEmitFailure(t *testing.T) {
	emitter := &fakeEmitter{err: fake.GetError()}

	srvc := newTestService(t, fakeExec{}, WithEmitter(emitter))

	results, err := srvc.Submit(context.Background(), makeTx(t, "alice", 0, "A"))
	require.NoError(t, err)

	accepted, _ := results[0].GetStatus()
	require.True(t, accepted)

	// The batch stays committed.
	err = srvc.View(func(snap store.Snapshot) error {
		value, err := snap.Get([]byte("A"))
		require.Equal(t, []byte{1}, value)
		return err
	})
	require.NoError(t, err)
}

func TestService_SubmitFailure(t *testing.T) {
	emitter := &fakeEmitter{}
	tracer := mocktracer.New()

	srvc := newTestService(t, fakeExec{}, WithEmitter(emitter), WithTracer(tracer))
	srvc.validation = badValidation{}

	_, err := srvc.Submit(context.Background(), makeTx(t, "alice", 0, "A"))
	require.EqualError(t, err, fake.Err("failed to commit batch: failed to validate"))
	require.Empty(t, emitter.evts)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	require.Equal(t, true, spans[0].Tag("error"))
}

func TestService_GetNonce(t *testing.T) {
	srvc := newTestService(t, fakeExec{})

	nonce, err := srvc.GetNonce(fake.NewPublicKey("alice"))
	require.NoError(t, err)
	require.Equal(t, uint64(0), nonce)

	_, err = srvc.GetNonce(fake.NewBadPublicKey())
	require.EqualError(t, err, fake.Err("failed to read nonce: key: failed to marshal identity"))
}

func TestService_ViewIsReadOnly(t *testing.T) {
	srvc := newTestService(t, fakeExec{})

	err := srvc.View(func(snap store.Snapshot) error {
		return snap.Set([]byte("A"), []byte{1})
	})
	require.EqualError(t, err, "failed to set key 0x41: tx not writable")
}

func TestNewService_BadBucket(t *testing.T) {
	db, err := kv.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = NewService(db, simple.NewService(fakeExec{}), WithBucket(nil))
	require.EqualError(t, err,
		"failed to create bucket: failed to create bucket: bucket name required")
}

// -----------------------------------------------------------------------------
// Utility functions

func newTestService(t *testing.T, exec execution.Service, opts ...Option) *Service {
	db, err := kv.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	srvc, err := NewService(db, simple.NewService(exec), opts...)
	require.NoError(t, err)

	return srvc
}

func makeTx(t *testing.T, name string, nonce uint64, key string) txn.Transaction {
	tx, err := signed.NewTransaction(nonce, fake.NewPublicKey(name),
		signed.WithArg("key", []byte(key)))
	require.NoError(t, err)

	require.NoError(t, tx.Sign(fake.NewSigner(name)))

	return tx
}

// fakeExec writes the key given in argument and refuses the key "refuse"
// after having written it.
type fakeExec struct{}

func (fakeExec) Execute(snap store.Snapshot, step execution.Step) (execution.Result, error) {
	key := step.Current.GetArg("key")

	err := snap.Set(key, []byte{1})
	if err != nil {
		return execution.Result{}, err
	}

	if string(key) == "refuse" {
		return execution.Result{Message: fake.GetError().Error(), Err: fake.GetError()}, nil
	}

	res := execution.Result{
		Accepted: true,
		Events: []events.Event{
			{Type: "written", Attributes: map[string]string{"key": string(key)}},
		},
	}

	return res, nil
}

type fakeEmitter struct {
	evts []events.Event
	err  error
}

func (e *fakeEmitter) Emit(ctx context.Context, evts ...events.Event) error {
	if e.err != nil {
		return e.err
	}

	e.evts = append(e.evts, evts...)

	return nil
}

type badValidation struct {
	validation.Service
}

func (badValidation) Validate(store.Snapshot, []txn.Transaction) (validation.Result, error) {
	return nil, fake.GetError()
}
