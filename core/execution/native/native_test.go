package native

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/execution"
	"go.dedis.ch/bazaar/core/store"
	"go.dedis.ch/bazaar/core/txn"
	"go.dedis.ch/bazaar/internal/testing/fake"
)

func TestService_Set(t *testing.T) {
	srvc := NewExecution()

	err := srvc.Set("abc", fakeExec{uid: "abcd"})
	require.NoError(t, err)

	err = srvc.Set("abc", fakeExec{uid: "badd"})
	require.EqualError(t, err, "contract 'abc' already registered")

	err = srvc.Set("bad", fakeExec{uid: "abcd"})
	require.EqualError(t, err, fmt.Sprintf("UID '%x' of 'bad' already used by 'abc'", "abcd"))

	err = srvc.Set("bad", fakeExec{uid: "abc"})
	require.EqualError(t, err, fmt.Sprintf("UID '%x' of 'bad' must be 4 bytes", "abc"))
}

func TestService_Execute(t *testing.T) {
	evt := events.Event{Type: "done"}

	srvc := NewExecution()
	require.NoError(t, srvc.Set("abc", fakeExec{uid: "abcd", evt: &evt}))
	require.NoError(t, srvc.Set("bad", fakeExec{uid: "badd", evt: &evt, err: fake.GetError()}))
	require.NoError(t, srvc.Set("panic", fakeExec{uid: "pncc", panics: true}))

	step := execution.Step{}
	step.Current = fakeTx{contract: "abc"}

	res, err := srvc.Execute(nil, step)
	require.NoError(t, err)
	require.Equal(t, execution.Result{Accepted: true, Events: []events.Event{evt}}, res)

	step.Current = fakeTx{contract: "bad"}
	res, err = srvc.Execute(nil, step)
	require.NoError(t, err)
	require.Equal(t, execution.Result{
		Message: fake.GetError().Error(),
		Err:     fake.GetError(),
	}, res)

	step.Current = fakeTx{contract: "panic"}
	res, err = srvc.Execute(nil, step)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "contract panicked: oops", res.Message)

	step.Current = fakeTx{contract: "none"}
	_, err = srvc.Execute(nil, step)
	require.EqualError(t, err, "unknown contract 'none'")
}

func TestStep_Record(t *testing.T) {
	step := execution.Step{}
	step.Record(events.Event{Type: "ignored"})

	buffer := events.NewBuffer()
	step.Events = buffer
	step.Record(events.Event{Type: "kept"})

	require.Equal(t, []events.Event{{Type: "kept"}}, buffer.Events())
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeExec struct {
	err    error
	uid    string
	evt    *events.Event
	panics bool
}

func (e fakeExec) Execute(_ store.Snapshot, step execution.Step) error {
	if e.panics {
		panic("oops")
	}

	if e.evt != nil {
		step.Record(*e.evt)
	}

	return e.err
}

func (e fakeExec) UID() string {
	return e.uid
}

type fakeTx struct {
	txn.Transaction
	contract string
}

func (tx fakeTx) GetArg(key string) []byte {
	return []byte(tx.contract)
}
