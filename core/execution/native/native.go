// Package native implements the execution service of the contracts compiled
// with the node.
//
// A transaction selects its contract by name with the bazaar.ContractArg
// argument. The contract has direct access to the snapshot, which the host is
// responsible for discarding when the transaction is refused.
package native

import (
	"go.dedis.ch/bazaar"
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/execution"
	"go.dedis.ch/bazaar/core/store"
	"golang.org/x/xerrors"
)

// UIDSize is the size of the unique identifier of a contract.
const UIDSize = 4

// Contract is the interface of a contract executed natively.
type Contract interface {
	Execute(store.Snapshot, execution.Step) error

	// UID returns an identifier of UIDSize bytes, unique among the contracts
	// of a node.
	UID() string
}

// Service runs the registered contracts.
//
// - implements execution.Service
type Service struct {
	contracts map[string]Contract
	owners    map[string]string
}

// NewExecution returns an execution service without any contract.
func NewExecution() *Service {
	return &Service{
		contracts: make(map[string]Contract),
		owners:    make(map[string]string),
	}
}

// Set registers the contract under the name. Both the name and the UID must be
// free.
func (ns *Service) Set(name string, contract Contract) error {
	_, found := ns.contracts[name]
	if found {
		return xerrors.Errorf("contract '%s' already registered", name)
	}

	uid := contract.UID()
	if len(uid) != UIDSize {
		return xerrors.Errorf("UID '%x' of '%s' must be %d bytes", uid, name, UIDSize)
	}

	owner, found := ns.owners[uid]
	if found {
		return xerrors.Errorf("UID '%x' of '%s' already used by '%s'", uid, name, owner)
	}

	ns.contracts[name] = contract
	ns.owners[uid] = name

	return nil
}

// Execute implements execution.Service. A failure or a panic of the contract
// refuses the transaction, and the events it recorded are dropped. An unknown
// contract is an error of the caller of the service.
func (ns *Service) Execute(snap store.Snapshot, step execution.Step) (res execution.Result, err error) {
	name := string(step.Current.GetArg(bazaar.ContractArg))

	contract, found := ns.contracts[name]
	if !found {
		return res, xerrors.Errorf("unknown contract '%s'", name)
	}

	buffer := events.NewBuffer()
	step.Events = buffer

	cerr := run(contract, snap, step)
	if cerr != nil {
		bazaar.Logger.Debug().Str("contract", name).Err(cerr).Msg("transaction refused")

		res.Message = cerr.Error()
		res.Err = cerr

		return res, nil
	}

	res.Accepted = true
	res.Events = buffer.Events()

	return res, nil
}

func run(contract Contract, snap store.Snapshot, step execution.Step) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = xerrors.Errorf("contract panicked: %v", r)
		}
	}()

	return contract.Execute(snap, step)
}
