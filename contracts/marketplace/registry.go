package marketplace

import (
	"go.dedis.ch/bazaar/core/store"
	"golang.org/x/xerrors"
)

// registry owns the user profiles, keyed by address. It also keeps the order
// of registration so that the users can be scanned.
type registry struct{}

// register creates the profile of the caller with a zero reputation.
func (r registry) register(snap store.Snapshot, caller Address, role Role) error {
	_, ok := roleNames[role]
	if !ok {
		return xerrors.Errorf("unknown role %d", role)
	}

	_, found, err := r.lookup(snap, caller)
	if err != nil {
		return err
	}

	if found {
		return xerrors.Errorf("user '%s': %w", caller, ErrAlreadyRegistered)
	}

	index, err := nextIndex(snap, usersCount)
	if err != nil {
		return err
	}

	err = snap.Set(userIndexKey(index), []byte(caller))
	if err != nil {
		return xerrors.Errorf("failed to index user: %v", err)
	}

	user := User{
		Address: caller,
		Role:    role,
	}

	return writeRecord(snap, userKey(caller), user)
}

func (registry) lookup(snap store.Readable, addr Address) (User, bool, error) {
	var user User

	found, err := readRecord(snap, userKey(addr), &user)
	if err != nil {
		return User{}, false, err
	}

	return user, found, nil
}

// hasRole returns false when the address is not registered.
func (r registry) hasRole(snap store.Readable, addr Address, role Role) (bool, error) {
	user, found, err := r.lookup(snap, addr)
	if err != nil {
		return false, err
	}

	return found && user.Role.Satisfies(role), nil
}

// all returns the users in the order of registration.
func (r registry) all(snap store.Readable) ([]User, error) {
	count, err := readCount(snap, usersCount)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, count)

	for i := uint32(0); i < count; i++ {
		addr, err := snap.Get(userIndexKey(i))
		if err != nil {
			return nil, xerrors.Errorf("failed to read user index %d: %v", i, err)
		}

		user, found, err := r.lookup(snap, Address(addr))
		if err != nil {
			return nil, err
		}

		if !found {
			return nil, xerrors.Errorf("missing user '%s' at index %d", addr, i)
		}

		users = append(users, user)
	}

	return users, nil
}
