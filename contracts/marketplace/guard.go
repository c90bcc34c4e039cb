package marketplace

import (
	"go.dedis.ch/bazaar/core/store"
	"golang.org/x/xerrors"
)

// guard composes the checks that precede every mutation. The registration is
// checked before the role, and the role before the quantity.
type guard struct {
	registry registry
}

func (g guard) mustBeRegistered(snap store.Readable, addr Address) (User, error) {
	user, found, err := g.registry.lookup(snap, addr)
	if err != nil {
		return User{}, err
	}

	if !found {
		return User{}, xerrors.Errorf("user '%s': %w", addr, ErrNotRegistered)
	}

	return user, nil
}

func (g guard) mustHaveRole(snap store.Readable, addr Address, role Role) (User, error) {
	user, err := g.mustBeRegistered(snap, addr)
	if err != nil {
		return User{}, err
	}

	if !user.Role.Satisfies(role) {
		return User{}, xerrors.Errorf("user '%s' is %v and not %v: %w",
			addr, user.Role, role, ErrWrongRole)
	}

	return user, nil
}

func (g guard) mustBePositive(quantity uint64) error {
	if quantity == 0 {
		return xerrors.Errorf("quantity must be positive: %w", ErrInsufficientQuantity)
	}

	return nil
}
