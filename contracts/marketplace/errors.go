package marketplace

import "golang.org/x/xerrors"

// The kinds of failure of the marketplace. A failed call returns an error that
// wraps exactly one of them.
var (
	ErrAlreadyRegistered    = xerrors.New("already registered")
	ErrNotRegistered        = xerrors.New("not registered")
	ErrWrongRole            = xerrors.New("wrong role")
	ErrInsufficientQuantity = xerrors.New("insufficient quantity")
	ErrProductNotFound      = xerrors.New("product not found")
	ErrOrderNotFound        = xerrors.New("order not found")
	ErrForbidden            = xerrors.New("forbidden")
	ErrInvalidTransition    = xerrors.New("invalid transition")
)

var kinds = []error{
	ErrAlreadyRegistered,
	ErrNotRegistered,
	ErrWrongRole,
	ErrInsufficientQuantity,
	ErrProductNotFound,
	ErrOrderNotFound,
	ErrForbidden,
	ErrInvalidTransition,
}

// KindOf returns the kind of failure wrapped by the error, or nil if the error
// is not a marketplace failure.
func KindOf(err error) error {
	for _, kind := range kinds {
		if xerrors.Is(err, kind) {
			return kind
		}
	}

	return nil
}
