package application

import (
	"errors"
	"fmt"

	"github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	"github.com/pawmart/pawmart-api/internal/domains/cart/ports"
)

var (
	// ErrInvalidInput signals the request violated a cart invariant.
	ErrInvalidInput = errors.New("invalid cart input")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	// The unique constraint on pet_id is the authoritative arbiter of a
	// concurrent acquire race; the loser sees the same error as a plain
	// conflict check.
	if errors.Is(err, ports.ErrDuplicateLock) {
		return domain.ErrAlreadyReserved
	}
	if errors.Is(err, domain.ErrInvalidOwner) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
