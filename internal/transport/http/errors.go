package http

import (
	"errors"

	cartapplication "github.com/pawmart/pawmart-api/internal/domains/cart/application"
	cartdomain "github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	cartports "github.com/pawmart/pawmart-api/internal/domains/cart/ports"
	catalogapplication "github.com/pawmart/pawmart-api/internal/domains/catalog/application"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	catalogports "github.com/pawmart/pawmart-api/internal/domains/catalog/ports"
	ordersdomain "github.com/pawmart/pawmart-api/internal/domains/orders/domain"
	ordersports "github.com/pawmart/pawmart-api/internal/domains/orders/ports"
	settingsdomain "github.com/pawmart/pawmart-api/internal/domains/settings/domain"
	settingsports "github.com/pawmart/pawmart-api/internal/domains/settings/ports"
	sharederrors "github.com/pawmart/pawmart-api/internal/shared/errors"
)

// newResponder builds the responder used by every handler: business errors
// map to their problem shapes, anything unmatched falls through as an
// internal error.
func newResponder() *sharederrors.ChainedResponder {
	return sharederrors.NewChainedResponder("",
		conflictMapper,
		validationMapper,
		notFoundMapper,
	)
}

func conflictMapper(err error) (sharederrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, cartdomain.ErrAlreadyReserved):
		return sharederrors.NewConflictProblem("already_reserved", "this pet is already reserved by another customer"), true
	case errors.Is(err, cartdomain.ErrItemUnavailable):
		return sharederrors.NewConflictProblem("item_unavailable", "this pet is not available for reservation"), true
	case errors.Is(err, catalogdomain.ErrPetReserved):
		return sharederrors.NewConflictProblem("pet_reserved", "this pet is reserved and cannot be deleted"), true
	case errors.Is(err, ordersdomain.ErrCartExpired):
		return sharederrors.NewConflictProblem("cart_expired", "cart reservations expired; add the items again"), true
	case errors.Is(err, ordersdomain.ErrInvalidTransition):
		return sharederrors.NewConflictProblem("invalid_transition", "the order cannot move to the requested status"), true
	}
	return sharederrors.ProblemDetail{}, false
}

func validationMapper(err error) (sharederrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ordersdomain.ErrEmptyCart):
		return sharederrors.ErrValidation.WithDetail("cart is empty"), true
	case errors.Is(err, ordersdomain.ErrValidationFailed),
		errors.Is(err, cartapplication.ErrInvalidInput),
		errors.Is(err, catalogapplication.ErrInvalidInput),
		errors.Is(err, settingsdomain.ErrIncompatibleValue),
		errors.Is(err, settingsdomain.ErrInvalidType),
		errors.Is(err, settingsdomain.ErrInvalidKey),
		errors.Is(err, ordersdomain.ErrInvalidDeliveryStatus):
		return sharederrors.ErrValidation.WithDetail(err.Error()), true
	}
	return sharederrors.ProblemDetail{}, false
}

func notFoundMapper(err error) (sharederrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, catalogports.ErrNotFound),
		errors.Is(err, cartports.ErrPetNotFound),
		errors.Is(err, ordersports.ErrPetNotFound):
		return sharederrors.ErrNotFound.WithDetail("pet not found"), true
	case errors.Is(err, cartports.ErrLockNotFound):
		return sharederrors.ErrNotFound.WithDetail("cart item not found"), true
	case errors.Is(err, ordersports.ErrOrderNotFound):
		return sharederrors.ErrNotFound.WithDetail("order not found"), true
	case errors.Is(err, ordersports.ErrDeliveryNotFound):
		return sharederrors.ErrNotFound.WithDetail("delivery not found"), true
	case errors.Is(err, settingsports.ErrNotFound):
		return sharederrors.ErrNotFound.WithDetail("setting not found"), true
	}
	return sharederrors.ProblemDetail{}, false
}
