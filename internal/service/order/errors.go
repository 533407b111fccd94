package order

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCartEmpty is returned when placement finds no positive-quantity
	// cart rows for the user.
	ErrCartEmpty = errors.New("cart empty")

	// ErrNumberExhausted is returned when order number generation keeps
	// colliding with the unique index.
	ErrNumberExhausted = errors.New("could not generate a unique order number")

	ErrBadPaymentStatus = errors.New("invalid payment_status")
)

// ValidationError names every missing address field so the client can fix
// them all in one round trip.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required address fields: " + strings.Join(e.Missing, ", ")
}

// ItemError points at the cart line that blocked placement.
type ItemError struct {
	FoodID      uint
	Name        string
	Unavailable bool
}

func (e *ItemError) Error() string {
	if e.Unavailable {
		return fmt.Sprintf("food item %q (id %d) is currently unavailable", e.Name, e.FoodID)
	}
	return fmt.Sprintf("food item %d no longer exists", e.FoodID)
}
