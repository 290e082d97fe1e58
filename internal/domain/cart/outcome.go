package cart

import (
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
)

// Outcome tells callers what a transition did. Unknown ids are never an
// error; they come back as OutcomeNotFound with the snapshot untouched.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeNotFound
	OutcomeInvalidQuantity
	OutcomeInvalidPrice
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInvalidQuantity:
		return "invalid_quantity"
	case OutcomeInvalidPrice:
		return "invalid_price"
	default:
		return "unknown"
	}
}

// Result describes one transition.
type Result struct {
	Outcome Outcome
	// Merged is set when AddItem grew an existing line.
	Merged bool
	// Item is the affected line after the transition; for RemoveItem it is
	// the removed line.
	Item        model.CartItem
	OldQuantity int
}

// Applied reports whether the snapshot changed.
func (r Result) Applied() bool {
	return r.Outcome == OutcomeApplied
}

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidPrice    = errors.New("price must not be negative")
)

// OutcomeError carries a rejected validation outcome.
type OutcomeError struct {
	Outcome Outcome
	Err     error
}

func (e *OutcomeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Outcome, e.Err)
}

func (e *OutcomeError) Unwrap() error {
	return e.Err
}
