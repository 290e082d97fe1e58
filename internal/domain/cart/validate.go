package cart

import (
	"fmt"

	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	cmd_model "github.com/RoyceAzure/lab/cartstore/internal/domain/model/command"
)

// Validate is the opt-in strict check run before a transition. It returns an
// *OutcomeError for non-positive quantities and negative prices; unknown ids
// are not its concern.
func Validate(cmd cmd_model.Command) error {
	switch c := cmd.(type) {
	case *cmd_model.AddItemCommand:
		return validateAdd(c.Item)
	case *cmd_model.UpdateQuantityCommand:
		if c.Quantity < 1 {
			return &OutcomeError{
				Outcome: OutcomeInvalidQuantity,
				Err:     fmt.Errorf("%w: item %s got %d", ErrInvalidQuantity, c.ItemID, c.Quantity),
			}
		}
	}
	return nil
}

func validateAdd(req model.AddItemRequest) error {
	if req.RequestedQuantity() < 1 {
		return &OutcomeError{
			Outcome: OutcomeInvalidQuantity,
			Err:     fmt.Errorf("%w: item %s got %d", ErrInvalidQuantity, req.ID, req.Quantity),
		}
	}
	if req.Price.IsNegative() {
		return &OutcomeError{
			Outcome: OutcomeInvalidPrice,
			Err:     fmt.Errorf("%w: item %s got %s", ErrInvalidPrice, req.ID, req.Price),
		}
	}
	return nil
}
