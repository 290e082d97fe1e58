package store

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/cartstore/internal/domain/cart"
	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	cmd_model "github.com/RoyceAzure/lab/cartstore/internal/domain/model/command"
	evt_model "github.com/RoyceAzure/lab/cartstore/internal/domain/model/event"
)

type HandlerError error

var (
	ErrHandlerNotFound HandlerError = errors.New("handler not found")
	errCartCommand     HandlerError = errors.New("cart_command_format_error")
)

// Transition is what a handler produces. Event is nil when nothing changed.
type Transition struct {
	State  model.CartState
	Result cart.Result
	Event  evt_model.Event
}

type HandlerFunc func(ctx context.Context, sessionID string, state model.CartState, cmd cmd_model.Command) (Transition, error)

func (f HandlerFunc) HandleCommand(ctx context.Context, sessionID string, state model.CartState, cmd cmd_model.Command) (Transition, error) {
	return f(ctx, sessionID, state, cmd)
}

type Handler interface {
	HandleCommand(ctx context.Context, sessionID string, state model.CartState, cmd cmd_model.Command) (Transition, error)
}

type HandlerDispatcher struct {
	handlers map[cmd_model.CommandType]Handler
}

func NewHandlerDispatcher(handlers map[cmd_model.CommandType]Handler) *HandlerDispatcher {
	return &HandlerDispatcher{handlers: handlers}
}

func (d *HandlerDispatcher) HandleCommand(ctx context.Context, sessionID string, state model.CartState, cmd cmd_model.Command) (Transition, error) {
	handler, ok := d.handlers[cmd.Type()]
	if !ok {
		return Transition{}, ErrHandlerNotFound
	}
	return handler.HandleCommand(ctx, sessionID, state, cmd)
}

// NewCartHandler routes the four cart commands to the pure transitions.
func NewCartHandler() *HandlerDispatcher {
	return NewHandlerDispatcher(map[cmd_model.CommandType]Handler{
		cmd_model.AddItemCommandName:        HandlerFunc(handleAddItem),
		cmd_model.RemoveItemCommandName:     HandlerFunc(handleRemoveItem),
		cmd_model.UpdateQuantityCommandName: HandlerFunc(handleUpdateQuantity),
		cmd_model.ClearCartCommandName:      HandlerFunc(handleClearCart),
	})
}

func handleAddItem(_ context.Context, sessionID string, state model.CartState, cmd cmd_model.Command) (Transition, error) {
	c, ok := cmd.(*cmd_model.AddItemCommand)
	if !ok {
		return Transition{}, errCartCommand
	}
	next, res := cart.AddItem(state, c.Item)
	return Transition{
		State:  next,
		Result: res,
		Event:  evt_model.NewCartItemAddedEvent(sessionID, res.Item, c.Item.RequestedQuantity(), res.Merged, next),
	}, nil
}

func handleRemoveItem(_ context.Context, sessionID string, state model.CartState, cmd cmd_model.Command) (Transition, error) {
	c, ok := cmd.(*cmd_model.RemoveItemCommand)
	if !ok {
		return Transition{}, errCartCommand
	}
	next, res := cart.RemoveItem(state, c.ItemID)
	if !res.Applied() {
		return Transition{State: next, Result: res}, nil
	}
	return Transition{
		State:  next,
		Result: res,
		Event:  evt_model.NewCartItemRemovedEvent(sessionID, res.Item, next),
	}, nil
}

func handleUpdateQuantity(_ context.Context, sessionID string, state model.CartState, cmd cmd_model.Command) (Transition, error) {
	c, ok := cmd.(*cmd_model.UpdateQuantityCommand)
	if !ok {
		return Transition{}, errCartCommand
	}
	next, res := cart.UpdateQuantity(state, c.ItemID, c.Quantity)
	if !res.Applied() {
		return Transition{State: next, Result: res}, nil
	}
	return Transition{
		State:  next,
		Result: res,
		Event:  evt_model.NewCartQuantityUpdatedEvent(sessionID, c.ItemID, res.OldQuantity, c.Quantity, next),
	}, nil
}

func handleClearCart(_ context.Context, sessionID string, state model.CartState, cmd cmd_model.Command) (Transition, error) {
	if _, ok := cmd.(*cmd_model.ClearCartCommand); !ok {
		return Transition{}, errCartCommand
	}
	next, res := cart.ClearCart(state)
	return Transition{
		State:  next,
		Result: res,
		Event:  evt_model.NewCartClearedEvent(sessionID, next),
	}, nil
}
