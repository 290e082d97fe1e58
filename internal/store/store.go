package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/RoyceAzure/lab/cartstore/internal/domain/cart"
	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	cmd_model "github.com/RoyceAzure/lab/cartstore/internal/domain/model/command"
	"github.com/rs/zerolog"
)

// ChangeFunc runs after every applied transition while the store is still
// locked, before the event is published. Errors are logged; the new snapshot
// is kept either way.
type ChangeFunc func(ctx context.Context, sessionID string, state model.CartState) error

// Store holds the current snapshot of one cart and is its only writer.
// Commands go through Dispatch one at a time; State never blocks on them.
type Store struct {
	sessionID string
	mu        sync.Mutex
	state     atomic.Pointer[model.CartState]
	handler   Handler
	publisher Publisher
	strict    bool
	onChange  []ChangeFunc
	logger    zerolog.Logger
	// 已套用的轉換數，作為事件版本
	version uint64
}

type Option func(*Store)

func WithInitialState(state model.CartState) Option {
	return func(s *Store) {
		st := state.Clone()
		s.state.Store(&st)
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// WithStrictValidation rejects non-positive quantities and negative prices
// instead of applying them.
func WithStrictValidation() Option {
	return func(s *Store) {
		s.strict = true
	}
}

func WithOnChange(fn ChangeFunc) Option {
	return func(s *Store) {
		s.onChange = append(s.onChange, fn)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store starting from the empty cart.
func New(sessionID string, opts ...Option) *Store {
	s := &Store{
		sessionID: sessionID,
		handler:   NewCartHandler(),
		logger:    zerolog.Nop(),
	}
	empty := model.EmptyCart()
	s.state.Store(&empty)

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("session_id", sessionID).Logger()
	return s
}

func (s *Store) SessionID() string {
	return s.sessionID
}

// State returns a copy of the current snapshot.
func (s *Store) State() model.CartState {
	return s.state.Load().Clone()
}

// Dispatch applies one command and returns the resulting snapshot.
// Unknown item ids are not errors: the snapshot is returned unchanged with
// cart.OutcomeNotFound. In strict mode invalid input comes back as a
// *cart.OutcomeError together with the unchanged snapshot.
func (s *Store) Dispatch(ctx context.Context, cmd cmd_model.Command) (model.CartState, cart.Result, error) {
	if err := ctx.Err(); err != nil {
		return s.State(), cart.Result{}, err
	}

	if s.strict {
		if err := cart.Validate(cmd); err != nil {
			var outErr *cart.OutcomeError
			res := cart.Result{}
			if errors.As(err, &outErr) {
				res.Outcome = outErr.Outcome
			}
			s.logger.Warn().Err(err).Str("command", string(cmd.Type())).Msg("command rejected")
			return s.State(), res, err
		}
	}

	next, tr, err := s.apply(ctx, cmd)
	if err != nil || !tr.Result.Applied() {
		return next, tr.Result, err
	}

	// 發布在鎖外，順序由事件版本保證
	if s.publisher != nil && tr.Event != nil {
		if err := s.publisher.Publish(ctx, tr.Event); err != nil {
			s.logger.Error().Err(err).
				Str("event", string(tr.Event.Type())).
				Uint64("version", tr.Event.GetVersion()).
				Msg("failed to publish cart event")
		}
	}

	s.logger.Debug().
		Str("command", string(cmd.Type())).
		Int("total_quantity", next.TotalQuantity).
		Str("total_price", next.TotalPrice.String()).
		Msg("command applied")

	return next, tr.Result, nil
}

// apply runs the transition and the change hooks under the store lock.
func (s *Store) apply(ctx context.Context, cmd cmd_model.Command) (model.CartState, Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := *s.state.Load()
	tr, err := s.handler.HandleCommand(ctx, s.sessionID, current, cmd)
	if err != nil {
		return current.Clone(), tr, err
	}

	if !tr.Result.Applied() {
		s.logger.Debug().
			Str("command", string(cmd.Type())).
			Str("outcome", tr.Result.Outcome.String()).
			Msg("command ignored")
		return current.Clone(), tr, nil
	}

	if c, ok := cmd.(*cmd_model.AddItemCommand); ok && tr.Result.Merged && !c.Item.Price.Equal(tr.Result.Item.Price) {
		s.logger.Warn().
			Str("item_id", c.Item.ID).
			Str("stored_price", tr.Result.Item.Price.String()).
			Str("requested_price", c.Item.Price.String()).
			Msg("price mismatch on merge, stored price kept")
	}

	next := tr.State
	s.state.Store(&next)

	for _, fn := range s.onChange {
		if err := fn(ctx, s.sessionID, next.Clone()); err != nil {
			s.logger.Error().Err(err).Msg("cart change hook failed")
		}
	}

	s.version++
	if tr.Event != nil {
		tr.Event.SetVersion(s.version)
	}
	return next.Clone(), tr, nil
}

func (s *Store) AddItem(ctx context.Context, req model.AddItemRequest) (model.CartState, cart.Result, error) {
	return s.Dispatch(ctx, cmd_model.NewAddItemCommand(req))
}

func (s *Store) RemoveItem(ctx context.Context, id string) (model.CartState, cart.Result, error) {
	return s.Dispatch(ctx, cmd_model.NewRemoveItemCommand(id))
}

func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) (model.CartState, cart.Result, error) {
	return s.Dispatch(ctx, cmd_model.NewUpdateQuantityCommand(id, quantity))
}

func (s *Store) ClearCart(ctx context.Context) (model.CartState, cart.Result, error) {
	return s.Dispatch(ctx, cmd_model.NewClearCartCommand())
}
