package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"github.com/RoyceAzure/lab/cartstore/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/cartstore/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	ErrEmptySessionID  = errors.New("session id is empty")
	ErrSnapshotMissing = redis_repo.ErrCartNotFound
)

// SnapshotRepo mirrors cart snapshots for the lifetime of a session.
// *redis_repo.CartRepo implements it.
type SnapshotRepo interface {
	Save(ctx context.Context, sessionID string, state model.CartState, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (model.CartState, error)
	Touch(ctx context.Context, sessionID string, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

type entry struct {
	store    *store.Store
	lastSeen atomic.Int64
	// saveMu 讓 end 等進行中的寫回結束
	saveMu sync.Mutex
	ended  bool
}

// end stops the entry's store from writing snapshots. It returns after any
// in-flight save.
func (e *entry) end() {
	e.saveMu.Lock()
	e.ended = true
	e.saveMu.Unlock()
}

// loading marks a session whose snapshot is being read. End flags it so the
// load does not bring the cart back.
type loading struct {
	ended bool
}

// Manager owns one Store per session.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*entry
	loading   map[string]*loading
	group     singleflight.Group
	repo      SnapshotRepo
	ttl       time.Duration
	storeOpts []store.Option
	logger    zerolog.Logger
	now       func() time.Time
}

type Option func(*Manager)

func WithSnapshotRepo(repo SnapshotRepo) Option {
	return func(m *Manager) {
		m.repo = repo
	}
}

// WithTTL sets how long an idle session lives. Default 30m.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithStoreOptions are applied to every Store the manager creates.
func WithStoreOptions(opts ...store.Option) Option {
	return func(m *Manager) {
		m.storeOpts = append(m.storeOpts, opts...)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*entry),
		loading:  make(map[string]*loading),
		ttl:      30 * time.Minute,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Get returns the store of a session, creating it on first use. A snapshot
// left in the repo by an earlier process is restored.
func (m *Manager) Get(ctx context.Context, sessionID string) (*store.Store, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	if e := m.lookup(sessionID); e != nil {
		m.touch(ctx, sessionID, e)
		return e.store, nil
	}

	v, err, _ := m.group.Do(sessionID, func() (interface{}, error) {
		if e := m.lookup(sessionID); e != nil {
			return e, nil
		}
		return m.create(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*entry).store, nil
}

func (m *Manager) lookup(sessionID string) *entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[sessionID]
	if !ok || m.expired(e) {
		return nil
	}
	return e
}

func (m *Manager) expired(e *entry) bool {
	return m.now().Sub(time.Unix(0, e.lastSeen.Load())) > m.ttl
}

// create runs inside the singleflight group, so there is at most one per session.
func (m *Manager) create(ctx context.Context, sessionID string) (*entry, error) {
	ticket := &loading{}
	m.mu.Lock()
	old := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.loading[sessionID] = ticket
	m.mu.Unlock()

	// 過期的舊 store 先停止寫回，下面讀到的就是它最後的快照
	if old != nil {
		old.end()
	}

	initial, err := m.load(ctx, sessionID)
	if err != nil {
		m.mu.Lock()
		delete(m.loading, sessionID)
		m.mu.Unlock()
		return nil, err
	}

	e := &entry{}
	e.lastSeen.Store(m.now().UnixNano())

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.loading, sessionID)
	if ticket.ended {
		initial = model.EmptyCart()
	}

	opts := []store.Option{
		store.WithInitialState(initial),
		store.WithLogger(m.logger),
	}
	opts = append(opts, m.storeOpts...)
	if m.repo != nil {
		opts = append(opts, store.WithOnChange(m.saveSnapshot(e)))
	}
	e.store = store.New(sessionID, opts...)
	m.sessions[sessionID] = e

	m.logger.Debug().Str("session_id", sessionID).Int("items", len(initial.Items)).Msg("session started")
	return e, nil
}

func (m *Manager) load(ctx context.Context, sessionID string) (model.CartState, error) {
	if m.repo == nil {
		return model.EmptyCart(), nil
	}
	snap, err := m.repo.Get(ctx, sessionID)
	switch {
	case err == nil:
		if verr := snap.CheckInvariants(); verr != nil {
			m.logger.Warn().Err(verr).Str("session_id", sessionID).Msg("discard inconsistent snapshot")
			return model.EmptyCart(), nil
		}
		return snap, nil
	case errors.Is(err, ErrSnapshotMissing):
		return model.EmptyCart(), nil
	default:
		return model.CartState{}, fmt.Errorf("load snapshot of session %s: %w", sessionID, err)
	}
}

func (m *Manager) saveSnapshot(e *entry) store.ChangeFunc {
	return func(ctx context.Context, sessionID string, state model.CartState) error {
		e.saveMu.Lock()
		defer e.saveMu.Unlock()
		if e.ended {
			return nil
		}
		e.lastSeen.Store(m.now().UnixNano())
		return m.repo.Save(ctx, sessionID, state, m.ttl)
	}
}

func (m *Manager) touch(ctx context.Context, sessionID string, e *entry) {
	e.lastSeen.Store(m.now().UnixNano())
	if m.repo == nil {
		return
	}
	if err := m.repo.Touch(ctx, sessionID, m.ttl); err != nil {
		m.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to extend snapshot ttl")
	}
}

// End discards the cart of a session, in memory and in the repo.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	if l, loadingNow := m.loading[sessionID]; loadingNow {
		l.ended = true
	}
	m.mu.Unlock()
	if ok {
		e.end()
	}

	if m.repo != nil {
		if err := m.repo.Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("end session %s: %w", sessionID, err)
		}
	}
	m.logger.Debug().Str("session_id", sessionID).Msg("session ended")
	return nil
}

// Sweep drops idle sessions from memory and returns how many were dropped.
// Their repo snapshots expire on their own.
func (m *Manager) Sweep() int {
	var evicted []*entry
	m.mu.Lock()
	for id, e := range m.sessions {
		if m.expired(e) {
			delete(m.sessions, id)
			evicted = append(evicted, e)
		}
	}
	m.mu.Unlock()

	for _, e := range evicted {
		e.end()
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info().Int("count", n).Msg("idle sessions evicted")
			}
		}
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
