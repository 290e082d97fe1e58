package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"github.com/RoyceAzure/lab/cartstore/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/cartstore/internal/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ManagerTestSuite struct {
	suite.Suite
	mr   *miniredis.Miniredis
	rdb  *redis.Client
	repo *redis_repo.CartRepo
	now  time.Time
}

func (suite *ManagerTestSuite) SetupTest() {
	suite.mr = miniredis.RunT(suite.T())
	suite.rdb = redis.NewClient(&redis.Options{Addr: suite.mr.Addr()})
	suite.repo = redis_repo.NewCartRepo(suite.rdb)
	suite.now = time.Unix(1700000000, 0)
}

func (suite *ManagerTestSuite) TearDownTest() {
	suite.rdb.Close()
}

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func (suite *ManagerTestSuite) newManager(opts ...Option) *Manager {
	opts = append([]Option{WithSnapshotRepo(suite.repo), WithTTL(time.Minute)}, opts...)
	m := NewManager(opts...)
	m.now = func() time.Time { return suite.now }
	return m
}

func laptop(qty int) model.AddItemRequest {
	return model.AddItemRequest{ID: "LAPTOP", Name: "Laptop", Price: decimal.RequireFromString("999.99"), Quantity: qty}
}

func (suite *ManagerTestSuite) TestGetReturnsSameStore() {
	m := suite.newManager()
	ctx := context.Background()

	s1, err := m.Get(ctx, "s1")
	require.NoError(suite.T(), err)
	s2, err := m.Get(ctx, "s1")
	require.NoError(suite.T(), err)
	other, err := m.Get(ctx, "s2")
	require.NoError(suite.T(), err)

	assert.Same(suite.T(), s1, s2)
	assert.NotSame(suite.T(), s1, other)
	assert.True(suite.T(), s1.State().IsEmpty())
	assert.Equal(suite.T(), 2, m.Len())
}

func (suite *ManagerTestSuite) TestConcurrentFirstAccess() {
	m := suite.newManager()
	ctx := context.Background()

	var wg sync.WaitGroup
	stores := make([]*store.Store, 20)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Get(ctx, "s1")
			assert.NoError(suite.T(), err)
			stores[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range stores[1:] {
		assert.Same(suite.T(), stores[0], s)
	}
}

func (suite *ManagerTestSuite) TestSnapshotSurvivesRestart() {
	ctx := context.Background()
	m := suite.newManager()
	s, err := m.Get(ctx, "s1")
	require.NoError(suite.T(), err)
	_, _, err = s.AddItem(ctx, laptop(2))
	require.NoError(suite.T(), err)

	restarted := suite.newManager()
	s, err = restarted.Get(ctx, "s1")
	require.NoError(suite.T(), err)

	state := s.State()
	require.Len(suite.T(), state.Items, 1)
	assert.Equal(suite.T(), 2, state.TotalQuantity)
	assert.True(suite.T(), decimal.RequireFromString("1999.98").Equal(state.TotalPrice))
}

func (suite *ManagerTestSuite) TestEndDiscardsCart() {
	ctx := context.Background()
	m := suite.newManager()
	s, err := m.Get(ctx, "s1")
	require.NoError(suite.T(), err)
	_, _, err = s.AddItem(ctx, laptop(1))
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), m.End(ctx, "s1"))

	_, err = suite.repo.Get(ctx, "s1")
	assert.ErrorIs(suite.T(), err, redis_repo.ErrCartNotFound)

	// 已結束的 store 不再寫回
	_, _, err = s.AddItem(ctx, laptop(1))
	require.NoError(suite.T(), err)
	_, err = suite.repo.Get(ctx, "s1")
	assert.ErrorIs(suite.T(), err, redis_repo.ErrCartNotFound)

	fresh, err := m.Get(ctx, "s1")
	require.NoError(suite.T(), err)
	assert.NotSame(suite.T(), s, fresh)
	assert.True(suite.T(), fresh.State().IsEmpty())
}

func (suite *ManagerTestSuite) TestSweepEvictsIdleSessions() {
	ctx := context.Background()
	m := suite.newManager()
	_, err := m.Get(ctx, "idle")
	require.NoError(suite.T(), err)

	suite.now = suite.now.Add(40 * time.Second)
	_, err = m.Get(ctx, "active")
	require.NoError(suite.T(), err)

	suite.now = suite.now.Add(30 * time.Second)

	assert.Equal(suite.T(), 1, m.Sweep())
	assert.Equal(suite.T(), 1, m.Len())
}

func (suite *ManagerTestSuite) TestExpiredSessionStartsOver() {
	ctx := context.Background()
	m := suite.newManager()
	s, err := m.Get(ctx, "s1")
	require.NoError(suite.T(), err)
	_, _, err = s.AddItem(ctx, laptop(1))
	require.NoError(suite.T(), err)

	suite.now = suite.now.Add(2 * time.Minute)
	suite.mr.FastForward(2 * time.Minute)

	fresh, err := m.Get(ctx, "s1")
	require.NoError(suite.T(), err)
	assert.NotSame(suite.T(), s, fresh)
	assert.True(suite.T(), fresh.State().IsEmpty())
}

func (suite *ManagerTestSuite) TestExpiredStoreStopsWriting() {
	ctx := context.Background()
	m := suite.newManager()
	old, err := m.Get(ctx, "s1")
	require.NoError(suite.T(), err)

	suite.now = suite.now.Add(2 * time.Minute)
	suite.mr.FastForward(2 * time.Minute)

	fresh, err := m.Get(ctx, "s1")
	require.NoError(suite.T(), err)
	require.NotSame(suite.T(), old, fresh)

	// 仍握著舊 store 的請求不能蓋掉新 session 的快照
	_, _, err = old.AddItem(ctx, laptop(3))
	require.NoError(suite.T(), err)
	_, err = suite.repo.Get(ctx, "s1")
	assert.ErrorIs(suite.T(), err, redis_repo.ErrCartNotFound)

	_, _, err = fresh.AddItem(ctx, laptop(1))
	require.NoError(suite.T(), err)
	snap, err := suite.repo.Get(ctx, "s1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, snap.TotalQuantity)
}

func (suite *ManagerTestSuite) TestSweptStoreStopsWriting() {
	ctx := context.Background()
	m := suite.newManager()
	s, err := m.Get(ctx, "s1")
	require.NoError(suite.T(), err)

	suite.now = suite.now.Add(2 * time.Minute)
	suite.mr.FastForward(2 * time.Minute)
	require.Equal(suite.T(), 1, m.Sweep())

	_, _, err = s.AddItem(ctx, laptop(1))
	require.NoError(suite.T(), err)
	_, err = suite.repo.Get(ctx, "s1")
	assert.ErrorIs(suite.T(), err, redis_repo.ErrCartNotFound)
}

func (suite *ManagerTestSuite) TestStoreOptionsApplied() {
	ctx := context.Background()
	m := suite.newManager(WithStoreOptions(store.WithStrictValidation()))
	s, err := m.Get(ctx, "s1")
	require.NoError(suite.T(), err)

	_, _, err = s.AddItem(ctx, model.AddItemRequest{ID: "x", Name: "X", Price: decimal.NewFromInt(-1), Quantity: 1})

	assert.Error(suite.T(), err)
}

func TestManager_WithoutRepo(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	s, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	_, _, err = s.AddItem(ctx, laptop(1))
	require.NoError(t, err)

	require.NoError(t, m.End(ctx, "s1"))
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 30*time.Minute, m.TTL())
}

func TestManager_EmptySessionID(t *testing.T) {
	m := NewManager()

	_, err := m.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptySessionID)
	assert.ErrorIs(t, m.End(context.Background(), ""), ErrEmptySessionID)
}

type brokenRepo struct{}

var errDown = errors.New("redis down")

func (brokenRepo) Save(context.Context, string, model.CartState, time.Duration) error { return errDown }
func (brokenRepo) Get(context.Context, string) (model.CartState, error) {
	return model.CartState{}, errDown
}
func (brokenRepo) Touch(context.Context, string, time.Duration) error { return errDown }
func (brokenRepo) Delete(context.Context, string) error               { return errDown }

func TestManager_RepoFailure(t *testing.T) {
	m := NewManager(WithSnapshotRepo(brokenRepo{}))

	_, err := m.Get(context.Background(), "s1")

	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, 0, m.Len())
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

// gatedRepo holds Get until released, saves go to the wrapped repo.
type gatedRepo struct {
	SnapshotRepo
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRepo) Get(ctx context.Context, sessionID string) (model.CartState, error) {
	close(r.entered)
	<-r.release
	return r.SnapshotRepo.Get(ctx, sessionID)
}

func (suite *ManagerTestSuite) TestEndDuringFirstLoad() {
	ctx := context.Background()
	item := model.CartItem{ID: "LAPTOP", Name: "Laptop", Price: decimal.RequireFromString("10"), Quantity: 2}
	require.NoError(suite.T(), suite.repo.Save(ctx, "s1", model.CartState{
		Items:         []model.CartItem{item},
		TotalQuantity: 2,
		TotalPrice:    decimal.RequireFromString("20"),
	}, time.Minute))

	repo := &gatedRepo{SnapshotRepo: suite.repo, entered: make(chan struct{}), release: make(chan struct{})}
	m := suite.newManager(WithSnapshotRepo(repo))

	type result struct {
		s   *store.Store
		err error
	}
	got := make(chan result, 1)
	go func() {
		s, err := m.Get(ctx, "s1")
		got <- result{s, err}
	}()

	<-repo.entered
	require.NoError(suite.T(), m.End(ctx, "s1"))
	close(repo.release)

	res := <-got
	require.NoError(suite.T(), res.err)
	assert.True(suite.T(), res.s.State().IsEmpty())
	assert.Equal(suite.T(), 1, m.Len())

	_, err := suite.repo.Get(ctx, "s1")
	assert.ErrorIs(suite.T(), err, redis_repo.ErrCartNotFound)
}
