package redis_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type CartRepoError error

var ErrCartNotFound CartRepoError = errors.New("cart snapshot not found")

// 使用 Lua 腳本確保原子性，整份 snapshot 一次覆寫
var saveScript = redis.NewScript(`
	redis.call('DEL', KEYS[2])
	redis.call('HSET', KEYS[1], 'total_quantity', ARGV[2], 'total_price', ARGV[3])
	for i = 4, #ARGV, 2 do
		redis.call('HSET', KEYS[2], ARGV[i], ARGV[i+1])
	end
	local ttl = tonumber(ARGV[1])
	if ttl > 0 then
		redis.call('PEXPIRE', KEYS[1], ttl)
		if #ARGV >= 4 then
			redis.call('PEXPIRE', KEYS[2], ttl)
		end
	end
	return 1
`)

// CartRepo mirrors session cart snapshots in redis. Keys expire with the
// session, so nothing outlives it.
type CartRepo struct {
	CartCache *redis.Client
}

func NewCartRepo(cartCache *redis.Client) *CartRepo {
	if cartCache == nil {
		panic("CartRepo dependency cartCache is nil")
	}
	return &CartRepo{CartCache: cartCache}
}

func generateCartItemKey(sessionID string) string {
	return fmt.Sprintf("cart:%s:items", sessionID)
}

func generateCartMetaKey(sessionID string) string {
	return fmt.Sprintf("cart:%s:meta", sessionID)
}

// storedItem keeps the position so Get can restore item order from a hash.
type storedItem struct {
	Pos int `json:"pos"`
	model.CartItem
}

// Save overwrites the snapshot of a session. ttl <= 0 keeps keys without expiry.
func (r *CartRepo) Save(ctx context.Context, sessionID string, state model.CartState, ttl time.Duration) error {
	args := []interface{}{
		ttl.Milliseconds(),
		state.TotalQuantity,
		state.TotalPrice.String(),
	}
	for i, item := range state.Items {
		b, err := json.Marshal(storedItem{Pos: i, CartItem: item})
		if err != nil {
			return fmt.Errorf("failed to encode cart item %s: %w", item.ID, err)
		}
		args = append(args, item.ID, string(b))
	}

	keys := []string{generateCartMetaKey(sessionID), generateCartItemKey(sessionID)}
	if err := saveScript.Run(ctx, r.CartCache, keys, args...).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Get loads the snapshot of a session.
func (r *CartRepo) Get(ctx context.Context, sessionID string) (model.CartState, error) {
	meta, err := r.CartCache.HGetAll(ctx, generateCartMetaKey(sessionID)).Result()
	if err != nil {
		return model.CartState{}, fmt.Errorf("failed to get cart meta: %w", err)
	}
	if len(meta) == 0 {
		return model.CartState{}, fmt.Errorf("%w: session %s", ErrCartNotFound, sessionID)
	}

	totalQty, err := strconv.Atoi(meta["total_quantity"])
	if err != nil {
		return model.CartState{}, fmt.Errorf("invalid total_quantity for session %s: %w", sessionID, err)
	}
	totalPrice, err := decimal.NewFromString(meta["total_price"])
	if err != nil {
		return model.CartState{}, fmt.Errorf("invalid total_price for session %s: %w", sessionID, err)
	}

	fields, err := r.CartCache.HGetAll(ctx, generateCartItemKey(sessionID)).Result()
	if err != nil {
		return model.CartState{}, fmt.Errorf("failed to get cart items: %w", err)
	}

	stored := make([]storedItem, 0, len(fields))
	for id, raw := range fields {
		var it storedItem
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return model.CartState{}, fmt.Errorf("invalid cart item %s: %w", id, err)
		}
		stored = append(stored, it)
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].Pos < stored[j].Pos })

	state := model.CartState{
		Items:         make([]model.CartItem, 0, len(stored)),
		TotalQuantity: totalQty,
		TotalPrice:    totalPrice,
	}
	for _, it := range stored {
		state.Items = append(state.Items, it.CartItem)
	}
	return state, nil
}

// Touch extends the expiry of a session's keys.
func (r *CartRepo) Touch(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	_, err := r.CartCache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.PExpire(ctx, generateCartMetaKey(sessionID), ttl)
		pipe.PExpire(ctx, generateCartItemKey(sessionID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}

// Delete drops the snapshot of a session.
func (r *CartRepo) Delete(ctx context.Context, sessionID string) error {
	err := r.CartCache.Del(ctx, generateCartMetaKey(sessionID), generateCartItemKey(sessionID)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
