package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// LocalLimiter keeps one token bucket per key in process memory. Tokens are
// refilled lazily on Allow; a background sweep drops buckets idle for IdleTTL.
//
// 請使用 defer 呼叫 Stop()
type LocalLimiter struct {
	Config
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	cancel  chan struct{}
	once    sync.Once
}

func NewLocalLimiter(cfg Config) *LocalLimiter {
	l := &LocalLimiter{
		Config:  cfg.withDefaults(),
		buckets: make(map[string]*bucket),
		now:     time.Now,
		cancel:  make(chan struct{}),
	}
	go l.background()
	return l
}

// Allow takes one token from key's bucket, creating a full bucket on first use.
func (l *LocalLimiter) Allow(_ context.Context, key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.Capacity), lastRefill: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
		b.tokens += elapsed.Seconds() * float64(l.RatePS)
		if b.tokens > float64(l.Capacity) {
			b.tokens = float64(l.Capacity)
		}
		b.lastRefill = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Sweep drops buckets idle for longer than IdleTTL and returns how many.
func (l *LocalLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastRefill) > l.IdleTTL {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *LocalLimiter) background() {
	interval := l.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.cancel:
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

func (l *LocalLimiter) Stop() {
	l.once.Do(func() {
		close(l.cancel)
	})
}
