package ratelimit

import "time"

type Config struct {
	Key      string
	Capacity int
	RatePS   int // tokens/秒
	// 閒置超過 IdleTTL 的 bucket 會被清掉，通常等於 session 壽命
	IdleTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Key:      "global",
		Capacity: 100,
		RatePS:   20,
		IdleTTL:  30 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Key == "" {
		c.Key = d.Key
	}
	if c.Capacity <= 0 {
		c.Capacity = d.Capacity
	}
	if c.RatePS <= 0 {
		c.RatePS = d.RatePS
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = d.IdleTTL
	}
	return c
}
