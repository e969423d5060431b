package cache

import (
	"context"
	"errors"
	"time"

	"github.com/viccon/sturdyc"
)

// MemoryConfig sizes the in-process cache. TTL bounds how long sturdyc keeps
// any entry; a shorter ttl passed to Set still wins.
type MemoryConfig struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
}

func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Capacity:           1024,
		NumShards:          8,
		TTL:                time.Hour,
		EvictionPercentage: 10,
	}
}

func (c MemoryConfig) validate() error {
	switch {
	case c.Capacity <= 0:
		return errors.New("cache: capacity must be greater than 0")
	case c.NumShards <= 0:
		return errors.New("cache: shards must be greater than 0")
	case c.TTL <= 0:
		return errors.New("cache: ttl must be greater than 0")
	case c.EvictionPercentage < 1 || c.EvictionPercentage > 100:
		return errors.New("cache: eviction percentage must be between 1 and 100")
	}
	return nil
}

type entry struct {
	value   string
	expires time.Time
}

// Memory is a process-local cache backed by sturdyc.
type Memory struct {
	client *sturdyc.Client[entry]
	now    func() time.Time
}

func NewMemory(cfg MemoryConfig) (*Memory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Memory{
		client: sturdyc.New[entry](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage),
		now:    time.Now,
	}, nil
}

func (c *Memory) Get(_ context.Context, key string) (string, bool, error) {
	e, ok := c.client.Get(key)
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.client.Delete(key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.client.Set(key, e)
	return nil
}

func (c *Memory) Delete(_ context.Context, key string) error {
	c.client.Delete(key)
	return nil
}

func (c *Memory) Ping(context.Context) error { return nil }
