package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/idmigrate/component"
	"github.com/kbukum/idmigrate/logger"
	"github.com/kbukum/idmigrate/redis"
	"github.com/kbukum/idmigrate/testutil"
)

// Component runs an in-memory Redis server for claim tests.
type Component struct {
	mu     sync.RWMutex
	mini   *miniredis.Miniredis
	client *redis.Client
}

var (
	_ component.Component    = (*Component)(nil)
	_ testutil.TestComponent = (*Component)(nil)
)

func NewComponent() *Component {
	return &Component{}
}

// Client returns a client for the server, or nil before Start.
func (c *Component) Client() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

func (c *Component) server() *miniredis.Miniredis {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mini
}

// Keys lists the keys matching a glob pattern, sorted.
func (c *Component) Keys(pattern string) []string {
	keys, err := c.Client().Unwrap().Keys(context.Background(), pattern).Result()
	if err != nil {
		return nil
	}
	sort.Strings(keys)
	return keys
}

// Value returns the string stored at key.
func (c *Component) Value(key string) (string, bool) {
	v, err := c.server().Get(key)
	return v, err == nil
}

// Advance moves the server clock, expiring claims whose TTL has passed.
func (c *Component) Advance(d time.Duration) {
	c.server().FastForward(d)
}

// Crash stops the server while clients still hold its address.
func (c *Component) Crash() {
	c.server().Close()
}

func (c *Component) Name() string { return "redis-test" }

func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mini != nil {
		return fmt.Errorf("component already started")
	}

	mini, err := miniredis.Run()
	if err != nil {
		return fmt.Errorf("failed to start miniredis: %w", err)
	}
	client, err := redis.New(redis.Config{Enabled: true, Addr: mini.Addr()}, logger.Nop())
	if err != nil {
		mini.Close()
		return err
	}
	c.mini, c.client = mini, client
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mini == nil {
		return nil
	}
	_ = c.client.Close()
	c.mini.Close()
	c.mini, c.client = nil, nil
	return nil
}

func (c *Component) Health(_ context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mini == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Reset drops every key.
func (c *Component) Reset(_ context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mini == nil {
		return fmt.Errorf("component not started")
	}
	c.mini.FlushAll()
	return nil
}
