package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/idmigrate/component"
	"github.com/kbukum/idmigrate/logger"
)

// Component connects the claim backend's Redis client for the length of a run.
type Component struct {
	client *Client
	cfg    Config
	log    *logger.Logger
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates an unstarted Redis component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("redis")}
}

// Client returns the started client, or nil before Start.
func (c *Component) Client() *Client { return c.client }

func (c *Component) Name() string { return "redis" }

// Start creates the client and fails unless the server answers a ping.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis start ping: %w", err)
	}
	c.client = client
	c.log.Info("Redis connected", map[string]interface{}{"addr": c.cfg.Addr, "db": c.cfg.DB})
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Health pings the server. Workers that waited out a pool timeout make the
// component degraded: claims are slower than the pipeline.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusUnhealthy}
	if c.client == nil {
		h.Message = "redis not initialized"
		return h
	}
	if err := c.client.Ping(ctx); err != nil {
		h.Message = fmt.Sprintf("ping failed: %v", err)
		return h
	}

	stats := c.client.Unwrap().PoolStats()
	h.Status = component.StatusHealthy
	h.Message = fmt.Sprintf("conns=%d idle=%d timeouts=%d", stats.TotalConns, stats.IdleConns, stats.Timeouts)
	if stats.Timeouts > 0 {
		h.Status = component.StatusDegraded
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Claim store",
		Type:    "redis",
		Details: fmt.Sprintf("%s db=%d pool=%d tls=%t", c.cfg.Addr, c.cfg.DB, c.cfg.PoolSize, c.cfg.TLS.IsEnabled()),
	}
}
