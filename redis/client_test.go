package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/idmigrate/component"
	"github.com/kbukum/idmigrate/logger"
)

// newTestClient creates a redis.Client backed by miniredis for testing.
func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mini.Close() })

	cfg := Config{
		Enabled: true,
		Addr:    mini.Addr(),
	}

	client, err := New(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, mini
}

func TestNew_Disabled(t *testing.T) {
	_, err := New(Config{Addr: "localhost:6379"}, logger.Nop())
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled skips checks", Config{}, false},
		{"valid", Config{Enabled: true, Addr: "localhost:6379"}, false},
		{"missing addr", Config{Enabled: true}, true},
		{"addr without port", Config{Enabled: true, Addr: "localhost"}, true},
		{"db out of range", Config{Enabled: true, Addr: "localhost:6379", DB: 16}, true},
		{"bad timeout", Config{Enabled: true, Addr: "localhost:6379", DialTimeout: "soon"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestClient_SetNX(t *testing.T) {
	client, mini := newTestClient(t)
	ctx := context.Background()

	ok, err := client.SetNX(ctx, "claim:id1", "run-a", time.Minute)
	if err != nil {
		t.Fatalf("SetNX() failed: %v", err)
	}
	if !ok {
		t.Error("expected first SetNX to succeed")
	}

	ok, err = client.SetNX(ctx, "claim:id1", "run-b", time.Minute)
	if err != nil {
		t.Fatalf("SetNX() failed: %v", err)
	}
	if ok {
		t.Error("expected second SetNX to fail")
	}

	v, found, err := client.Get(ctx, "claim:id1")
	if err != nil || !found {
		t.Fatalf("Get() = %q, %v, %v", v, found, err)
	}
	if v != "run-a" {
		t.Errorf("expected owner run-a, got %q", v)
	}

	mini.FastForward(2 * time.Minute)
	if _, found, _ := client.Get(ctx, "claim:id1"); found {
		t.Error("expected claim to expire")
	}
}

func TestClient_CompareAndDelete(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := client.SetNX(ctx, "k", "owner", 0); err != nil {
		t.Fatalf("SetNX() failed: %v", err)
	}

	deleted, err := client.CompareAndDelete(ctx, "k", "someone-else")
	if err != nil {
		t.Fatalf("CompareAndDelete() failed: %v", err)
	}
	if deleted {
		t.Error("expected no delete for a different owner")
	}

	deleted, err = client.CompareAndDelete(ctx, "k", "owner")
	if err != nil {
		t.Fatalf("CompareAndDelete() failed: %v", err)
	}
	if !deleted {
		t.Error("expected delete for the owner")
	}
	if _, found, _ := client.Get(ctx, "k"); found {
		t.Error("expected key to be gone")
	}
}

func TestClient_DeleteByPattern(t *testing.T) {
	client, mini := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mini.Set(fmt.Sprintf("ns:claim:%d", i), "x")
	}
	mini.Set("other:1", "x")

	n, err := client.DeleteByPattern(ctx, "ns:claim:*")
	if err != nil {
		t.Fatalf("DeleteByPattern() failed: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 keys removed, got %d", n)
	}
	if !mini.Exists("other:1") {
		t.Error("expected unrelated key to survive")
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	mini := miniredis.RunT(t)
	comp := NewComponent(Config{Enabled: true, Addr: mini.Addr()}, logger.Nop())
	ctx := context.Background()

	if h := comp.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := comp.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if h := comp.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s: %s", h.Status, h.Message)
	}
	if d := comp.Describe(); d.Type != "redis" {
		t.Errorf("expected type redis, got %q", d.Type)
	}
	if err := comp.Stop(ctx); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
}

func TestComponent_StartUnreachable(t *testing.T) {
	mini := miniredis.RunT(t)
	addr := mini.Addr()
	mini.Close()

	comp := NewComponent(Config{Enabled: true, Addr: addr, DialTimeout: "200ms", MaxRetries: 1}, logger.Nop())
	if err := comp.Start(context.Background()); err == nil {
		t.Error("expected Start to fail against a closed server")
	}
}
