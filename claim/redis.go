package claim

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/idmigrate/component"
	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/redis"
)

// Redis is a Claimer shared by every process using the same namespace.
// Each claim is a SETNX key holding the owner id, expiring after the TTL.
type Redis struct {
	client *redis.Client
	prefix string
	owner  string
	ttl    time.Duration
}

var _ Claimer = (*Redis)(nil)
var _ component.Describable = (*Redis)(nil)

// NewRedis creates a claimer on client. owner identifies this process in
// the stored claims; the run id is the usual choice.
func NewRedis(client *redis.Client, cfg Config, owner string) *Redis {
	cfg.ApplyDefaults()
	return &Redis{
		client: client,
		prefix: cfg.keyPrefix(),
		owner:  owner,
		ttl:    cfg.TTL,
	}
}

// Claim takes key with SETNX.
func (r *Redis) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, r.owner, r.ttl)
	if err != nil {
		return false, apperrors.ServiceUnavailable("redis").WithCause(err)
	}
	return ok, nil
}

// Release deletes key if this owner still holds it.
func (r *Redis) Release(ctx context.Context, key string) error {
	if _, err := r.client.CompareAndDelete(ctx, r.prefix+key, r.owner); err != nil {
		return apperrors.ServiceUnavailable("redis").WithCause(err)
	}
	return nil
}

// Clear removes every claim in the namespace, whoever owns it.
func (r *Redis) Clear(ctx context.Context) (int64, error) {
	n, err := r.client.DeleteByPattern(ctx, r.prefix+"*")
	if err != nil {
		return n, apperrors.ServiceUnavailable("redis").WithCause(err)
	}
	return n, nil
}

// Describe returns summary info for the run summary.
func (r *Redis) Describe() component.Description {
	return component.Description{
		Name:    "Claims",
		Type:    BackendRedis,
		Details: fmt.Sprintf("prefix=%s ttl=%s", r.prefix, r.ttl),
	}
}
