package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kbukum/idmigrate/bootstrap"
	"github.com/kbukum/idmigrate/claim"
	"github.com/kbukum/idmigrate/credential"
	"github.com/kbukum/idmigrate/database"
	"github.com/kbukum/idmigrate/identity"
	"github.com/kbukum/idmigrate/logger"
	"github.com/kbukum/idmigrate/migration"
	"github.com/kbukum/idmigrate/observability"
	"github.com/kbukum/idmigrate/redis"
	"github.com/kbukum/idmigrate/source"
	"github.com/kbukum/idmigrate/source/csv"
	"github.com/kbukum/idmigrate/source/ldap"
	"github.com/kbukum/idmigrate/store"
)

// runtime is one command's wired application. The pipeline fields are set
// by configure once the components are started.
type runtime struct {
	app   *bootstrap.App[*AppConfig]
	db    *database.Component
	redis *redis.Component
	obs   *observability.Component

	store    *store.GormStore
	source   source.Source
	claimer  claim.Claimer
	migrator *migration.Migrator
}

// newRuntime registers the infrastructure components. With withPipeline
// set it also builds the migrator after startup; schema commands only need
// the database.
func newRuntime(cfg *AppConfig, withPipeline bool, opts ...bootstrap.Option) (*runtime, error) {
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		app: app,
		db:  database.NewComponent(cfg.Database, app.Logger),
		obs: observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment),
	}
	if err := app.RegisterComponent(rt.obs); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(rt.db); err != nil {
		return nil, err
	}
	if cfg.Redis.Enabled {
		rt.redis = redis.NewComponent(cfg.Redis, app.Logger)
		if err := app.RegisterComponent(rt.redis); err != nil {
			return nil, err
		}
	}

	if withPipeline {
		app.OnConfigure(rt.configure)
	}
	return rt, nil
}

// configure brings the schema up to date and builds the pipeline.
func (rt *runtime) configure(_ context.Context, app *bootstrap.App[*AppConfig]) error {
	cfg := app.Cfg

	if err := rt.schemaUp(); err != nil {
		return err
	}
	rt.store = store.NewGormStore(rt.db.DB(), app.Logger)

	src, err := newSource(cfg.Source, app.Logger)
	if err != nil {
		return err
	}
	rt.source = src

	hasher, err := credential.NewHasher(cfg.Credential)
	if err != nil {
		return fmt.Errorf("credential hasher: %w", err)
	}

	opts := []migration.Option{
		migration.WithLogger(app.Logger),
		migration.WithMetrics(rt.obs.Metrics()),
	}
	// A dry run keeps its claims to itself so it never blocks a real run.
	if cfg.Claim.Backend == claim.BackendRedis && !cfg.Migration.DryRun && rt.redis != nil {
		rt.claimer = claim.NewRedis(rt.redis.Client(), cfg.Claim, uuid.NewString())
		opts = append(opts, migration.WithClaimer(rt.claimer))
	}

	m, err := migration.New(cfg.Migration, src, rt.store, identity.NewConverter(hasher), opts...)
	if err != nil {
		return err
	}
	rt.migrator = m
	return nil
}

func newSource(cfg SourceConfig, log *logger.Logger) (source.Source, error) {
	switch cfg.Type {
	case sourceLDAP:
		return ldap.New(cfg.LDAP, log), nil
	case sourceCSV:
		return csv.New(cfg.CSV, log), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

func (rt *runtime) schemaUp() error {
	m, err := store.NewSchemaMigrator(rt.db.DB())
	if err != nil {
		return err
	}
	return m.Up()
}

// reset drops the destination schema, re-applies it and clears shared claims.
func (rt *runtime) reset(ctx context.Context) error {
	m, err := store.NewSchemaMigrator(rt.db.DB())
	if err != nil {
		return err
	}
	if err := m.Reset(); err != nil {
		return err
	}

	fields := map[string]interface{}{"driver": rt.db.DB().Driver()}
	if r, ok := rt.claimer.(*claim.Redis); ok {
		n, err := r.Clear(ctx)
		if err != nil {
			return fmt.Errorf("clear claims: %w", err)
		}
		fields["claims_cleared"] = n
	}
	rt.app.Logger.Warn("Destination schema reset", fields)
	return nil
}
