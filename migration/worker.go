package migration

import (
	"context"
	"time"

	"github.com/kbukum/idmigrate/claim"
	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/identity"
	"github.com/kbukum/idmigrate/logger"
	"github.com/kbukum/idmigrate/observability"
	"github.com/kbukum/idmigrate/pipeline"
	"github.com/kbukum/idmigrate/store"
)

// Skip reasons.
const (
	skipClaimed  = "claimed"
	skipExists   = "exists"
	skipLostRace = "lost_race"
)

// workerDeps are the collaborators shared by every worker of a run.
type workerDeps struct {
	runID     string
	store     store.Store
	converter *identity.Converter
	claimer   claim.Claimer
	cfg       Config
	log       *logger.Logger
	metrics   *observability.Metrics
}

// runWorker consumes the relay until a stop marker, the stop flag or ctx
// ends it. Any error that is not a skip stops the whole run.
func runWorker(ctx context.Context, id int, relay *pipeline.Relay[identity.SourceRecord], state *State, deps workerDeps) {
	defer state.barrier.Done()

	log := deps.log.WithFields(map[string]interface{}{logger.FieldWorker: id})
	for {
		if state.Stopped() {
			return
		}

		item, ok := relay.Take(ctx)
		if !ok {
			state.Stop(apperrors.Interrupted(ctx.Err()))
			return
		}
		if item.IsStop() {
			return
		}
		rec, _ := item.Value()

		state.dequeued.Add(1)
		deps.metrics.RecordDequeued(ctx)

		err := migrateRecord(ctx, rec, state, deps, log)
		if err == nil {
			continue
		}
		if apperrors.KindOf(err) == apperrors.KindSkip {
			reason := skipReason(err)
			state.skipped.Add(1)
			deps.metrics.RecordSkipped(ctx, reason)
			fields := logger.RecordFields(rec.IdentityKey, rec.LoginName)
			fields[logger.FieldReason] = reason
			log.Info("Record skipped", fields)
			continue
		}

		cause := err
		if ctx.Err() != nil {
			cause = apperrors.Interrupted(ctx.Err())
		}
		fields := logger.MergeWithError(logger.RecordFields(rec.IdentityKey, rec.LoginName), err)
		code := string(apperrors.Wrap(cause).Code)
		fields[logger.FieldErrorCode] = code
		log.Error("Record failed, stopping run", fields)
		deps.metrics.RecordFailed(ctx, code)
		state.Stop(cause)
		return
	}
}

// migrateRecord claims, converts and stores one record. A key that is
// claimed elsewhere or already stored comes back as a Skip error.
func migrateRecord(ctx context.Context, rec identity.SourceRecord, state *State, deps workerDeps, log *logger.Logger) (err error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanRecord, deps.runID, rec.IdentityKey)
	defer func() { op.End(recordStatus(err), err) }()

	claimed, err := deps.claimer.Claim(ctx, rec.IdentityKey)
	if err != nil {
		return err
	}
	if !claimed {
		return skip(rec.IdentityKey, skipClaimed, nil)
	}
	// Once the row is stored its primary key dedups, so the claim is only
	// kept for a dry-run conversion.
	defer func() {
		if err == nil && deps.cfg.DryRun {
			return
		}
		if relErr := deps.claimer.Release(context.WithoutCancel(ctx), rec.IdentityKey); relErr != nil {
			log.Warn("Failed to release claim", logger.MergeWithError(logger.RecordFields(rec.IdentityKey, rec.LoginName), relErr))
		}
	}()

	exists, err := deps.store.Exists(ctx, rec.IdentityKey)
	if err != nil {
		return err
	}
	if exists {
		return skip(rec.IdentityKey, skipExists, nil)
	}

	start := time.Now()
	dst, err := deps.converter.Convert(rec)
	if err != nil {
		return err
	}

	msg := "Record converted (dry run)"
	if !deps.cfg.DryRun {
		if err = deps.store.Upsert(ctx, dst); err != nil {
			if apperrors.KindOf(err) == apperrors.KindSkip {
				return skip(rec.IdentityKey, skipLostRace, err)
			}
			return err
		}
		msg = "Record migrated"
	}

	elapsed := time.Since(start)
	state.written.Add(1)
	deps.metrics.RecordWritten(ctx, elapsed, deps.cfg.DryRun)

	fields := logger.RecordFields(rec.IdentityKey, rec.LoginName)
	fields[logger.FieldDuration] = elapsed.Milliseconds()
	if deps.cfg.PrintCredentials {
		fields[logger.FieldCredential] = rec.Credential.Value
		fields[logger.FieldHash] = dst.PasswordHash
	}
	log.Info(msg, fields)
	return nil
}

func skip(key, reason string, cause error) error {
	err := apperrors.AlreadyExists("user identity").
		WithDetail(logger.FieldIdentityKey, key).
		WithDetail(logger.FieldReason, reason)
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}

func skipReason(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		if reason, ok := appErr.Details[logger.FieldReason].(string); ok {
			return reason
		}
	}
	return skipExists
}

func recordStatus(err error) string {
	switch {
	case err == nil:
		return "written"
	case apperrors.KindOf(err) == apperrors.KindSkip:
		return "skipped"
	default:
		return "failed"
	}
}
