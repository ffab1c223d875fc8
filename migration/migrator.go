package migration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/idmigrate/claim"
	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/identity"
	"github.com/kbukum/idmigrate/logger"
	"github.com/kbukum/idmigrate/observability"
	"github.com/kbukum/idmigrate/pipeline"
	"github.com/kbukum/idmigrate/source"
	"github.com/kbukum/idmigrate/store"
)

// Migrator moves identities from a Source to a Store.
type Migrator struct {
	source    source.Source
	store     store.Store
	converter *identity.Converter
	claimer   claim.Claimer
	cfg       Config
	log       *logger.Logger
	metrics   *observability.Metrics
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithClaimer sets the claim backend. Without it every run gets a fresh
// in-memory claimer.
func WithClaimer(c claim.Claimer) Option {
	return func(m *Migrator) { m.claimer = c }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Migrator) { m.log = l }
}

// WithMetrics sets the run metrics. A nil value disables them.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Migrator) { m.metrics = metrics }
}

// New creates a Migrator. cfg is defaulted and validated.
func New(cfg Config, src source.Source, st store.Store, conv *identity.Converter, opts ...Option) (*Migrator, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Migrator{
		source:    src,
		store:     st,
		converter: conv,
		cfg:       cfg,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithComponent("migration")
	return m, nil
}

// Config returns the effective configuration.
func (m *Migrator) Config() Config { return m.cfg }

// Run streams every source record through the worker pool. It always
// returns a report. The error is set when the source fails or the workers
// do not finish within CompletionTimeout; a worker failure only shows as
// OutcomeAborted with Report.Err set.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)
	ctx, span := observability.StartSpan(ctx, observability.SpanRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, runID)

	log := m.log.WithFields(map[string]interface{}{logger.FieldRunID: runID})
	report := &Report{RunID: runID, DryRun: m.cfg.DryRun, StartedAt: time.Now()}
	state := NewState(m.cfg.Workers)

	state.setPhase(StateStarting)
	log.Info("Starting migration run", map[string]interface{}{
		"workers":        m.cfg.Workers,
		"queue_capacity": m.cfg.QueueCapacity,
		"max_records":    m.cfg.MaxRecords,
		"dry_run":        m.cfg.DryRun,
	})

	it, err := m.source.Produce(ctx)
	if err != nil {
		state.Stop(err)
		return m.finish(ctx, log, report, state, err)
	}
	defer func() {
		if cerr := it.Close(); cerr != nil {
			log.Warn("Failed to close source iterator", logger.ErrorFields("close", cerr))
		}
	}()

	claimer := m.claimer
	if claimer == nil {
		claimer = claim.NewMemory()
	}
	deps := workerDeps{
		runID:     runID,
		store:     m.store,
		converter: m.converter,
		claimer:   claimer,
		cfg:       m.cfg,
		log:       log,
		metrics:   m.metrics,
	}
	relay := pipeline.NewRelay[identity.SourceRecord](m.cfg.QueueCapacity)
	for i := 0; i < m.cfg.Workers; i++ {
		go runWorker(ctx, i, relay, state, deps)
	}

	state.setPhase(StateStreaming)
	runErr := m.stream(ctx, it, relay, state, log)

	state.setPhase(StateDraining)
	for i := 0; i < m.cfg.Workers; i++ {
		if !relay.Put(ctx, pipeline.Stop[identity.SourceRecord](), state.barrier.C()) {
			break
		}
		state.markersSent.Add(1)
	}

	state.setPhase(StateCompleted)
	if !state.barrier.Wait(m.cfg.CompletionTimeout) {
		timeoutErr := apperrors.Timeout("waiting for migration workers").
			WithDetail("remaining_workers", state.barrier.Remaining())
		state.Stop(timeoutErr)
		if runErr == nil {
			runErr = timeoutErr
		}
	}

	return m.finish(ctx, log, report, state, runErr)
}

// stream pulls records and hands them to the workers until the source ends,
// the limit is reached or the run is stopped. It returns the fatal source
// error, if any.
func (m *Migrator) stream(ctx context.Context, it pipeline.Iterator[identity.SourceRecord], relay *pipeline.Relay[identity.SourceRecord], state *State, log *logger.Logger) error {
	for {
		if m.cfg.MaxRecords > 0 && state.Produced() >= int64(m.cfg.MaxRecords) {
			log.Info("Record limit reached", map[string]interface{}{"max_records": m.cfg.MaxRecords})
			return nil
		}
		if ctx.Err() != nil {
			return m.interrupt(ctx, state, log)
		}
		if state.Stopped() {
			return nil
		}

		rec, ok, err := it.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return m.interrupt(ctx, state, log)
			}
			if apperrors.KindOf(err) == apperrors.KindRecoverable {
				state.sourceErrors.Add(1)
				m.metrics.RecordSourceError(ctx)
				log.Warn("Skipping malformed source record", logger.ErrorFields("read", err))
				continue
			}
			log.Error("Source failed, stopping run", logger.ErrorFields("read", err))
			state.Stop(err)
			return err
		}
		if !ok {
			return nil
		}

		// Counted before Put so a worker never observes more dequeued than produced.
		state.produced.Add(1)
		if !relay.Put(ctx, pipeline.Work(rec), state.StopC()) {
			state.produced.Add(-1)
			if ctx.Err() != nil {
				return m.interrupt(ctx, state, log)
			}
			return nil
		}
		m.metrics.RecordProduced(ctx)
	}
}

func (m *Migrator) interrupt(ctx context.Context, state *State, log *logger.Logger) error {
	err := apperrors.Interrupted(ctx.Err())
	if state.Stop(err) {
		log.Warn("Migration run interrupted")
	}
	return err
}

func (m *Migrator) finish(ctx context.Context, log *logger.Logger, report *Report, state *State, runErr error) (*Report, error) {
	report.Produced = state.Produced()
	report.Dequeued = state.Dequeued()
	report.Written = state.Written()
	report.Skipped = state.Skipped()
	report.SourceErrors = state.SourceErrors()
	report.MarkersSent = state.MarkersSent()
	report.Duration = time.Since(report.StartedAt)

	report.Outcome = OutcomeSucceeded
	if state.Stopped() || runErr != nil {
		report.Outcome = OutcomeAborted
		report.Err = state.Cause()
		if report.Err == nil {
			report.Err = runErr
		}
	}

	observability.SetSpanAttribute(ctx, observability.AttrOutcome, report.Outcome.String())
	fields := map[string]interface{}{
		"outcome":            report.Outcome.String(),
		"produced":           report.Produced,
		"dequeued":           report.Dequeued,
		"written":            report.Written,
		"skipped":            report.Skipped,
		"source_errors":      report.SourceErrors,
		"markers_sent":       report.MarkersSent,
		logger.FieldDuration: report.Duration.Milliseconds(),
	}
	if report.Err != nil {
		observability.SetSpanError(ctx, report.Err)
		log.Error("Migration run aborted", logger.MergeWithError(fields, report.Err))
	} else {
		log.Info("Migration run completed", fields)
	}
	return report, runErr
}

// MigrateOne migrates the record found by login name or identity key.
// A stored key yields ErrAlreadyMigrated.
func (m *Migrator) MigrateOne(ctx context.Context, key string) (dst identity.DestinationRecord, err error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanMigrateOne, "", key)
	defer func() { op.End(recordStatus(err), err) }()

	rec, err := m.source.LookupOne(ctx, key)
	if err != nil {
		return identity.DestinationRecord{}, err
	}

	exists, err := m.store.Exists(ctx, rec.IdentityKey)
	if err != nil {
		return identity.DestinationRecord{}, err
	}
	if exists {
		return identity.DestinationRecord{}, ErrAlreadyMigrated
	}

	dst, err = m.converter.Convert(rec)
	if err != nil {
		return identity.DestinationRecord{}, err
	}

	msg := "Record converted (dry run)"
	if !m.cfg.DryRun {
		if err = m.store.Upsert(ctx, dst); err != nil {
			return identity.DestinationRecord{}, err
		}
		msg = "Record migrated"
	}

	fields := logger.RecordFields(rec.IdentityKey, rec.LoginName)
	if m.cfg.PrintCredentials {
		fields[logger.FieldCredential] = rec.Credential.Value
		fields[logger.FieldHash] = dst.PasswordHash
	}
	m.log.Info(msg, fields)
	return dst, nil
}

// Verify checks every source record against the store: plaintext
// credentials must verify against the stored hash and hashed ones must be
// unchanged. Malformed source records are counted, not compared.
func (m *Migrator) Verify(ctx context.Context) (*VerifyReport, error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanVerify, "", "")
	var err error
	defer func() { op.End(verifyStatus(err), err) }()

	stored, err := m.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]identity.DestinationRecord, len(stored))
	for _, d := range stored {
		byKey[d.IdentityKey] = d
	}

	it, err := m.source.Produce(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	report := &VerifyReport{}
	for {
		rec, ok, nextErr := it.Next(ctx)
		if nextErr != nil {
			if ctx.Err() == nil && apperrors.KindOf(nextErr) == apperrors.KindRecoverable {
				report.SourceErrors++
				continue
			}
			err = nextErr
			return report, err
		}
		if !ok {
			break
		}

		report.Checked++
		reason := ""
		dst, found := byKey[rec.IdentityKey]
		switch {
		case !found:
			reason = ReasonMissing
		case dst.LoginName != rec.LoginName:
			reason = ReasonLoginName
		case !m.converter.Matches(rec, dst):
			reason = ReasonCredential
		}
		if reason == "" {
			report.Matched++
			continue
		}

		report.Mismatches = append(report.Mismatches, Mismatch{
			IdentityKey: rec.IdentityKey,
			LoginName:   rec.LoginName,
			Reason:      reason,
		})
		fields := logger.RecordFields(rec.IdentityKey, rec.LoginName)
		fields[logger.FieldReason] = reason
		m.log.Warn("Verification mismatch", fields)
	}

	m.log.Info("Verification completed", map[string]interface{}{
		"checked":       report.Checked,
		"matched":       report.Matched,
		"mismatches":    len(report.Mismatches),
		"source_errors": report.SourceErrors,
	})
	return report, nil
}

func verifyStatus(err error) string {
	if err != nil {
		return "failed"
	}
	return "completed"
}
