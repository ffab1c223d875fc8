package migration

import (
	"time"

	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/observability"
)

// ErrAlreadyMigrated is returned by MigrateOne when the identity key is
// already stored. Its kind is Skip.
var ErrAlreadyMigrated = apperrors.AlreadyExists("migrated identity")

// Outcome is the final verdict of a run.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeAborted
)

func (o Outcome) String() string {
	if o == OutcomeSucceeded {
		return "succeeded"
	}
	return "aborted"
}

// Report summarizes one run.
type Report struct {
	RunID        string
	Outcome      Outcome
	DryRun       bool
	Produced     int64
	Dequeued     int64
	Written      int64
	Skipped      int64
	SourceErrors int64
	MarkersSent  int64
	Err          error
	StartedAt    time.Time
	Duration     time.Duration
}

// Succeeded reports whether the run finished without aborting.
func (r *Report) Succeeded() bool { return r.Outcome == OutcomeSucceeded }

// Summary converts the report for the textfile exporter.
func (r *Report) Summary() observability.RunSummary {
	return observability.RunSummary{
		RunID:        r.RunID,
		Outcome:      r.Outcome.String(),
		Produced:     r.Produced,
		Dequeued:     r.Dequeued,
		Written:      r.Written,
		Skipped:      r.Skipped,
		SourceErrors: r.SourceErrors,
		MarkersSent:  r.MarkersSent,
		Duration:     r.Duration,
		FinishedAt:   r.StartedAt.Add(r.Duration),
	}
}

// Mismatch is one source record whose stored counterpart does not match.
type Mismatch struct {
	IdentityKey string
	LoginName   string
	Reason      string
}

// Mismatch reasons.
const (
	ReasonMissing    = "missing"
	ReasonCredential = "credential mismatch"
	ReasonLoginName  = "login name differs"
)

// VerifyReport summarizes a Verify pass.
type VerifyReport struct {
	Checked      int64
	Matched      int64
	SourceErrors int64
	Mismatches   []Mismatch
}

// OK reports whether every checked record matched.
func (r *VerifyReport) OK() bool { return len(r.Mismatches) == 0 }
