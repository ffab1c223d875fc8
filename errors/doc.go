// Package errors provides the structured error type shared by every idmigrate
// package. Each AppError carries a machine-readable code, a retryable hint and
// a Kind that tells the migration pipeline whether to skip a record, log and
// continue, or stop the run.
package errors
