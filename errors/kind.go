package errors

import stderrors "errors"

// Kind tells the migration pipeline how to react to an error.
type Kind int

const (
	// KindFatal stops the worker or the run that produced it.
	KindFatal Kind = iota
	// KindRecoverable is logged; the affected record is dropped and the pass continues.
	KindRecoverable
	// KindSkip is not a failure. The record is intentionally left alone.
	KindSkip
)

// String returns the kind name used in log fields.
func (k Kind) String() string {
	switch k {
	case KindRecoverable:
		return "recoverable"
	case KindSkip:
		return "skip"
	default:
		return "fatal"
	}
}

var codeKinds = map[ErrorCode]Kind{
	ErrCodeSourceRecord:  KindRecoverable,
	ErrCodeAlreadyExists: KindSkip,
}

// KindOf classifies err. Errors that are not AppErrors, and codes with no
// explicit mapping, are fatal.
func KindOf(err error) Kind {
	appErr, ok := AsAppError(err)
	if !ok {
		return KindFatal
	}
	if k, found := codeKinds[appErr.Code]; found {
		return k
	}
	return KindFatal
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsAppError reports whether err's chain contains an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// HasCode reports whether err's chain contains an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap converts any error into an AppError. AppErrors anywhere in the chain
// are returned as-is; anything else becomes an internal error.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
