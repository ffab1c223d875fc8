package database

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	apperrors "github.com/kbukum/idmigrate/errors"
)

// MySQL server error numbers that signal lock or connection contention.
const (
	mysqlTooManyConnections = 1040
	mysqlLockWaitTimeout    = 1205
	mysqlDeadlock           = 1213
)

// IsDuplicateError reports a primary key or unique index violation.
// Requires a DB opened with TranslateError, which Open always sets.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsConnectionError reports a lost or unusable connection.
func IsConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsContentionError reports a deadlock, lock wait or exhausted server that a
// later attempt may get past.
func IsContentionError(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlTooManyConnections, mysqlLockWaitTimeout, mysqlDeadlock:
			return true
		}
		return false
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// FromDatabase converts a gorm or driver error on resource to an AppError.
func FromDatabase(err error, resource string) *apperrors.AppError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(resource, "")
	case IsDuplicateError(err):
		return apperrors.AlreadyExists(resource).WithCause(err)
	case IsConnectionError(err):
		return apperrors.ConnectionFailed("database").WithCause(err)
	case IsContentionError(err):
		appErr := apperrors.DatabaseError(err)
		appErr.Message = fmt.Sprintf("%s is locked, retry later", resource)
		return appErr
	}
	appErr := apperrors.DatabaseError(err)
	appErr.Retryable = false
	return appErr
}
