// Package repository holds the MySQL data access layer. Sentinel errors in
// this file let higher layers distinguish failure scenarios without
// inspecting driver errors.
package repository

import (
	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidRefresh     = errors.New("invalid refresh token")

	// ErrForbidden is returned when the caller attempts an operation on a
	// resource they do not own.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict marks writes rejected by a key or foreign-key constraint.
	ErrConflict = errors.New("conflict")
)

// MySQL server error numbers the repositories react to.
const (
	errDupEntry        = 1062
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

func mysqlErrNumber(err error) (uint16, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number, true
	}
	return 0, false
}

func isMySQLErr(err error, numbers ...uint16) bool {
	n, ok := mysqlErrNumber(err)
	if !ok {
		return false
	}
	for _, want := range numbers {
		if n == want {
			return true
		}
	}
	return false
}

// markConstraint converts key and foreign-key violations into ErrConflict.
func markConstraint(err error) error {
	if isMySQLErr(err, errDupEntry, errRowIsReferenced, errNoReferencedRow) {
		return errors.Mark(err, ErrConflict)
	}
	return err
}

// IsRetryable reports whether err is a deadlock or lock wait timeout, after
// which InnoDB has rolled the transaction back and it may be run again.
func IsRetryable(err error) bool {
	return isMySQLErr(err, errDeadlock, errLockWaitTimeout)
}
