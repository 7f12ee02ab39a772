package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/fardapack/fardapack-crm/domain"
)

// translateError maps storage failures onto the domain taxonomy. dup is the
// error reported for a unique violation on the entity being written.
func translateError(err error, dup error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err):
		if dup != nil {
			return dup
		}
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated) || isForeignKeyViolation(err):
		return domain.ErrForeignKeyViolation
	case isCheckViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrInvalidEnum, err)
	case isBusy(err):
		return fmt.Errorf("%w: %v", domain.ErrStoreBusy, err)
	}
	return err
}

// Postgres SQLSTATE codes that signal lock contention
var pgBusyCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// isBusy reports whether err is a transient writer-lock condition
func isBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pgBusyCodes[pe.Code]
	}
	return false
}

// isUniqueViolation reports whether err is a unique constraint failure
// the dialect translator did not already map.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pe *pgconn.PgError
	return errors.As(err, &pe) && pe.Code == "23505"
}

// isForeignKeyViolation reports whether err is a foreign key failure
func isForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var pe *pgconn.PgError
	return errors.As(err, &pe) && pe.Code == "23503"
}

// isCheckViolation reports whether err is a CHECK constraint failure
func isCheckViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintCheck
	}
	var pe *pgconn.PgError
	return errors.As(err, &pe) && pe.Code == "23514"
}
