package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// constraintErrors maps named constraints from the migrations to the
// entity-specific errors callers match on.
var constraintErrors = map[string]error{
	"users_email_key":               store.ErrEmailExists,
	"policies_policy_number_key":    store.ErrPolicyNumberExists,
	"scheduled_messages_job_id_key": store.ErrJobIDExists,
	"policies_dates_check":          invalidEntity(domain.ErrPolicyEndBeforeStart),
}

// MapError translates a database error into the store package's errors,
// wrapping the original for debugging. Unrecognized errors are returned as is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	if known, ok := constraintErrors[pgErr.ConstraintName]; ok {
		return fmt.Errorf("%w: %v", known, err)
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case foreignKeyViolationCode:
		return fmt.Errorf("%w: foreign key violation (%s): %v", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case checkViolationCode:
		return fmt.Errorf("%w: check constraint violation (%s): %v", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case notNullViolationCode:
		return fmt.Errorf("%w: not null violation (%s): %v", store.ErrInvalidEntity, pgErr.ColumnName, err)
	}
	return err
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// mapCreateError maps an INSERT failure on entity. A unique violation on a
// constraint MapError does not know is reported as duplicate when one is given.
func mapCreateError(entity string, err, duplicate error) error {
	mapped := MapError(err)
	if duplicate != nil && IsUniqueViolation(err) {
		if _, known := constraintErrors[constraintName(err)]; !known {
			mapped = fmt.Errorf("%w: %v", duplicate, err)
		}
	}
	return store.NewStoreError(entity, "create", mapped)
}

// mapGetError maps a single-row lookup failure. sql.ErrNoRows becomes the
// bare entity-specific not found error.
func mapGetError(entity string, err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return store.NewStoreError(entity, "get", MapError(err))
}

// wrapError maps err and records the entity and operation it came from.
func wrapError(entity, operation string, err error) error {
	return store.NewStoreError(entity, operation, MapError(err))
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// checkRowsAffected returns notFound if the statement matched no rows.
func checkRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("nil result provided to checkRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

// invalidEntity wraps a domain validation failure as store.ErrInvalidEntity.
func invalidEntity(err error) error {
	return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
}
