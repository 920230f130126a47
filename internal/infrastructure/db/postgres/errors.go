package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mknows/bootcamp-api/internal/core/domain"
)

// SQLSTATE codes the repositories discriminate on.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidTextRepr     = "22P02"
	codeStringDataTooLong   = "22001"
)

// mapError turns driver errors into typed domain errors so schema details never
// reach the transport layer. sql.ErrNoRows is left for callers to translate.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w (%s)", domain.ErrConflict, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: invalid reference (%s)", domain.ErrValidation, pgErr.ConstraintName)
		case codeInvalidTextRepr:
			return fmt.Errorf("%w: invalid identifier", domain.ErrValidation)
		case codeStringDataTooLong:
			return fmt.Errorf("%w: value too long", domain.ErrValidation)
		}
	}
	return fmt.Errorf("db error: %w", err)
}

// notFound converts sql.ErrNoRows into target and maps everything else.
func notFound(err error, target error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return target
	}
	return mapError(err)
}
