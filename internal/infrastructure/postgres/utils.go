package postgres

import (
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Constraints del esquema que el motor traduce a errores de dominio.
const (
	constraintReference   = "movement_entries_reference_key"
	constraintNonNegative = "stock_projections_non_negative"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// classify envuelve err con op y, cuando el código de PostgreSQL lo permite, con el error de dominio
// correspondiente: serialización, deadlock y lock_timeout son contención reintentable.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageContention, err)
	case "23505":
		if pgErr.ConstraintName == constraintReference {
			return fmt.Errorf("%s: %w: %w", op, domain.ErrDuplicateReference, err)
		}
	case "23514": // check_violation
		if pgErr.ConstraintName == constraintNonNegative {
			return fmt.Errorf("%s: %w: %w", op, domain.ErrInsufficientStock, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
