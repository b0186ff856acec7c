package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ─────────────────────────────────────────────────────────────────────────────
// Clasificación de errores de PostgreSQL
// ─────────────────────────────────────────────────────────────────────────────

func TestClassify_ContencionEsReintentable(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		err := classify("commit transaction", &pgconn.PgError{Code: code})
		assert.ErrorIs(t, err, domain.ErrStorageContention, code)
		assert.True(t, domain.IsRetryable(err), code)
	}
}

func TestClassify_ReferenciaDuplicada(t *testing.T) {
	err := classify("append movement", &pgconn.PgError{Code: "23505", ConstraintName: constraintReference})
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
	assert.False(t, domain.IsRetryable(err))

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr), "conserva el error original")
}

func TestClassify_OtroUnicoNoEsReferencia(t *testing.T) {
	err := classify("append movement", &pgconn.PgError{Code: "23505", ConstraintName: "movement_entries_id_key"})
	assert.NotErrorIs(t, err, domain.ErrDuplicateReference)
}

func TestClassify_SaldoNegativo(t *testing.T) {
	err := classify("apply stock delta", &pgconn.PgError{Code: "23514", ConstraintName: constraintNonNegative})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestClassify_ErrorNoPostgres(t *testing.T) {
	base := errors.New("conexión cerrada")
	err := classify("get item", base)
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "get item")
	assert.False(t, domain.IsRetryable(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// Mapeo de filas
// ─────────────────────────────────────────────────────────────────────────────

func TestMovementRow_ColumnasNulas(t *testing.T) {
	to := "L1"
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	row := movementRow{
		Sequence: 7, ID: "m-1", TenantID: "t1", ItemID: "i1", Kind: "IN",
		Magnitude: decimal.NewFromInt(4), ToLocationID: &to, ActorID: "a1", CreatedAt: now,
	}
	e := row.toEntity()
	assert.Equal(t, entity.MovementIN, e.Kind)
	assert.Equal(t, int64(7), e.Sequence)
	assert.Empty(t, e.FromLocationID)
	assert.Empty(t, e.ReferenceID)
	assert.Equal(t, "L1", e.ToLocationID)
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	p := nullable("REF-1")
	require.NotNil(t, p)
	assert.Equal(t, "REF-1", *p)
	assert.Equal(t, "REF-1", deref(p))
	assert.Empty(t, deref(nil))
}

func TestListByItemQuery_PaginaDescendente(t *testing.T) {
	query, args, err := listByItemQuery(repository.MovementFilter{
		TenantID: "t1", ItemID: "i1", BeforeSequence: 40, Limit: 51,
	})
	require.NoError(t, err)
	assert.Contains(t, query, "tenant_id = $1")
	assert.Contains(t, query, "item_id = $2")
	assert.Contains(t, query, "sequence < $3")
	assert.Contains(t, query, "ORDER BY sequence DESC")
	assert.Contains(t, query, "LIMIT 51")
	assert.Equal(t, []any{"t1", "i1", int64(40)}, args)
}

func TestListByItemQuery_ReplayAscendente(t *testing.T) {
	query, args, err := listByItemQuery(repository.MovementFilter{
		TenantID: "t1", ItemID: "i1", AfterSequence: 500, Ascending: true, Limit: 500,
	})
	require.NoError(t, err)
	assert.Contains(t, query, "sequence > $3")
	assert.NotContains(t, query, "sequence <")
	assert.Contains(t, query, "ORDER BY sequence ASC")
	assert.Equal(t, []any{"t1", "i1", int64(500)}, args)
}

func TestListByItemQuery_SinLimite(t *testing.T) {
	query, _, err := listByItemQuery(repository.MovementFilter{TenantID: "t1", ItemID: "i1"})
	require.NoError(t, err)
	assert.NotContains(t, query, "LIMIT")
}
