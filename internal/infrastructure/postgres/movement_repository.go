package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del ledger sobre PostgreSQL (usable con pool o tx).
// La tabla tiene un trigger que rechaza UPDATE y DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

type movementRow struct {
	Sequence       int64           `db:"sequence"`
	ID             string          `db:"id"`
	TenantID       string          `db:"tenant_id"`
	ItemID         string          `db:"item_id"`
	Kind           string          `db:"kind"`
	Magnitude      decimal.Decimal `db:"magnitude"`
	FromLocationID *string         `db:"from_location_id"`
	ToLocationID   *string         `db:"to_location_id"`
	ReferenceID    *string         `db:"reference_id"`
	Reason         string          `db:"reason"`
	ActorID        string          `db:"actor_id"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (m movementRow) toEntity() entity.MovementEntry {
	return entity.MovementEntry{
		ID:             m.ID,
		Sequence:       m.Sequence,
		TenantID:       m.TenantID,
		ItemID:         m.ItemID,
		Kind:           entity.MovementKind(m.Kind),
		Magnitude:      m.Magnitude,
		FromLocationID: deref(m.FromLocationID),
		ToLocationID:   deref(m.ToLocationID),
		ReferenceID:    deref(m.ReferenceID),
		Reason:         m.Reason,
		ActorID:        m.ActorID,
		CreatedAt:      m.CreatedAt,
	}
}

var movementColumns = []string{
	"sequence", "id", "tenant_id", "item_id", "kind", "magnitude",
	"from_location_id", "to_location_id", "reference_id", "reason", "actor_id", "created_at",
}

// Append inserta la entrada y le asigna Sequence. Una referencia repetida viola el índice
// único parcial y se reporta como domain.ErrDuplicateReference.
func (r *MovementRepo) Append(ctx context.Context, e *entity.MovementEntry) error {
	query, args, err := psql.Insert("movement_entries").
		Columns("id", "tenant_id", "item_id", "kind", "magnitude",
			"from_location_id", "to_location_id", "reference_id", "reason", "actor_id", "created_at").
		Values(e.ID, e.TenantID, e.ItemID, string(e.Kind), e.Magnitude,
			nullable(e.FromLocationID), nullable(e.ToLocationID), nullable(e.ReferenceID),
			e.Reason, e.ActorID, e.CreatedAt).
		Suffix("RETURNING sequence").
		ToSql()
	if err != nil {
		return err
	}
	if err := r.q.QueryRow(ctx, query, args...).Scan(&e.Sequence); err != nil {
		return classify("append movement", err)
	}
	return nil
}

// FindByReference entrada previa con la misma (tenant, referencia, ítem, tipo); nil si no existe.
func (r *MovementRepo) FindByReference(ctx context.Context, tenantID, referenceID, itemID string, kind entity.MovementKind) (*entity.MovementEntry, error) {
	query, args, err := psql.Select(movementColumns...).
		From("movement_entries").
		Where(squirrel.Eq{
			"tenant_id":    tenantID,
			"reference_id": referenceID,
			"item_id":      itemID,
			"kind":         string(kind),
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	var row movementRow
	if err := pgxscan.Get(ctx, r.q, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, classify("find movement by reference", err)
	}
	e := row.toEntity()
	return &e, nil
}

// ListByItem entradas del ítem con paginación por Sequence.
func (r *MovementRepo) ListByItem(ctx context.Context, f repository.MovementFilter) ([]entity.MovementEntry, error) {
	query, args, err := listByItemQuery(f)
	if err != nil {
		return nil, err
	}
	var rows []movementRow
	if err := pgxscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, classify("list movements by item", err)
	}
	out := make([]entity.MovementEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func listByItemQuery(f repository.MovementFilter) (string, []any, error) {
	sb := psql.Select(movementColumns...).
		From("movement_entries").
		Where(squirrel.Eq{"tenant_id": f.TenantID}).
		Where(squirrel.Eq{"item_id": f.ItemID})
	if f.BeforeSequence > 0 {
		sb = sb.Where(squirrel.Lt{"sequence": f.BeforeSequence})
	}
	if f.AfterSequence > 0 {
		sb = sb.Where(squirrel.Gt{"sequence": f.AfterSequence})
	}
	if f.Ascending {
		sb = sb.OrderBy("sequence ASC")
	} else {
		sb = sb.OrderBy("sequence DESC")
	}
	if f.Limit > 0 {
		sb = sb.Limit(uint64(f.Limit))
	}
	return sb.ToSql()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
