package postgres

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

type projectionRow struct {
	TenantID   string          `db:"tenant_id"`
	ItemID     string          `db:"item_id"`
	LocationID string          `db:"location_id"`
	Quantity   decimal.Decimal `db:"quantity"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func (p projectionRow) toEntity() entity.StockProjection {
	return entity.StockProjection{
		TenantID:   p.TenantID,
		ItemID:     p.ItemID,
		LocationID: p.LocationID,
		Quantity:   p.Quantity,
		UpdatedAt:  p.UpdatedAt,
	}
}

const projectionColumns = "tenant_id, item_id, location_id, quantity, updated_at"

// Get obtiene la proyección; si no existe la fila devuelve cantidad cero.
func (r *StockRepo) Get(ctx context.Context, key entity.StockKey) (*entity.StockProjection, error) {
	query := `SELECT ` + projectionColumns + `
		FROM stock_projections WHERE tenant_id = $1 AND item_id = $2 AND location_id = $3`
	return r.scanOne(ctx, "get stock", query, key)
}

// GetForUpdate bloquea la fila hasta el fin de la transacción. Si la fila no existe la crea en cero
// primero, para que dos escritores concurrentes sobre una clave nueva también se serialicen.
func (r *StockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockProjection, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_projections (tenant_id, item_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (tenant_id, item_id, location_id) DO NOTHING`,
		key.TenantID, key.ItemID, key.LocationID)
	if err != nil {
		return nil, classify("ensure stock row", err)
	}
	query := `SELECT ` + projectionColumns + `
		FROM stock_projections WHERE tenant_id = $1 AND item_id = $2 AND location_id = $3
		FOR UPDATE`
	return r.scanOne(ctx, "get stock for update", query, key)
}

// ApplyDelta suma delta a la fila (creándola si falta). El CHECK quantity >= 0 del esquema
// rechaza cualquier saldo negativo aunque el llamador no lo haya verificado.
func (r *StockRepo) ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal, at time.Time) (*entity.StockProjection, error) {
	query := `
		INSERT INTO stock_projections (tenant_id, item_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, item_id, location_id)
		DO UPDATE SET quantity = stock_projections.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		RETURNING ` + projectionColumns
	var row projectionRow
	if err := pgxscan.Get(ctx, r.q, &row, query, key.TenantID, key.ItemID, key.LocationID, delta, at); err != nil {
		return nil, classify("apply stock delta", err)
	}
	p := row.toEntity()
	return &p, nil
}

// ListByItem proyecciones del ítem en todas sus ubicaciones, ordenadas por ubicación.
func (r *StockRepo) ListByItem(ctx context.Context, tenantID, itemID string) ([]entity.StockProjection, error) {
	query, args, err := psql.Select(projectionColumns).
		From("stock_projections").
		Where("tenant_id = ? AND item_id = ?", tenantID, itemID).
		OrderBy("location_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []projectionRow
	if err := pgxscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, classify("list stock by item", err)
	}
	out := make([]entity.StockProjection, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// SumByItem stock agregado por ítem del tenant.
func (r *StockRepo) SumByItem(ctx context.Context, tenantID string) (map[string]decimal.Decimal, error) {
	query := `SELECT item_id, SUM(quantity) AS total
		FROM stock_projections WHERE tenant_id = $1 GROUP BY item_id`
	var rows []struct {
		ItemID string          `db:"item_id"`
		Total  decimal.Decimal `db:"total"`
	}
	if err := pgxscan.Select(ctx, r.q, &rows, query, tenantID); err != nil {
		return nil, classify("sum stock by item", err)
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.ItemID] = row.Total
	}
	return out, nil
}

func (r *StockRepo) scanOne(ctx context.Context, op, query string, key entity.StockKey) (*entity.StockProjection, error) {
	var row projectionRow
	err := pgxscan.Get(ctx, r.q, &row, query, key.TenantID, key.ItemID, key.LocationID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return &entity.StockProjection{
				TenantID: key.TenantID, ItemID: key.ItemID, LocationID: key.LocationID, Quantity: decimal.Zero,
			}, nil
		}
		return nil, classify(op, err)
	}
	p := row.toEntity()
	return &p, nil
}
