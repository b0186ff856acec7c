package postgres

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo lectura del catálogo de ítems sobre PostgreSQL.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador de catálogo.
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

type itemRow struct {
	ID          string          `db:"id"`
	TenantID    string          `db:"tenant_id"`
	SKU         string          `db:"sku"`
	Name        string          `db:"name"`
	UnitMeasure string          `db:"unit_measure"`
	Tracked     bool            `db:"tracked"`
	MinStock    decimal.Decimal `db:"min_stock"`
	Active      bool            `db:"active"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (i itemRow) toEntity() *entity.Item {
	return &entity.Item{
		ID:          i.ID,
		TenantID:    i.TenantID,
		SKU:         i.SKU,
		Name:        i.Name,
		UnitMeasure: i.UnitMeasure,
		Tracked:     i.Tracked,
		MinStock:    i.MinStock,
		Active:      i.Active,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

const itemColumns = "id, tenant_id, sku, name, unit_measure, tracked, min_stock, active, created_at, updated_at"

// GetByID obtiene un ítem del tenant; domain.ErrNotFound si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Item, error) {
	var row itemRow
	err := pgxscan.Get(ctx, r.q, &row,
		`SELECT `+itemColumns+` FROM items WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, classify("get item", err)
	}
	return row.toEntity(), nil
}

// ListTracked ítems inventariables del tenant (activos e inactivos), por nombre.
func (r *ItemRepo) ListTracked(ctx context.Context, tenantID string) ([]*entity.Item, error) {
	var rows []itemRow
	err := pgxscan.Select(ctx, r.q, &rows,
		`SELECT `+itemColumns+` FROM items WHERE tenant_id = $1 AND tracked ORDER BY name, id`, tenantID)
	if err != nil {
		return nil, classify("list tracked items", err)
	}
	out := make([]*entity.Item, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// ListTenants tenants con al menos un ítem inventariable.
func (r *ItemRepo) ListTenants(ctx context.Context) ([]string, error) {
	var tenants []string
	if err := pgxscan.Select(ctx, r.q, &tenants,
		`SELECT DISTINCT tenant_id FROM items WHERE tracked ORDER BY tenant_id`); err != nil {
		return nil, classify("list tenants", err)
	}
	return tenants, nil
}
