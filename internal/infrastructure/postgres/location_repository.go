package postgres

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo lectura del maestro de ubicaciones sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador de ubicaciones.
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

type locationRow struct {
	ID        string    `db:"id"`
	TenantID  string    `db:"tenant_id"`
	Name      string    `db:"name"`
	Kind      string    `db:"kind"`
	IsDefault bool      `db:"is_default"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (l locationRow) toEntity() *entity.Location {
	return &entity.Location{
		ID:        l.ID,
		TenantID:  l.TenantID,
		Name:      l.Name,
		Kind:      entity.LocationKind(l.Kind),
		IsDefault: l.IsDefault,
		Active:    l.Active,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

const locationColumns = "id, tenant_id, name, kind, is_default, active, created_at, updated_at"

// GetByID obtiene una ubicación del tenant; domain.ErrNotFound si no existe.
func (r *LocationRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Location, error) {
	return r.getOne(ctx, "get location",
		`SELECT `+locationColumns+` FROM locations WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetDefault ubicación por defecto del tenant; domain.ErrNotFound si no tiene.
func (r *LocationRepo) GetDefault(ctx context.Context, tenantID string) (*entity.Location, error) {
	return r.getOne(ctx, "get default location",
		`SELECT `+locationColumns+` FROM locations WHERE tenant_id = $1 AND is_default`, tenantID)
}

// ListByIDs ubicaciones del tenant cuyos IDs están en ids (los ausentes se omiten).
func (r *LocationRepo) ListByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Location, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []locationRow
	err := pgxscan.Select(ctx, r.q, &rows,
		`SELECT `+locationColumns+` FROM locations WHERE tenant_id = $1 AND id = ANY($2)`, tenantID, ids)
	if err != nil {
		return nil, classify("list locations", err)
	}
	out := make([]*entity.Location, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *LocationRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Location, error) {
	var row locationRow
	if err := pgxscan.Get(ctx, r.q, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, classify(op, err)
	}
	return row.toEntity(), nil
}
