package postgres

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ActorRepository = (*ActorRepo)(nil)

// ActorRepo lectura del directorio de actores sobre PostgreSQL.
type ActorRepo struct {
	q Querier
}

// NewActorRepository construye el adaptador.
func NewActorRepository(q Querier) *ActorRepo {
	return &ActorRepo{q: q}
}

// ListByIDs actores del tenant cuyos IDs están en ids.
func (r *ActorRepo) ListByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Actor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []struct {
		ID       string `db:"id"`
		TenantID string `db:"tenant_id"`
		Name     string `db:"name"`
		Email    string `db:"email"`
	}
	err := pgxscan.Select(ctx, r.q, &rows,
		`SELECT id, tenant_id, name, email FROM actors WHERE tenant_id = $1 AND id = ANY($2)`, tenantID, ids)
	if err != nil {
		return nil, classify("list actors", err)
	}
	out := make([]*entity.Actor, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entity.Actor{ID: row.ID, TenantID: row.TenantID, Name: row.Name, Email: row.Email})
	}
	return out, nil
}
