package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ItemRepository consulta de solo lectura al catálogo de ítems.
type ItemRepository interface {
	// GetByID devuelve domain.ErrNotFound si el ítem no existe en el tenant.
	GetByID(ctx context.Context, tenantID, id string) (*entity.Item, error)
	ListTracked(ctx context.Context, tenantID string) ([]*entity.Item, error)
	ListTenants(ctx context.Context) ([]string, error)
}
