package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LocationRepository consulta de solo lectura al maestro de ubicaciones.
type LocationRepository interface {
	// GetByID devuelve domain.ErrNotFound si la ubicación no existe en el tenant.
	GetByID(ctx context.Context, tenantID, id string) (*entity.Location, error)
	ListByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Location, error)
	GetDefault(ctx context.Context, tenantID string) (*entity.Location, error)
}
