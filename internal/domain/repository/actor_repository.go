package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ActorRepository consulta de solo lectura al directorio de identidades.
type ActorRepository interface {
	ListByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Actor, error)
}
