package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockRepository puerto de la proyección de stock (ítem, ubicación) → cantidad.
// GetForUpdate y ApplyDelta solo deben usarse dentro de la transacción del motor.
type StockRepository interface {
	// Get devuelve la proyección; si no existe, cantidad cero.
	Get(ctx context.Context, key entity.StockKey) (*entity.StockProjection, error)
	// GetForUpdate igual que Get pero bloquea la clave hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockProjection, error)
	// ApplyDelta suma delta a la proyección (la crea si no existe) y devuelve el nuevo valor.
	ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal, at time.Time) (*entity.StockProjection, error)
	ListByItem(ctx context.Context, tenantID, itemID string) ([]entity.StockProjection, error)
	// SumByItem stock agregado por ítem en todas las ubicaciones del tenant.
	SumByItem(ctx context.Context, tenantID string) (map[string]decimal.Decimal, error)
}
