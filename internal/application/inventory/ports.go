package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Garantiza atomicidad del ledger y la proyección para el motor de movimientos.
type TxRunner interface {
	// Run confirma si fn retorna nil; cualquier error (o cancelación de ctx) revierte todo.
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
	) error) error
	// ReadSnapshot ejecuta fn sobre una vista de solo lectura consistente (sin bloquear escritores).
	ReadSnapshot(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
	) error) error
}

// AlertPublisher entrega las alertas de stock bajo al colaborador de notificaciones.
type AlertPublisher interface {
	Publish(ctx context.Context, tenantID string, alerts []entity.LowStockAlert) error
}

// ScanLocker evita que dos réplicas escaneen el mismo tenant a la vez.
// ok=false indica que otro proceso tiene el bloqueo.
type ScanLocker interface {
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

// KardexRenderer genera el reporte imprimible del kardex de un ítem.
type KardexRenderer interface {
	RenderKardex(item *entity.Item, entries []entity.KardexEntry, report entity.ReconciliationReport) ([]byte, error)
}
