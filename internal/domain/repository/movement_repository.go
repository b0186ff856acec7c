package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementFilter criterios de consulta del ledger de un ítem (paginación por Sequence).
type MovementFilter struct {
	TenantID       string
	ItemID         string
	BeforeSequence int64 // > 0: solo entradas con Sequence < BeforeSequence
	AfterSequence  int64 // > 0: solo entradas con Sequence > AfterSequence
	Ascending      bool  // false = más reciente primero
	Limit          int   // <= 0: sin límite
}

// MovementRepository puerto del ledger. Solo permite anexar; no hay update ni delete.
type MovementRepository interface {
	// Append persiste la entrada y le asigna Sequence. ErrDuplicateReference si la referencia ya existe.
	Append(ctx context.Context, e *entity.MovementEntry) error
	// FindByReference busca una entrada previa por (tenant, referencia, ítem, tipo). nil si no existe.
	FindByReference(ctx context.Context, tenantID, referenceID, itemID string, kind entity.MovementKind) (*entity.MovementEntry, error)
	ListByItem(ctx context.Context, f MovementFilter) ([]entity.MovementEntry, error)
}
