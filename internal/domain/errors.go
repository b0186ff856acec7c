package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")

	// Taxonomía del motor de movimientos.
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrUnsupportedItemType    = errors.New("el ítem no es inventariable")
	ErrUnknownItem            = errors.New("ítem desconocido")
	ErrUnknownLocation        = errors.New("ubicación desconocida")
	ErrInvalidMovementRequest = errors.New("solicitud de movimiento inválida")
	ErrNoOp                   = errors.New("movimiento sin efecto: magnitud cero")
	ErrStorageContention      = errors.New("contención en el almacenamiento")
	ErrDuplicateReference     = errors.New("referencia ya aplicada")
)

// InsufficientStockError detalla un rechazo por stock insuficiente en una ubicación.
// errors.Is(err, ErrInsufficientStock) es verdadero para este tipo.
type InsufficientStockError struct {
	ItemID     string
	LocationID string
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para ítem %s en ubicación %s: disponible %s, solicitado %s",
		e.ItemID, e.LocationID, e.Available.String(), e.Requested.String())
}

// Is permite comparar contra el sentinel ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvalidMovement envuelve ErrInvalidMovementRequest con el motivo concreto.
func InvalidMovement(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMovementRequest, fmt.Sprintf(format, args...))
}

// IsRetryable indica si el error es transitorio (solo contención); las reglas de negocio nunca se reintentan.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageContention)
}
