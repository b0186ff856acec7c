package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind conjunto cerrado de causas de un cambio de cantidad.
type MovementKind string

const (
	MovementIN         MovementKind = "IN"         // entrada
	MovementOUT        MovementKind = "OUT"        // salida
	MovementADJUSTMENT MovementKind = "ADJUSTMENT" // ajuste con signo explícito
	MovementSALE       MovementKind = "SALE"       // salida por documento de venta
	MovementPURCHASE   MovementKind = "PURCHASE"   // entrada por compra
	MovementTRANSFER   MovementKind = "TRANSFER"   // traslado entre ubicaciones
)

// MovementKinds lista todos los tipos válidos.
var MovementKinds = []MovementKind{
	MovementIN, MovementOUT, MovementADJUSTMENT, MovementSALE, MovementPURCHASE, MovementTRANSFER,
}

// ParseMovementKind convierte un string (sin distinguir mayúsculas) en MovementKind.
func ParseMovementKind(s string) (MovementKind, error) {
	k := MovementKind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range MovementKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("tipo de movimiento desconocido: %q", s)
}

// Direction regla de dirección de un tipo de movimiento.
type Direction int

const (
	DirectionInbound  Direction = iota + 1 // requiere destino
	DirectionOutbound                      // requiere origen
	DirectionTransfer                      // requiere origen y destino distintos
	DirectionSigned                        // el llamador indica el signo (ajustes)
)

// Direction devuelve la regla de dirección del tipo. Todo tipo válido tiene exactamente una.
func (k MovementKind) Direction() (Direction, bool) {
	switch k {
	case MovementIN, MovementPURCHASE:
		return DirectionInbound, true
	case MovementOUT, MovementSALE:
		return DirectionOutbound, true
	case MovementTRANSFER:
		return DirectionTransfer, true
	case MovementADJUSTMENT:
		return DirectionSigned, true
	}
	return 0, false
}

// AdjustmentSign signo explícito de un ajuste.
type AdjustmentSign string

const (
	AdjustmentIncrease AdjustmentSign = "INCREASE"
	AdjustmentDecrease AdjustmentSign = "DECREASE"
)

// MovementEntry fila inmutable del ledger. Magnitude siempre es positiva; la dirección
// la dan FromLocationID (-) y ToLocationID (+). Un TRANSFER es una sola fila con ambos lados.
type MovementEntry struct {
	ID             string
	Sequence       int64 // orden global de escritura (mayor = más reciente)
	TenantID       string
	ItemID         string
	Kind           MovementKind
	Magnitude      decimal.Decimal
	FromLocationID string
	ToLocationID   string
	ReferenceID    string // documento de negocio externo; vacío si no hay
	Reason         string
	ActorID        string
	CreatedAt      time.Time
}

// Delta cambio con signo sobre una ubicación.
type Delta struct {
	LocationID string
	Amount     decimal.Decimal
}

// Deltas devuelve los cambios con signo que la entrada aplica (origen primero).
func (e MovementEntry) Deltas() []Delta {
	out := make([]Delta, 0, 2)
	if e.FromLocationID != "" {
		out = append(out, Delta{LocationID: e.FromLocationID, Amount: e.Magnitude.Neg()})
	}
	if e.ToLocationID != "" {
		out = append(out, Delta{LocationID: e.ToLocationID, Amount: e.Magnitude})
	}
	return out
}

// Keys devuelve las claves de proyección tocadas por la entrada.
func (e MovementEntry) Keys() []StockKey {
	ds := e.Deltas()
	keys := make([]StockKey, 0, len(ds))
	for _, d := range ds {
		keys = append(keys, StockKey{TenantID: e.TenantID, ItemID: e.ItemID, LocationID: d.LocationID})
	}
	return keys
}

// KardexEntry entrada del ledger enriquecida con nombres legibles (solo lectura).
type KardexEntry struct {
	MovementEntry
	FromLocationName string
	ToLocationName   string
	ActorName        string
}
