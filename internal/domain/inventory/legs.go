package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// QuantityScale decimales que admite una cantidad; coincide con NUMERIC(18,4) del almacenamiento.
const QuantityScale = 4

// Leg cambio con signo que un movimiento aplica sobre una ubicación.
type Leg struct {
	LocationID string
	Delta      decimal.Decimal
}

// Outgoing indica si la pierna descuenta stock (requiere verificar disponibilidad).
func (l Leg) Outgoing() bool { return l.Delta.IsNegative() }

// Plan resultado de validar la forma de un movimiento (sin E/S).
type Plan struct {
	Kind           entity.MovementKind
	Magnitude      decimal.Decimal
	FromLocationID string
	ToLocationID   string
	Legs           []Leg // salidas primero
}

// PlanLegs valida magnitud y combinación tipo/ubicaciones y devuelve las piernas con signo.
// sign solo aplica a ADJUSTMENT.
func PlanLegs(kind entity.MovementKind, sign entity.AdjustmentSign, magnitude decimal.Decimal, from, to string) (*Plan, error) {
	dir, ok := kind.Direction()
	if !ok {
		return nil, domain.InvalidMovement("tipo %q no soportado", kind)
	}
	if magnitude.IsZero() {
		return nil, domain.ErrNoOp
	}
	if magnitude.IsNegative() {
		return nil, domain.InvalidMovement("la magnitud debe ser positiva")
	}
	if !magnitude.Equal(magnitude.Truncate(QuantityScale)) {
		return nil, domain.InvalidMovement("la magnitud admite como máximo %d decimales", QuantityScale)
	}
	if dir != entity.DirectionSigned && sign != "" {
		return nil, domain.InvalidMovement("%s no admite signo explícito", kind)
	}

	switch dir {
	case entity.DirectionInbound:
		if to == "" || from != "" {
			return nil, domain.InvalidMovement("%s requiere solo ubicación destino", kind)
		}
	case entity.DirectionOutbound:
		if from == "" || to != "" {
			return nil, domain.InvalidMovement("%s requiere solo ubicación origen", kind)
		}
	case entity.DirectionTransfer:
		if from == "" || to == "" {
			return nil, domain.InvalidMovement("TRANSFER requiere origen y destino")
		}
		if from == to {
			return nil, domain.InvalidMovement("origen y destino deben ser distintos")
		}
	case entity.DirectionSigned:
		switch sign {
		case entity.AdjustmentIncrease:
			if to == "" || from != "" {
				return nil, domain.InvalidMovement("ajuste positivo requiere solo ubicación destino")
			}
		case entity.AdjustmentDecrease:
			if from == "" || to != "" {
				return nil, domain.InvalidMovement("ajuste negativo requiere solo ubicación origen")
			}
		default:
			return nil, domain.InvalidMovement("ADJUSTMENT requiere signo INCREASE o DECREASE")
		}
	}

	p := &Plan{Kind: kind, Magnitude: magnitude, FromLocationID: from, ToLocationID: to}
	if from != "" {
		p.Legs = append(p.Legs, Leg{LocationID: from, Delta: magnitude.Neg()})
	}
	if to != "" {
		p.Legs = append(p.Legs, Leg{LocationID: to, Delta: magnitude})
	}
	return p, nil
}
