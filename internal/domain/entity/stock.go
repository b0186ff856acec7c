package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockKey identifica una celda de la proyección: (tenant, ítem, ubicación).
type StockKey struct {
	TenantID   string
	ItemID     string
	LocationID string
}

func (k StockKey) String() string {
	return k.TenantID + "/" + k.ItemID + "/" + k.LocationID
}

// Less define el orden total usado para adquirir bloqueos sin interbloqueos.
func (k StockKey) Less(o StockKey) bool {
	if k.TenantID != o.TenantID {
		return k.TenantID < o.TenantID
	}
	if k.ItemID != o.ItemID {
		return k.ItemID < o.ItemID
	}
	return k.LocationID < o.LocationID
}

// StockProjection cantidad actual de un ítem en una ubicación (derivada del ledger).
// Solo el motor de movimientos la modifica; nunca es negativa para ítems inventariables.
type StockProjection struct {
	TenantID   string
	ItemID     string
	LocationID string
	Quantity   decimal.Decimal
	UpdatedAt  time.Time
}

// Key devuelve la clave de la proyección.
func (p StockProjection) Key() StockKey {
	return StockKey{TenantID: p.TenantID, ItemID: p.ItemID, LocationID: p.LocationID}
}

// ItemAggregate stock total de un ítem sumando todas sus ubicaciones.
type ItemAggregate struct {
	Item           Item
	AggregateStock decimal.Decimal
}
