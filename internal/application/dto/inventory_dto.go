package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// UseDefaultLocation resuelve la ubicación por defecto del tenant como destino de entradas.
type RegisterMovementRequest struct {
	ItemID             string          `json:"item_id" validate:"required,max=64"`
	Kind               string          `json:"kind" validate:"required,oneof=IN OUT ADJUSTMENT SALE PURCHASE TRANSFER in out adjustment sale purchase transfer"`
	Sign               string          `json:"sign,omitempty" validate:"omitempty,oneof=INCREASE DECREASE"`
	Magnitude          decimal.Decimal `json:"magnitude"`
	FromLocationID     string          `json:"from_location_id,omitempty" validate:"omitempty,max=64"`
	ToLocationID       string          `json:"to_location_id,omitempty" validate:"omitempty,max=64"`
	UseDefaultLocation bool            `json:"use_default_location,omitempty"`
	ReferenceID        string          `json:"reference_id,omitempty" validate:"omitempty,max=128"`
	Reason             string          `json:"reason,omitempty" validate:"max=500"`
}

// StockProjectionDTO cantidad actual en una ubicación.
type StockProjectionDTO struct {
	ItemID       string          `json:"item_id"`
	LocationID   string          `json:"location_id"`
	LocationName string          `json:"location_name,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

// MovementEntryDTO fila del ledger.
type MovementEntryDTO struct {
	ID               string          `json:"id"`
	Sequence         int64           `json:"sequence"`
	ItemID           string          `json:"item_id"`
	Kind             string          `json:"kind"`
	Magnitude        decimal.Decimal `json:"magnitude"`
	FromLocationID   string          `json:"from_location_id,omitempty"`
	FromLocationName string          `json:"from_location_name,omitempty"`
	ToLocationID     string          `json:"to_location_id,omitempty"`
	ToLocationName   string          `json:"to_location_name,omitempty"`
	ReferenceID      string          `json:"reference_id,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	ActorID          string          `json:"actor_id"`
	ActorName        string          `json:"actor_name,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// MovementResponse respuesta de POST /api/inventory/movements. Applied=false indica referencia ya aplicada.
type MovementResponse struct {
	Applied     bool                 `json:"applied"`
	Entry       MovementEntryDTO     `json:"entry"`
	Projections []StockProjectionDTO `json:"projections"`
}

// KardexPageResponse página del kardex, más reciente primero.
type KardexPageResponse struct {
	ItemID     string             `json:"item_id"`
	Entries    []MovementEntryDTO `json:"entries"`
	NextCursor int64              `json:"next_cursor,omitempty"`
}

// LocationCheckDTO conciliación por ubicación.
type LocationCheckDTO struct {
	LocationID string          `json:"location_id"`
	Projected  decimal.Decimal `json:"projected"`
	Replayed   decimal.Decimal `json:"replayed"`
	Matches    bool            `json:"matches"`
}

// ReconciliationResponse resultado de verificar el kardex contra la proyección.
type ReconciliationResponse struct {
	ItemID              string             `json:"item_id"`
	EntriesReplayed     int                `json:"entries_replayed"`
	Consistent          bool               `json:"consistent"`
	NegativeBalanceSeen bool               `json:"negative_balance_seen"`
	Locations           []LocationCheckDTO `json:"locations"`
	CheckedAt           time.Time          `json:"checked_at"`
}

// LowStockItemDTO ítem bajo su mínimo.
type LowStockItemDTO struct {
	ItemID         string          `json:"item_id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	UnitMeasure    string          `json:"unit_measure,omitempty"`
	AggregateStock decimal.Decimal `json:"aggregate_stock"`
	MinStock       decimal.Decimal `json:"min_stock"`
	Deficiency     decimal.Decimal `json:"deficiency"`
}

// LowStockResponse respuesta de GET /api/inventory/low-stock.
type LowStockResponse struct {
	Items []LowStockItemDTO `json:"items"`
}
