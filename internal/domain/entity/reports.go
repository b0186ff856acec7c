package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocationCheck compara la proyección con la suma reproducida desde el ledger.
type LocationCheck struct {
	LocationID string
	Projected  decimal.Decimal
	Replayed   decimal.Decimal
	Matches    bool
}

// ReconciliationReport resultado de verificar el kardex de un ítem contra sus proyecciones.
type ReconciliationReport struct {
	TenantID            string
	ItemID              string
	EntriesReplayed     int
	Locations           []LocationCheck
	Consistent          bool
	NegativeBalanceSeen bool // algún saldo acumulado fue negativo durante el replay
	CheckedAt           time.Time
}

// LowStockAlert señal de stock bajo para el colaborador de notificaciones.
type LowStockAlert struct {
	TenantID       string          `json:"tenant_id"`
	ItemID         string          `json:"item_id"`
	SKU            string          `json:"sku"`
	ItemName       string          `json:"item_name"`
	UnitMeasure    string          `json:"unit_measure"`
	AggregateStock decimal.Decimal `json:"aggregate_stock"`
	MinStock       decimal.Decimal `json:"min_stock"`
	Deficiency     decimal.Decimal `json:"deficiency"` // minStock - aggregate (>= 0)
	DetectedAt     time.Time       `json:"detected_at"`
}
