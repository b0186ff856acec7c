package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un bien del catálogo (maestro externo, solo lectura para el motor).
// Tracked=false corresponde a servicios: nunca aparecen en proyecciones ni en el ledger.
type Item struct {
	ID          string
	TenantID    string
	SKU         string // único por tenant
	Name        string
	UnitMeasure string
	Tracked     bool
	MinStock    decimal.Decimal // umbral para el monitor de stock bajo
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
