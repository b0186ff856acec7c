package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

func agg(id, name string, stock, min int64) entity.ItemAggregate {
	return entity.ItemAggregate{
		Item: entity.Item{
			ID: id, TenantID: "t1", Name: name, Tracked: true, Active: true,
			MinStock: decimal.NewFromInt(min),
		},
		AggregateStock: decimal.NewFromInt(stock),
	}
}

func TestSelectLowStock_OrdenPorDeficitYNombre(t *testing.T) {
	alerts := inventory.SelectLowStock([]entity.ItemAggregate{
		agg("a", "Tornillo", 4, 5),  // -1
		agg("b", "Arandela", 0, 10), // -10
		agg("c", "Clavo", 9, 10),    // -1
		agg("d", "Tuerca", 20, 5),   // fuera
		agg("e", "Perno", 5, 5),     // en el mínimo, fuera
	}, time.Now())

	require.Len(t, alerts, 3)
	ids := []string{alerts[0].ItemID, alerts[1].ItemID, alerts[2].ItemID}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
	assert.Equal(t, "10", alerts[0].Deficiency.String())
	assert.Equal(t, "1", alerts[2].Deficiency.String())
}

func TestSelectLowStock_ExcluyeNoInventariablesEInactivos(t *testing.T) {
	service := agg("s", "Instalación", 0, 5)
	service.Item.Tracked = false
	retired := agg("r", "Viejo", 0, 5)
	retired.Item.Active = false

	alerts := inventory.SelectLowStock([]entity.ItemAggregate{service, retired}, time.Now())
	assert.Empty(t, alerts)
}

// Escenario D: agregado 3 con mínimo 5 → déficit 2; en 5 ya no aparece.
func TestSelectLowStock_EscenarioD(t *testing.T) {
	alerts := inventory.SelectLowStock([]entity.ItemAggregate{agg("w", "WIDGET", 3, 5)}, time.Now())
	require.Len(t, alerts, 1)
	assert.Equal(t, "2", alerts[0].Deficiency.String())

	alerts = inventory.SelectLowStock([]entity.ItemAggregate{agg("w", "WIDGET", 5, 5)}, time.Now())
	assert.Empty(t, alerts)
}

func TestSelectLowStock_MinimoCeroNuncaAlerta(t *testing.T) {
	alerts := inventory.SelectLowStock([]entity.ItemAggregate{agg("z", "Sin umbral", 0, 0)}, time.Now())
	assert.Empty(t, alerts)
}
