package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// SelectLowStock filtra ítems inventariables y activos cuyo stock agregado está por debajo de
// MinStock y los ordena del más deficitario al menos; empates por nombre y luego por ID.
// Alcanzar el mínimo exacto saca al ítem del resultado.
func SelectLowStock(aggregates []entity.ItemAggregate, now time.Time) []entity.LowStockAlert {
	out := make([]entity.LowStockAlert, 0)
	for _, a := range aggregates {
		if !a.Item.Tracked || !a.Item.Active {
			continue
		}
		if !a.AggregateStock.LessThan(a.Item.MinStock) {
			continue
		}
		out = append(out, entity.LowStockAlert{
			TenantID:       a.Item.TenantID,
			ItemID:         a.Item.ID,
			SKU:            a.Item.SKU,
			ItemName:       a.Item.Name,
			UnitMeasure:    a.Item.UnitMeasure,
			AggregateStock: a.AggregateStock,
			MinStock:       a.Item.MinStock,
			Deficiency:     a.Item.MinStock.Sub(a.AggregateStock),
			DetectedAt:     now,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		gi := out[i].AggregateStock.Sub(out[i].MinStock)
		gj := out[j].AggregateStock.Sub(out[j].MinStock)
		if c := gi.Cmp(gj); c != 0 {
			return c < 0
		}
		if out[i].ItemName != out[j].ItemName {
			return out[i].ItemName < out[j].ItemName
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}
