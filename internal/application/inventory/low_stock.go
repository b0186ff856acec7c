package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// LowStockMonitor compara el stock agregado de cada ítem contra su mínimo. Solo lectura.
type LowStockMonitor struct {
	itemRepo  repository.ItemRepository
	stockRepo repository.StockRepository
	now       func() time.Time
}

func NewLowStockMonitor(itemRepo repository.ItemRepository, stockRepo repository.StockRepository) *LowStockMonitor {
	return &LowStockMonitor{
		itemRepo:  itemRepo,
		stockRepo: stockRepo,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Scan devuelve los ítems inventariables y activos con stock agregado estrictamente menor que MinStock,
// más deficitario primero. Los ítems inactivos no alertan aunque sigan inventariables.
func (m *LowStockMonitor) Scan(ctx context.Context, tenantID string) ([]entity.LowStockAlert, error) {
	items, err := m.itemRepo.ListTracked(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list tracked items: %w", err)
	}
	sums, err := m.stockRepo.SumByItem(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("sum stock: %w", err)
	}
	aggs := make([]entity.ItemAggregate, 0, len(items))
	for _, it := range items {
		total, ok := sums[it.ID]
		if !ok {
			total = decimal.Zero
		}
		aggs = append(aggs, entity.ItemAggregate{Item: *it, AggregateStock: total})
	}
	return inventory.SelectLowStock(aggs, m.now()), nil
}
