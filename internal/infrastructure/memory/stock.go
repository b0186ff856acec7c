package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var errOutsideTx = errors.New("memory: escritura fuera de transacción")

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo lectura de la proyección confirmada. Las escrituras solo existen dentro de TxRunner.Run.
type StockRepo struct{ s *Store }

func (r *StockRepo) Get(_ context.Context, key entity.StockKey) (*entity.StockProjection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p := projectionOf(r.s.projections, key)
	return &p, nil
}

func (r *StockRepo) GetForUpdate(context.Context, entity.StockKey) (*entity.StockProjection, error) {
	return nil, errOutsideTx
}

func (r *StockRepo) ApplyDelta(context.Context, entity.StockKey, decimal.Decimal, time.Time) (*entity.StockProjection, error) {
	return nil, errOutsideTx
}

func (r *StockRepo) ListByItem(_ context.Context, tenantID, itemID string) ([]entity.StockProjection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return listProjections(r.s.projections, tenantID, itemID), nil
}

func (r *StockRepo) SumByItem(_ context.Context, tenantID string) (map[string]decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sumProjections(r.s.projections, tenantID), nil
}

func projectionOf(m map[entity.StockKey]entity.StockProjection, key entity.StockKey) entity.StockProjection {
	if p, ok := m[key]; ok {
		return p
	}
	return entity.StockProjection{TenantID: key.TenantID, ItemID: key.ItemID, LocationID: key.LocationID, Quantity: decimal.Zero}
}

func listProjections(m map[entity.StockKey]entity.StockProjection, tenantID, itemID string) []entity.StockProjection {
	out := make([]entity.StockProjection, 0)
	for k, p := range m {
		if k.TenantID == tenantID && k.ItemID == itemID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out
}

func sumProjections(m map[entity.StockKey]entity.StockProjection, tenantID string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for k, p := range m {
		if k.TenantID == tenantID {
			out[k.ItemID] = out[k.ItemID].Add(p.Quantity)
		}
	}
	return out
}
