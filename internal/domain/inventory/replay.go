package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Replayer acumula entradas del ledger en orden cronológico y calcula el saldo por ubicación.
type Replayer struct {
	balances map[string]decimal.Decimal
	entries  int
	negative bool
}

// NewReplayer crea un acumulador vacío.
func NewReplayer() *Replayer {
	return &Replayer{balances: make(map[string]decimal.Decimal)}
}

// Add aplica una entrada. Las entradas deben llegar en orden cronológico.
func (r *Replayer) Add(e entity.MovementEntry) {
	r.entries++
	for _, d := range e.Deltas() {
		bal := r.balances[d.LocationID].Add(d.Amount)
		if bal.IsNegative() {
			r.negative = true
		}
		r.balances[d.LocationID] = bal
	}
}

// Balances saldos reproducidos por ubicación.
func (r *Replayer) Balances() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(r.balances))
	for k, v := range r.balances {
		out[k] = v
	}
	return out
}

// Reconcile compara los saldos reproducidos con las proyecciones actuales del ítem.
// Una ubicación presente solo en un lado cuenta con cero en el otro.
func (r *Replayer) Reconcile(tenantID, itemID string, projections []entity.StockProjection, now time.Time) entity.ReconciliationReport {
	projected := make(map[string]decimal.Decimal, len(projections))
	for _, p := range projections {
		projected[p.LocationID] = p.Quantity
	}
	ids := make(map[string]struct{}, len(projected)+len(r.balances))
	for id := range projected {
		ids[id] = struct{}{}
	}
	for id := range r.balances {
		ids[id] = struct{}{}
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	rep := entity.ReconciliationReport{
		TenantID:            tenantID,
		ItemID:              itemID,
		EntriesReplayed:     r.entries,
		Consistent:          !r.negative,
		NegativeBalanceSeen: r.negative,
		CheckedAt:           now,
	}
	for _, id := range sorted {
		c := entity.LocationCheck{
			LocationID: id,
			Projected:  projected[id],
			Replayed:   r.balances[id],
		}
		c.Matches = c.Projected.Equal(c.Replayed)
		if !c.Matches {
			rep.Consistent = false
		}
		rep.Locations = append(rep.Locations, c)
	}
	return rep
}
