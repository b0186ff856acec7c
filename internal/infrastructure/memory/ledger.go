package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo lectura del ledger confirmado.
type MovementRepo struct{ s *Store }

func (r *MovementRepo) Append(context.Context, *entity.MovementEntry) error {
	return errOutsideTx
}

func (r *MovementRepo) FindByReference(_ context.Context, tenantID, referenceID, itemID string, kind entity.MovementKind) (*entity.MovementEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	idx, ok := r.s.refs[refKey{tenantID: tenantID, referenceID: referenceID, itemID: itemID, kind: kind}]
	if !ok {
		return nil, nil
	}
	e := r.s.entries[idx]
	return &e, nil
}

func (r *MovementRepo) ListByItem(_ context.Context, f repository.MovementFilter) ([]entity.MovementEntry, error) {
	r.s.mu.RLock()
	entries := r.s.entries[:len(r.s.entries):len(r.s.entries)]
	r.s.mu.RUnlock()
	return filterEntries(entries, f), nil
}

// filterEntries aplica el filtro sobre entries (ordenadas por Sequence ascendente).
func filterEntries(entries []entity.MovementEntry, f repository.MovementFilter) []entity.MovementEntry {
	out := make([]entity.MovementEntry, 0)
	match := func(e entity.MovementEntry) bool {
		if e.TenantID != f.TenantID || e.ItemID != f.ItemID {
			return false
		}
		if f.BeforeSequence > 0 && e.Sequence >= f.BeforeSequence {
			return false
		}
		if f.AfterSequence > 0 && e.Sequence <= f.AfterSequence {
			return false
		}
		return true
	}
	if f.Ascending {
		for _, e := range entries {
			if match(e) {
				out = append(out, e)
				if f.Limit > 0 && len(out) == f.Limit {
					break
				}
			}
		}
		return out
	}
	for _, e := range slices.Backward(entries) {
		if match(e) {
			out = append(out, e)
			if f.Limit > 0 && len(out) == f.Limit {
				break
			}
		}
	}
	return out
}
