package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var errReadOnly = errors.New("memory: instantánea de solo lectura")

// TxRunner ejecuta unidades de trabajo sobre el Store. Los cambios quedan en un buffer
// hasta el commit, que se aplica entero bajo el lock de escritura o no se aplica.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repos atados a una transacción nueva.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	t := &tx{
		s:       r.s,
		held:    make(map[entity.StockKey]struct{}),
		deltas:  make(map[entity.StockKey]decimal.Decimal),
		touched: make(map[entity.StockKey]time.Time),
	}
	defer t.release()

	if err := fn(&txMovementRepo{t: t}, &txStockRepo{t: t}); err != nil {
		return err
	}
	return t.commit(ctx)
}

// ReadSnapshot ejecuta fn sobre una copia consistente del estado confirmado, sin bloquear escritores.
func (r *TxRunner) ReadSnapshot(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.RLock()
	n := len(r.s.entries)
	snap := &snapshot{
		entries:     r.s.entries[:n:n],
		projections: maps.Clone(r.s.projections),
	}
	r.s.mu.RUnlock()
	return fn(&snapMovementRepo{snap: snap}, &snapStockRepo{snap: snap})
}

type tx struct {
	s       *Store
	held    map[entity.StockKey]struct{}
	order   []entity.StockKey
	deltas  map[entity.StockKey]decimal.Decimal
	touched map[entity.StockKey]time.Time
	staged  []*entity.MovementEntry
}

func (s *Store) keyLock(k entity.StockKey) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[k]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[k] = ch
	}
	return ch
}

// lock adquiere el bloqueo de la clave (reentrante dentro de la misma tx).
func (t *tx) lock(ctx context.Context, k entity.StockKey) error {
	if _, ok := t.held[k]; ok {
		return nil
	}
	ch := t.s.keyLock(k)
	var timeout <-chan time.Time
	if t.s.lockTimeout > 0 {
		timer := time.NewTimer(t.s.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case ch <- struct{}{}:
		t.held[k] = struct{}{}
		t.order = append(t.order, k)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timeout:
		return fmt.Errorf("%w: espera por bloqueo de %s", domain.ErrStorageContention, k)
	}
}

func (t *tx) release() {
	for _, k := range slices.Backward(t.order) {
		<-t.s.keyLock(k)
	}
	t.order = nil
	clear(t.held)
}

// current valor confirmado más lo acumulado en la tx.
func (t *tx) current(k entity.StockKey) entity.StockProjection {
	t.s.mu.RLock()
	p := projectionOf(t.s.projections, k)
	t.s.mu.RUnlock()
	if d, ok := t.deltas[k]; ok {
		p.Quantity = p.Quantity.Add(d)
		p.UpdatedAt = t.touched[k]
	}
	return p
}

func (t *tx) hasReference(k refKey) bool {
	for _, e := range t.staged {
		if e.ReferenceID != "" && refKeyOf(e) == k {
			return true
		}
	}
	_, ok := t.s.refs[k]
	return ok
}

func (t *tx) commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.s.nextFault(); err != nil {
		return err
	}

	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range t.staged {
		if e.ReferenceID == "" {
			continue
		}
		if _, dup := s.refs[refKeyOf(e)]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, e.ReferenceID)
		}
	}
	for k, d := range t.deltas {
		cur := projectionOf(s.projections, k)
		if cur.Quantity.Add(d).IsNegative() {
			return &domain.InsufficientStockError{
				ItemID: k.ItemID, LocationID: k.LocationID,
				Available: cur.Quantity, Requested: d.Neg(),
			}
		}
	}

	for _, e := range t.staged {
		s.seq++
		e.Sequence = s.seq
		s.entries = append(s.entries, *e)
		if e.ReferenceID != "" {
			s.refs[refKeyOf(e)] = len(s.entries) - 1
		}
	}
	for k, d := range t.deltas {
		p := projectionOf(s.projections, k)
		p.Quantity = p.Quantity.Add(d)
		p.UpdatedAt = t.touched[k]
		s.projections[k] = p
	}
	return nil
}

// txStockRepo proyección vista desde la transacción (lee sus propias escrituras).
type txStockRepo struct{ t *tx }

func (r *txStockRepo) Get(_ context.Context, key entity.StockKey) (*entity.StockProjection, error) {
	p := r.t.current(key)
	return &p, nil
}

func (r *txStockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockProjection, error) {
	if err := r.t.lock(ctx, key); err != nil {
		return nil, err
	}
	p := r.t.current(key)
	return &p, nil
}

func (r *txStockRepo) ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal, at time.Time) (*entity.StockProjection, error) {
	if err := r.t.lock(ctx, key); err != nil {
		return nil, err
	}
	r.t.deltas[key] = r.t.deltas[key].Add(delta)
	r.t.touched[key] = at
	p := r.t.current(key)
	return &p, nil
}

func (r *txStockRepo) ListByItem(_ context.Context, tenantID, itemID string) ([]entity.StockProjection, error) {
	r.t.s.mu.RLock()
	view := maps.Clone(r.t.s.projections)
	r.t.s.mu.RUnlock()
	for k := range r.t.deltas {
		view[k] = r.t.current(k)
	}
	return listProjections(view, tenantID, itemID), nil
}

func (r *txStockRepo) SumByItem(_ context.Context, tenantID string) (map[string]decimal.Decimal, error) {
	r.t.s.mu.RLock()
	view := maps.Clone(r.t.s.projections)
	r.t.s.mu.RUnlock()
	for k := range r.t.deltas {
		view[k] = r.t.current(k)
	}
	return sumProjections(view, tenantID), nil
}

// txMovementRepo ledger visto desde la transacción; Append deja la entrada en buffer.
type txMovementRepo struct{ t *tx }

func (r *txMovementRepo) Append(_ context.Context, e *entity.MovementEntry) error {
	if e.ReferenceID != "" {
		r.t.s.mu.RLock()
		dup := r.t.hasReference(refKeyOf(e))
		r.t.s.mu.RUnlock()
		if dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, e.ReferenceID)
		}
	}
	r.t.staged = append(r.t.staged, e)
	return nil
}

func (r *txMovementRepo) FindByReference(ctx context.Context, tenantID, referenceID, itemID string, kind entity.MovementKind) (*entity.MovementEntry, error) {
	k := refKey{tenantID: tenantID, referenceID: referenceID, itemID: itemID, kind: kind}
	for _, e := range r.t.staged {
		if e.ReferenceID != "" && refKeyOf(e) == k {
			cp := *e
			return &cp, nil
		}
	}
	return r.t.s.Movements().FindByReference(ctx, tenantID, referenceID, itemID, kind)
}

func (r *txMovementRepo) ListByItem(ctx context.Context, f repository.MovementFilter) ([]entity.MovementEntry, error) {
	return r.t.s.Movements().ListByItem(ctx, f)
}

type snapshot struct {
	entries     []entity.MovementEntry
	projections map[entity.StockKey]entity.StockProjection
}

type snapStockRepo struct{ snap *snapshot }

func (r *snapStockRepo) Get(_ context.Context, key entity.StockKey) (*entity.StockProjection, error) {
	p := projectionOf(r.snap.projections, key)
	return &p, nil
}

func (r *snapStockRepo) GetForUpdate(context.Context, entity.StockKey) (*entity.StockProjection, error) {
	return nil, errReadOnly
}

func (r *snapStockRepo) ApplyDelta(context.Context, entity.StockKey, decimal.Decimal, time.Time) (*entity.StockProjection, error) {
	return nil, errReadOnly
}

func (r *snapStockRepo) ListByItem(_ context.Context, tenantID, itemID string) ([]entity.StockProjection, error) {
	return listProjections(r.snap.projections, tenantID, itemID), nil
}

func (r *snapStockRepo) SumByItem(_ context.Context, tenantID string) (map[string]decimal.Decimal, error) {
	return sumProjections(r.snap.projections, tenantID), nil
}

type snapMovementRepo struct{ snap *snapshot }

func (r *snapMovementRepo) Append(context.Context, *entity.MovementEntry) error {
	return errReadOnly
}

func (r *snapMovementRepo) FindByReference(_ context.Context, tenantID, referenceID, itemID string, kind entity.MovementKind) (*entity.MovementEntry, error) {
	for _, e := range r.snap.entries {
		if e.TenantID == tenantID && e.ReferenceID == referenceID && e.ItemID == itemID && e.Kind == kind {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *snapMovementRepo) ListByItem(_ context.Context, f repository.MovementFilter) ([]entity.MovementEntry, error) {
	return filterEntries(r.snap.entries, f), nil
}
