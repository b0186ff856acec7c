package inventory_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture común: tenant t1 con WIDGET (min 5), un servicio y tres ubicaciones
// (L3 inactiva); tenant t2 con su propio ítem y ubicación.
// ──────────────────────────────────────────────────────────────────────────────

const (
	tenant   = "t1"
	actor    = "a1"
	widget   = "widget"
	gadget   = "gadget"
	service  = "svc"
	loc1     = "L1"
	loc2     = "L2"
	inactive = "L3"
)

// countingRunner cuenta cuántas transacciones se abren; hold mantiene cada tx abierta
// (con sus bloqueos) antes del commit.
type countingRunner struct {
	inner *memory.TxRunner
	runs  atomic.Int32
	hold  time.Duration
}

func (r *countingRunner) Run(ctx context.Context, fn func(repository.MovementRepository, repository.StockRepository) error) error {
	r.runs.Add(1)
	if r.hold == 0 {
		return r.inner.Run(ctx, fn)
	}
	return r.inner.Run(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
		if err := fn(movRepo, stockRepo); err != nil {
			return err
		}
		time.Sleep(r.hold)
		return nil
	})
}

func (r *countingRunner) ReadSnapshot(ctx context.Context, fn func(repository.MovementRepository, repository.StockRepository) error) error {
	return r.inner.ReadSnapshot(ctx, fn)
}

type fixture struct {
	store   *memory.Store
	runner  *countingRunner
	engine  *inventory.MovementEngine
	guard   *inventory.IdempotencyGuard
	kardex  *inventory.KardexService
	monitor *inventory.LowStockMonitor
	uc      *inventory.InventoryUseCase
}

type fixtureOpts struct {
	engine   inventory.EngineOptions
	store    []memory.Option
	renderer inventory.KardexRenderer
	txHold   time.Duration
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()
	if opts.engine.Retry.MaxAttempts == 0 {
		opts.engine.Retry = inventory.RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	}
	s := memory.NewStore(opts.store...)
	s.PutItem(entity.Item{ID: widget, TenantID: tenant, SKU: "WIDGET", Name: "Widget", UnitMeasure: "UND", Tracked: true, Active: true, MinStock: decimal.NewFromInt(5)})
	s.PutItem(entity.Item{ID: gadget, TenantID: tenant, SKU: "GADGET", Name: "Gadget", UnitMeasure: "UND", Tracked: true, Active: true, MinStock: decimal.Zero})
	s.PutItem(entity.Item{ID: service, TenantID: tenant, SKU: "INSTALL", Name: "Instalación", Tracked: false, Active: true})
	s.PutItem(entity.Item{ID: "other", TenantID: "t2", SKU: "OTHER", Name: "Otro", Tracked: true, Active: true})
	s.PutLocation(entity.Location{ID: loc1, TenantID: tenant, Name: "Bodega central", Kind: entity.LocationWarehouse, IsDefault: true, Active: true})
	s.PutLocation(entity.Location{ID: loc2, TenantID: tenant, Name: "Camión 1", Kind: entity.LocationVehicle, Active: true})
	s.PutLocation(entity.Location{ID: inactive, TenantID: tenant, Name: "Obra cerrada", Kind: entity.LocationSite, Active: false})
	s.PutLocation(entity.Location{ID: "X", TenantID: "t2", Name: "Bodega t2", Kind: entity.LocationWarehouse, IsDefault: true, Active: true})
	s.PutActor(entity.Actor{ID: actor, TenantID: tenant, Name: "Ana Pérez"})

	runner := &countingRunner{inner: memory.NewTxRunner(s), hold: opts.txHold}
	log := logger.Nop()
	engine := inventory.NewMovementEngine(runner, s.Items(), s.Locations(), opts.engine, log)
	guard := inventory.NewIdempotencyGuard(engine, s.Movements(), s.Stock(), log)
	kardex := inventory.NewKardexService(runner, s.Movements(), s.Items(), s.Locations(), s.Actors(), opts.renderer, log)
	monitor := inventory.NewLowStockMonitor(s.Items(), s.Stock())
	uc := inventory.NewInventoryUseCase(guard, kardex, monitor, s.Items(), s.Locations(), s.Stock())
	return &fixture{store: s, runner: runner, engine: engine, guard: guard, kardex: kardex, monitor: monitor, uc: uc}
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func inbound(item, to string, n int64) inventory.MovementRequest {
	return inventory.MovementRequest{TenantID: tenant, ActorID: actor, ItemID: item, Kind: entity.MovementIN, Magnitude: qty(n), ToLocationID: to}
}

func outbound(item, from string, n int64) inventory.MovementRequest {
	return inventory.MovementRequest{TenantID: tenant, ActorID: actor, ItemID: item, Kind: entity.MovementOUT, Magnitude: qty(n), FromLocationID: from}
}

func transfer(item, from, to string, n int64) inventory.MovementRequest {
	return inventory.MovementRequest{TenantID: tenant, ActorID: actor, ItemID: item, Kind: entity.MovementTRANSFER, Magnitude: qty(n), FromLocationID: from, ToLocationID: to}
}

// stockAt lee la proyección confirmada.
func (f *fixture) stockAt(t *testing.T, item, loc string) string {
	t.Helper()
	p, err := f.store.Stock().Get(context.Background(), entity.StockKey{TenantID: tenant, ItemID: item, LocationID: loc})
	require.NoError(t, err)
	return p.Quantity.String()
}

func (f *fixture) ledgerLen(t *testing.T, item string) int {
	t.Helper()
	rows, err := f.store.Movements().ListByItem(context.Background(), repository.MovementFilter{TenantID: tenant, ItemID: item})
	require.NoError(t, err)
	return len(rows)
}

func (f *fixture) mustApply(t *testing.T, req inventory.MovementRequest) *inventory.ApplyResult {
	t.Helper()
	res, err := f.engine.Apply(context.Background(), req)
	require.NoError(t, err)
	return res
}
