// Package bootstrap arma los adaptadores de almacenamiento y los servicios del motor
// a partir de la configuración, para que cmd/api y cmd/lowstock-worker compartan el cableado.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// DemoTenant tenant sembrado cuando STORE_DRIVER=memory.
const DemoTenant = "demo"

// Store repos de lectura, runner transaccional y cierre del almacenamiento elegido.
type Store struct {
	TxRunner  inventory.TxRunner
	Items     repository.ItemRepository
	Locations repository.LocationRepository
	Actors    repository.ActorRepository
	Stock     repository.StockRepository
	Movements repository.MovementRepository
	Close     func()
}

// OpenStore abre PostgreSQL (aplicando el esquema si DB_AUTO_MIGRATE) o el store en memoria.
func OpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Store, error) {
	switch cfg.App.StoreDriver {
	case "memory":
		s := memory.NewStore(memory.WithLockTimeout(cfg.DB.LockTimeout))
		seedDemo(s)
		log.Warn().Str("tenant_id", DemoTenant).Msg("usando store en memoria con catálogo de demostración")
		return &Store{
			TxRunner:  memory.NewTxRunner(s),
			Items:     s.Items(),
			Locations: s.Locations(),
			Actors:    s.Actors(),
			Stock:     s.Stock(),
			Movements: s.Movements(),
			Close:     func() {},
		}, nil
	case "postgres", "":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			log.Info().Msg("esquema aplicado")
		}
		return &Store{
			TxRunner: postgres.NewTxRunner(pool, postgres.TxOptions{
				StatementTimeout: cfg.DB.StatementTimeout,
				LockTimeout:      cfg.DB.LockTimeout,
			}),
			Items:     postgres.NewItemRepository(pool),
			Locations: postgres.NewLocationRepository(pool),
			Actors:    postgres.NewActorRepository(pool),
			Stock:     postgres.NewStockRepository(pool),
			Movements: postgres.NewMovementRepository(pool),
			Close:     pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("store driver desconocido: %q", cfg.App.StoreDriver)
	}
}

// Services componentes del motor cableados sobre un Store.
type Services struct {
	Engine  *inventory.MovementEngine
	Guard   *inventory.IdempotencyGuard
	Kardex  *inventory.KardexService
	Monitor *inventory.LowStockMonitor
	UseCase *inventory.InventoryUseCase
}

// NewServices construye motor, guard, kardex y monitor. renderer puede ser nil.
func NewServices(st *Store, cfg config.EngineConfig, renderer inventory.KardexRenderer, log *logger.Logger) *Services {
	engine := inventory.NewMovementEngine(st.TxRunner, st.Items, st.Locations, inventory.EngineOptions{
		Retry: inventory.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseBackoff: cfg.BaseBackoff,
			MaxBackoff:  cfg.MaxBackoff,
		},
		ApplyTimeout: cfg.ApplyTimeout,
	}, log)
	guard := inventory.NewIdempotencyGuard(engine, st.Movements, st.Stock, log)
	kardex := inventory.NewKardexService(st.TxRunner, st.Movements, st.Items, st.Locations, st.Actors, renderer, log)
	monitor := inventory.NewLowStockMonitor(st.Items, st.Stock)
	return &Services{
		Engine:  engine,
		Guard:   guard,
		Kardex:  kardex,
		Monitor: monitor,
		UseCase: inventory.NewInventoryUseCase(guard, kardex, monitor, st.Items, st.Locations, st.Stock),
	}
}

func seedDemo(s *memory.Store) {
	s.PutLocation(entity.Location{ID: "bodega-central", TenantID: DemoTenant, Name: "Bodega central", Kind: entity.LocationWarehouse, IsDefault: true, Active: true})
	s.PutLocation(entity.Location{ID: "camion-1", TenantID: DemoTenant, Name: "Camión 1", Kind: entity.LocationVehicle, Active: true})
	s.PutItem(entity.Item{ID: "tornillo-14", TenantID: DemoTenant, SKU: "TOR-14", Name: "Tornillo 1/4", UnitMeasure: "UND", Tracked: true, Active: true, MinStock: decimal.NewFromInt(50)})
	s.PutItem(entity.Item{ID: "cable-12", TenantID: DemoTenant, SKU: "CAB-12", Name: "Cable 12 AWG", UnitMeasure: "M", Tracked: true, Active: true, MinStock: decimal.NewFromInt(100)})
	s.PutItem(entity.Item{ID: "instalacion", TenantID: DemoTenant, SKU: "SRV-INST", Name: "Instalación", UnitMeasure: "SRV", Tracked: false, Active: true})
	s.PutActor(entity.Actor{ID: "admin", TenantID: DemoTenant, Name: "Administrador"})
}
