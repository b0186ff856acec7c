package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// TenantLister enumera los tenants a escanear.
type TenantLister interface {
	ListTenants(ctx context.Context) ([]string, error)
}

// LowStockScheduler ejecuta el monitor de forma periódica para todos los tenants y entrega
// las alertas al publicador. No guarda estado ni escribe en el ledger.
type LowStockScheduler struct {
	monitor     *LowStockMonitor
	tenants     TenantLister
	locker      ScanLocker // nil = sin coordinación entre réplicas
	publisher   AlertPublisher
	interval    time.Duration
	concurrency int
	log         *logger.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewLowStockScheduler construye el scheduler.
func NewLowStockScheduler(
	monitor *LowStockMonitor,
	tenants TenantLister,
	locker ScanLocker,
	publisher AlertPublisher,
	interval time.Duration,
	concurrency int,
	log *logger.Logger,
) *LowStockScheduler {
	if log == nil {
		log = logger.Nop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &LowStockScheduler{
		monitor:     monitor,
		tenants:     tenants,
		locker:      locker,
		publisher:   publisher,
		interval:    interval,
		concurrency: concurrency,
		log:         log,
	}
}

// Start lanza el ciclo en segundo plano; la primera pasada es inmediata.
func (s *LowStockScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker, s.stop)
	s.log.Info().Dur("interval", s.interval).Msg("monitor de stock bajo iniciado")
}

// Stop detiene el ciclo y espera a que termine la pasada en curso.
func (s *LowStockScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.log.Info().Msg("monitor de stock bajo detenido")
}

func (s *LowStockScheduler) run(ticker *time.Ticker, stop chan struct{}) {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	s.tick(ctx)
	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-stop:
			return
		}
	}
}

func (s *LowStockScheduler) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error().Err(err).Msg("escaneo de stock bajo falló")
	}
}

// RunOnce escanea todos los tenants (con concurrencia acotada) y devuelve cuántas alertas publicó.
// El fallo de un tenant se registra y no detiene a los demás.
func (s *LowStockScheduler) RunOnce(ctx context.Context) (int, error) {
	tenants, err := s.tenants.ListTenants(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tenants: %w", err)
	}

	var (
		mu        sync.Mutex
		published int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, tenantID := range tenants {
		g.Go(func() error {
			n, err := s.scanTenant(gctx, tenantID)
			if err != nil {
				s.log.Error().Err(err).Str("tenant_id", tenantID).Msg("escaneo de tenant falló")
				return nil
			}
			mu.Lock()
			published += n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return published, err
	}
	return published, ctx.Err()
}

func (s *LowStockScheduler) scanTenant(ctx context.Context, tenantID string) (int, error) {
	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, "lowstock:scan:"+tenantID)
		if err != nil {
			return 0, fmt.Errorf("lock scan: %w", err)
		}
		if !ok {
			s.log.Debug().Str("tenant_id", tenantID).Msg("otro proceso escanea este tenant, se omite")
			return 0, nil
		}
		defer release()
	}

	alerts, err := s.monitor.Scan(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if len(alerts) == 0 {
		return 0, nil
	}
	if err := s.publisher.Publish(ctx, tenantID, alerts); err != nil {
		return 0, fmt.Errorf("publish alerts: %w", err)
	}
	return len(alerts), nil
}

// LogAlertPublisher publicador que solo registra las alertas (cuando no hay Redis configurado).
type LogAlertPublisher struct {
	log *logger.Logger
}

func NewLogAlertPublisher(log *logger.Logger) *LogAlertPublisher {
	return &LogAlertPublisher{log: log}
}

func (p *LogAlertPublisher) Publish(_ context.Context, tenantID string, alerts []entity.LowStockAlert) error {
	for _, a := range alerts {
		p.log.Warn().Str("tenant_id", tenantID).Str("item_id", a.ItemID).Str("sku", a.SKU).
			Str("aggregate", a.AggregateStock.String()).Str("min_stock", a.MinStock.String()).
			Str("deficiency", a.Deficiency.String()).
			Msg("stock bajo")
	}
	return nil
}
