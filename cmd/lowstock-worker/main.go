package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/bootstrap"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/redis"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	}).WithFields(map[string]any{"component": "lowstock-worker"})

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer store.Close()

	monitor := inventory.NewLowStockMonitor(store.Items, store.Stock)

	// Sin Redis: una sola réplica, alertas solo al log.
	var (
		locker    inventory.ScanLocker
		publisher inventory.AlertPublisher = inventory.NewLogAlertPublisher(log)
	)
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = redis.NewScanLocker(rdb, cfg.Monitor.LockTTL)
		publisher = redis.NewAlertPublisher(rdb, cfg.Redis.ChannelPrefix)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("alertas publicadas en Redis")
	}

	scheduler := inventory.NewLowStockScheduler(
		monitor, store.Items, locker, publisher,
		cfg.Monitor.Interval, cfg.Monitor.Concurrency, log,
	)
	scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, deteniendo monitor...")
	scheduler.Stop()
	log.Info().Msg("worker detenido")
}
