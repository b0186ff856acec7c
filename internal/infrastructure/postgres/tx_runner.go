package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

var tracer = otel.Tracer("stock-ledger/postgres")

// TxOptions límites aplicados con SET LOCAL a cada transacción del motor.
type TxOptions struct {
	StatementTimeout time.Duration
	LockTimeout      time.Duration
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	opts TxOptions
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, opts TxOptions) *TxRunner {
	return &TxRunner{pool: pool, opts: opts}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los bloqueos de fila (SELECT ... FOR UPDATE) serializan por (ítem, ubicación).
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) (err error) {
	ctx, span := tracer.Start(ctx, "postgres.tx",
		trace.WithAttributes(attribute.String("db.tx.mode", "read_write")))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if err := r.applyLimits(ctx, tx); err != nil {
		return err
	}
	if err := fn(NewMovementRepository(tx), NewStockRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// ReadSnapshot ejecuta fn en una transacción REPEATABLE READ de solo lectura: todas las
// consultas ven el mismo estado confirmado sin bloquear a los escritores.
func (r *TxRunner) ReadSnapshot(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) (err error) {
	ctx, span := tracer.Start(ctx, "postgres.snapshot",
		trace.WithAttributes(attribute.String("db.tx.mode", "read_only")))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return classify("begin snapshot", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if r.opts.StatementTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", r.opts.StatementTimeout.Milliseconds())); err != nil {
			return classify("set statement timeout", err)
		}
	}
	if err := fn(NewMovementRepository(tx), NewStockRepository(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *TxRunner) applyLimits(ctx context.Context, tx pgx.Tx) error {
	if r.opts.StatementTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", r.opts.StatementTimeout.Milliseconds())); err != nil {
			return classify("set statement timeout", err)
		}
	}
	if r.opts.LockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", r.opts.LockTimeout.Milliseconds())); err != nil {
			return classify("set lock timeout", err)
		}
	}
	return nil
}
