package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// IdempotencyGuard envuelve al motor y reconoce entregas repetidas de un mismo documento externo.
// La referencia se identifica por (tenant, referencia, ítem, tipo): un documento de venta puede
// consumir varios ítems, pero cada ítem+tipo solo una vez.
type IdempotencyGuard struct {
	engine    *MovementEngine
	movRepo   repository.MovementRepository
	stockRepo repository.StockRepository
	log       *logger.Logger
}

// NewIdempotencyGuard construye el guard. movRepo y stockRepo son de lectura (fuera de tx).
func NewIdempotencyGuard(engine *MovementEngine, movRepo repository.MovementRepository, stockRepo repository.StockRepository, log *logger.Logger) *IdempotencyGuard {
	if log == nil {
		log = logger.Nop()
	}
	return &IdempotencyGuard{engine: engine, movRepo: movRepo, stockRepo: stockRepo, log: log}
}

// ApplyIdempotent aplica el movimiento salvo que su referencia ya conste en el ledger, en cuyo caso
// devuelve Applied=false con la entrada previa y las proyecciones actuales, sin escribir nada.
func (g *IdempotencyGuard) ApplyIdempotent(ctx context.Context, req MovementRequest) (*ApplyResult, error) {
	if req.ReferenceID == "" {
		return g.engine.Apply(ctx, req)
	}

	prior, err := g.movRepo.FindByReference(ctx, req.TenantID, req.ReferenceID, req.ItemID, req.Kind)
	if err != nil {
		return nil, fmt.Errorf("find by reference: %w", err)
	}
	if prior != nil {
		return g.replay(ctx, prior)
	}

	res, err := g.engine.Apply(ctx, req)
	if errors.Is(err, domain.ErrDuplicateReference) {
		// Otra entrega concurrente ganó la carrera y ya confirmó.
		prior, ferr := g.movRepo.FindByReference(ctx, req.TenantID, req.ReferenceID, req.ItemID, req.Kind)
		if ferr != nil {
			return nil, fmt.Errorf("find by reference: %w", ferr)
		}
		if prior == nil {
			return nil, err
		}
		return g.replay(ctx, prior)
	}
	return res, err
}

func (g *IdempotencyGuard) replay(ctx context.Context, prior *entity.MovementEntry) (*ApplyResult, error) {
	keys := prior.Keys()
	projections := make([]entity.StockProjection, 0, len(keys))
	for _, k := range keys {
		p, err := g.stockRepo.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("get stock: %w", err)
		}
		projections = append(projections, *p)
	}
	g.log.Info().Str("tenant_id", prior.TenantID).Str("item_id", prior.ItemID).
		Str("reference_id", prior.ReferenceID).Str("entry_id", prior.ID).
		Msg("referencia ya aplicada, se omite")
	return &ApplyResult{Applied: false, Entry: prior, Projections: projections}, nil
}
