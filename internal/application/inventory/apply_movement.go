package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var tracer = otel.Tracer("stock-ledger/inventory")

// MovementRequest solicitud de movimiento tal como llega de los colaboradores.
// TenantID y ActorID vienen del contexto de identidad y no se re-derivan.
type MovementRequest struct {
	TenantID       string
	ActorID        string
	ItemID         string
	Kind           entity.MovementKind
	Sign           entity.AdjustmentSign // solo ADJUSTMENT
	Magnitude      decimal.Decimal
	FromLocationID string
	ToLocationID   string
	ReferenceID    string
	Reason         string
}

// ApplyResult resultado de aplicar (o reconocer como ya aplicado) un movimiento.
type ApplyResult struct {
	Applied     bool
	Entry       *entity.MovementEntry
	Projections []entity.StockProjection // cantidad resultante por cada (ítem, ubicación) tocado
}

// EngineOptions parámetros de reintento y timeout del motor.
type EngineOptions struct {
	Retry        RetryPolicy
	ApplyTimeout time.Duration
}

// MovementEngine aplica movimientos de forma atómica sobre ledger y proyección,
// serializando por (ítem, ubicación) y rechazando cualquier saldo negativo.
type MovementEngine struct {
	txRunner     TxRunner
	itemRepo     repository.ItemRepository
	locationRepo repository.LocationRepository
	opts         EngineOptions
	log          *logger.Logger
	now          func() time.Time
	newID        func() string
}

// NewMovementEngine construye el motor.
func NewMovementEngine(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	locationRepo repository.LocationRepository,
	opts EngineOptions,
	log *logger.Logger,
) *MovementEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &MovementEngine{
		txRunner:     txRunner,
		itemRepo:     itemRepo,
		locationRepo: locationRepo,
		opts:         opts,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        func() string { return uuid.New().String() },
	}
}

// WithClock reemplaza el reloj (tests).
func (e *MovementEngine) WithClock(now func() time.Time) *MovementEngine {
	e.now = now
	return e
}

// Apply valida la solicitud y la aplica en una única unidad atómica. Los errores de validación
// se detectan antes de escribir; la contención se reintenta con backoff de forma transparente.
func (e *MovementEngine) Apply(ctx context.Context, req MovementRequest) (*ApplyResult, error) {
	ctx, span := tracer.Start(ctx, "inventory.apply", trace.WithAttributes(
		attribute.String("tenant.id", req.TenantID),
		attribute.String("item.id", req.ItemID),
		attribute.String("movement.kind", string(req.Kind)),
	))
	defer span.End()

	res, err := e.apply(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (e *MovementEngine) apply(ctx context.Context, req MovementRequest) (*ApplyResult, error) {
	if e.opts.ApplyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.ApplyTimeout)
		defer cancel()
	}

	plan, err := e.validate(ctx, req)
	if err != nil {
		e.log.Warn().Err(err).
			Str("tenant_id", req.TenantID).Str("item_id", req.ItemID).Str("kind", string(req.Kind)).
			Msg("movimiento rechazado")
		return nil, err
	}

	var result *ApplyResult
	err = retryOnContention(ctx, e.opts.Retry, func(int) error {
		r, err := e.commit(ctx, req, plan)
		if err != nil {
			return err
		}
		result = r
		return nil
	}, func(attempt int, wait time.Duration, err error) {
		e.log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).
			Str("tenant_id", req.TenantID).Str("item_id", req.ItemID).
			Msg("contención al aplicar movimiento, reintentando")
	})
	if err != nil {
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			e.log.Warn().Str("tenant_id", req.TenantID).Str("item_id", req.ItemID).
				Str("location_id", insufficient.LocationID).
				Str("available", insufficient.Available.String()).
				Str("requested", insufficient.Requested.String()).
				Msg("stock insuficiente")
		}
		return nil, err
	}

	e.log.Info().Str("tenant_id", req.TenantID).Str("item_id", req.ItemID).
		Str("entry_id", result.Entry.ID).Int64("sequence", result.Entry.Sequence).
		Str("kind", string(req.Kind)).Str("magnitude", req.Magnitude.String()).
		Msg("movimiento aplicado")
	return result, nil
}

// validate revisa forma, ítem y ubicaciones sin escribir nada.
func (e *MovementEngine) validate(ctx context.Context, req MovementRequest) (*inventory.Plan, error) {
	if req.TenantID == "" || req.ActorID == "" || req.ItemID == "" {
		return nil, domain.InvalidMovement("tenant, actor e ítem son obligatorios")
	}
	plan, err := inventory.PlanLegs(req.Kind, req.Sign, req.Magnitude, req.FromLocationID, req.ToLocationID)
	if err != nil {
		return nil, err
	}

	item, err := e.itemRepo.GetByID(ctx, req.TenantID, req.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownItem, req.ItemID)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil || item.TenantID != req.TenantID {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownItem, req.ItemID)
	}
	if !item.Tracked {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedItemType, item.SKU)
	}

	for _, leg := range plan.Legs {
		loc, err := e.locationRepo.GetByID(ctx, req.TenantID, leg.LocationID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrUnknownLocation, leg.LocationID)
			}
			return nil, fmt.Errorf("get location: %w", err)
		}
		if loc == nil || loc.TenantID != req.TenantID {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownLocation, leg.LocationID)
		}
		if !leg.Outgoing() && !loc.Active {
			return nil, domain.InvalidMovement("la ubicación %s está inactiva", loc.Name)
		}
	}
	return plan, nil
}

// commit ejecuta un intento dentro de una transacción: bloquea las claves en orden,
// verifica disponibilidad, anexa una entrada y actualiza cada proyección.
func (e *MovementEngine) commit(ctx context.Context, req MovementRequest, plan *inventory.Plan) (*ApplyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keyOf := func(loc string) entity.StockKey {
		return entity.StockKey{TenantID: req.TenantID, ItemID: req.ItemID, LocationID: loc}
	}
	keys := make([]entity.StockKey, 0, len(plan.Legs))
	for _, leg := range plan.Legs {
		keys = append(keys, keyOf(leg.LocationID))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	now := e.now()
	var result *ApplyResult
	err := e.txRunner.Run(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
		current := make(map[entity.StockKey]decimal.Decimal, len(keys))
		for _, k := range keys {
			p, err := stockRepo.GetForUpdate(ctx, k)
			if err != nil {
				return err
			}
			current[k] = p.Quantity
		}

		// Con las claves bloqueadas, una entrega concurrente del mismo documento ya está confirmada
		// o espera detrás de nosotros: se revisa antes que la disponibilidad para que el guard la reconozca.
		if req.ReferenceID != "" {
			prior, err := movRepo.FindByReference(ctx, req.TenantID, req.ReferenceID, req.ItemID, plan.Kind)
			if err != nil {
				return fmt.Errorf("find by reference: %w", err)
			}
			if prior != nil {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, req.ReferenceID)
			}
		}

		for _, leg := range plan.Legs {
			if !leg.Outgoing() {
				continue
			}
			available := current[keyOf(leg.LocationID)]
			if plan.Magnitude.GreaterThan(available) {
				return &domain.InsufficientStockError{
					ItemID:     req.ItemID,
					LocationID: leg.LocationID,
					Available:  available,
					Requested:  plan.Magnitude,
				}
			}
		}

		entry := &entity.MovementEntry{
			ID:             e.newID(),
			TenantID:       req.TenantID,
			ItemID:         req.ItemID,
			Kind:           plan.Kind,
			Magnitude:      plan.Magnitude,
			FromLocationID: plan.FromLocationID,
			ToLocationID:   plan.ToLocationID,
			ReferenceID:    req.ReferenceID,
			Reason:         req.Reason,
			ActorID:        req.ActorID,
			CreatedAt:      now,
		}
		if err := movRepo.Append(ctx, entry); err != nil {
			return err
		}

		projections := make([]entity.StockProjection, 0, len(plan.Legs))
		for _, leg := range plan.Legs {
			p, err := stockRepo.ApplyDelta(ctx, keyOf(leg.LocationID), leg.Delta, now)
			if err != nil {
				return err
			}
			projections = append(projections, *p)
		}
		result = &ApplyResult{Applied: true, Entry: entry, Projections: projections}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
