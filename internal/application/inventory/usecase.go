package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// InventoryUseCase fachada para la capa HTTP: traduce DTOs, resuelve la ubicación por defecto
// (responsabilidad del llamador, nunca del motor) y delega en guard, kardex y monitor.
type InventoryUseCase struct {
	guard        *IdempotencyGuard
	kardex       *KardexService
	monitor      *LowStockMonitor
	itemRepo     repository.ItemRepository
	locationRepo repository.LocationRepository
	stockRepo    repository.StockRepository
}

// NewInventoryUseCase construye la fachada.
func NewInventoryUseCase(
	guard *IdempotencyGuard,
	kardex *KardexService,
	monitor *LowStockMonitor,
	itemRepo repository.ItemRepository,
	locationRepo repository.LocationRepository,
	stockRepo repository.StockRepository,
) *InventoryUseCase {
	return &InventoryUseCase{
		guard:        guard,
		kardex:       kardex,
		monitor:      monitor,
		itemRepo:     itemRepo,
		locationRepo: locationRepo,
		stockRepo:    stockRepo,
	}
}

// RegisterMovement aplica (idempotentemente) el movimiento descrito por el request.
func (uc *InventoryUseCase) RegisterMovement(ctx context.Context, tenantID, actorID string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	req, err := uc.toRequest(ctx, tenantID, actorID, in)
	if err != nil {
		return nil, err
	}
	res, err := uc.guard.ApplyIdempotent(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &dto.MovementResponse{
		Applied: res.Applied,
		Entry:   toEntryDTO(entity.KardexEntry{MovementEntry: *res.Entry}),
	}
	for _, p := range res.Projections {
		out.Projections = append(out.Projections, toProjectionDTO(p, ""))
	}
	return out, nil
}

func (uc *InventoryUseCase) toRequest(ctx context.Context, tenantID, actorID string, in dto.RegisterMovementRequest) (MovementRequest, error) {
	kind, err := entity.ParseMovementKind(in.Kind)
	if err != nil {
		return MovementRequest{}, domain.InvalidMovement("%v", err)
	}
	req := MovementRequest{
		TenantID:       tenantID,
		ActorID:        actorID,
		ItemID:         in.ItemID,
		Kind:           kind,
		Sign:           entity.AdjustmentSign(strings.ToUpper(in.Sign)),
		Magnitude:      in.Magnitude,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		ReferenceID:    strings.TrimSpace(in.ReferenceID),
		Reason:         in.Reason,
	}
	if in.UseDefaultLocation && req.ToLocationID == "" {
		inbound := kind == entity.MovementIN || kind == entity.MovementPURCHASE ||
			(kind == entity.MovementADJUSTMENT && req.Sign == entity.AdjustmentIncrease)
		if !inbound {
			return MovementRequest{}, domain.InvalidMovement("la ubicación por defecto solo aplica a entradas")
		}
		loc, err := uc.locationRepo.GetDefault(ctx, tenantID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return MovementRequest{}, fmt.Errorf("%w: el tenant no tiene ubicación por defecto", domain.ErrUnknownLocation)
			}
			return MovementRequest{}, fmt.Errorf("get default location: %w", err)
		}
		req.ToLocationID = loc.ID
	}
	return req, nil
}

// ItemStock devuelve la proyección del ítem en cada ubicación que ha tocado.
func (uc *InventoryUseCase) ItemStock(ctx context.Context, tenantID, itemID string) ([]dto.StockProjectionDTO, error) {
	if _, err := uc.kardex.item(ctx, tenantID, itemID); err != nil {
		return nil, err
	}
	projections, err := uc.stockRepo.ListByItem(ctx, tenantID, itemID)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	ids := make([]string, 0, len(projections))
	for _, p := range projections {
		ids = append(ids, p.LocationID)
	}
	names := make(map[string]string, len(ids))
	if len(ids) > 0 {
		locs, err := uc.locationRepo.ListByIDs(ctx, tenantID, ids)
		if err != nil {
			return nil, fmt.Errorf("list locations: %w", err)
		}
		for _, l := range locs {
			names[l.ID] = l.Name
		}
	}
	out := make([]dto.StockProjectionDTO, 0, len(projections))
	for _, p := range projections {
		out = append(out, toProjectionDTO(p, names[p.LocationID]))
	}
	return out, nil
}

// Kardex devuelve una página del historial enriquecido.
func (uc *InventoryUseCase) Kardex(ctx context.Context, tenantID, itemID string, page dto.CursorRequest) (*dto.KardexPageResponse, error) {
	hp, err := uc.kardex.History(ctx, tenantID, itemID, page.Before, page.Limit)
	if err != nil {
		return nil, err
	}
	out := &dto.KardexPageResponse{ItemID: itemID, NextCursor: hp.NextCursor, Entries: make([]dto.MovementEntryDTO, 0, len(hp.Entries))}
	for _, e := range hp.Entries {
		out.Entries = append(out.Entries, toEntryDTO(e))
	}
	return out, nil
}

// VerifyKardex concilia ledger y proyección del ítem.
func (uc *InventoryUseCase) VerifyKardex(ctx context.Context, tenantID, itemID string) (*dto.ReconciliationResponse, error) {
	rep, err := uc.kardex.Verify(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	out := &dto.ReconciliationResponse{
		ItemID:              rep.ItemID,
		EntriesReplayed:     rep.EntriesReplayed,
		Consistent:          rep.Consistent,
		NegativeBalanceSeen: rep.NegativeBalanceSeen,
		CheckedAt:           rep.CheckedAt,
		Locations:           make([]dto.LocationCheckDTO, 0, len(rep.Locations)),
	}
	for _, c := range rep.Locations {
		out.Locations = append(out.Locations, dto.LocationCheckDTO{
			LocationID: c.LocationID, Projected: c.Projected, Replayed: c.Replayed, Matches: c.Matches,
		})
	}
	return out, nil
}

// KardexPDF genera el reporte imprimible del kardex.
func (uc *InventoryUseCase) KardexPDF(ctx context.Context, tenantID, itemID string) ([]byte, error) {
	return uc.kardex.Report(ctx, tenantID, itemID)
}

// LowStock ejecuta el monitor bajo demanda.
func (uc *InventoryUseCase) LowStock(ctx context.Context, tenantID string) (*dto.LowStockResponse, error) {
	alerts, err := uc.monitor.Scan(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := &dto.LowStockResponse{Items: make([]dto.LowStockItemDTO, 0, len(alerts))}
	for _, a := range alerts {
		out.Items = append(out.Items, dto.LowStockItemDTO{
			ItemID:         a.ItemID,
			SKU:            a.SKU,
			Name:           a.ItemName,
			UnitMeasure:    a.UnitMeasure,
			AggregateStock: a.AggregateStock,
			MinStock:       a.MinStock,
			Deficiency:     a.Deficiency,
		})
	}
	return out, nil
}

func toProjectionDTO(p entity.StockProjection, locationName string) dto.StockProjectionDTO {
	out := dto.StockProjectionDTO{
		ItemID:       p.ItemID,
		LocationID:   p.LocationID,
		LocationName: locationName,
		Quantity:     p.Quantity,
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func toEntryDTO(e entity.KardexEntry) dto.MovementEntryDTO {
	return dto.MovementEntryDTO{
		ID:               e.ID,
		Sequence:         e.Sequence,
		ItemID:           e.ItemID,
		Kind:             string(e.Kind),
		Magnitude:        e.Magnitude,
		FromLocationID:   e.FromLocationID,
		FromLocationName: e.FromLocationName,
		ToLocationID:     e.ToLocationID,
		ToLocationName:   e.ToLocationName,
		ReferenceID:      e.ReferenceID,
		Reason:           e.Reason,
		ActorID:          e.ActorID,
		ActorName:        e.ActorName,
		CreatedAt:        e.CreatedAt,
	}
}
