package inventory

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const (
	DefaultKardexPageSize = 50
	MaxKardexPageSize     = 100
	replayBatchSize       = 500
)

// HistoryPage página del kardex (más reciente primero). NextCursor=0 indica que no hay más.
type HistoryPage struct {
	Entries    []entity.KardexEntry
	NextCursor int64
}

// KardexService lectura del ledger por ítem: historial enriquecido y verificación contra proyecciones.
// Nunca modifica estado.
type KardexService struct {
	txRunner     TxRunner
	movRepo      repository.MovementRepository
	itemRepo     repository.ItemRepository
	locationRepo repository.LocationRepository
	actorRepo    repository.ActorRepository
	renderer     KardexRenderer
	log          *logger.Logger
	now          func() time.Time
}

// NewKardexService construye el servicio. renderer puede ser nil si no se exponen reportes.
func NewKardexService(
	txRunner TxRunner,
	movRepo repository.MovementRepository,
	itemRepo repository.ItemRepository,
	locationRepo repository.LocationRepository,
	actorRepo repository.ActorRepository,
	renderer KardexRenderer,
	log *logger.Logger,
) *KardexService {
	if log == nil {
		log = logger.Nop()
	}
	return &KardexService{
		txRunner:     txRunner,
		movRepo:      movRepo,
		itemRepo:     itemRepo,
		locationRepo: locationRepo,
		actorRepo:    actorRepo,
		renderer:     renderer,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// History devuelve una página del kardex anterior al cursor before (0 = desde la más reciente).
func (s *KardexService) History(ctx context.Context, tenantID, itemID string, before int64, limit int) (*HistoryPage, error) {
	if _, err := s.item(ctx, tenantID, itemID); err != nil {
		return nil, err
	}
	return s.page(ctx, tenantID, itemID, before, limit)
}

func (s *KardexService) page(ctx context.Context, tenantID, itemID string, before int64, limit int) (*HistoryPage, error) {
	if limit <= 0 {
		limit = DefaultKardexPageSize
	}
	if limit > MaxKardexPageSize {
		limit = MaxKardexPageSize
	}
	rows, err := s.movRepo.ListByItem(ctx, repository.MovementFilter{
		TenantID:       tenantID,
		ItemID:         itemID,
		BeforeSequence: before,
		Limit:          limit + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	page := &HistoryPage{}
	if len(rows) > limit {
		rows = rows[:limit]
		page.NextCursor = rows[limit-1].Sequence
	}
	page.Entries, err = s.enrich(ctx, tenantID, rows)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Entries secuencia perezosa y finita del kardex completo, más reciente primero.
// Cada range vuelve a empezar desde la entrada más reciente.
func (s *KardexService) Entries(ctx context.Context, tenantID, itemID string, pageSize int) iter.Seq2[entity.KardexEntry, error] {
	return func(yield func(entity.KardexEntry, error) bool) {
		if _, err := s.item(ctx, tenantID, itemID); err != nil {
			yield(entity.KardexEntry{}, err)
			return
		}
		var before int64
		for {
			page, err := s.page(ctx, tenantID, itemID, before, pageSize)
			if err != nil {
				yield(entity.KardexEntry{}, err)
				return
			}
			for _, e := range page.Entries {
				if !yield(e, nil) {
					return
				}
			}
			if page.NextCursor == 0 {
				return
			}
			before = page.NextCursor
		}
	}
}

// Verify reproduce el ledger del ítem en orden cronológico sobre una instantánea consistente
// y compara el saldo por ubicación con la proyección actual.
func (s *KardexService) Verify(ctx context.Context, tenantID, itemID string) (*entity.ReconciliationReport, error) {
	if _, err := s.item(ctx, tenantID, itemID); err != nil {
		return nil, err
	}
	var report entity.ReconciliationReport
	err := s.txRunner.ReadSnapshot(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
		r := inventory.NewReplayer()
		var after int64
		for {
			batch, err := movRepo.ListByItem(ctx, repository.MovementFilter{
				TenantID:      tenantID,
				ItemID:        itemID,
				AfterSequence: after,
				Ascending:     true,
				Limit:         replayBatchSize,
			})
			if err != nil {
				return fmt.Errorf("list movements: %w", err)
			}
			for _, e := range batch {
				r.Add(e)
			}
			if len(batch) < replayBatchSize {
				break
			}
			after = batch[len(batch)-1].Sequence
		}
		projections, err := stockRepo.ListByItem(ctx, tenantID, itemID)
		if err != nil {
			return fmt.Errorf("list stock: %w", err)
		}
		report = r.Reconcile(tenantID, itemID, projections, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !report.Consistent {
		s.log.Error().Str("tenant_id", tenantID).Str("item_id", itemID).
			Bool("negative_balance", report.NegativeBalanceSeen).
			Msg("kardex no concilia con la proyección")
	}
	return &report, nil
}

// Report genera el kardex imprimible del ítem con el resultado de la verificación al pie.
func (s *KardexService) Report(ctx context.Context, tenantID, itemID string) ([]byte, error) {
	if s.renderer == nil {
		return nil, errors.New("kardex: no hay generador de reportes configurado")
	}
	item, err := s.item(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	var entries []entity.KardexEntry
	for e, err := range s.Entries(ctx, tenantID, itemID, MaxKardexPageSize) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	report, err := s.Verify(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderKardex(item, entries, *report)
}

func (s *KardexService) item(ctx context.Context, tenantID, itemID string) (*entity.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, tenantID, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownItem, itemID)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil || item.TenantID != tenantID {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownItem, itemID)
	}
	return item, nil
}

// enrich agrega nombres de ubicación y actor con consultas en lote (una por catálogo y página).
func (s *KardexService) enrich(ctx context.Context, tenantID string, rows []entity.MovementEntry) ([]entity.KardexEntry, error) {
	locLoader := dataloader.NewBatchedLoader(func(ctx context.Context, ids []string) []*dataloader.Result[string] {
		locs, err := s.locationRepo.ListByIDs(ctx, tenantID, ids)
		if err != nil {
			return failedResults[string](len(ids), err)
		}
		names := make(map[string]string, len(locs))
		for _, l := range locs {
			names[l.ID] = l.Name
		}
		return nameResults(ids, names)
	}, dataloader.WithWait[string, string](time.Millisecond))

	actorLoader := dataloader.NewBatchedLoader(func(ctx context.Context, ids []string) []*dataloader.Result[string] {
		actors, err := s.actorRepo.ListByIDs(ctx, tenantID, ids)
		if err != nil {
			return failedResults[string](len(ids), err)
		}
		names := make(map[string]string, len(actors))
		for _, a := range actors {
			names[a.ID] = a.Name
		}
		return nameResults(ids, names)
	}, dataloader.WithWait[string, string](time.Millisecond))

	type thunks struct {
		from, to, actor dataloader.Thunk[string]
	}
	pending := make([]thunks, len(rows))
	for i, r := range rows {
		if r.FromLocationID != "" {
			pending[i].from = locLoader.Load(ctx, r.FromLocationID)
		}
		if r.ToLocationID != "" {
			pending[i].to = locLoader.Load(ctx, r.ToLocationID)
		}
		if r.ActorID != "" {
			pending[i].actor = actorLoader.Load(ctx, r.ActorID)
		}
	}

	out := make([]entity.KardexEntry, len(rows))
	for i, r := range rows {
		ke := entity.KardexEntry{MovementEntry: r}
		var err error
		if ke.FromLocationName, err = resolveName(pending[i].from, r.FromLocationID); err != nil {
			return nil, fmt.Errorf("load location: %w", err)
		}
		if ke.ToLocationName, err = resolveName(pending[i].to, r.ToLocationID); err != nil {
			return nil, fmt.Errorf("load location: %w", err)
		}
		if ke.ActorName, err = resolveName(pending[i].actor, r.ActorID); err != nil {
			return nil, fmt.Errorf("load actor: %w", err)
		}
		out[i] = ke
	}
	return out, nil
}

// resolveName espera el thunk; si el registro ya no existe en el catálogo se usa el ID.
func resolveName(th dataloader.Thunk[string], fallback string) (string, error) {
	if th == nil {
		return "", nil
	}
	name, err := th()
	if err != nil {
		return "", err
	}
	if name == "" {
		return fallback, nil
	}
	return name, nil
}

func nameResults(ids []string, names map[string]string) []*dataloader.Result[string] {
	out := make([]*dataloader.Result[string], len(ids))
	for i, id := range ids {
		out[i] = &dataloader.Result[string]{Data: names[id]}
	}
	return out
}

func failedResults[V any](n int, err error) []*dataloader.Result[V] {
	out := make([]*dataloader.Result[V], n)
	for i := range out {
		out[i] = &dataloader.Result[V]{Error: err}
	}
	return out
}
