package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Store almacenamiento transaccional en proceso: catálogo, proyección y ledger.
// Las escrituras pasan solo por TxRunner; cada (tenant, ítem, ubicación) tiene su propio bloqueo.
type Store struct {
	mu          sync.RWMutex
	items       map[string]map[string]entity.Item
	locations   map[string]map[string]entity.Location
	actors      map[string]map[string]entity.Actor
	projections map[entity.StockKey]entity.StockProjection
	entries     []entity.MovementEntry // solo se anexan
	refs        map[refKey]int         // índice en entries
	seq         int64

	locksMu     sync.Mutex
	locks       map[entity.StockKey]chan struct{}
	lockTimeout time.Duration

	faultsMu sync.Mutex
	faults   []error
}

type refKey struct {
	tenantID, referenceID, itemID string
	kind                          entity.MovementKind
}

func refKeyOf(e *entity.MovementEntry) refKey {
	return refKey{tenantID: e.TenantID, referenceID: e.ReferenceID, itemID: e.ItemID, kind: e.Kind}
}

// Option configura el Store.
type Option func(*Store)

// WithLockTimeout limita la espera por un bloqueo; al vencer se reporta ErrStorageContention.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// NewStore crea un store vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		items:       make(map[string]map[string]entity.Item),
		locations:   make(map[string]map[string]entity.Location),
		actors:      make(map[string]map[string]entity.Actor),
		projections: make(map[entity.StockKey]entity.StockProjection),
		refs:        make(map[refKey]int),
		locks:       make(map[entity.StockKey]chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PutItem registra o reemplaza un ítem del catálogo.
func (s *Store) PutItem(it entity.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items[it.TenantID] == nil {
		s.items[it.TenantID] = make(map[string]entity.Item)
	}
	s.items[it.TenantID][it.ID] = it
}

// PutLocation registra o reemplaza una ubicación.
func (s *Store) PutLocation(l entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locations[l.TenantID] == nil {
		s.locations[l.TenantID] = make(map[string]entity.Location)
	}
	s.locations[l.TenantID][l.ID] = l
}

// PutActor registra o reemplaza una identidad.
func (s *Store) PutActor(a entity.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.actors[a.TenantID] == nil {
		s.actors[a.TenantID] = make(map[string]entity.Actor)
	}
	s.actors[a.TenantID][a.ID] = a
}

// FailCommits hace que los próximos commits fallen con los errores dados (en orden).
func (s *Store) FailCommits(errs ...error) {
	s.faultsMu.Lock()
	defer s.faultsMu.Unlock()
	s.faults = append(s.faults, errs...)
}

func (s *Store) nextFault() error {
	s.faultsMu.Lock()
	defer s.faultsMu.Unlock()
	if len(s.faults) == 0 {
		return nil
	}
	err := s.faults[0]
	s.faults = s.faults[1:]
	return err
}

// Items, Locations, Actors, Stock y Movements devuelven adaptadores de lectura sobre el estado confirmado.
func (s *Store) Items() *ItemRepo         { return &ItemRepo{s: s} }
func (s *Store) Locations() *LocationRepo { return &LocationRepo{s: s} }
func (s *Store) Actors() *ActorRepo       { return &ActorRepo{s: s} }
func (s *Store) Stock() *StockRepo        { return &StockRepo{s: s} }
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

var (
	_ repository.ItemRepository     = (*ItemRepo)(nil)
	_ repository.LocationRepository = (*LocationRepo)(nil)
	_ repository.ActorRepository    = (*ActorRepo)(nil)
)

// ItemRepo catálogo de ítems en memoria.
type ItemRepo struct{ s *Store }

func (r *ItemRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.items[tenantID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

func (r *ItemRepo) ListTracked(_ context.Context, tenantID string) ([]*entity.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Item, 0, len(r.s.items[tenantID]))
	for _, it := range r.s.items[tenantID] {
		if it.Tracked {
			out = append(out, &it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ItemRepo) ListTenants(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]string, 0, len(r.s.items))
	for t := range r.s.items {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// LocationRepo maestro de ubicaciones en memoria.
type LocationRepo struct{ s *Store }

func (r *LocationRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.locations[tenantID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (r *LocationRepo) ListByIDs(_ context.Context, tenantID string, ids []string) ([]*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Location, 0, len(ids))
	for _, id := range ids {
		if l, ok := r.s.locations[tenantID][id]; ok {
			out = append(out, &l)
		}
	}
	return out, nil
}

func (r *LocationRepo) GetDefault(_ context.Context, tenantID string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.locations[tenantID] {
		if l.IsDefault {
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ActorRepo directorio de identidades en memoria.
type ActorRepo struct{ s *Store }

func (r *ActorRepo) ListByIDs(_ context.Context, tenantID string, ids []string) ([]*entity.Actor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Actor, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.s.actors[tenantID][id]; ok {
			out = append(out, &a)
		}
	}
	return out, nil
}
