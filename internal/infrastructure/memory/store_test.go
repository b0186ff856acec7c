package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

var key = entity.StockKey{TenantID: "t", ItemID: "i", LocationID: "L1"}

func entryIn(ref string, n int64) *entity.MovementEntry {
	return &entity.MovementEntry{
		ID: "e-" + ref, TenantID: "t", ItemID: "i", Kind: entity.MovementIN,
		Magnitude: decimal.NewFromInt(n), ToLocationID: "L1", ReferenceID: ref, CreatedAt: time.Now(),
	}
}

// put anexa una entrada y su delta en una transacción.
func put(t *testing.T, r *memory.TxRunner, e *entity.MovementEntry) error {
	t.Helper()
	return r.Run(context.Background(), func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
		if _, err := stockRepo.GetForUpdate(context.Background(), key); err != nil {
			return err
		}
		if err := movRepo.Append(context.Background(), e); err != nil {
			return err
		}
		_, err := stockRepo.ApplyDelta(context.Background(), key, e.Magnitude, e.CreatedAt)
		return err
	})
}

func TestTxRunner_CommitAsignaSecuencia(t *testing.T) {
	s := memory.NewStore()
	r := memory.NewTxRunner(s)

	e1, e2 := entryIn("", 3), entryIn("", 4)
	require.NoError(t, put(t, r, e1))
	require.NoError(t, put(t, r, e2))
	assert.Equal(t, int64(1), e1.Sequence)
	assert.Equal(t, int64(2), e2.Sequence)

	p, err := s.Stock().Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "7", p.Quantity.String())
}

func TestTxRunner_ErrorEnFnNoDejaRastro(t *testing.T) {
	s := memory.NewStore()
	r := memory.NewTxRunner(s)

	err := r.Run(context.Background(), func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
		require.NoError(t, movRepo.Append(context.Background(), entryIn("", 5)))
		_, err := stockRepo.ApplyDelta(context.Background(), key, decimal.NewFromInt(5), time.Now())
		require.NoError(t, err)
		return errors.New("falla a mitad")
	})
	require.Error(t, err)

	p, _ := s.Stock().Get(context.Background(), key)
	assert.True(t, p.Quantity.IsZero())
	rows, _ := s.Movements().ListByItem(context.Background(), repository.MovementFilter{TenantID: "t", ItemID: "i"})
	assert.Empty(t, rows)

	// El bloqueo se liberó.
	require.NoError(t, put(t, r, entryIn("", 1)))
}

func TestTxRunner_CommitRechazaNegativo(t *testing.T) {
	r := memory.NewTxRunner(memory.NewStore())
	err := r.Run(context.Background(), func(_ repository.MovementRepository, stockRepo repository.StockRepository) error {
		_, err := stockRepo.ApplyDelta(context.Background(), key, decimal.NewFromInt(-1), time.Now())
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestTxRunner_ReferenciaDuplicada(t *testing.T) {
	s := memory.NewStore()
	r := memory.NewTxRunner(s)
	require.NoError(t, put(t, r, entryIn("ref-1", 1)))

	err := put(t, r, entryIn("ref-1", 1))
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)

	found, err := s.Movements().FindByReference(context.Background(), "t", "ref-1", "i", entity.MovementIN)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "e-ref-1", found.ID)

	missing, err := s.Movements().FindByReference(context.Background(), "t", "ref-1", "i", entity.MovementOUT)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTxRunner_EsperaDeBloqueoRespetaContexto(t *testing.T) {
	s := memory.NewStore()
	r := memory.NewTxRunner(s)

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = r.Run(context.Background(), func(_ repository.MovementRepository, stockRepo repository.StockRepository) error {
			_, _ = stockRepo.GetForUpdate(context.Background(), key)
			close(locked)
			<-done
			return nil
		})
	}()
	<-locked
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Run(ctx, func(_ repository.MovementRepository, stockRepo repository.StockRepository) error {
		_, err := stockRepo.GetForUpdate(ctx, key)
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTxRunner_TimeoutDeBloqueoEsContencion(t *testing.T) {
	s := memory.NewStore(memory.WithLockTimeout(5 * time.Millisecond))
	r := memory.NewTxRunner(s)

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = r.Run(context.Background(), func(_ repository.MovementRepository, stockRepo repository.StockRepository) error {
			_, _ = stockRepo.GetForUpdate(context.Background(), key)
			close(locked)
			<-done
			return nil
		})
	}()
	<-locked
	defer close(done)

	err := put(t, r, entryIn("", 1))
	assert.ErrorIs(t, err, domain.ErrStorageContention)
}

func TestReadSnapshot_NoVeEscriturasPosteriores(t *testing.T) {
	s := memory.NewStore()
	r := memory.NewTxRunner(s)
	require.NoError(t, put(t, r, entryIn("", 2)))

	err := r.ReadSnapshot(context.Background(), func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
		require.NoError(t, put(t, r, entryIn("", 5)))

		rows, err := movRepo.ListByItem(context.Background(), repository.MovementFilter{TenantID: "t", ItemID: "i"})
		require.NoError(t, err)
		assert.Len(t, rows, 1)

		p, err := stockRepo.Get(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, "2", p.Quantity.String())

		assert.Error(t, movRepo.Append(context.Background(), entryIn("", 1)))
		return nil
	})
	require.NoError(t, err)

	p, _ := s.Stock().Get(context.Background(), key)
	assert.Equal(t, "7", p.Quantity.String())
}

func TestRepos_EscrituraFueraDeTransaccion(t *testing.T) {
	s := memory.NewStore()
	assert.Error(t, s.Movements().Append(context.Background(), entryIn("", 1)))
	_, err := s.Stock().ApplyDelta(context.Background(), key, decimal.NewFromInt(1), time.Now())
	assert.Error(t, err)
	_, err = s.Stock().GetForUpdate(context.Background(), key)
	assert.Error(t, err)
}

func TestMovementRepo_FiltrosYOrden(t *testing.T) {
	s := memory.NewStore()
	r := memory.NewTxRunner(s)
	for range 5 {
		require.NoError(t, put(t, r, entryIn("", 1)))
	}
	desc, err := s.Movements().ListByItem(context.Background(), repository.MovementFilter{TenantID: "t", ItemID: "i", BeforeSequence: 5, Limit: 2})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, int64(4), desc[0].Sequence)
	assert.Equal(t, int64(3), desc[1].Sequence)

	asc, err := s.Movements().ListByItem(context.Background(), repository.MovementFilter{TenantID: "t", ItemID: "i", AfterSequence: 3, Ascending: true})
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, int64(4), asc[0].Sequence)
}

func TestCatalogo_Consultas(t *testing.T) {
	s := memory.NewStore()
	s.PutItem(entity.Item{ID: "b", TenantID: "t", Name: "B", Tracked: true})
	s.PutItem(entity.Item{ID: "a", TenantID: "t", Name: "A", Tracked: true})
	s.PutItem(entity.Item{ID: "svc", TenantID: "t", Name: "Servicio"})
	s.PutItem(entity.Item{ID: "z", TenantID: "u", Name: "Z", Tracked: true})
	s.PutLocation(entity.Location{ID: "L1", TenantID: "t", Name: "Central", IsDefault: true})

	tracked, err := s.Items().ListTracked(context.Background(), "t")
	require.NoError(t, err)
	require.Len(t, tracked, 2)
	assert.Equal(t, "A", tracked[0].Name)

	tenants, err := s.Items().ListTenants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"t", "u"}, tenants)

	_, err = s.Items().GetByID(context.Background(), "u", "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	def, err := s.Locations().GetDefault(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "L1", def.ID)
	_, err = s.Locations().GetDefault(context.Background(), "u")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
