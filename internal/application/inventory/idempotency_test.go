package inventory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func withRef(req inventory.MovementRequest, ref string) inventory.MovementRequest {
	req.ReferenceID = ref
	return req
}

// Escenario A: IN 10, OUT 3 con ref-1, reintento de ref-1 no cambia nada.
func TestApplyIdempotent_EscenarioA(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	res, err := f.guard.ApplyIdempotent(ctx, inbound(widget, loc1, 10))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, "10", f.stockAt(t, widget, loc1))

	first, err := f.guard.ApplyIdempotent(ctx, withRef(outbound(widget, loc1, 3), "ref-1"))
	require.NoError(t, err)
	assert.True(t, first.Applied)
	assert.Equal(t, "7", f.stockAt(t, widget, loc1))

	again, err := f.guard.ApplyIdempotent(ctx, withRef(outbound(widget, loc1, 3), "ref-1"))
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Equal(t, first.Entry.ID, again.Entry.ID)
	require.Len(t, again.Projections, 1)
	assert.Equal(t, "7", again.Projections[0].Quantity.String())
	assert.Equal(t, "7", f.stockAt(t, widget, loc1))
	assert.Equal(t, 2, f.ledgerLen(t, widget))
}

func TestApplyIdempotent_DevuelveProyeccionActual(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()
	_, err := f.guard.ApplyIdempotent(ctx, withRef(inbound(widget, loc1, 10), "po-9"))
	require.NoError(t, err)
	f.mustApply(t, outbound(widget, loc1, 4))

	again, err := f.guard.ApplyIdempotent(ctx, withRef(inbound(widget, loc1, 10), "po-9"))
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Equal(t, "6", again.Projections[0].Quantity.String())
}

func TestApplyIdempotent_MismaReferenciaDistintoItemOTipo(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()
	f.mustApply(t, inbound(widget, loc1, 10))
	f.mustApply(t, inbound(gadget, loc1, 10))

	sale := func(item string) inventory.MovementRequest {
		return inventory.MovementRequest{
			TenantID: tenant, ActorID: actor, ItemID: item, Kind: entity.MovementSALE,
			Magnitude: qty(2), FromLocationID: loc1, ReferenceID: "INV-100",
		}
	}
	a, err := f.guard.ApplyIdempotent(ctx, sale(widget))
	require.NoError(t, err)
	b, err := f.guard.ApplyIdempotent(ctx, sale(gadget))
	require.NoError(t, err)
	assert.True(t, a.Applied)
	assert.True(t, b.Applied)

	c, err := f.guard.ApplyIdempotent(ctx, withRef(outbound(widget, loc1, 2), "INV-100"))
	require.NoError(t, err)
	assert.True(t, c.Applied, "OUT y SALE con la misma referencia son movimientos distintos")
	assert.Equal(t, "6", f.stockAt(t, widget, loc1))
}

func TestApplyIdempotent_EntregasConcurrentesAplicanUnaVez(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.mustApply(t, inbound(widget, loc1, 100))

	var (
		wg      sync.WaitGroup
		applied atomic.Int32
	)
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.guard.ApplyIdempotent(context.Background(), withRef(outbound(widget, loc1, 5), "dup-1"))
			if assert.NoError(t, err) && res.Applied {
				applied.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), applied.Load())
	assert.Equal(t, "95", f.stockAt(t, widget, loc1))
	assert.Equal(t, 2, f.ledgerLen(t, widget))
}

// La segunda entrega espera el bloqueo mientras la primera agota el stock: debe reconocerse
// como ya aplicada, no fallar por stock insuficiente.
func TestApplyIdempotent_EntregaConcurrenteTrasAgotarStock(t *testing.T) {
	f := newFixture(t, fixtureOpts{txHold: 10 * time.Millisecond})
	f.mustApply(t, inbound(widget, loc1, 5))

	var (
		wg       sync.WaitGroup
		applied  atomic.Int32
		replayed atomic.Int32
		errs     = make(chan error, 2)
	)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.guard.ApplyIdempotent(context.Background(), withRef(outbound(widget, loc1, 5), "sale-7"))
			if err != nil {
				errs <- err
				return
			}
			if res.Applied {
				applied.Add(1)
			} else {
				replayed.Add(1)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), applied.Load())
	assert.Equal(t, int32(1), replayed.Load())
	assert.Equal(t, "0", f.stockAt(t, widget, loc1))
	assert.Equal(t, 2, f.ledgerLen(t, widget))
}

func TestApplyIdempotent_SinReferenciaSiempreAplica(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	for range 2 {
		res, err := f.guard.ApplyIdempotent(context.Background(), inbound(widget, loc1, 1))
		require.NoError(t, err)
		assert.True(t, res.Applied)
	}
	assert.Equal(t, "2", f.stockAt(t, widget, loc1))
}
