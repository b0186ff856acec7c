package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func seedScenarioC(t *testing.T, f *fixture) {
	t.Helper()
	f.mustApply(t, inbound(widget, loc1, 10))
	f.mustApply(t, withRef(outbound(widget, loc1, 3), "ref-1"))
	f.mustApply(t, transfer(widget, loc1, loc2, 4))
}

func TestHistory_MasRecientePrimeroYEnriquecido(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	seedScenarioC(t, f)

	page, err := f.kardex.History(context.Background(), tenant, widget, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
	assert.Zero(t, page.NextCursor)

	tr := page.Entries[0]
	assert.Equal(t, entity.MovementTRANSFER, tr.Kind)
	assert.Equal(t, "Bodega central", tr.FromLocationName)
	assert.Equal(t, "Camión 1", tr.ToLocationName)
	assert.Equal(t, "Ana Pérez", tr.ActorName)
	assert.Equal(t, "4", tr.Magnitude.String())

	assert.Equal(t, entity.MovementOUT, page.Entries[1].Kind)
	assert.Equal(t, "ref-1", page.Entries[1].ReferenceID)
	assert.Equal(t, entity.MovementIN, page.Entries[2].Kind)
	assert.Greater(t, page.Entries[0].Sequence, page.Entries[1].Sequence)
}

func TestHistory_ActorDesconocidoUsaID(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	req := inbound(widget, loc1, 1)
	req.ActorID = "ghost"
	f.mustApply(t, req)

	page, err := f.kardex.History(context.Background(), tenant, widget, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "ghost", page.Entries[0].ActorName)
}

func TestHistory_PaginacionPorCursor(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	for range 7 {
		f.mustApply(t, inbound(widget, loc1, 1))
	}

	var seqs []int64
	var before int64
	pages := 0
	for {
		page, err := f.kardex.History(context.Background(), tenant, widget, before, 3)
		require.NoError(t, err)
		pages++
		for _, e := range page.Entries {
			seqs = append(seqs, e.Sequence)
		}
		if page.NextCursor == 0 {
			break
		}
		before = page.NextCursor
	}
	assert.Equal(t, 3, pages)
	require.Len(t, seqs, 7)
	for i := 1; i < len(seqs); i++ {
		assert.Greater(t, seqs[i-1], seqs[i])
	}
}

func TestHistory_ItemDesconocido(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	_, err := f.kardex.History(context.Background(), tenant, "nope", 0, 10)
	assert.ErrorIs(t, err, domain.ErrUnknownItem)
}

func TestEntries_SecuenciaReiniciable(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	for range 5 {
		f.mustApply(t, inbound(widget, loc1, 1))
	}
	seq := f.kardex.Entries(context.Background(), tenant, widget, 2)

	count := func() int {
		n := 0
		for _, err := range seq {
			require.NoError(t, err)
			n++
		}
		return n
	}
	assert.Equal(t, 5, count())
	assert.Equal(t, 5, count(), "un segundo range vuelve a empezar")

	taken := 0
	for range seq {
		taken++
		if taken == 2 {
			break
		}
	}
	assert.Equal(t, 2, taken)
}

func TestEntries_PropagaError(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	for _, err := range f.kardex.Entries(context.Background(), tenant, "nope", 10) {
		assert.ErrorIs(t, err, domain.ErrUnknownItem)
	}
}

func TestVerify_ReplayReproduceProyeccion(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	seedScenarioC(t, f)

	rep, err := f.kardex.Verify(context.Background(), tenant, widget)
	require.NoError(t, err)
	assert.True(t, rep.Consistent)
	assert.False(t, rep.NegativeBalanceSeen)
	assert.Equal(t, 3, rep.EntriesReplayed)
	require.Len(t, rep.Locations, 2)
	assert.Equal(t, "3", rep.Locations[0].Replayed.String())
	assert.Equal(t, "4", rep.Locations[1].Replayed.String())
}

type captureRenderer struct {
	item    *entity.Item
	entries []entity.KardexEntry
	report  entity.ReconciliationReport
}

func (r *captureRenderer) RenderKardex(item *entity.Item, entries []entity.KardexEntry, report entity.ReconciliationReport) ([]byte, error) {
	r.item, r.entries, r.report = item, entries, report
	return []byte("%PDF-fake"), nil
}

func TestReport_IncluyeTodoElKardexYVerificacion(t *testing.T) {
	rend := &captureRenderer{}
	f := newFixture(t, fixtureOpts{renderer: rend})
	seedScenarioC(t, f)

	out, err := f.kardex.Report(context.Background(), tenant, widget)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(out))
	assert.Equal(t, "WIDGET", rend.item.SKU)
	assert.Len(t, rend.entries, 3)
	assert.True(t, rend.report.Consistent)
}

func TestReport_SinRendererEsError(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	_, err := f.kardex.Report(context.Background(), tenant, widget)
	assert.Error(t, err)
}
