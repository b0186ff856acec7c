package pdf_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
)

func kardexItem() *entity.Item {
	return &entity.Item{ID: "i1", TenantID: "t1", SKU: "TOR-01", Name: "Tornillo 1/4", UnitMeasure: "UND", Tracked: true, MinStock: decimal.NewFromInt(5)}
}

func TestRenderKardex_GeneraPDF(t *testing.T) {
	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	entries := []entity.KardexEntry{
		{
			MovementEntry: entity.MovementEntry{
				ID: "m2", Sequence: 2, ItemID: "i1", Kind: entity.MovementTRANSFER, Magnitude: decimal.NewFromInt(4),
				FromLocationID: "L1", ToLocationID: "L2", ActorID: "a1", CreatedAt: at.Add(time.Hour),
			},
			FromLocationName: "Bodega central", ToLocationName: "Camión 1", ActorName: "Ana Pérez",
		},
		{
			MovementEntry: entity.MovementEntry{
				ID: "m1", Sequence: 1, ItemID: "i1", Kind: entity.MovementIN, Magnitude: decimal.NewFromInt(10),
				ToLocationID: "L1", ReferenceID: "OC-7", ActorID: "a1", CreatedAt: at,
			},
			ToLocationName: "Bodega central", ActorName: "Ana Pérez",
		},
	}
	report := entity.ReconciliationReport{
		TenantID: "t1", ItemID: "i1", EntriesReplayed: 2, Consistent: true, CheckedAt: at.Add(2 * time.Hour),
		Locations: []entity.LocationCheck{
			{LocationID: "L1", Projected: decimal.NewFromInt(6), Replayed: decimal.NewFromInt(6), Matches: true},
			{LocationID: "L2", Projected: decimal.NewFromInt(4), Replayed: decimal.NewFromInt(4), Matches: true},
		},
	}

	out, err := pdf.NewKardexRenderer("Bodega").RenderKardex(kardexItem(), entries, report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderKardex_SinMovimientosEInconsistente(t *testing.T) {
	report := entity.ReconciliationReport{
		TenantID: "t1", ItemID: "i1", Consistent: false, NegativeBalanceSeen: true, CheckedAt: time.Now().UTC(),
		Locations: []entity.LocationCheck{
			{LocationID: "L1", Projected: decimal.NewFromInt(3), Replayed: decimal.Zero, Matches: false},
		},
	}
	out, err := pdf.NewKardexRenderer("").RenderKardex(kardexItem(), nil, report)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
