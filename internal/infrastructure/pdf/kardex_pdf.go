// Package pdf genera el kardex imprimible de un ítem.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Ítem + SKU + unidad  │  Fecha de corte              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Fecha | Tipo | Desde | Hacia | Cant. | Saldo ... │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CONCILIACIÓN: ubicación | proyección | ledger | estado      │
//	│  FOOTER: veredicto + QR con el resumen                       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"slices"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ inventory.KardexRenderer = (*KardexRenderer)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 20, Blue: 20}
)

// ── Renderer ──────────────────────────────────────────────────────────────────

// KardexRenderer implementa inventory.KardexRenderer usando Maroto v2.
type KardexRenderer struct {
	author string
}

// NewKardexRenderer construye el generador. author aparece en los metadatos del PDF.
func NewKardexRenderer(author string) *KardexRenderer {
	return &KardexRenderer{author: author}
}

// RenderKardex genera el PDF. entries llega de la más reciente a la más antigua;
// el documento se imprime en orden cronológico con saldo acumulado del ítem.
func (g *KardexRenderer) RenderKardex(item *entity.Item, entries []entity.KardexEntry, report entity.ReconciliationReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Kardex "+item.SKU, true).
		WithAuthor(nonEmpty(g.author, "stock-ledger"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(item, report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(entryRows(entries)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(reconciliationRows(report)...)
	m.AddRows(footerRow(item, report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar kardex: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(item *entity.Item, report entity.ReconciliationReport) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New(item.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("SKU: %s   |   Unidad: %s   |   Stock mínimo: %s",
				item.SKU, nonEmpty(item.UnitMeasure, "—"), item.MinStock.String()),
				props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("KARDEX DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Corte: "+report.CheckedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Left),
		h("Fecha", 2, align.Left),
		h("Tipo", 1, align.Left),
		h("Desde", 2, align.Left),
		h("Hacia", 2, align.Left),
		h("Cant.", 1, align.Right),
		h("Saldo", 1, align.Right),
		h("Ref. / Actor", 2, align.Left),
	)
}

// entryRows una fila por movimiento en orden cronológico.
func entryRows(entries []entity.KardexEntry) []core.Row {
	if len(entries) == 0 {
		return []core.Row{row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos registrados.", props.Text{Size: 8, Top: 2, Color: colorGray}),
		))}
	}
	rows := make([]core.Row, 0, len(entries))
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 7, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	balance := decimal.Zero
	for _, e := range slices.Backward(entries) {
		change := aggregateChange(e.MovementEntry)
		balance = balance.Add(change)
		rows = append(rows, row.New(7).Add(
			cell(fmt.Sprintf("%d", e.Sequence), 1, align.Left),
			cell(e.CreatedAt.Format("02/01/06 15:04"), 2, align.Left),
			cell(string(e.Kind), 1, align.Left),
			cell(nonEmpty(e.FromLocationName, "—"), 2, align.Left),
			cell(nonEmpty(e.ToLocationName, "—"), 2, align.Left),
			cell(signed(e.MovementEntry), 1, align.Right),
			cell(balance.String(), 1, align.Right),
			cell(nonEmpty(e.ReferenceID, "—")+" / "+nonEmpty(e.ActorName, e.ActorID), 2, align.Left),
		))
	}
	return rows
}

func reconciliationRows(report entity.ReconciliationReport) []core.Row {
	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(text.New("CONCILIACIÓN LEDGER / PROYECCIÓN", props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
		}))),
	}
	for _, c := range report.Locations {
		status, color := "OK", colorGray
		if !c.Matches {
			status, color = "DIFERENCIA", colorAlert
		}
		rows = append(rows, row.New(5).Add(
			col.New(4).Add(text.New(c.LocationID, props.Text{Size: 7, Left: 1})),
			col.New(3).Add(text.New("Proyección: "+c.Projected.String(), props.Text{Size: 7, Align: align.Right})),
			col.New(3).Add(text.New("Ledger: "+c.Replayed.String(), props.Text{Size: 7, Align: align.Right})),
			col.New(2).Add(text.New(status, props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Right, Color: color, Right: 1})),
		))
	}
	return rows
}

// footerRow veredicto y QR con el resumen de la verificación.
func footerRow(item *entity.Item, report entity.ReconciliationReport) core.Row {
	verdict, color := "Kardex consistente con la proyección de stock.", colorPrimary
	if !report.Consistent {
		verdict, color = "ATENCIÓN: el kardex NO concilia con la proyección de stock.", colorAlert
	}
	if report.NegativeBalanceSeen {
		verdict += " Se detectó saldo negativo durante la reconstrucción."
	}
	summary := fmt.Sprintf("item=%s;entries=%d;consistent=%t;checked=%s",
		item.ID, report.EntriesReplayed, report.Consistent, report.CheckedAt.Format("2006-01-02T15:04:05Z07:00"))
	return row.New(32).Add(
		col.New(3).Add(code.NewQr(summary, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New(verdict, props.Text{Style: fontstyle.Bold, Size: 9, Top: 6, Left: 3, Color: color}),
			text.New(fmt.Sprintf("%d movimientos reproducidos.", report.EntriesReplayed), props.Text{
				Size: 8, Top: 14, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// aggregateChange efecto del movimiento sobre el stock total del ítem (un traslado suma cero).
func aggregateChange(e entity.MovementEntry) decimal.Decimal {
	total := decimal.Zero
	for _, d := range e.Deltas() {
		total = total.Add(d.Amount)
	}
	return total
}

func signed(e entity.MovementEntry) string {
	change := aggregateChange(e)
	switch {
	case change.IsPositive():
		return "+" + e.Magnitude.String()
	case change.IsNegative():
		return "-" + e.Magnitude.String()
	default:
		return e.Magnitude.String()
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
