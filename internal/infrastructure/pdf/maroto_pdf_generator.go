// Package pdf genera la representación gráfica de la factura de servicios (Maroto v2).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + NIT         │  N° Factura + Fechas         │
//	│  CLIENTE: Nombre + ID         │  PERIODO: rango + tipo       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Descripción | Base | IVA% | IVA | Total           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / IVA / TOTAL A PAGAR                     │
//	│  FOOTER: QR de referencia de pago + leyenda                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

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
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	appbilling "github.com/jhoicas/ISP-Facturacion-api/internal/application/billing"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/ISP-Facturacion-api/pkg/nit"
)

var _ appbilling.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// pesos formatea con separador de miles colombiano.
var pesos = message.NewPrinter(language.MustParse("es-CO"))

// ── Generator ─────────────────────────────────────────────────────────────────

// Issuer datos del emisor impresos en el encabezado.
type Issuer struct {
	Name    string
	NIT     string
	Address string
	Phone   string
}

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	issuer Issuer
}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator(issuer Issuer) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{issuer: issuer}
}

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(_ context.Context, inv *entity.Invoice) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+inv.Number(), true).
		WithAuthor(nonEmpty(g.issuer.Name, "ISP"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv, g.issuer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(clientPeriodRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(lineRows(inv.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv))
	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(inv, g.issuer))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(inv *entity.Invoice, issuer Issuer) core.Row {
	return row.New(20).Add(
		col.New(7).Add(
			text.New(nonEmpty(issuer.Name, "—"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIT: "+nonEmpty(nit.Format(issuer.NIT), "—"), props.Text{Size: 9, Top: 9, Color: colorGray}),
			text.New(fmt.Sprintf("%s   |   Tel: %s", nonEmpty(issuer.Address, "—"), nonEmpty(issuer.Phone, "—")),
				props.Text{Size: 8, Top: 14, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("FACTURA DE SERVICIOS", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(inv.Number(), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6}),
			text.New("Expedición: "+inv.GeneratedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 12, Color: colorGray,
			}),
			text.New("Vence: "+inv.DueDate.Format("02/01/2006"), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 16,
			}),
		),
	)
}

func clientPeriodRow(inv *entity.Invoice) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(inv.ClientName, inv.ClientID), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New("ID: "+inv.ClientID, props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("PERIODO FACTURADO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(inv.Period.Start.Format("02/01/2006")+" al "+inv.Period.End.Format("02/01/2006"), props.Text{
				Size: 9, Align: align.Right, Top: 6,
			}),
			text.New(periodKindLabel(inv.Period), props.Text{Size: 8, Align: align.Right, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Base", 2, align.Right),
		h("IVA%", 1, align.Center),
		h("IVA", 1, align.Right),
		h("Total", 2, align.Right),
	)
}

// lineRows una fila por línea, en el orden de presentación de la factura.
func lineRows(lines []entity.InvoiceLine) []core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	rows := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, row.New(7).Add(
			cell(fmt.Sprint(l.Position), 1, align.Center),
			cell(l.Description, 5, align.Left),
			cell(formatPesos(l.BaseAmount), 2, align.Right),
			cell(l.TaxRate.StringFixed(0)+"%", 1, align.Center),
			cell(formatPesos(l.TaxAmount), 1, align.Right),
			cell(formatPesos(l.TotalAmount), 2, align.Right),
		))
	}
	return rows
}

func totalsRow(inv *entity.Invoice) core.Row {
	label := func(s string, top float64, grand bool) core.Component {
		p := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top}
		if grand {
			p.Size, p.Color = 10, colorPrimary
		}
		return text.New(s, p)
	}
	value := func(s string, top float64, grand bool) core.Component {
		p := props.Text{Size: 9, Align: align.Right, Right: 1, Top: top}
		if grand {
			p.Style, p.Size, p.Color = fontstyle.Bold, 10, colorPrimary
		}
		return text.New(s, p)
	}

	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 1, false),
			label("IVA:", 7, false),
			label("TOTAL A PAGAR:", 13, true),
		),
		col.New(3).Add(
			value(formatPesos(inv.Subtotal), 1, false),
			value(formatPesos(inv.TaxTotal), 7, false),
			value(formatPesos(inv.GrandTotal), 13, true),
		),
	)
}

// footerRow QR con la referencia de pago (número|cliente|total|vencimiento).
func footerRow(inv *entity.Invoice, issuer Issuer) core.Row {
	ref := fmt.Sprintf("%s|%s|%s|%s", inv.Number(), inv.ClientID, inv.GrandTotal.StringFixed(0), inv.DueDate.Format("2006-01-02"))
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(ref, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("Referencia de pago: "+inv.Number(), props.Text{Style: fontstyle.Bold, Size: 9, Top: 4, Left: 3}),
			text.New("Pague antes del "+inv.DueDate.Format("02/01/2006")+" para evitar intereses de mora y suspensión del servicio.",
				props.Text{Size: 8, Top: 11, Left: 3, Color: colorGray}),
			text.New(nonEmpty(issuer.Name, "")+" "+nonEmpty(issuer.Phone, ""), props.Text{Size: 7, Top: 22, Left: 3, Color: colorGray}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func periodKindLabel(p entity.BillingPeriod) string {
	switch p.Kind {
	case entity.PeriodFirst:
		return fmt.Sprintf("Primera factura (%d días)", p.DaysBilled)
	case entity.PeriodLeveling:
		return fmt.Sprintf("Nivelación (%d/%d días)", p.DaysBilled, p.DaysTotal)
	}
	return "Mes completo"
}

// formatPesos "$113.550" para montos en pesos enteros.
func formatPesos(d decimal.Decimal) string {
	n := d.Round(0).IntPart()
	if n < 0 {
		return pesos.Sprintf("-$%d", -n)
	}
	return pesos.Sprintf("$%d", n)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
