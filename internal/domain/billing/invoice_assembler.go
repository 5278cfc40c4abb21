package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

// AssemblyInput todo lo que necesita el ensamble. El consecutivo llega ya reservado
// (0 en vista previa) para que Assemble no dependa de colaboradores externos.
type AssemblyInput struct {
	InvoiceID      string
	ClientID       string
	ClientName     string
	Period         entity.BillingPeriod
	BillingMonth   string // YYYY-MM de la corrida que emite la factura
	Lines          []LineDraft
	Prefix         string
	SequenceNumber int64
	GeneratedAt    time.Time
	DueDays        int
}

// InvoiceAssembler combina periodo, líneas e IVA en una factura con totales calculados.
type InvoiceAssembler struct {
	tax *TaxCalculator
}

// NewInvoiceAssembler construye el ensamblador.
func NewInvoiceAssembler(tax *TaxCalculator) *InvoiceAssembler {
	return &InvoiceAssembler{tax: tax}
}

// Assemble es una función pura de su entrada: mismas líneas, mismos totales.
// Cualquier fallo de la calculadora se envuelve en domain.ErrAssembly.
func (a *InvoiceAssembler) Assemble(in AssemblyInput) (*entity.Invoice, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: cliente %s sin líneas", domain.ErrAssembly, in.ClientID)
	}

	subtotal, taxTotal := decimal.Zero, decimal.Zero
	lines := make([]entity.InvoiceLine, 0, len(in.Lines))
	for i, d := range in.Lines {
		res, err := a.tax.Calculate(d.BaseAmount, d.Tax)
		if err != nil {
			return nil, fmt.Errorf("%w: línea %d (%s): %w", domain.ErrAssembly, i+1, d.Description, err)
		}
		lines = append(lines, entity.InvoiceLine{
			Position:    i + 1,
			Source:      d.Source,
			Kind:        d.Kind,
			ReferenceID: d.ReferenceID,
			Description: d.Description,
			BaseAmount:  d.BaseAmount,
			TaxRate:     res.Rate,
			TaxAmount:   res.Amount,
			TotalAmount: d.BaseAmount.Add(res.Amount),
		})
		subtotal = subtotal.Add(d.BaseAmount)
		taxTotal = taxTotal.Add(res.Amount)
	}

	generatedAt := in.GeneratedAt.UTC()
	return &entity.Invoice{
		ID:             in.InvoiceID,
		ClientID:       in.ClientID,
		ClientName:     in.ClientName,
		Prefix:         in.Prefix,
		SequenceNumber: in.SequenceNumber,
		Period:         in.Period,
		BillingMonth:   in.BillingMonth,
		Lines:          lines,
		Subtotal:       subtotal,
		TaxTotal:       taxTotal,
		GrandTotal:     subtotal.Add(taxTotal),
		DueDate:        entity.Date(generatedAt).AddDate(0, 0, in.DueDays),
		Status:         entity.InvoiceStatusPending,
		GeneratedAt:    generatedAt,
	}, nil
}

// CheckTotals verifica las invariantes de totales de una factura.
func CheckTotals(inv *entity.Invoice) error {
	subtotal, taxTotal := decimal.Zero, decimal.Zero
	for _, l := range inv.Lines {
		if !l.TotalAmount.Equal(l.BaseAmount.Add(l.TaxAmount)) {
			return fmt.Errorf("%w: línea %d total %s != base %s + iva %s", domain.ErrAssembly, l.Position, l.TotalAmount, l.BaseAmount, l.TaxAmount)
		}
		subtotal = subtotal.Add(l.BaseAmount)
		taxTotal = taxTotal.Add(l.TaxAmount)
	}
	switch {
	case !inv.Subtotal.Equal(subtotal):
		return fmt.Errorf("%w: subtotal %s != Σ bases %s", domain.ErrAssembly, inv.Subtotal, subtotal)
	case !inv.TaxTotal.Equal(taxTotal):
		return fmt.Errorf("%w: iva %s != Σ iva %s", domain.ErrAssembly, inv.TaxTotal, taxTotal)
	case !inv.GrandTotal.Equal(inv.Subtotal.Add(inv.TaxTotal)):
		return fmt.Errorf("%w: total %s != subtotal + iva", domain.ErrAssembly, inv.GrandTotal)
	}
	return nil
}
