package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/repository"
)

// InvoiceUseCase consulta facturas generadas y su representación gráfica.
type InvoiceUseCase struct {
	invoiceRepo repository.InvoiceRepository
	generator   InvoicePDFGenerator
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(invoiceRepo repository.InvoiceRepository, generator InvoicePDFGenerator) *InvoiceUseCase {
	return &InvoiceUseCase{invoiceRepo: invoiceRepo, generator: generator}
}

// Get devuelve la factura con sus líneas en orden de presentación.
func (uc *InvoiceUseCase) Get(ctx context.Context, id string) (*entity.Invoice, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("factura: obtener: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// PDF genera el PDF de la factura.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe.
//   - domain.ErrInvalidInput     si la factura está anulada o no tiene consecutivo.
func (uc *InvoiceUseCase) PDF(ctx context.Context, id string) (pdfBytes []byte, filename string, err error) {
	// ── 1. Cargar factura ─────────────────────────────────────────────────────
	inv, err := uc.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	// ── 2. Validar que sea representable ──────────────────────────────────────
	if inv.Status == entity.InvoiceStatusCancelled || inv.Number() == "" {
		return nil, "", fmt.Errorf("%w: la factura %s no admite representación gráfica (estado %s)",
			domain.ErrInvalidInput, inv.ID, inv.Status)
	}

	// ── 3. Generar PDF ────────────────────────────────────────────────────────
	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, inv)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("factura_%s.pdf", inv.Number()), nil
}
