package billing

import (
	"context"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/repository"
)

// InvoiceTxRunner ejecuta una función dentro de una transacción que incluye los repos de escritura
// de facturación. Si fn retorna error se hace rollback (el consecutivo reservado no se consume).
type InvoiceTxRunner interface {
	RunInvoice(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		conceptRepo repository.ConceptRepository,
		sequence repository.SequenceProvider,
	) error) error
}

// InvoicePDFGenerator genera la representación gráfica de una factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, inv *entity.Invoice) ([]byte, error)
}
