package repository

import (
	"context"
	"time"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

// InvoiceRepository puerto de persistencia de facturas generadas.
// Save debe garantizar que solo exista una factura vigente por (cliente, periodo) y por
// (cliente, mes de facturación): ante conflicto devuelve domain.ErrPersistenceConflict, nunca un duplicado.
type InvoiceRepository interface {
	Exists(ctx context.Context, clientID string, period entity.BillingPeriod) (bool, error)
	Save(ctx context.Context, invoice *entity.Invoice) (string, error)
	// LastPeriod devuelve el último periodo facturado (no anulado) del cliente con el mes
	// de facturación que lo emitió; nil si no hay.
	LastPeriod(ctx context.Context, clientID string) (*entity.BilledPeriod, error)
	// ListOverdue facturas pendientes cuyo vencimiento es anterior a dueBefore.
	ListOverdue(ctx context.Context, clientID string, dueBefore time.Time) ([]entity.OverdueInvoice, error)
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
}
