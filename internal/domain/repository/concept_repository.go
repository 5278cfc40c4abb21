package repository

import (
	"context"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

// ConceptRepository puerto de conceptos facturables pendientes por cliente.
type ConceptRepository interface {
	ListPending(ctx context.Context, clientID string) ([]entity.BillableConcept, error)
	// MarkBilled asocia los conceptos a la factura; debe ejecutarse en la misma transacción del insert.
	MarkBilled(ctx context.Context, invoiceID string, conceptIDs []string) error
}
