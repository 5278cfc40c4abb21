package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/repository"
)

var _ repository.ConceptRepository = (*ConceptRepo)(nil)

// ConceptRepo conceptos facturables pendientes (sin factura asociada).
type ConceptRepo struct {
	q Querier
}

// NewConceptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConceptRepository(q Querier) *ConceptRepo {
	return &ConceptRepo{q: q}
}

func (r *ConceptRepo) ListPending(ctx context.Context, clientID string) ([]entity.BillableConcept, error) {
	const q = `
		SELECT id, cliente_id, codigo, nombre, valor, aplica_iva, porcentaje_iva, categoria, orden
		FROM conceptos_facturables
		WHERE cliente_id = $1 AND factura_id IS NULL
		ORDER BY orden, codigo`
	rows, err := r.q.Query(ctx, q, clientID)
	if err != nil {
		return nil, fmt.Errorf("list pending concepts: %w", err)
	}
	concepts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.BillableConcept, error) {
		var c entity.BillableConcept
		var category string
		err := row.Scan(&c.ID, &c.ClientID, &c.Code, &c.Name, &c.BaseValue, &c.AppliesIVA, &c.IVAPercentage, &category, &c.SortOrder)
		c.Category = entity.ConceptCategory(category)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan pending concepts: %w", err)
	}
	return concepts, nil
}

// MarkBilled asocia los conceptos a la factura. Si otro proceso ya consumió alguno
// devuelve domain.ErrConflict y la transacción del llamador debe revertirse.
func (r *ConceptRepo) MarkBilled(ctx context.Context, invoiceID string, conceptIDs []string) error {
	const q = `
		UPDATE conceptos_facturables
		SET factura_id = $1, facturado_en = now()
		WHERE id = ANY($2) AND factura_id IS NULL`
	tag, err := r.q.Exec(ctx, q, invoiceID, conceptIDs)
	if err != nil {
		return fmt.Errorf("mark concepts billed: %w", err)
	}
	if tag.RowsAffected() != int64(len(conceptIDs)) {
		return fmt.Errorf("%w: %d de %d conceptos ya facturados", domain.ErrConflict, int64(len(conceptIDs))-tag.RowsAffected(), len(conceptIDs))
	}
	return nil
}
