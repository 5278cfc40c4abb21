package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/repository"
)

var _ repository.SequenceProvider = (*SequenceRepo)(nil)

// SequenceRepo consecutivos por prefijo. Debe usarse dentro de la transacción del insert:
// la fila queda bloqueada hasta el commit y un rollback devuelve el número.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

func (r *SequenceRepo) Next(ctx context.Context, prefix string) (int64, error) {
	const q = `
		INSERT INTO consecutivos (prefijo, ultimo) VALUES ($1, 1)
		ON CONFLICT (prefijo) DO UPDATE SET ultimo = consecutivos.ultimo + 1
		RETURNING ultimo`
	var next int64
	if err := r.q.QueryRow(ctx, q, prefix).Scan(&next); err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", prefix, err)
	}
	return next, nil
}
