package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/repository"
)

var _ repository.TaxConfigProvider = (*TaxConfigRepo)(nil)

// TaxConfigRepo tarifas vigentes desde configuracion_impuestos; sin filas usa fallback (config).
type TaxConfigRepo struct {
	q        Querier
	fallback entity.TaxRates
}

// NewTaxConfigRepository construye el adaptador.
func NewTaxConfigRepository(q Querier, fallback entity.TaxRates) *TaxConfigRepo {
	return &TaxConfigRepo{q: q, fallback: fallback}
}

func (r *TaxConfigRepo) Rates(ctx context.Context) (entity.TaxRates, error) {
	const q = `
		SELECT porcentaje_iva, porcentaje_interes
		FROM configuracion_impuestos
		ORDER BY actualizado_en DESC
		LIMIT 1`
	var rates entity.TaxRates
	err := r.q.QueryRow(ctx, q).Scan(&rates.IVAPercentage, &rates.InterestPercentage)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.fallback, nil
	}
	if err != nil {
		return entity.TaxRates{}, fmt.Errorf("get tax config: %w", err)
	}
	return rates, nil
}
