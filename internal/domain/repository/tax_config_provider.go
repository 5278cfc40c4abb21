package repository

import (
	"context"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

// TaxConfigProvider entrega las tarifas vigentes (IVA e interés de mora).
type TaxConfigProvider interface {
	Rates(ctx context.Context) (entity.TaxRates, error)
}
