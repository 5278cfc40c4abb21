package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

// TaxSubject datos de una línea que determinan su IVA.
type TaxSubject struct {
	Kind       entity.LineKind
	Stratum    int
	AppliesIVA bool
	Percentage decimal.Decimal // porcentaje, ej. 19
}

// TaxResult IVA calculado para una línea.
type TaxResult struct {
	Rate   decimal.Decimal // porcentaje efectivamente aplicado (0 si exento)
	Amount decimal.Decimal
}

// exemptInternetMaxStratum estratos 1 a 3 están exentos de IVA en internet.
const exemptInternetMaxStratum = 3

// TaxCalculator aplica las reglas de IVA por tipo de servicio, estrato y concepto.
type TaxCalculator struct{}

// NewTaxCalculator construye la calculadora.
func NewTaxCalculator() *TaxCalculator { return &TaxCalculator{} }

// Calculate devuelve el IVA de la línea redondeado a pesos enteros.
//   - internet: exento en estratos 1–3, gravado desde el 4.
//   - televisión y combo: siempre gravados.
//   - instalación y conceptos: gravados solo si AppliesIVA.
//   - intereses de mora: no gravados.
//
// Un servicio con AppliesIVA=false queda exento sin importar el tipo.
func (c *TaxCalculator) Calculate(base decimal.Decimal, s TaxSubject) (TaxResult, error) {
	if s.Percentage.IsNegative() || s.Percentage.GreaterThan(hundred) {
		return TaxResult{}, fmt.Errorf("%w: %s%% fuera del rango 0–100", domain.ErrInvalidTaxRate, s.Percentage.String())
	}
	if !c.taxable(s) {
		return TaxResult{Rate: decimal.Zero, Amount: decimal.Zero}, nil
	}
	return TaxResult{Rate: s.Percentage, Amount: percentOf(base, s.Percentage)}, nil
}

func (c *TaxCalculator) taxable(s TaxSubject) bool {
	switch s.Kind {
	case entity.LineInternet:
		return s.AppliesIVA && s.Stratum > exemptInternetMaxStratum
	case entity.LineTelevision, entity.LineCombo:
		return s.AppliesIVA
	case entity.LineInstallation, entity.LineConcept:
		return s.AppliesIVA
	case entity.LineInterest:
		return false
	}
	return false
}
