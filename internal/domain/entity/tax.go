package entity

import "github.com/shopspring/decimal"

// TaxRates foto de la configuración tributaria tomada al inicio de cada ejecución.
type TaxRates struct {
	IVAPercentage      decimal.Decimal // ej. 19
	InterestPercentage decimal.Decimal // interés de mora sobre el capital vencido, ej. 2
}
