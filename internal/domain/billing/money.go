package billing

import "github.com/shopspring/decimal"

// Precisión monetaria: pesos enteros. Todo redondeo ocurre a nivel de línea.
const currencyPlaces = 0

var hundred = decimal.NewFromInt(100)

func roundLine(d decimal.Decimal) decimal.Decimal {
	return d.Round(currencyPlaces)
}

// percentOf calcula base * pct / 100 redondeado a la precisión de la moneda.
func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	return roundLine(base.Mul(pct).Div(hundred))
}
