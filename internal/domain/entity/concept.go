package entity

import "github.com/shopspring/decimal"

// ConceptCategory categoría de un concepto facturable no ligado al plan.
type ConceptCategory string

const (
	ConceptInstallation ConceptCategory = "installation"
	ConceptReconnection ConceptCategory = "reconnection"
	ConceptDiscount     ConceptCategory = "discount"
	ConceptAdvertising  ConceptCategory = "advertising"
	ConceptInterest     ConceptCategory = "interest"
	ConceptOther        ConceptCategory = "other"
)

// BillableConcept cargo pendiente asignado a un cliente (instalación, reconexión, descuento, mora...).
type BillableConcept struct {
	ID            string
	ClientID      string
	Code          string
	Name          string
	BaseValue     decimal.Decimal
	AppliesIVA    bool
	IVAPercentage decimal.Decimal // porcentaje_iva propio del concepto (ej. 19)
	Category      ConceptCategory
	SortOrder     int // orden configurado para la presentación en factura
}

// SignedValue devuelve el valor con el signo que corresponde a la categoría:
// los descuentos siempre restan.
func (c BillableConcept) SignedValue() decimal.Decimal {
	if c.Category == ConceptDiscount {
		return c.BaseValue.Abs().Neg()
	}
	return c.BaseValue
}
