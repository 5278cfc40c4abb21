package entity

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de cartera de una factura. El estado lo actualiza el subsistema de pagos (externo).
const (
	InvoiceStatusPending   = "pendiente"
	InvoiceStatusPaid      = "pagada"
	InvoiceStatusCancelled = "anulada"
)

// LineSource origen de una línea de factura.
type LineSource string

const (
	SourceService LineSource = "service"
	SourceConcept LineSource = "concept"
)

// LineKind tipo de cargo; determina el orden de presentación y la regla de IVA.
type LineKind string

const (
	LineInternet     LineKind = "internet"
	LineTelevision   LineKind = "television"
	LineCombo        LineKind = "combo"
	LineInstallation LineKind = "installation"
	LineConcept      LineKind = "concept"
	LineInterest     LineKind = "interest"
)

// InvoiceLine una línea de la factura ya ensamblada (inmutable).
type InvoiceLine struct {
	Position    int
	Source      LineSource
	Kind        LineKind
	ReferenceID string // ID del servicio o del concepto de origen; vacío para mora
	Description string
	BaseAmount  decimal.Decimal
	TaxRate     decimal.Decimal // porcentaje aplicado (0 si exento)
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// Invoice agregado de salida. Invariante: GrandTotal = Subtotal + TaxTotal,
// Subtotal = Σ BaseAmount y TaxTotal = Σ TaxAmount de sus líneas.
type Invoice struct {
	ID             string
	ClientID       string
	ClientName     string
	Prefix         string
	SequenceNumber int64 // 0 en vista previa: el consecutivo solo se consume al ejecutar
	Period         BillingPeriod
	BillingMonth   string // YYYY-MM; a lo sumo una factura vigente por cliente y mes
	Lines          []InvoiceLine
	Subtotal       decimal.Decimal
	TaxTotal       decimal.Decimal
	GrandTotal     decimal.Decimal
	DueDate        time.Time
	Status         string
	GeneratedAt    time.Time
}

// Number número visible de la factura (prefijo + consecutivo), vacío si no tiene consecutivo.
func (i *Invoice) Number() string {
	if i.SequenceNumber == 0 {
		return ""
	}
	return i.Prefix + "-" + strconv.FormatInt(i.SequenceNumber, 10)
}

// ConceptIDs IDs de los conceptos pendientes que esta factura consume.
func (i *Invoice) ConceptIDs() []string {
	ids := make([]string, 0)
	for _, l := range i.Lines {
		if l.Source == SourceConcept && l.ReferenceID != "" {
			ids = append(ids, l.ReferenceID)
		}
	}
	return ids
}

// OverdueInvoice factura previa impaga usada para liquidar intereses de mora.
type OverdueInvoice struct {
	InvoiceID string
	Number    string
	DueDate   time.Time
	Balance   decimal.Decimal // capital vencido pendiente
}
