package entity

import "time"

// PeriodKind clase de periodo de facturación.
type PeriodKind string

const (
	PeriodFirst    PeriodKind = "first"    // primera factura, anclada en la fecha de activación
	PeriodLeveling PeriodKind = "leveling" // segunda factura: nivelación al mes calendario
	PeriodRegular  PeriodKind = "regular"  // mes calendario completo
)

// BillingPeriod objeto valor calculado en cada corrida; nunca se persiste fuera de su factura.
// Las fechas son días calendario (00:00 UTC) y el rango es inclusivo.
type BillingPeriod struct {
	Start      time.Time
	End        time.Time
	DaysTotal  int
	DaysBilled int
	IsProrated bool
	Kind       PeriodKind
}

// Key identifica el periodo dentro de la llave de idempotencia (cliente, periodo).
func (p BillingPeriod) Key() string {
	return p.Start.Format("2006-01-02") + "/" + p.End.Format("2006-01-02")
}

// Label etiqueta legible del periodo, ej. "2025-03-10 a 2025-04-08".
func (p BillingPeriod) Label() string {
	return p.Start.Format("2006-01-02") + " a " + p.End.Format("2006-01-02")
}

// BilledPeriod último periodo facturado de un cliente y el mes de facturación (YYYY-MM)
// de la corrida que lo emitió.
type BilledPeriod struct {
	Period       BillingPeriod
	BillingMonth string
}

// BillingMonthOf mes de facturación (YYYY-MM) de una fecha de referencia.
func BillingMonthOf(t time.Time) string {
	return t.Format("2006-01")
}

// Date normaliza t a medianoche UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
