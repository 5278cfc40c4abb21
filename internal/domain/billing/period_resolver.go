// Package billing contiene las reglas puras del motor de facturación recurrente:
// resolución de periodo, cálculo de IVA, agregación de conceptos y ensamble de la factura.
// Ninguna función de este paquete hace I/O; los datos llegan como fotos inmutables.
package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

// FullCycleDays denominador fijo del prorrateo. Los periodos first y leveling se cobran
// como días_facturados / 30 del precio mensual.
const FullCycleDays = 30

// PeriodResolver determina el periodo a facturar para un servicio y una fecha de referencia.
type PeriodResolver struct{}

// NewPeriodResolver construye el resolvedor.
func NewPeriodResolver() *PeriodResolver { return &PeriodResolver{} }

// Resolve devuelve el periodo a facturar en el mes de facturación (mes calendario de
// referenceDate). Cada mes de facturación produce a lo sumo un periodo por cliente.
//
//   - sin historial      → first: 30 días desde la activación. Si ese ciclo terminó antes
//     del mes de facturación el cliente entra directo al mes regular.
//   - prior first        → leveling: desde prior.End+1 hasta el fin del mes de facturación
//     (regular si arranca el día 1 del mes).
//   - prior leveling/regular → regular: el mes de facturación completo.
//
// Un cliente con factura emitida en el mes de facturación, o con un periodo que ya cubre
// hasta el fin de ese mes, devuelve domain.ErrAlreadyBilled.
func (r *PeriodResolver) Resolve(svc entity.ClientService, prior *entity.BilledPeriod, referenceDate time.Time) (entity.BillingPeriod, error) {
	ref := entity.Date(referenceDate)
	if err := ValidateActivation(svc, ref); err != nil {
		return entity.BillingPeriod{}, err
	}
	monthStart := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := lastDayOfMonth(ref)
	month := entity.BillingMonthOf(ref)

	if prior == nil {
		first := FirstPeriod(*svc.ActivationDate)
		if first.End.Before(monthStart) {
			return RegularPeriod(ref.Year(), ref.Month()), nil
		}
		return first, nil
	}

	last := prior.Period
	if prior.BillingMonth != "" && prior.BillingMonth >= month {
		return entity.BillingPeriod{}, fmt.Errorf("%w: factura del mes %s ya emitida (%s)", domain.ErrAlreadyBilled, prior.BillingMonth, last.Label())
	}
	if !entity.Date(last.End).Before(monthEnd) {
		return entity.BillingPeriod{}, fmt.Errorf("%w: periodo %s cubre el mes %s", domain.ErrAlreadyBilled, last.Label(), month)
	}

	start := entity.Date(last.End).AddDate(0, 0, 1)
	if last.Kind == entity.PeriodFirst && !start.Equal(monthStart) {
		return LevelingPeriodUntil(start, monthEnd), nil
	}
	return RegularPeriod(ref.Year(), ref.Month()), nil
}

// ValidateActivation exige fecha de activación y que no sea posterior a la fecha de referencia.
func ValidateActivation(svc entity.ClientService, referenceDate time.Time) error {
	if svc.ActivationDate == nil || svc.ActivationDate.IsZero() {
		return fmt.Errorf("%w: servicio %s sin fecha de activación", domain.ErrInvalidServiceState, svc.ID)
	}
	ref := entity.Date(referenceDate)
	activation := entity.Date(*svc.ActivationDate)
	if activation.After(ref) {
		return fmt.Errorf("%w: servicio %s activado el %s, posterior a la fecha de referencia %s",
			domain.ErrInvalidServiceState, svc.ID, activation.Format("2006-01-02"), ref.Format("2006-01-02"))
	}
	return nil
}

// FirstPeriod 30 días calendario desde la activación, aunque cruce de mes.
func FirstPeriod(activation time.Time) entity.BillingPeriod {
	start := entity.Date(activation)
	return entity.BillingPeriod{
		Start:      start,
		End:        start.AddDate(0, 0, FullCycleDays-1),
		DaysTotal:  FullCycleDays,
		DaysBilled: FullCycleDays,
		IsProrated: true,
		Kind:       entity.PeriodFirst,
	}
}

// LevelingPeriod desde start hasta el último día de su mes calendario.
func LevelingPeriod(start time.Time) entity.BillingPeriod {
	return LevelingPeriodUntil(start, lastDayOfMonth(entity.Date(start)))
}

// LevelingPeriodUntil desde start hasta end inclusive; se cobra días/30.
func LevelingPeriodUntil(start, end time.Time) entity.BillingPeriod {
	start, end = entity.Date(start), entity.Date(end)
	return entity.BillingPeriod{
		Start:      start,
		End:        end,
		DaysTotal:  FullCycleDays,
		DaysBilled: daysInclusive(start, end),
		IsProrated: true,
		Kind:       entity.PeriodLeveling,
	}
}

// RegularPeriod mes calendario completo (28–31 días).
func RegularPeriod(year int, month time.Month) entity.BillingPeriod {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := lastDayOfMonth(start)
	days := daysInclusive(start, end)
	return entity.BillingPeriod{
		Start:      start,
		End:        end,
		DaysTotal:  days,
		DaysBilled: days,
		IsProrated: false,
		Kind:       entity.PeriodRegular,
	}
}

// ProrationFactor fracción del precio mensual que corresponde al periodo.
func ProrationFactor(p entity.BillingPeriod) decimal.Decimal {
	if !p.IsProrated {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(p.DaysBilled)).Div(decimal.NewFromInt(FullCycleDays))
}

func lastDayOfMonth(t time.Time) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1)
}

func daysInclusive(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
