package billing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/billing"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func activeService(activation string) entity.ClientService {
	return entity.ClientService{
		ID:             "svc-1",
		ClientID:       "cli-1",
		Type:           entity.ServiceInternet,
		MonthlyPrice:   decimal.NewFromInt(60000),
		AppliesIVA:     true,
		Stratum:        2,
		ActivationDate: dayPtr(activation),
		Status:         entity.ServiceActive,
	}
}

func billed(p entity.BillingPeriod, month string) *entity.BilledPeriod {
	return &entity.BilledPeriod{Period: p, BillingMonth: month}
}

// ──────────────────────────────────────────────────────────────────────────────
// Primera factura
// ──────────────────────────────────────────────────────────────────────────────

func TestResolve_PrimeraFactura_TreintaDiasDesdeActivacion(t *testing.T) {
	r := billing.NewPeriodResolver()

	p, err := r.Resolve(activeService("2025-03-10"), nil, day("2025-03-31"))
	require.NoError(t, err)

	assert.Equal(t, day("2025-03-10"), p.Start)
	assert.Equal(t, day("2025-04-08"), p.End)
	assert.Equal(t, 30, p.DaysBilled)
	assert.Equal(t, 30, p.DaysTotal)
	assert.True(t, p.IsProrated)
	assert.Equal(t, entity.PeriodFirst, p.Kind)
}

func TestResolve_ActivacionUltimoDiaDelMes_CruzaAlMesSiguiente(t *testing.T) {
	r := billing.NewPeriodResolver()

	p, err := r.Resolve(activeService("2025-01-31"), nil, day("2025-01-31"))
	require.NoError(t, err)

	assert.Equal(t, day("2025-01-31"), p.Start)
	assert.Equal(t, day("2025-03-01"), p.End, "30 días inclusivos cruzando febrero")
	assert.Equal(t, 30, p.DaysBilled)
}

func TestResolve_SinHistorial_ActivacionAntigua_FacturaMesRegular(t *testing.T) {
	r := billing.NewPeriodResolver()

	p, err := r.Resolve(activeService("2025-01-01"), nil, day("2025-05-31"))
	require.NoError(t, err)

	assert.Equal(t, entity.PeriodRegular, p.Kind)
	assert.Equal(t, day("2025-05-01"), p.Start)
	assert.Equal(t, day("2025-05-31"), p.End)
}

func TestResolve_SinHistorial_PrimerCicloAlcanzaElMes_EsPrimera(t *testing.T) {
	r := billing.NewPeriodResolver()

	p, err := r.Resolve(activeService("2025-04-20"), nil, day("2025-05-31"))
	require.NoError(t, err)

	assert.Equal(t, entity.PeriodFirst, p.Kind)
	assert.Equal(t, day("2025-04-20"), p.Start)
	assert.Equal(t, day("2025-05-19"), p.End)
}

// ──────────────────────────────────────────────────────────────────────────────
// Nivelación y mes regular
// ──────────────────────────────────────────────────────────────────────────────

func TestResolve_SegundaFactura_NivelaAlFinDeMes(t *testing.T) {
	r := billing.NewPeriodResolver()
	prior := billed(billing.FirstPeriod(day("2025-03-10")), "2025-03")

	p, err := r.Resolve(activeService("2025-03-10"), prior, day("2025-04-30"))
	require.NoError(t, err)

	assert.Equal(t, entity.PeriodLeveling, p.Kind)
	assert.Equal(t, day("2025-04-09"), p.Start)
	assert.Equal(t, day("2025-04-30"), p.End)
	assert.Equal(t, 22, p.DaysBilled)
	assert.True(t, p.IsProrated)
}

func TestResolve_PrimeraTerminoAntesDelMes_NivelaHastaFinDelMesDeFacturacion(t *testing.T) {
	r := billing.NewPeriodResolver()
	prior := billed(billing.FirstPeriod(day("2025-03-10")), "2025-03") // sin corrida en abril

	p, err := r.Resolve(activeService("2025-03-10"), prior, day("2025-05-31"))
	require.NoError(t, err)

	assert.Equal(t, entity.PeriodLeveling, p.Kind)
	assert.Equal(t, day("2025-04-09"), p.Start)
	assert.Equal(t, day("2025-05-31"), p.End)
	assert.Equal(t, 53, p.DaysBilled)
}

func TestResolve_PrimerPeriodoTerminaFinDeMes_SiguienteEsRegular(t *testing.T) {
	r := billing.NewPeriodResolver()
	prior := billed(billing.FirstPeriod(day("2025-04-01")), "2025-04") // 2025-04-01 .. 2025-04-30

	p, err := r.Resolve(activeService("2025-04-01"), prior, day("2025-05-15"))
	require.NoError(t, err)

	assert.Equal(t, entity.PeriodRegular, p.Kind)
	assert.Equal(t, day("2025-05-01"), p.Start)
	assert.Equal(t, day("2025-05-31"), p.End)
	assert.False(t, p.IsProrated)
}

func TestResolve_Regular_MesSiguienteAlUltimoFacturado(t *testing.T) {
	r := billing.NewPeriodResolver()
	prior := billed(billing.LevelingPeriod(day("2025-04-09")), "2025-04")

	p, err := r.Resolve(activeService("2025-03-10"), prior, day("2025-05-20"))
	require.NoError(t, err)

	assert.Equal(t, entity.PeriodRegular, p.Kind)
	assert.Equal(t, day("2025-05-01"), p.Start)
	assert.Equal(t, day("2025-05-31"), p.End)
	assert.Equal(t, 31, p.DaysBilled)
	assert.Equal(t, 31, p.DaysTotal)
}

func TestRegularPeriod_FebreroBisiesto(t *testing.T) {
	leap := billing.RegularPeriod(2024, time.February)
	common := billing.RegularPeriod(2025, time.February)

	assert.Equal(t, 29, leap.DaysBilled)
	assert.Equal(t, day("2024-02-29"), leap.End)
	assert.Equal(t, 28, common.DaysBilled)
}

func TestResolve_FacturaEmitidaEnElMes_YaFacturado(t *testing.T) {
	r := billing.NewPeriodResolver()
	prior := billed(billing.FirstPeriod(day("2025-04-20")), "2025-05") // emitida en la corrida de mayo

	_, err := r.Resolve(activeService("2025-04-20"), prior, day("2025-05-31"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyBilled)
}

func TestResolve_PeriodoCubreElMes_YaFacturado(t *testing.T) {
	r := billing.NewPeriodResolver()
	prior := billed(billing.FirstPeriod(day("2025-03-10")), "") // cubre hasta 2025-04-08

	_, err := r.Resolve(activeService("2025-03-10"), prior, day("2025-03-31"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyBilled)
}

// Cada mes de facturación produce un único periodo aunque la corrida se repita.
func TestResolve_CorridasMensualesRepetidas_UnPeriodoPorMes(t *testing.T) {
	r := billing.NewPeriodResolver()
	svc := activeService("2025-03-10")

	runs := []struct {
		ref  string
		want entity.PeriodKind // vacío = ya facturado
	}{
		{"2025-03-31", entity.PeriodFirst},
		{"2025-03-31", ""},
		{"2025-04-30", entity.PeriodLeveling},
		{"2025-04-30", ""},
		{"2025-05-31", entity.PeriodRegular},
		{"2025-05-31", ""},
		{"2025-05-31", ""},
		{"2025-06-15", entity.PeriodRegular},
	}

	var prior *entity.BilledPeriod
	for i, run := range runs {
		p, err := r.Resolve(svc, prior, day(run.ref))
		if run.want == "" {
			require.ErrorIs(t, err, domain.ErrAlreadyBilled, "corrida %d (%s)", i, run.ref)
			continue
		}
		require.NoError(t, err, "corrida %d (%s)", i, run.ref)
		assert.Equal(t, run.want, p.Kind, "corrida %d (%s)", i, run.ref)
		if prior != nil {
			assert.Equal(t, prior.Period.End.AddDate(0, 0, 1), p.Start, "periodos contiguos, corrida %d", i)
		}
		prior = billed(p, entity.BillingMonthOf(day(run.ref)))
	}
	assert.Equal(t, day("2025-06-01"), prior.Period.Start)
	assert.Equal(t, day("2025-06-30"), prior.Period.End)
}

// ──────────────────────────────────────────────────────────────────────────────
// Estados inválidos
// ──────────────────────────────────────────────────────────────────────────────

func TestResolve_SinFechaActivacion_InvalidServiceState(t *testing.T) {
	svc := activeService("2025-03-10")
	svc.ActivationDate = nil

	_, err := billing.NewPeriodResolver().Resolve(svc, nil, day("2025-03-31"))
	assert.ErrorIs(t, err, domain.ErrInvalidServiceState)
}

func TestResolve_ActivacionFutura_InvalidServiceState(t *testing.T) {
	_, err := billing.NewPeriodResolver().Resolve(activeService("2025-04-02"), nil, day("2025-03-31"))
	assert.ErrorIs(t, err, domain.ErrInvalidServiceState)
}

func TestProrationFactor(t *testing.T) {
	assert.True(t, billing.ProrationFactor(billing.FirstPeriod(day("2025-03-10"))).Equal(decimal.NewFromInt(1)))
	assert.True(t, billing.ProrationFactor(billing.RegularPeriod(2025, time.May)).Equal(decimal.NewFromInt(1)))

	leveling := billing.LevelingPeriod(day("2025-04-16")) // 15 días
	assert.Equal(t, "0.5", billing.ProrationFactor(leveling).String())
}
