package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/billing"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

func defaultRates() entity.TaxRates {
	return entity.TaxRates{IVAPercentage: iva19, InterestPercentage: decimal.NewFromInt(2)}
}

func regularInput(services ...entity.ClientService) billing.AggregationInput {
	return billing.AggregationInput{
		ClientID:      "cli-1",
		Period:        billing.RegularPeriod(2025, 5),
		ReferenceDate: day("2025-05-31"),
		Services:      services,
		Rates:         defaultRates(),
	}
}

func tvService() entity.ClientService {
	svc := activeService("2025-01-01")
	svc.ID = "svc-tv"
	svc.Type = entity.ServiceTelevision
	svc.MonthlyPrice = decimal.NewFromInt(45000)
	return svc
}

func kinds(lines []billing.LineDraft) []entity.LineKind {
	out := make([]entity.LineKind, len(lines))
	for i, l := range lines {
		out[i] = l.Kind
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Orden de líneas
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregate_OrdenInternetTelevisionConceptosMora(t *testing.T) {
	agg := billing.NewConceptAggregator(billing.AggregatorSettings{OverdueGraceDays: 30})
	in := regularInput(tvService(), activeService("2025-01-01"))
	in.Concepts = []entity.BillableConcept{
		{ID: "c-2", Code: "PUB", Name: "Publicidad", BaseValue: decimal.NewFromInt(5000), Category: entity.ConceptAdvertising, SortOrder: 2},
		{ID: "c-1", Code: "REC", Name: "Reconexión", BaseValue: decimal.NewFromInt(10000), Category: entity.ConceptReconnection, SortOrder: 1},
	}
	in.Overdue = []entity.OverdueInvoice{
		{InvoiceID: "inv-old", Number: "FAC-7", DueDate: day("2025-03-15"), Balance: decimal.NewFromInt(60000)},
	}

	lines, err := agg.Aggregate(in)
	require.NoError(t, err)

	assert.Equal(t, []entity.LineKind{
		entity.LineInternet, entity.LineTelevision, entity.LineConcept, entity.LineConcept, entity.LineInterest,
	}, kinds(lines))
	assert.Equal(t, "c-1", lines[2].ReferenceID, "conceptos ordenados por SortOrder")
	assert.Equal(t, "c-2", lines[3].ReferenceID)
	assert.Equal(t, "1200", lines[4].BaseAmount.String(), "2% sobre 60000")
	assert.Contains(t, lines[4].Description, "FAC-7")
}

func TestAggregate_ServicioInactivoNoSeFactura(t *testing.T) {
	suspended := tvService()
	suspended.Status = entity.ServiceSuspended

	lines, err := billing.NewConceptAggregator(billing.AggregatorSettings{}).
		Aggregate(regularInput(activeService("2025-01-01"), suspended))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, entity.LineInternet, lines[0].Kind)
}

// ──────────────────────────────────────────────────────────────────────────────
// Prorrateo, descuentos e instalación
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregate_NivelacionProrrateaElPlan(t *testing.T) {
	in := regularInput(activeService("2025-03-10"))
	in.Period = billing.LevelingPeriod(day("2025-04-16")) // 15 de 30 días

	lines, err := billing.NewConceptAggregator(billing.AggregatorSettings{}).Aggregate(in)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "30000", lines[0].BaseAmount.String())
	assert.Contains(t, lines[0].Description, "nivelación 15/30 días")
}

func TestAggregate_DescuentoEsNegativo(t *testing.T) {
	in := regularInput(activeService("2025-01-01"))
	in.Concepts = []entity.BillableConcept{
		{ID: "d-1", Code: "DESC", Name: "Descuento fidelidad", BaseValue: decimal.NewFromInt(5000), Category: entity.ConceptDiscount},
	}

	lines, err := billing.NewConceptAggregator(billing.AggregatorSettings{}).Aggregate(in)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "-5000", lines[1].BaseAmount.String())
}

func TestAggregate_TarifaInstalacionSoloEnPrimerPeriodo(t *testing.T) {
	agg := billing.NewConceptAggregator(billing.AggregatorSettings{
		InstallationFee: decimal.NewFromInt(50000), InstallationAppliesIVA: true,
	})

	first := regularInput(activeService("2025-03-10"))
	first.Period = billing.FirstPeriod(day("2025-03-10"))
	lines, err := agg.Aggregate(first)
	require.NoError(t, err)
	assert.Equal(t, []entity.LineKind{entity.LineInternet, entity.LineInstallation}, kinds(lines))
	assert.Equal(t, "50000", lines[1].BaseAmount.String())
	assert.True(t, lines[1].Tax.AppliesIVA)

	regular, err := agg.Aggregate(regularInput(activeService("2025-03-10")))
	require.NoError(t, err)
	assert.Equal(t, []entity.LineKind{entity.LineInternet}, kinds(regular))
}

func TestAggregate_ConceptoInstalacionReemplazaTarifaFija(t *testing.T) {
	agg := billing.NewConceptAggregator(billing.AggregatorSettings{InstallationFee: decimal.NewFromInt(50000)})
	in := regularInput(activeService("2025-03-10"))
	in.Period = billing.FirstPeriod(day("2025-03-10"))
	in.Concepts = []entity.BillableConcept{
		{ID: "inst-1", Code: "INST", Name: "Instalación promocional", BaseValue: decimal.NewFromInt(20000), Category: entity.ConceptInstallation},
		{ID: "c-1", Code: "PUB", Name: "Publicidad", BaseValue: decimal.NewFromInt(3000), Category: entity.ConceptAdvertising},
	}

	lines, err := agg.Aggregate(in)
	require.NoError(t, err)
	assert.Equal(t, []entity.LineKind{entity.LineInternet, entity.LineInstallation, entity.LineConcept}, kinds(lines))
	assert.Equal(t, "inst-1", lines[1].ReferenceID)
	assert.Equal(t, "20000", lines[1].BaseAmount.String())
}

func TestAggregate_ConceptoInstalacionFueraDePrimerPeriodo_QuedaPendiente(t *testing.T) {
	agg := billing.NewConceptAggregator(billing.AggregatorSettings{InstallationFee: decimal.NewFromInt(50000)})
	in := regularInput(activeService("2025-03-10"))
	in.Concepts = []entity.BillableConcept{
		{ID: "inst-1", Code: "INST", Name: "Instalación", BaseValue: decimal.NewFromInt(20000), Category: entity.ConceptInstallation},
		{ID: "c-1", Code: "REC", Name: "Reconexión", BaseValue: decimal.NewFromInt(10000), Category: entity.ConceptReconnection},
	}

	for _, period := range []entity.BillingPeriod{billing.RegularPeriod(2025, 5), billing.LevelingPeriod(day("2025-04-09"))} {
		in.Period = period
		lines, err := agg.Aggregate(in)
		require.NoError(t, err)
		assert.Equal(t, []entity.LineKind{entity.LineInternet, entity.LineConcept}, kinds(lines), string(period.Kind))
		assert.Equal(t, "c-1", lines[1].ReferenceID)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Mora
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregate_MoraDentroDeGraciaNoGeneraLinea(t *testing.T) {
	in := regularInput(activeService("2025-01-01"))
	in.Overdue = []entity.OverdueInvoice{
		{InvoiceID: "inv-1", DueDate: day("2025-05-15"), Balance: decimal.NewFromInt(60000)},
	}

	lines, err := billing.NewConceptAggregator(billing.AggregatorSettings{OverdueGraceDays: 30}).Aggregate(in)
	require.NoError(t, err)
	assert.Equal(t, []entity.LineKind{entity.LineInternet}, kinds(lines))
}

// ──────────────────────────────────────────────────────────────────────────────
// Errores
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregate_SinLineas_NoChargeableItems(t *testing.T) {
	free := activeService("2025-01-01")
	free.MonthlyPrice = decimal.Zero

	_, err := billing.NewConceptAggregator(billing.AggregatorSettings{}).Aggregate(regularInput(free))
	assert.ErrorIs(t, err, domain.ErrNoChargeableItems)
	assert.True(t, domain.IsSkip(err))
}

func TestAggregate_EstratoFueraDeRango_InvalidServiceState(t *testing.T) {
	svc := activeService("2025-01-01")
	svc.Stratum = 7

	_, err := billing.NewConceptAggregator(billing.AggregatorSettings{}).Aggregate(regularInput(svc))
	assert.ErrorIs(t, err, domain.ErrInvalidServiceState)
}

func TestAggregate_TelevisionSinEstrato_SeFactura(t *testing.T) {
	tv := tvService()
	tv.Stratum = 0

	lines, err := billing.NewConceptAggregator(billing.AggregatorSettings{}).Aggregate(regularInput(tv))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, entity.LineTelevision, lines[0].Kind)
	assert.Equal(t, "45000", lines[0].BaseAmount.String())
}

func TestAggregate_SegundoServicioActivadoDespuesDeLaReferencia_InvalidServiceState(t *testing.T) {
	tv := tvService()
	tv.ActivationDate = dayPtr("2025-07-15")

	_, err := billing.NewConceptAggregator(billing.AggregatorSettings{}).
		Aggregate(regularInput(activeService("2025-01-01"), tv))
	require.ErrorIs(t, err, domain.ErrInvalidServiceState)
	assert.Contains(t, err.Error(), "svc-tv")
}

func TestAggregate_SegundoServicioSinActivacion_InvalidServiceState(t *testing.T) {
	tv := tvService()
	tv.ActivationDate = nil

	_, err := billing.NewConceptAggregator(billing.AggregatorSettings{}).
		Aggregate(regularInput(activeService("2025-01-01"), tv))
	assert.ErrorIs(t, err, domain.ErrInvalidServiceState)
}

func TestAggregate_TipoDesconocido_InvalidServiceState(t *testing.T) {
	svc := activeService("2025-01-01")
	svc.Type = "telefonia"

	_, err := billing.NewConceptAggregator(billing.AggregatorSettings{}).Aggregate(regularInput(svc))
	assert.ErrorIs(t, err, domain.ErrInvalidServiceState)
}
