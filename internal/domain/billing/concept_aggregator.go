package billing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

// LineDraft línea antes de impuestos producida por el agregador.
type LineDraft struct {
	Source      entity.LineSource
	Kind        entity.LineKind
	ReferenceID string
	Description string
	BaseAmount  decimal.Decimal
	Tax         TaxSubject
}

// AggregatorSettings parámetros fijos de la agregación (vienen de la configuración).
type AggregatorSettings struct {
	InstallationFee        decimal.Decimal
	InstallationAppliesIVA bool
	OverdueGraceDays       int
}

// AggregationInput foto de todo lo facturable de un cliente para un periodo.
type AggregationInput struct {
	ClientID      string
	Period        entity.BillingPeriod
	ReferenceDate time.Time
	Services      []entity.ClientService
	Concepts      []entity.BillableConcept
	Overdue       []entity.OverdueInvoice
	Rates         entity.TaxRates
}

// ConceptAggregator arma la lista ordenada de líneas de un cliente:
// internet, televisión (y combo), instalación, conceptos en su orden configurado y mora al final.
type ConceptAggregator struct {
	settings AggregatorSettings
}

// NewConceptAggregator construye el agregador.
func NewConceptAggregator(settings AggregatorSettings) *ConceptAggregator {
	return &ConceptAggregator{settings: settings}
}

// Aggregate devuelve domain.ErrNoChargeableItems si no queda ninguna línea con valor.
func (a *ConceptAggregator) Aggregate(in AggregationInput) ([]LineDraft, error) {
	serviceLines, err := a.serviceLines(in)
	if err != nil {
		return nil, err
	}

	installation, others := lo.FilterReject(in.Concepts, func(c entity.BillableConcept, _ int) bool {
		return c.Category == entity.ConceptInstallation
	})

	lines := make([]LineDraft, 0, len(serviceLines)+len(in.Concepts)+2)
	lines = append(lines, serviceLines...)

	// La instalación solo va en la primera factura. Un concepto de instalación pendiente
	// reemplaza la tarifa fija configurada; en otros periodos queda pendiente.
	switch {
	case in.Period.Kind != entity.PeriodFirst:
	case len(installation) > 0:
		lines = append(lines, a.conceptLines(installation, entity.LineInstallation)...)
	case a.settings.InstallationFee.IsPositive():
		lines = append(lines, LineDraft{
			Source:      entity.SourceConcept,
			Kind:        entity.LineInstallation,
			Description: "Instalación",
			BaseAmount:  roundLine(a.settings.InstallationFee),
			Tax: TaxSubject{
				Kind:       entity.LineInstallation,
				AppliesIVA: a.settings.InstallationAppliesIVA,
				Percentage: in.Rates.IVAPercentage,
			},
		})
	}

	lines = append(lines, a.conceptLines(others, entity.LineConcept)...)

	if interest, ok := a.interestLine(in); ok {
		lines = append(lines, interest)
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cliente %s periodo %s", domain.ErrNoChargeableItems, in.ClientID, in.Period.Label())
	}
	return lines, nil
}

func (a *ConceptAggregator) serviceLines(in AggregationInput) ([]LineDraft, error) {
	active := lo.Filter(in.Services, func(s entity.ClientService, _ int) bool { return s.IsActive() })
	sort.SliceStable(active, func(i, j int) bool {
		return serviceRank(active[i].Type) < serviceRank(active[j].Type)
	})

	factor := ProrationFactor(in.Period)
	lines := make([]LineDraft, 0, len(active))
	for _, svc := range active {
		if !svc.Type.Valid() {
			return nil, fmt.Errorf("%w: servicio %s con tipo %q desconocido", domain.ErrInvalidServiceState, svc.ID, svc.Type)
		}
		if err := ValidateActivation(svc, in.ReferenceDate); err != nil {
			return nil, err
		}
		// El estrato solo interviene en el IVA de internet.
		if svc.Type == entity.ServiceInternet && (svc.Stratum < 1 || svc.Stratum > 6) {
			return nil, fmt.Errorf("%w: servicio %s con estrato %d fuera de 1–6", domain.ErrInvalidServiceState, svc.ID, svc.Stratum)
		}
		base := roundLine(svc.MonthlyPrice.Mul(factor))
		if base.IsZero() {
			continue
		}
		pct := in.Rates.IVAPercentage
		if svc.IVAPercentage != nil {
			pct = *svc.IVAPercentage
		}
		kind := serviceLineKind(svc.Type)
		lines = append(lines, LineDraft{
			Source:      entity.SourceService,
			Kind:        kind,
			ReferenceID: svc.ID,
			Description: serviceDescription(svc, in.Period),
			BaseAmount:  base,
			Tax: TaxSubject{
				Kind:       kind,
				Stratum:    svc.Stratum,
				AppliesIVA: svc.AppliesIVA,
				Percentage: pct,
			},
		})
	}
	return lines, nil
}

func (a *ConceptAggregator) conceptLines(concepts []entity.BillableConcept, kind entity.LineKind) []LineDraft {
	sorted := append([]entity.BillableConcept(nil), concepts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SortOrder != sorted[j].SortOrder {
			return sorted[i].SortOrder < sorted[j].SortOrder
		}
		return sorted[i].Code < sorted[j].Code
	})
	lines := make([]LineDraft, 0, len(sorted))
	for _, c := range sorted {
		base := roundLine(c.SignedValue())
		if base.IsZero() {
			continue
		}
		lines = append(lines, LineDraft{
			Source:      entity.SourceConcept,
			Kind:        kind,
			ReferenceID: c.ID,
			Description: c.Name,
			BaseAmount:  base,
			Tax: TaxSubject{
				Kind:       kind,
				AppliesIVA: c.AppliesIVA,
				Percentage: c.IVAPercentage,
			},
		})
	}
	return lines
}

// interestLine liquida la mora sobre facturas vencidas hace más de OverdueGraceDays días.
func (a *ConceptAggregator) interestLine(in AggregationInput) (LineDraft, bool) {
	if !in.Rates.InterestPercentage.IsPositive() {
		return LineDraft{}, false
	}
	cutoff := entity.Date(in.ReferenceDate).AddDate(0, 0, -a.settings.OverdueGraceDays)
	overdue := lo.Filter(in.Overdue, func(o entity.OverdueInvoice, _ int) bool {
		return entity.Date(o.DueDate).Before(cutoff) && o.Balance.IsPositive()
	})
	if len(overdue) == 0 {
		return LineDraft{}, false
	}
	principal := decimal.Zero
	for _, o := range overdue {
		principal = principal.Add(o.Balance)
	}
	interest := percentOf(principal, in.Rates.InterestPercentage)
	if !interest.IsPositive() {
		return LineDraft{}, false
	}
	numbers := lo.Map(overdue, func(o entity.OverdueInvoice, _ int) string {
		if o.Number != "" {
			return o.Number
		}
		return o.InvoiceID
	})
	return LineDraft{
		Source:      entity.SourceConcept,
		Kind:        entity.LineInterest,
		Description: fmt.Sprintf("Intereses de mora %s%% sobre %s (%s)", in.Rates.InterestPercentage.String(), principal.StringFixed(0), strings.Join(numbers, ", ")),
		BaseAmount:  interest,
		Tax:         TaxSubject{Kind: entity.LineInterest},
	}, true
}

func serviceRank(t entity.ServiceType) int {
	switch t {
	case entity.ServiceInternet:
		return 0
	case entity.ServiceTelevision:
		return 1
	case entity.ServiceCombo:
		return 2
	}
	return 3
}

func serviceLineKind(t entity.ServiceType) entity.LineKind {
	switch t {
	case entity.ServiceTelevision:
		return entity.LineTelevision
	case entity.ServiceCombo:
		return entity.LineCombo
	}
	return entity.LineInternet
}

func serviceDescription(svc entity.ClientService, p entity.BillingPeriod) string {
	label := map[entity.ServiceType]string{
		entity.ServiceInternet:   "Internet",
		entity.ServiceTelevision: "Televisión",
		entity.ServiceCombo:      "Combo",
	}[svc.Type]
	if svc.PlanName != "" {
		label += " " + svc.PlanName
	}
	desc := fmt.Sprintf("%s (%s)", label, p.Label())
	if p.Kind == entity.PeriodLeveling {
		desc += fmt.Sprintf(" nivelación %d/%d días", p.DaysBilled, FullCycleDays)
	}
	return desc
}
