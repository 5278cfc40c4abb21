package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain"
	rules "github.com/jhoicas/ISP-Facturacion-api/internal/domain/billing"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/ISP-Facturacion-api/pkg/logger"
)

// Settings parámetros de la corrida de facturación (provienen de config.BillingConfig).
type Settings struct {
	Prefix        string
	Workers       int
	ClientTimeout time.Duration // 0 = sin límite por cliente
	DueDays       int
	Aggregator    rules.AggregatorSettings
}

// Option modifica el orquestador (reloj e IDs en tests).
type Option func(*Orchestrator)

// WithClock reemplaza el reloj usado para generated_at y los tiempos de la corrida.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator reemplaza el generador de IDs de facturas y ejecuciones.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// Orchestrator recorre la población elegible y produce un BatchRun, en vista previa o ejecución.
//
//	ListActive → por cliente: Periodo → Idempotencia → Conceptos → Ensamble [→ Persistencia]
//
// Los clientes se procesan en un pool acotado (Settings.Workers). Cada resultado viaja por un
// canal hacia una única goroutine colectora; el BatchRun solo se modifica desde el hilo que
// llamó a Preview/Execute, en el orden de enumeración.
type Orchestrator struct {
	serviceRepo repository.ClientServiceRepository
	conceptRepo repository.ConceptRepository
	invoiceRepo repository.InvoiceRepository
	taxConfig   repository.TaxConfigProvider
	runRepo     repository.BatchRunRepository
	txRunner    InvoiceTxRunner

	resolver   *rules.PeriodResolver
	aggregator *rules.ConceptAggregator
	assembler  *rules.InvoiceAssembler

	settings Settings
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewOrchestrator construye el orquestador inyectando todas sus dependencias.
func NewOrchestrator(
	serviceRepo repository.ClientServiceRepository,
	conceptRepo repository.ConceptRepository,
	invoiceRepo repository.InvoiceRepository,
	taxConfig repository.TaxConfigProvider,
	runRepo repository.BatchRunRepository,
	txRunner InvoiceTxRunner,
	settings Settings,
	log *logger.Logger,
	opts ...Option,
) *Orchestrator {
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	o := &Orchestrator{
		serviceRepo: serviceRepo,
		conceptRepo: conceptRepo,
		invoiceRepo: invoiceRepo,
		taxConfig:   taxConfig,
		runRepo:     runRepo,
		txRunner:    txRunner,
		resolver:    rules.NewPeriodResolver(),
		aggregator:  rules.NewConceptAggregator(settings.Aggregator),
		assembler:   rules.NewInvoiceAssembler(rules.NewTaxCalculator()),
		settings:    settings,
		log:         log.Component("billing_orchestrator"),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Preview calcula la corrida completa sin persistir nada ni consumir consecutivos.
func (o *Orchestrator) Preview(ctx context.Context, referenceDate time.Time) (*entity.BatchRun, error) {
	return o.run(ctx, entity.RunPreview, referenceDate)
}

// Execute calcula y persiste cada factura exitosa; guarda el resumen de la corrida.
// Reejecutar con la misma fecha es seguro: los clientes ya facturados quedan omitidos.
func (o *Orchestrator) Execute(ctx context.Context, referenceDate time.Time) (*entity.BatchRun, error) {
	return o.run(ctx, entity.RunExecute, referenceDate)
}

// GetRun recupera el resumen de una ejecución persistida.
func (o *Orchestrator) GetRun(ctx context.Context, id string) (*entity.BatchRun, error) {
	run, err := o.runRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("billing: obtener ejecución: %w", err)
	}
	if run == nil {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

// clientJob servicios activos de un cliente, con su posición en la enumeración.
type clientJob struct {
	index    int
	clientID string
	services []entity.ClientService
}

type clientResult struct {
	index    int
	clientID string
	invoice  *entity.Invoice
	err      error
}

func (o *Orchestrator) run(ctx context.Context, mode entity.RunMode, referenceDate time.Time) (*entity.BatchRun, error) {
	if referenceDate.IsZero() {
		return nil, fmt.Errorf("%w: fecha de referencia vacía", domain.ErrInvalidInput)
	}
	ref := entity.Date(referenceDate)

	run := entity.NewBatchRun(o.newID(), mode, ref)
	run.Start(o.now())
	log := o.log.With().
		Str("run_id", run.ID).
		Str("mode", string(mode)).
		Str("billing_month", run.BillingMonth).
		Logger()
	log.Info().Msg("corrida de facturación iniciada")

	// ── 1. Población elegible y tarifas ───────────────────────────────────────
	services, err := o.serviceRepo.ListActive(ctx, ref)
	if err != nil {
		return o.abort(ctx, run, log, fmt.Errorf("%w: %w", domain.ErrEnumeration, err)), nil
	}
	rates, err := o.taxConfig.Rates(ctx)
	if err != nil {
		return o.abort(ctx, run, log, fmt.Errorf("%w: tarifas: %w", domain.ErrEnumeration, err)), nil
	}

	jobs := groupByClient(services)
	run.ClientsAttempted = len(jobs)

	// ── 2. Pool de workers + colector único ───────────────────────────────────
	results := make(chan clientResult, o.settings.Workers)
	collected := make(chan []clientResult, 1)
	go func() {
		out := make([]clientResult, 0, len(jobs))
		for r := range results {
			out = append(out, r)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
		collected <- out
	}()

	p := pool.New().WithMaxGoroutines(o.settings.Workers)
	for _, job := range jobs {
		p.Go(func() {
			results <- o.processClient(ctx, mode, ref, rates, job)
		})
	}
	p.Wait()
	close(results)

	// ── 3. Consolidación en orden de enumeración ──────────────────────────────
	for _, r := range <-collected {
		switch {
		case r.err == nil:
			run.AddInvoice(r.invoice)
		case domain.IsSkip(r.err):
			log.Debug().Str("client_id", r.clientID).Str("error_kind", string(domain.KindOf(r.err))).Msg(r.err.Error())
			run.AddSkip(issueOf(r))
		default:
			log.Warn().Str("client_id", r.clientID).Str("error_kind", string(domain.KindOf(r.err))).Msg(r.err.Error())
			run.AddError(issueOf(r))
		}
	}

	return o.finish(ctx, run, log), nil
}

// processClient nunca entra en pánico hacia el pool: un pánico se reporta como error interno del cliente.
func (o *Orchestrator) processClient(ctx context.Context, mode entity.RunMode, ref time.Time, rates entity.TaxRates, job clientJob) (res clientResult) {
	res = clientResult{index: job.index, clientID: job.clientID}
	defer func() {
		if rec := recover(); rec != nil {
			res.invoice = nil
			res.err = &domain.BillingError{ClientID: job.clientID, Stage: "panic", Kind: domain.KindInternal, Err: fmt.Errorf("%v", rec)}
		}
	}()

	// Cancelación gruesa: se revisa antes de empezar cada cliente, nunca a mitad de uno.
	if err := ctx.Err(); err != nil {
		res.err = &domain.BillingError{ClientID: job.clientID, Stage: "start", Kind: domain.KindCancelled, Err: err}
		return res
	}
	cctx := ctx
	if o.settings.ClientTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, o.settings.ClientTimeout)
		defer cancel()
	}

	res.invoice, res.err = o.billClient(cctx, mode, ref, rates, job)
	return res
}

func (o *Orchestrator) billClient(ctx context.Context, mode entity.RunMode, ref time.Time, rates entity.TaxRates, job clientJob) (*entity.Invoice, error) {
	clientID := job.clientID

	// ── Periodo ──
	prior, err := o.invoiceRepo.LastPeriod(ctx, clientID)
	if err != nil {
		return nil, persistenceError(clientID, "period", err)
	}
	period, err := o.resolver.Resolve(anchorService(job.services), prior, ref)
	if err != nil {
		return nil, domain.NewBillingError(clientID, "period", err)
	}

	// ── Idempotencia ──
	exists, err := o.invoiceRepo.Exists(ctx, clientID, period)
	if err != nil {
		return nil, persistenceError(clientID, "period", err)
	}
	if exists {
		return nil, domain.NewBillingError(clientID, "period", fmt.Errorf("%w: %s", domain.ErrAlreadyBilled, period.Label()))
	}

	// ── Conceptos ──
	concepts, err := o.conceptRepo.ListPending(ctx, clientID)
	if err != nil {
		return nil, persistenceError(clientID, "aggregate", err)
	}
	overdue, err := o.invoiceRepo.ListOverdue(ctx, clientID, ref.AddDate(0, 0, -o.settings.Aggregator.OverdueGraceDays))
	if err != nil {
		return nil, persistenceError(clientID, "aggregate", err)
	}
	lines, err := o.aggregator.Aggregate(rules.AggregationInput{
		ClientID:      clientID,
		Period:        period,
		ReferenceDate: ref,
		Services:      job.services,
		Concepts:      concepts,
		Overdue:       overdue,
		Rates:         rates,
	})
	if err != nil {
		return nil, domain.NewBillingError(clientID, "aggregate", err)
	}

	input := rules.AssemblyInput{
		InvoiceID:    o.newID(),
		ClientID:     clientID,
		ClientName:   job.services[0].ClientName,
		Period:       period,
		BillingMonth: entity.BillingMonthOf(ref),
		Lines:        lines,
		Prefix:       o.settings.Prefix,
		GeneratedAt:  o.now(),
		DueDays:      o.settings.DueDays,
	}

	if mode == entity.RunPreview {
		inv, err := o.assemble(input)
		if err != nil {
			return nil, domain.NewBillingError(clientID, "assemble", err)
		}
		return inv, nil
	}

	// ── Persistencia: consecutivo, ensamble, insert y conceptos en una sola transacción ──
	var inv *entity.Invoice
	err = o.txRunner.RunInvoice(ctx, func(invoiceRepo repository.InvoiceRepository, conceptRepo repository.ConceptRepository, sequence repository.SequenceProvider) error {
		exists, err := invoiceRepo.Exists(ctx, clientID, period)
		if err != nil {
			return persistenceError(clientID, "persist", err)
		}
		if exists {
			return domain.NewBillingError(clientID, "persist", fmt.Errorf("%w: %s", domain.ErrAlreadyBilled, period.Label()))
		}
		seq, err := sequence.Next(ctx, o.settings.Prefix)
		if err != nil {
			return persistenceError(clientID, "persist", err)
		}
		input.SequenceNumber = seq
		assembled, err := o.assemble(input)
		if err != nil {
			return domain.NewBillingError(clientID, "assemble", err)
		}
		if _, err := invoiceRepo.Save(ctx, assembled); err != nil {
			if errors.Is(err, domain.ErrPersistenceConflict) {
				return domain.NewBillingError(clientID, "persist", err)
			}
			return persistenceError(clientID, "persist", err)
		}
		if ids := assembled.ConceptIDs(); len(ids) > 0 {
			if err := conceptRepo.MarkBilled(ctx, assembled.ID, ids); err != nil {
				return persistenceError(clientID, "persist", err)
			}
		}
		inv = assembled
		return nil
	})
	if err != nil {
		var be *domain.BillingError
		if errors.As(err, &be) {
			return nil, err
		}
		return nil, persistenceError(clientID, "persist", err)
	}
	return inv, nil
}

func (o *Orchestrator) assemble(in rules.AssemblyInput) (*entity.Invoice, error) {
	inv, err := o.assembler.Assemble(in)
	if err != nil {
		return nil, err
	}
	if err := rules.CheckTotals(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (o *Orchestrator) abort(ctx context.Context, run *entity.BatchRun, log zerolog.Logger, err error) *entity.BatchRun {
	log.Error().Err(err).Msg("no se pudo enumerar la población; corrida abortada")
	run.Abort(err.Error())
	return o.finish(ctx, run, log)
}

// finish finaliza la corrida y, en ejecución, guarda el resumen. Un fallo al guardar solo se registra.
func (o *Orchestrator) finish(ctx context.Context, run *entity.BatchRun, log zerolog.Logger) *entity.BatchRun {
	run.Finalize(o.now())
	log.Info().
		Int("clients", run.ClientsAttempted).
		Int("invoices", run.Succeeded()).
		Int("skipped", len(run.Skipped)).
		Int("errors", run.Failed()).
		Str("grand_total", run.Totals.GrandTotal.String()).
		Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).
		Msg("corrida de facturación finalizada")

	if run.Mode == entity.RunExecute {
		if err := o.runRepo.Save(context.WithoutCancel(ctx), run); err != nil {
			log.Error().Err(err).Msg("no se pudo guardar el resumen de la corrida")
		}
	}
	return run
}

// groupByClient agrupa los servicios por cliente preservando el orden de primera aparición.
func groupByClient(services []entity.ClientService) []clientJob {
	byClient := lo.GroupBy(services, func(s entity.ClientService) string { return s.ClientID })
	order := lo.Uniq(lo.Map(services, func(s entity.ClientService, _ int) string { return s.ClientID }))
	return lo.Map(order, func(clientID string, i int) clientJob {
		return clientJob{index: i, clientID: clientID, services: byClient[clientID]}
	})
}

// anchorService servicio que ancla el ciclo del cliente: el activo de activación más antigua.
// Un servicio activo sin fecha de activación se devuelve primero para que falle la resolución.
func anchorService(services []entity.ClientService) entity.ClientService {
	active := lo.Filter(services, func(s entity.ClientService, _ int) bool { return s.IsActive() })
	if len(active) == 0 {
		return services[0]
	}
	if missing, ok := lo.Find(active, func(s entity.ClientService) bool { return s.ActivationDate == nil }); ok {
		return missing
	}
	return lo.MinBy(active, func(a, b entity.ClientService) bool {
		return a.ActivationDate.Before(*b.ActivationDate)
	})
}

func persistenceError(clientID, stage string, err error) *domain.BillingError {
	be := domain.NewBillingError(clientID, stage, err)
	if be.Kind == domain.KindInternal {
		be.Kind = domain.KindPersistence
	}
	return be
}

// issueOf reporta un conflicto de unicidad como already_billed: otra corrida ganó el periodo.
func issueOf(r clientResult) entity.RunIssue {
	kind := domain.KindOf(r.err)
	if kind == domain.KindPersistenceConflict {
		kind = domain.KindAlreadyBilled
	}
	return entity.RunIssue{ClientID: r.clientID, Kind: string(kind), Message: r.err.Error()}
}
