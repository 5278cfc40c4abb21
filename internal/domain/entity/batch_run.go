package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunMode modo de la ejecución de facturación.
type RunMode string

const (
	RunPreview RunMode = "preview"
	RunExecute RunMode = "execute"
)

// RunStatus estados de una ejecución: created → running → finalized.
type RunStatus string

const (
	RunCreated   RunStatus = "created"
	RunRunning   RunStatus = "running"
	RunFinalized RunStatus = "finalized"
)

// RunInvoice resultado exitoso de un cliente dentro de la ejecución.
type RunInvoice struct {
	Invoice *Invoice
}

// RunIssue omisión o fallo de un cliente. Kind usa los valores de domain.ErrorKind.
type RunIssue struct {
	ClientID string
	Kind     string
	Message  string
}

// RunTotals totales agregados de las facturas generadas (o estimadas en vista previa).
type RunTotals struct {
	Subtotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	GrandTotal decimal.Decimal
}

// BatchRun resumen de una ejecución sobre toda la población elegible.
// Solo admite agregar resultados mientras está en running; al finalizar es inmutable.
type BatchRun struct {
	ID               string
	Mode             RunMode
	ReferenceDate    time.Time
	BillingMonth     string // YYYY-MM de la fecha de referencia
	Status           RunStatus
	ClientsAttempted int
	Invoices         []RunInvoice
	Skipped          []RunIssue
	Errors           []RunIssue
	Totals           RunTotals
	Failure          string // error de nivel de ejecución (enumeración); vacío si la corrida se completó
	StartedAt        time.Time
	FinishedAt       time.Time
}

// NewBatchRun crea la ejecución en estado created.
func NewBatchRun(id string, mode RunMode, referenceDate time.Time) *BatchRun {
	return &BatchRun{
		ID:            id,
		Mode:          mode,
		ReferenceDate: Date(referenceDate),
		BillingMonth:  BillingMonthOf(referenceDate),
		Status:        RunCreated,
		Invoices:      []RunInvoice{},
		Skipped:       []RunIssue{},
		Errors:        []RunIssue{},
		Totals:        RunTotals{Subtotal: decimal.Zero, TaxTotal: decimal.Zero, GrandTotal: decimal.Zero},
	}
}

// Start pasa la ejecución a running.
func (r *BatchRun) Start(now time.Time) {
	if r.Status != RunCreated {
		return
	}
	r.Status = RunRunning
	r.StartedAt = now
}

// AddInvoice agrega una factura y acumula totales. No tiene efecto sobre una ejecución finalizada.
func (r *BatchRun) AddInvoice(inv *Invoice) {
	if r.Status != RunRunning {
		return
	}
	r.Invoices = append(r.Invoices, RunInvoice{Invoice: inv})
	r.Totals.Subtotal = r.Totals.Subtotal.Add(inv.Subtotal)
	r.Totals.TaxTotal = r.Totals.TaxTotal.Add(inv.TaxTotal)
	r.Totals.GrandTotal = r.Totals.GrandTotal.Add(inv.GrandTotal)
}

// AddSkip registra un cliente omitido (ya facturado o sin conceptos).
func (r *BatchRun) AddSkip(issue RunIssue) {
	if r.Status != RunRunning {
		return
	}
	r.Skipped = append(r.Skipped, issue)
}

// AddError registra un cliente fallido.
func (r *BatchRun) AddError(issue RunIssue) {
	if r.Status != RunRunning {
		return
	}
	r.Errors = append(r.Errors, issue)
}

// Abort registra un fallo de nivel de ejecución. La corrida queda sin resultados por cliente.
func (r *BatchRun) Abort(reason string) {
	if r.Status != RunRunning {
		return
	}
	r.Failure = reason
}

// Finalize cierra la ejecución.
func (r *BatchRun) Finalize(now time.Time) {
	if r.Status == RunFinalized {
		return
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = now
	}
	r.Status = RunFinalized
	r.FinishedAt = now
}

// Succeeded cantidad de facturas generadas.
func (r *BatchRun) Succeeded() int { return len(r.Invoices) }

// Aborted informa si la ejecución terminó por un fallo de nivel de ejecución.
func (r *BatchRun) Aborted() bool { return r.Failure != "" }

// Failed cantidad de clientes fallidos.
func (r *BatchRun) Failed() int { return len(r.Errors) }
