package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/repository"
)

var _ repository.BatchRunRepository = (*BatchRunRepo)(nil)

// BatchRunRepo resumen de ejecuciones en ejecuciones_facturacion. El detalle por cliente
// va en la columna JSONB resultado; las facturas completas viven en facturas.
type BatchRunRepo struct {
	q Querier
}

// NewBatchRunRepository construye el adaptador.
func NewBatchRunRepository(q Querier) *BatchRunRepo {
	return &BatchRunRepo{q: q}
}

// runDetail forma persistida del detalle de la corrida.
type runDetail struct {
	Invoices []runInvoiceRef   `json:"facturas"`
	Skipped  []entity.RunIssue `json:"omitidos"`
	Errors   []entity.RunIssue `json:"errores"`
}

type runInvoiceRef struct {
	ID             string          `json:"id"`
	ClientID       string          `json:"cliente_id"`
	Prefix         string          `json:"prefijo"`
	SequenceNumber int64           `json:"consecutivo"`
	PeriodStart    time.Time       `json:"periodo_inicio"`
	PeriodEnd      time.Time       `json:"periodo_fin"`
	PeriodKind     string          `json:"periodo_tipo"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxTotal       decimal.Decimal `json:"iva"`
	GrandTotal     decimal.Decimal `json:"total"`
}

func (r *BatchRunRepo) Save(ctx context.Context, run *entity.BatchRun) error {
	detail := runDetail{Skipped: run.Skipped, Errors: run.Errors, Invoices: make([]runInvoiceRef, 0, len(run.Invoices))}
	for _, ri := range run.Invoices {
		inv := ri.Invoice
		detail.Invoices = append(detail.Invoices, runInvoiceRef{
			ID: inv.ID, ClientID: inv.ClientID, Prefix: inv.Prefix, SequenceNumber: inv.SequenceNumber,
			PeriodStart: inv.Period.Start, PeriodEnd: inv.Period.End, PeriodKind: string(inv.Period.Kind),
			Subtotal: inv.Subtotal, TaxTotal: inv.TaxTotal, GrandTotal: inv.GrandTotal,
		})
	}
	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal batch run detail: %w", err)
	}

	const q = `
		INSERT INTO ejecuciones_facturacion (
			id, modo, fecha_referencia, periodo, estado, clientes, exitosas, fallidas, omitidas,
			subtotal, iva, total, error, resultado, iniciada_en, finalizada_en)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			estado = EXCLUDED.estado, exitosas = EXCLUDED.exitosas, fallidas = EXCLUDED.fallidas,
			omitidas = EXCLUDED.omitidas, subtotal = EXCLUDED.subtotal, iva = EXCLUDED.iva,
			total = EXCLUDED.total, error = EXCLUDED.error, resultado = EXCLUDED.resultado,
			finalizada_en = EXCLUDED.finalizada_en`
	_, err = r.q.Exec(ctx, q,
		run.ID, string(run.Mode), run.ReferenceDate, run.BillingMonth, string(run.Status),
		run.ClientsAttempted, run.Succeeded(), run.Failed(), len(run.Skipped),
		run.Totals.Subtotal, run.Totals.TaxTotal, run.Totals.GrandTotal,
		nullIfEmpty(run.Failure), payload, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save batch run: %w", err)
	}
	return nil
}

// GetByID reconstruye la corrida. nil, nil si no existe.
func (r *BatchRunRepo) GetByID(ctx context.Context, id string) (*entity.BatchRun, error) {
	const q = `
		SELECT id, modo, fecha_referencia, periodo, estado, clientes,
		       subtotal, iva, total, error, resultado, iniciada_en, finalizada_en
		FROM ejecuciones_facturacion WHERE id = $1`
	var run entity.BatchRun
	var mode, status string
	var failure *string
	var payload []byte
	err := r.q.QueryRow(ctx, q, id).Scan(
		&run.ID, &mode, &run.ReferenceDate, &run.BillingMonth, &status, &run.ClientsAttempted,
		&run.Totals.Subtotal, &run.Totals.TaxTotal, &run.Totals.GrandTotal,
		&failure, &payload, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch run: %w", err)
	}
	run.Mode = entity.RunMode(mode)
	run.Status = entity.RunStatus(status)
	run.Failure = derefStr(failure)

	var detail runDetail
	if err := json.Unmarshal(payload, &detail); err != nil {
		return nil, fmt.Errorf("unmarshal batch run detail: %w", err)
	}
	run.Skipped = detail.Skipped
	run.Errors = detail.Errors
	run.Invoices = make([]entity.RunInvoice, 0, len(detail.Invoices))
	for _, ref := range detail.Invoices {
		run.Invoices = append(run.Invoices, entity.RunInvoice{Invoice: &entity.Invoice{
			ID: ref.ID, ClientID: ref.ClientID, Prefix: ref.Prefix, SequenceNumber: ref.SequenceNumber,
			Period: entity.BillingPeriod{Start: ref.PeriodStart, End: ref.PeriodEnd, Kind: entity.PeriodKind(ref.PeriodKind)},
			Subtotal: ref.Subtotal, TaxTotal: ref.TaxTotal, GrandTotal: ref.GrandTotal,
		}})
	}
	return &run, nil
}
