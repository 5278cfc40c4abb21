package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
// La unicidad la garantizan los índices facturas_cliente_mes_uq (cliente, mes de facturación)
// y facturas_cliente_periodo_uq (cliente, periodo).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

var lineColumns = []string{
	"factura_id", "posicion", "origen", "tipo", "referencia_id", "descripcion",
	"base", "tarifa_iva", "iva", "total",
}

func (r *InvoiceRepo) Exists(ctx context.Context, clientID string, period entity.BillingPeriod) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM facturas
			WHERE cliente_id = $1 AND periodo_inicio = $2 AND periodo_fin = $3 AND estado <> 'anulada'
		)`
	var exists bool
	if err := r.q.QueryRow(ctx, q, clientID, period.Start, period.End).Scan(&exists); err != nil {
		return false, fmt.Errorf("invoice exists: %w", err)
	}
	return exists, nil
}

// Save inserta cabecera y líneas. Si ya hay una factura vigente para el cliente en ese mes
// de facturación o en ese periodo no inserta nada y devuelve domain.ErrPersistenceConflict.
func (r *InvoiceRepo) Save(ctx context.Context, inv *entity.Invoice) (string, error) {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO facturas (
			id, cliente_id, cliente_nombre, prefijo, consecutivo,
			periodo_inicio, periodo_fin, periodo_tipo, dias_ciclo, dias_facturados, prorrateado, mes_facturacion,
			subtotal, iva, total, saldo, fecha_vencimiento, estado, generada_en)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15, $16, $17, $18)
		ON CONFLICT (cliente_id, mes_facturacion) WHERE estado <> 'anulada' DO NOTHING`
	tag, err := r.q.Exec(ctx, q,
		inv.ID, inv.ClientID, nullIfEmpty(inv.ClientName), inv.Prefix, inv.SequenceNumber,
		inv.Period.Start, inv.Period.End, string(inv.Period.Kind), inv.Period.DaysTotal, inv.Period.DaysBilled, inv.Period.IsProrated, inv.BillingMonth,
		inv.Subtotal, inv.TaxTotal, inv.GrandTotal, inv.DueDate, inv.Status, inv.GeneratedAt,
	)
	if err != nil {
		if violatedConstraint(err) == "facturas_cliente_periodo_uq" {
			return "", fmt.Errorf("%w: cliente %s periodo %s", domain.ErrPersistenceConflict, inv.ClientID, inv.Period.Label())
		}
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: consecutivo %s ya usado: %w", domain.ErrConflict, inv.Number(), err)
		}
		return "", fmt.Errorf("insert invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("%w: cliente %s mes %s", domain.ErrPersistenceConflict, inv.ClientID, inv.BillingMonth)
	}

	rows := make([][]any, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		rows = append(rows, []any{
			inv.ID, l.Position, string(l.Source), string(l.Kind), nullIfEmpty(l.ReferenceID), l.Description,
			l.BaseAmount, l.TaxRate, l.TaxAmount, l.TotalAmount,
		})
	}
	if _, err := r.q.CopyFrom(ctx, pgx.Identifier{"factura_lineas"}, lineColumns, pgx.CopyFromRows(rows)); err != nil {
		return "", fmt.Errorf("insert invoice lines: %w", err)
	}
	return inv.ID, nil
}

func (r *InvoiceRepo) LastPeriod(ctx context.Context, clientID string) (*entity.BilledPeriod, error) {
	const q = `
		SELECT periodo_inicio, periodo_fin, periodo_tipo, dias_ciclo, dias_facturados, prorrateado, mes_facturacion
		FROM facturas
		WHERE cliente_id = $1 AND estado <> 'anulada'
		ORDER BY periodo_fin DESC
		LIMIT 1`
	var billed entity.BilledPeriod
	var kind string
	p := &billed.Period
	err := r.q.QueryRow(ctx, q, clientID).Scan(&p.Start, &p.End, &kind, &p.DaysTotal, &p.DaysBilled, &p.IsProrated, &billed.BillingMonth)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last billed period: %w", err)
	}
	p.Start = entity.Date(p.Start)
	p.End = entity.Date(p.End)
	p.Kind = entity.PeriodKind(kind)
	return &billed, nil
}

func (r *InvoiceRepo) ListOverdue(ctx context.Context, clientID string, dueBefore time.Time) ([]entity.OverdueInvoice, error) {
	const q = `
		SELECT id, prefijo, consecutivo, fecha_vencimiento, saldo
		FROM facturas
		WHERE cliente_id = $1 AND estado = 'pendiente' AND saldo > 0 AND fecha_vencimiento < $2
		ORDER BY fecha_vencimiento, consecutivo`
	rows, err := r.q.Query(ctx, q, clientID, dueBefore)
	if err != nil {
		return nil, fmt.Errorf("list overdue invoices: %w", err)
	}
	overdue, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.OverdueInvoice, error) {
		var o entity.OverdueInvoice
		var prefix string
		var seq int64
		if err := row.Scan(&o.InvoiceID, &prefix, &seq, &o.DueDate, &o.Balance); err != nil {
			return o, err
		}
		o.Number = (&entity.Invoice{Prefix: prefix, SequenceNumber: seq}).Number()
		return o, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan overdue invoices: %w", err)
	}
	return overdue, nil
}

// GetByID obtiene la factura con sus líneas ordenadas por posición. nil, nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	const q = `
		SELECT id, cliente_id, cliente_nombre, prefijo, consecutivo,
		       periodo_inicio, periodo_fin, periodo_tipo, dias_ciclo, dias_facturados, prorrateado, mes_facturacion,
		       subtotal, iva, total, fecha_vencimiento, estado, generada_en
		FROM facturas WHERE id = $1`
	var inv entity.Invoice
	var clientName *string
	var kind string
	err := r.q.QueryRow(ctx, q, id).Scan(
		&inv.ID, &inv.ClientID, &clientName, &inv.Prefix, &inv.SequenceNumber,
		&inv.Period.Start, &inv.Period.End, &kind, &inv.Period.DaysTotal, &inv.Period.DaysBilled, &inv.Period.IsProrated, &inv.BillingMonth,
		&inv.Subtotal, &inv.TaxTotal, &inv.GrandTotal, &inv.DueDate, &inv.Status, &inv.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv.ClientName = derefStr(clientName)
	inv.Period.Kind = entity.PeriodKind(kind)

	lines, err := r.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return &inv, nil
}

func (r *InvoiceRepo) lines(ctx context.Context, invoiceID string) ([]entity.InvoiceLine, error) {
	const q = `
		SELECT posicion, origen, tipo, referencia_id, descripcion, base, tarifa_iva, iva, total
		FROM factura_lineas
		WHERE factura_id = $1
		ORDER BY posicion`
	rows, err := r.q.Query(ctx, q, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice lines: %w", err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.InvoiceLine, error) {
		var l entity.InvoiceLine
		var source, kind string
		var ref *string
		err := row.Scan(&l.Position, &source, &kind, &ref, &l.Description, &l.BaseAmount, &l.TaxRate, &l.TaxAmount, &l.TotalAmount)
		l.Source = entity.LineSource(source)
		l.Kind = entity.LineKind(kind)
		l.ReferenceID = derefStr(ref)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan invoice lines: %w", err)
	}
	return lines, nil
}
