package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339
)

// PeriodoResponse periodo facturado con su desglose de días.
type PeriodoResponse struct {
	Inicio         string `json:"inicio"`
	Fin            string `json:"fin"`
	Tipo           string `json:"tipo"` // first | leveling | regular
	DiasFacturados int    `json:"dias_facturados"`
	DiasCiclo      int    `json:"dias_ciclo"`
	Prorrateado    bool   `json:"prorrateado"`
}

// LineaResponse línea de factura.
type LineaResponse struct {
	Posicion     int             `json:"posicion"`
	Tipo         string          `json:"tipo"`
	Origen       string          `json:"origen"`
	ReferenciaID string          `json:"referencia_id,omitempty"`
	Descripcion  string          `json:"descripcion"`
	Base         decimal.Decimal `json:"base"`
	TarifaIVA    decimal.Decimal `json:"tarifa_iva"`
	IVA          decimal.Decimal `json:"iva"`
	Total        decimal.Decimal `json:"total"`
}

// FacturaResponse factura generada (o estimada en vista previa, sin número).
type FacturaResponse struct {
	ID               string          `json:"id"`
	Numero           string          `json:"numero,omitempty"`
	ClienteID        string          `json:"cliente_id"`
	ClienteNombre    string          `json:"cliente_nombre,omitempty"`
	Periodo          PeriodoResponse `json:"periodo"`
	MesFacturacion   string          `json:"mes_facturacion,omitempty"`
	Lineas           []LineaResponse `json:"lineas"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	IVA              decimal.Decimal `json:"iva"`
	Total            decimal.Decimal `json:"total"`
	FechaVencimiento string          `json:"fecha_vencimiento"`
	Estado           string          `json:"estado"`
	GeneradaEn       string          `json:"generada_en"`
}

// IncidenciaResponse cliente omitido o fallido.
type IncidenciaResponse struct {
	ClienteID string `json:"cliente_id"`
	Tipo      string `json:"tipo"`
	Mensaje   string `json:"mensaje"`
}

// TotalesResponse totales agregados de la corrida.
type TotalesResponse struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	IVA      decimal.Decimal `json:"iva"`
	Total    decimal.Decimal `json:"total"`
}

// EjecucionResponse respuesta de POST /api/facturacion/ejecutar y GET /api/facturacion/ejecuciones/:id.
type EjecucionResponse struct {
	EjecucionID       string               `json:"ejecucion_id"`
	Periodo           string               `json:"periodo"`
	Estado            string               `json:"estado"`
	Exitosas          int                  `json:"exitosas"`
	Fallidas          int                  `json:"fallidas"`
	Omitidas          int                  `json:"omitidas"`
	FacturasGeneradas []FacturaResponse    `json:"facturas_generadas"`
	Errores           []IncidenciaResponse `json:"errores"`
	Omitidos          []IncidenciaResponse `json:"omitidos"`
	Totales           TotalesResponse      `json:"totales"`
	Error             string               `json:"error,omitempty"`
	IniciadaEn        string               `json:"iniciada_en"`
	FinalizadaEn      string               `json:"finalizada_en"`
}

// ResumenPreview conteos y totales estimados de la vista previa.
type ResumenPreview struct {
	Clientes    int             `json:"clientes"`
	Facturables int             `json:"facturables"`
	Omitidos    int             `json:"omitidos"`
	Fallidos    int             `json:"fallidos"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	IVA         decimal.Decimal `json:"iva"`
	Total       decimal.Decimal `json:"total"`
}

// PreviewResponse respuesta de GET /api/facturacion/preview.
type PreviewResponse struct {
	Periodo  string               `json:"periodo"`
	Resumen  ResumenPreview       `json:"resumen"`
	Detalle  []FacturaResponse    `json:"detalle"`
	Omitidos []IncidenciaResponse `json:"omitidos"`
	Errores  []IncidenciaResponse `json:"errores"`
	Error    string               `json:"error,omitempty"`
}

// FromInvoice mapea la factura del dominio a su forma JSON.
func FromInvoice(inv *entity.Invoice) FacturaResponse {
	lines := make([]LineaResponse, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, LineaResponse{
			Posicion:     l.Position,
			Tipo:         string(l.Kind),
			Origen:       string(l.Source),
			ReferenciaID: l.ReferenceID,
			Descripcion:  l.Description,
			Base:         l.BaseAmount,
			TarifaIVA:    l.TaxRate,
			IVA:          l.TaxAmount,
			Total:        l.TotalAmount,
		})
	}
	return FacturaResponse{
		ID:            inv.ID,
		Numero:        inv.Number(),
		ClienteID:     inv.ClientID,
		ClienteNombre: inv.ClientName,
		Periodo: PeriodoResponse{
			Inicio:         inv.Period.Start.Format(dateLayout),
			Fin:            inv.Period.End.Format(dateLayout),
			Tipo:           string(inv.Period.Kind),
			DiasFacturados: inv.Period.DaysBilled,
			DiasCiclo:      inv.Period.DaysTotal,
			Prorrateado:    inv.Period.IsProrated,
		},
		MesFacturacion:   inv.BillingMonth,
		Lineas:           lines,
		Subtotal:         inv.Subtotal,
		IVA:              inv.TaxTotal,
		Total:            inv.GrandTotal,
		FechaVencimiento: inv.DueDate.Format(dateLayout),
		Estado:           inv.Status,
		GeneradaEn:       inv.GeneratedAt.Format(timestampLayout),
	}
}

// FromBatchRun mapea una corrida de ejecución.
func FromBatchRun(run *entity.BatchRun) EjecucionResponse {
	return EjecucionResponse{
		EjecucionID:       run.ID,
		Periodo:           run.BillingMonth,
		Estado:            string(run.Status),
		Exitosas:          run.Succeeded(),
		Fallidas:          run.Failed(),
		Omitidas:          len(run.Skipped),
		FacturasGeneradas: invoicesOf(run),
		Errores:           issuesOf(run.Errors),
		Omitidos:          issuesOf(run.Skipped),
		Totales:           TotalesResponse{Subtotal: run.Totals.Subtotal, IVA: run.Totals.TaxTotal, Total: run.Totals.GrandTotal},
		Error:             run.Failure,
		IniciadaEn:        run.StartedAt.Format(timestampLayout),
		FinalizadaEn:      run.FinishedAt.Format(timestampLayout),
	}
}

// FromPreview mapea una corrida de vista previa.
func FromPreview(run *entity.BatchRun) PreviewResponse {
	return PreviewResponse{
		Periodo: run.BillingMonth,
		Resumen: ResumenPreview{
			Clientes:    run.ClientsAttempted,
			Facturables: run.Succeeded(),
			Omitidos:    len(run.Skipped),
			Fallidos:    run.Failed(),
			Subtotal:    run.Totals.Subtotal,
			IVA:         run.Totals.TaxTotal,
			Total:       run.Totals.GrandTotal,
		},
		Detalle:  invoicesOf(run),
		Omitidos: issuesOf(run.Skipped),
		Errores:  issuesOf(run.Errors),
		Error:    run.Failure,
	}
}

func invoicesOf(run *entity.BatchRun) []FacturaResponse {
	out := make([]FacturaResponse, 0, len(run.Invoices))
	for _, ri := range run.Invoices {
		out = append(out, FromInvoice(ri.Invoice))
	}
	return out
}

func issuesOf(issues []entity.RunIssue) []IncidenciaResponse {
	out := make([]IncidenciaResponse, 0, len(issues))
	for _, i := range issues {
		out = append(out, IncidenciaResponse{ClienteID: i.ClientID, Tipo: i.Kind, Mensaje: i.Message})
	}
	return out
}
