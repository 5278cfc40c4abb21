package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ISP-Facturacion-api/internal/application/dto"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

// BillingRunner es la parte del orquestador que expone la API.
type BillingRunner interface {
	Preview(ctx context.Context, referenceDate time.Time) (*entity.BatchRun, error)
	Execute(ctx context.Context, referenceDate time.Time) (*entity.BatchRun, error)
	GetRun(ctx context.Context, id string) (*entity.BatchRun, error)
}

// BillingHandler maneja la facturación recurrente por lotes.
type BillingHandler struct {
	runner BillingRunner
	now    func() time.Time
}

// NewBillingHandler construye el handler. now permite fijar el reloj en pruebas (nil = time.Now).
func NewBillingHandler(runner BillingRunner, now func() time.Time) *BillingHandler {
	if now == nil {
		now = time.Now
	}
	return &BillingHandler{runner: runner, now: now}
}

// Preview calcula la facturación del periodo sin persistir nada.
// @Summary      Vista previa de la facturación mensual
// @Description  Ejecuta el pipeline completo sin consumir consecutivos ni guardar facturas.
// @Description  Los fallos por cliente se reportan en el cuerpo; la respuesta siempre es 200.
// @Tags         facturacion
// @Security     Bearer
// @Produce      json
// @Param        periodo  query     string  true  "Mes a facturar (YYYY-MM)"
// @Success      200      {object}  dto.PreviewResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      401      {object}  dto.ErrorResponse
// @Failure      403      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /api/facturacion/preview [get]
func (h *BillingHandler) Preview(c *fiber.Ctx) error {
	ref, err := h.referenceDate(c.Query("periodo"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	run, err := h.runner.Preview(c.Context(), ref)
	if err != nil {
		return mapErr(c, err)
	}
	return c.JSON(dto.FromPreview(run))
}

// Execute factura el periodo: consume consecutivos y persiste las facturas.
// @Summary      Ejecutar la facturación mensual
// @Description  Genera una factura por cliente elegible. Re-ejecutar el mismo periodo no duplica facturas.
// @Tags         facturacion
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ExecuteRequest  true  "periodo (YYYY-MM)"
// @Success      200   {object}  dto.EjecucionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/facturacion/ejecutar [post]
func (h *BillingHandler) Execute(c *fiber.Ctx) error {
	var in dto.ExecuteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ref, err := h.referenceDate(in.Periodo)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	run, err := h.runner.Execute(c.Context(), ref)
	if err != nil {
		return mapErr(c, err)
	}
	return c.JSON(dto.FromBatchRun(run))
}

// GetRun devuelve el resumen de una ejecución finalizada.
// @Summary      Resumen de una ejecución
// @Tags         facturacion
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la ejecución"
// @Success      200  {object}  dto.EjecucionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/facturacion/ejecuciones/{id} [get]
func (h *BillingHandler) GetRun(c *fiber.Ctx) error {
	run, err := h.runner.GetRun(c.Context(), c.Params("id"))
	if err != nil {
		return mapErr(c, err)
	}
	return c.JSON(dto.FromBatchRun(run))
}

var errPeriodFormat = errors.New("periodo debe tener formato YYYY-MM")

// referenceDate convierte "YYYY-MM" en la fecha de referencia de la corrida: el último día del mes,
// o hoy cuando el mes es el actual. Los meses futuros se rechazan.
func (h *BillingHandler) referenceDate(periodo string) (time.Time, error) {
	month, err := time.Parse("2006-01", periodo)
	if err != nil {
		return time.Time{}, errPeriodFormat
	}
	today := entity.Date(h.now())
	currentMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	switch {
	case month.After(currentMonth):
		return time.Time{}, errors.New("no se puede facturar un periodo futuro")
	case month.Equal(currentMonth):
		return today, nil
	default:
		return month.AddDate(0, 1, -1), nil
	}
}

// mapErr traduce los errores de aplicación a respuestas HTTP.
func mapErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
