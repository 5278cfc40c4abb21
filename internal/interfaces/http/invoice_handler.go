package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ISP-Facturacion-api/internal/application/dto"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

// InvoiceReader consulta facturas emitidas y su PDF.
type InvoiceReader interface {
	Get(ctx context.Context, id string) (*entity.Invoice, error)
	PDF(ctx context.Context, id string) ([]byte, string, error)
}

// InvoiceHandler expone la consulta de facturas generadas.
type InvoiceHandler struct {
	uc InvoiceReader
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc InvoiceReader) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// GetByID obtiene el detalle completo de una factura.
// @Summary      Detalle de factura
// @Tags         facturas
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura"
// @Success      200  {object}  dto.FacturaResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/facturas/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	inv, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapErr(c, err)
	}
	return c.JSON(dto.FromInvoice(inv))
}

// DownloadPDF descarga la representación gráfica como adjunto.
// @Summary      Descargar PDF de la factura
// @Tags         facturas
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path      string  true  "ID de la factura"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/facturas/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	return h.sendPDF(c, "attachment")
}

// ViewPDF muestra el PDF en el navegador.
// @Summary      Ver PDF de la factura
// @Tags         facturas
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path      string  true  "ID de la factura"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/facturas/{id}/ver-pdf [get]
func (h *InvoiceHandler) ViewPDF(c *fiber.Ctx) error {
	return h.sendPDF(c, "inline")
}

func (h *InvoiceHandler) sendPDF(c *fiber.Ctx, disposition string) error {
	pdfBytes, filename, err := h.uc.PDF(c.Context(), c.Params("id"))
	if err != nil {
		return mapErr(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, filename))
	return c.Send(pdfBytes)
}
