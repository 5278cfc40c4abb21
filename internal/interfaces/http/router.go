package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ISP-Facturacion-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Billing   BillingRunner
	Invoices  InvoiceReader
	JWTSecret string
	JWTIssuer string
	Logger    *logger.Logger   // nil = sin log de peticiones
	Now       func() time.Time // nil = time.Now
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	app.Use(RequestMiddleware(log.Component("http")))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	// Facturación recurrente
	billingHandler := NewBillingHandler(deps.Billing, deps.Now)
	facturacion := api.Group("/facturacion")
	facturacion.Get("/preview", RequireCapability(CapBillingPreview), billingHandler.Preview)
	facturacion.Post("/ejecutar", RequireCapability(CapBillingExecute), billingHandler.Execute)
	facturacion.Get("/ejecuciones/:id", RequireCapability(CapBillingPreview), billingHandler.GetRun)

	// Facturas emitidas
	invoiceHandler := NewInvoiceHandler(deps.Invoices)
	facturas := api.Group("/facturas", RequireCapability(CapInvoicesRead))
	facturas.Get("/:id", invoiceHandler.GetByID)
	facturas.Get("/:id/pdf", invoiceHandler.DownloadPDF)
	facturas.Get("/:id/ver-pdf", invoiceHandler.ViewPDF)
}
