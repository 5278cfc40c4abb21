package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/ISP-Facturacion-api/internal/application/billing"
	rules "github.com/jhoicas/ISP-Facturacion-api/internal/domain/billing"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
	infrapdf "github.com/jhoicas/ISP-Facturacion-api/internal/infrastructure/pdf"
	"github.com/jhoicas/ISP-Facturacion-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/ISP-Facturacion-api/internal/interfaces/http"
	"github.com/jhoicas/ISP-Facturacion-api/pkg/config"
	"github.com/jhoicas/ISP-Facturacion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Format:  cfg.App.LogFormat,
	})
	log.Info().
		Str("prefix", cfg.Billing.Prefix).
		Int("workers", cfg.Billing.Workers).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	serviceRepo := postgres.NewClientServiceRepository(pool)
	conceptRepo := postgres.NewConceptRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	runRepo := postgres.NewBatchRunRepository(pool)
	taxConfig := postgres.NewTaxConfigRepository(pool, entity.TaxRates{
		IVAPercentage:      cfg.Billing.IVAPercentage,
		InterestPercentage: cfg.Billing.InterestPercentage,
	})
	txRunner := postgres.NewTxRunner(pool)

	// Orquestador: clientes → periodo → conceptos → IVA → factura → persistencia por cliente
	orchestrator := billing.NewOrchestrator(
		serviceRepo, conceptRepo, invoiceRepo, taxConfig, runRepo, txRunner,
		billing.Settings{
			Prefix:        cfg.Billing.Prefix,
			Workers:       cfg.Billing.Workers,
			ClientTimeout: cfg.Billing.ClientTimeout,
			DueDays:       cfg.Billing.DueDays,
			Aggregator: rules.AggregatorSettings{
				InstallationFee:        cfg.Billing.InstallationFee,
				InstallationAppliesIVA: cfg.Billing.InstallationAppliesIVA,
				OverdueGraceDays:       cfg.Billing.OverdueGraceDays,
			},
		},
		log,
	)

	// PDF: representación gráfica de la factura
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(infrapdf.Issuer{
		Name:    cfg.Issuer.Name,
		NIT:     cfg.Issuer.NIT,
		Address: cfg.Issuer.Address,
		Phone:   cfg.Issuer.Phone,
	})
	invoiceUC := billing.NewInvoiceUseCase(invoiceRepo, pdfGenerator)

	// La corrida completa puede superar el timeout de escritura por defecto.
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Minute * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ISP Facturación API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Billing:   orchestrator,
		Invoices:  invoiceUC,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
		Logger:    log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
