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

	"github.com/davcruz/facturador-api/internal/application/billing"
	infrapdf "github.com/davcruz/facturador-api/internal/infrastructure/pdf"
	"github.com/davcruz/facturador-api/internal/infrastructure/postgres"
	infrasri "github.com/davcruz/facturador-api/internal/infrastructure/sri"
	"github.com/davcruz/facturador-api/internal/infrastructure/sri/signer"
	"github.com/davcruz/facturador-api/internal/infrastructure/storage"
	httpRouter "github.com/davcruz/facturador-api/internal/interfaces/http"
	"github.com/davcruz/facturador-api/pkg/config"
	"github.com/davcruz/facturador-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("sri_env", cfg.SRI.AppEnv).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	pointRepo := postgres.NewEmissionPointRepository(pool)
	docRepo := postgres.NewTaxDocumentRepository(pool)
	certRepo := postgres.NewCertificateRepository(pool)
	errorLogRepo := postgres.NewSriErrorLogRepository(pool)
	txRunner := postgres.NewIssuanceTxRunner(pool)

	store, err := storage.NewLocalStore(cfg.SRI.StorageDir)
	if err != nil {
		log.Fatal().Err(err).Msg("almacén de artefactos")
	}

	// Gateway SOAP del SRI — solo se usa si AppEnv es "test" o "prod".
	// En modo "dev" los casos de uso reportan SRI no disponible.
	var gateway infrasri.SRIGateway
	if cfg.SRI.AppEnv != infrasri.AppEnvDev && cfg.SRI.AppEnv != "" {
		client, err := infrasri.NewSOAPSRIClient(cfg.SRI.AppEnv, cfg.SRI.ReceptionURL, cfg.SRI.AuthorizationURL)
		if err != nil {
			log.Fatal().Err(err).Msg("cliente SOAP SRI")
		}
		gateway = client
	}

	xmlBuilder := infrasri.NewXMLBuilderService()
	signerSvc := signer.NewDigitalSignatureService()
	recorder := billing.NewErrorRecorder(errorLogRepo, log)

	createDocUC := billing.NewCreateDocumentUseCase(docRepo, customerRepo, pointRepo, log)
	generateUC := billing.NewGenerateXMLUseCase(
		docRepo, companyRepo, customerRepo, pointRepo,
		txRunner, xmlBuilder, store, recorder, log,
		cfg.SRI.Environment, cfg.SRI.EmissionType,
	)
	signUC := billing.NewSignDocumentUseCase(docRepo, certRepo, signerSvc, store, recorder, log)
	submitUC := billing.NewSubmitDocumentUseCase(docRepo, gateway, store, recorder, log)
	poller := billing.NewAuthorizationPoller(docRepo, gateway, recorder, log)
	rideUC := billing.NewRideUseCase(docRepo, companyRepo, customerRepo, store, infrapdf.NewMarotoRIDEGenerator(), log)
	lifecycle := billing.NewLifecycleActions(docRepo, log)
	customerUC := billing.NewCustomerUseCase(customerRepo, log)
	pointUC := billing.NewEmissionPointUseCase(pointRepo, log)
	certUC := billing.NewUploadCertificateUseCase(certRepo, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    8 * 1024 * 1024, // certificados .p12 en Base64
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturador API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Documents: httpRouter.NewDocumentHandler(
			createDocUC, generateUC, signUC, submitUC,
			poller, rideUC, lifecycle, docRepo, errorLogRepo,
		),
		EmissionPoints: httpRouter.NewEmissionPointHandler(pointUC),
		Customers:      httpRouter.NewCustomerHandler(customerUC),
		Certificate:    httpRouter.NewCertificateHandler(certUC),
		JWTSecret:      cfg.JWT.Secret,
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
