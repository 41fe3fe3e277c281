package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ledgerline/be-acct-approvals/internal/client"
	"github.com/ledgerline/be-acct-approvals/internal/config"
	"github.com/ledgerline/be-acct-approvals/internal/database"
	"github.com/ledgerline/be-acct-approvals/internal/handler"
	"github.com/ledgerline/be-acct-approvals/internal/logger"
	"github.com/ledgerline/be-acct-approvals/internal/middleware"
	"github.com/ledgerline/be-acct-approvals/internal/repository"
	"github.com/ledgerline/be-acct-approvals/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting Approvals Service")

	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Optional notifications broker. The service runs fine without it.
	var natsConn *nats.Conn
	if cfg.NATS.URL != "" {
		natsConn, err = nats.Connect(cfg.NATS.URL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATS.URL).Msg("NATS unavailable; notifications disabled")
			natsConn = nil
		} else {
			defer natsConn.Close()
			log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")
		}
	}
	notifier := client.NewNotificationPublisher(natsConn, log.Logger)

	// Initialize repositories
	schemaRepo := repository.NewSchemaRepository(db)
	registry := repository.NewDocumentRegistry(schemaRepo)
	if err := registry.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to probe document schema")
	}

	documentRepo := repository.NewDocumentRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)
	logRepo := repository.NewApprovalLogRepository(db)
	voucherRepo := repository.NewVoucherRepository(db)
	reportRepo := repository.NewReportRepository(db)
	contactRepo := repository.NewContactRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	// Initialize services
	routingService := service.NewRoutingService(registry, documentRepo, userRepo, settingsRepo, log)
	guard := service.NewTransitionService(documentRepo, log)
	cascadeService := service.NewCascadeService(registry, documentRepo, linkRepo, guard, logRepo, log)
	submissionService := service.NewSubmissionService(routingService, guard, cascadeService, registry, documentRepo, logRepo, notifier, log)
	voucherService := service.NewVoucherService(voucherRepo, log)
	reportService := service.NewReportService(reportRepo, linkRepo, log)
	masterDataService := service.NewMasterDataService(contactRepo, accountRepo, settingsRepo, log)

	// Setup HTTP routes
	workflowHandler := handler.NewWorkflowHandler(submissionService, cascadeService, masterDataService, log)
	documentHandler := handler.NewDocumentHandler(voucherService, reportService, masterDataService, log)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Workflow routes
	mux.HandleFunc("POST /api/v1/documents/preview-routing", workflowHandler.PreviewRouting)
	mux.HandleFunc("POST /api/v1/documents/submit", workflowHandler.Submit)
	mux.HandleFunc("POST /api/v1/documents/auto-approve", workflowHandler.AutoApprove)
	mux.HandleFunc("POST /api/v1/documents/mark-paid", workflowHandler.MarkPaid)
	mux.HandleFunc("POST /api/v1/reports/{id}/cascade", workflowHandler.CascadeReport)
	mux.HandleFunc("GET /api/v1/documents/{type}/{id}/approval-log", workflowHandler.ApprovalHistory)
	mux.HandleFunc("GET /api/v1/settings/{key}", workflowHandler.GetSetting)
	mux.HandleFunc("PUT /api/v1/settings/{key}", workflowHandler.PutSetting)

	// Document routes
	mux.HandleFunc("POST /api/v1/payment-vouchers", documentHandler.CreatePaymentVoucher)
	mux.HandleFunc("GET /api/v1/payment-vouchers", documentHandler.ListPaymentVouchers)
	mux.HandleFunc("GET /api/v1/payment-vouchers/{id}", documentHandler.GetPaymentVoucher)
	mux.HandleFunc("POST /api/v1/check-vouchers", documentHandler.CreateCheckVoucher)
	mux.HandleFunc("GET /api/v1/check-vouchers/{id}", documentHandler.GetCheckVoucher)
	mux.HandleFunc("POST /api/v1/reports", documentHandler.CreateReport)
	mux.HandleFunc("GET /api/v1/reports", documentHandler.ListReports)
	mux.HandleFunc("GET /api/v1/reports/{id}", documentHandler.GetReport)
	mux.HandleFunc("POST /api/v1/reports/{id}/documents", documentHandler.LinkReportDocuments)
	mux.HandleFunc("GET /api/v1/reports/{id}/documents", documentHandler.ListReportDocuments)

	// Master data routes
	mux.HandleFunc("POST /api/v1/contacts", documentHandler.CreateContact)
	mux.HandleFunc("GET /api/v1/contacts", documentHandler.ListContacts)
	mux.HandleFunc("GET /api/v1/contacts/{id}", documentHandler.GetContact)
	mux.HandleFunc("PUT /api/v1/contacts/{id}", documentHandler.UpdateContact)
	mux.HandleFunc("POST /api/v1/accounts", documentHandler.CreateAccount)
	mux.HandleFunc("GET /api/v1/accounts", documentHandler.ListAccounts)
	mux.HandleFunc("GET /api/v1/accounts/{id}", documentHandler.GetAccount)

	// Apply middleware
	var h http.Handler = mux
	h = middleware.Auth(cfg.Auth.JWTSecret, &log.Logger)(h)
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(30 * time.Second)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
