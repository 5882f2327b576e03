package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	authhandler "github.com/FACorreiaa/invoice-ledger/internal/domain/auth/handler"
	authservice "github.com/FACorreiaa/invoice-ledger/internal/domain/auth/service"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/handler"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/history"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/pdftext"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/reference"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/service"
	"github.com/FACorreiaa/invoice-ledger/pkg/config"
	"github.com/FACorreiaa/invoice-ledger/pkg/cron"
	"github.com/FACorreiaa/invoice-ledger/pkg/db"
	"github.com/FACorreiaa/invoice-ledger/pkg/interceptors"
	"github.com/FACorreiaa/invoice-ledger/pkg/mail"
	"github.com/FACorreiaa/invoice-ledger/pkg/metrics"
	"github.com/FACorreiaa/invoice-ledger/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Repositories
	ReferenceRepo *reference.Repository
	HistoryRepo   *history.Repository

	// Services
	Archive        *storage.LocalStorage
	Mailer         *mail.Mailer
	InvoiceService *service.InvoiceService
	AuthService    *authservice.AuthService
	Scheduler      *cron.Scheduler

	// Handlers
	InvoiceHandler *handler.InvoiceHandler
	AuthHandler    *authhandler.AuthHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.ReferenceRepo = reference.NewRepository(d.DB.Pool)
	d.HistoryRepo = history.NewRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = metrics.New(d.Registry)

	archive, err := storage.NewLocalStorage(d.Config.Storage.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to init archive: %w", err)
	}
	d.Archive = archive

	d.Mailer = mail.NewMailer(d.Config.Mail.ResendAPIKey, d.Config.Mail.FromEmail, d.Config.Mail.CC, d.Logger)
	if !d.Mailer.Enabled() {
		d.Logger.Warn("RESEND_API_KEY not set, report emails disabled")
	}

	d.InvoiceService = service.NewInvoiceService(pdftext.NewLedongthucSource(), d.ReferenceRepo, d.Logger).
		WithArchive(d.Archive).
		WithRunRecorder(d.HistoryRepo).
		WithMailer(d.Mailer).
		WithMetrics(d.Metrics)

	if d.Config.Auth.Enabled {
		tokenManager := authservice.NewTokenManager([]byte(d.Config.Auth.JWTSecret), d.Config.Auth.AccessTokenTTL)
		d.AuthService = authservice.NewAuthService(
			d.Config.Auth.OperatorUsername,
			d.Config.Auth.OperatorPasswordHash,
			tokenManager,
			d.Logger,
		)
	}

	retention := time.Duration(d.Config.Storage.RetentionDays) * 24 * time.Hour
	d.Scheduler = cron.NewScheduler(d.Config.Storage.RetentionSchedule, retention, d.Archive, d.HistoryRepo, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	maxUpload := int64(d.Config.Server.MaxUploadMB) << 20
	d.InvoiceHandler = handler.NewInvoiceHandler(d.InvoiceService, d.ReferenceRepo, d.HistoryRepo, maxUpload, d.Logger)

	if d.AuthService != nil {
		d.AuthHandler = authhandler.NewAuthHandler(d.AuthService, d.Config.Server.SecureCookies, d.Logger)
	}

	d.Logger.Info("handlers initialized")
	return nil
}

// Routes builds the API handler with its middleware chain
func (d *Dependencies) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		interceptors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var guard []func(http.Handler) http.Handler
	if d.AuthHandler != nil {
		d.AuthHandler.Register(mux)
		guard = append(guard, interceptors.RequireAuth(d.AuthService))
	}
	d.InvoiceHandler.Register(mux, guard...)

	return interceptors.Chain(mux,
		interceptors.Logging(d.Logger, d.Metrics),
		interceptors.CORS(d.Config.Server.AllowedOrigins),
		interceptors.RateLimit(d.Config.Server.RateLimitPerSecond, d.Config.Server.RateLimitBurst),
	)
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
