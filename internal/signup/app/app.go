package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/microscopium/signup/internal/signup/domain"
	httpapi "github.com/microscopium/signup/internal/signup/http"
	"github.com/microscopium/signup/internal/signup/service"
	"github.com/microscopium/signup/internal/signup/store"
	"github.com/microscopium/signup/internal/signup/store/drivers/sqlite"
	"github.com/microscopium/signup/pkg/scopesdk"
	"github.com/microscopium/signup/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	// memberGroupName is the server's builtin group every account joins.
	memberGroupName = "user"
)

// Application encapsulates the signup service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	client *scopesdk.Client

	// Services
	provisionService    *service.ProvisionService
	nonceService        *service.NonceService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "signup-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.client = scopesdk.NewClient(cfg.ServerHost, cfg.ServerPort, cfg.ServerSecure)

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("signup service starting",
		"port", app.cfg.Port,
		"server_host", app.cfg.ServerHost,
		"version", BuildVersion,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down signup service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("signup service stopped")
	return nil
}

// initDatabase initializes the nonce store and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	if app.cfg.DatabaseFile == ":memory:" {
		dsn = ":memory:"
	}

	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.provisionService = &service.ProvisionService{
		Connector: &adminConnector{
			client:   app.client,
			username: app.cfg.AdminUsername,
			password: app.cfg.AdminPassword,
		},
		Group: domain.GroupDescriptor{
			Name:        app.cfg.GroupName,
			Permissions: app.cfg.GroupPerms,
			Templated:   app.cfg.GroupTemplated,
		},
		MemberGroupName: memberGroupName,
		Email: service.EmailSettings{
			Enabled: app.cfg.EmailEnabled,
			Subject: app.cfg.EmailSubject,
			Body:    app.cfg.EmailBody,
		},
	}

	app.nonceService = &service.NonceService{
		Store: app.db,
		TTL:   app.cfg.NonceTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.cfg.HelpMessage,
		app.db,
		app.logger,
	)

	router.ProvisionService = app.provisionService
	router.NonceService = app.nonceService
	router.SetPinger(app.client)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// adminConnector adapts the SDK client to the provisioner's connector
// interface, binding the configured admin credentials.
type adminConnector struct {
	client   *scopesdk.Client
	username string
	password string
}

func (c *adminConnector) Connect(ctx context.Context) (service.AdminDirectory, error) {
	sess, err := c.client.Login(ctx, c.username, c.password)
	if err != nil {
		return nil, err
	}
	return sess, nil
}
