package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/estribo-center/estribo/internal/app"
	"github.com/estribo-center/estribo/internal/auth"
	"github.com/estribo-center/estribo/internal/charges"
	"github.com/estribo-center/estribo/internal/horses"
	"github.com/estribo-center/estribo/internal/messages"
	"github.com/estribo-center/estribo/internal/observability"
	"github.com/estribo-center/estribo/internal/payments"
	"github.com/estribo-center/estribo/internal/platform/cache"
	pfdb "github.com/estribo-center/estribo/internal/platform/db"
	"github.com/estribo-center/estribo/internal/platform/storage"
	"github.com/estribo-center/estribo/internal/publications"
	"github.com/estribo-center/estribo/internal/rbac"
	"github.com/estribo-center/estribo/internal/riders"
	"github.com/estribo-center/estribo/internal/roles"
	"github.com/estribo-center/estribo/internal/shared"
	"github.com/estribo-center/estribo/internal/staff"
	"github.com/estribo-center/estribo/internal/users"
	"github.com/estribo-center/estribo/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := pfdb.Migrate(cfg.PGDSN, cfg.MigrationsDir); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := pfdb.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	objectStore, err := storage.NewS3Store(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
	})
	if err != nil {
		logger.Error("configure object store", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, "estribo_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	rbacService := rbac.NewService(rbac.NewRepository(dbpool))
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, templates, csrfManager, sessionManager, rbacMiddleware)

	usersService := users.NewService(users.NewRepository(dbpool))
	usersHandler := users.NewHandler(logger, usersService, rbacService, templates, csrfManager, sessionManager, rbacMiddleware)

	rolesService := roles.NewService(roles.NewRepository(dbpool))
	rolesHandler := roles.NewHandler(logger, rolesService, templates, csrfManager, sessionManager, rbacMiddleware)

	staffService := staff.NewService(staff.NewRepository(dbpool))
	staffHandler := staff.NewHandler(logger, staffService, templates, csrfManager, sessionManager, rbacMiddleware)

	horsesService := horses.NewService(horses.NewRepository(dbpool))
	horsesHandler := horses.NewHandler(logger, horsesService, templates, csrfManager, sessionManager, rbacMiddleware)

	ridersService := riders.NewService(riders.NewRepository(dbpool), objectStore, logger)
	ridersHandler := riders.NewHandler(logger, ridersService, templates, csrfManager, sessionManager, rbacMiddleware)

	chargesService := charges.NewService(charges.NewRepository(dbpool))
	chargesHandler := charges.NewHandler(logger, chargesService, templates, csrfManager, sessionManager, rbacMiddleware)

	paymentsService := payments.NewService(payments.NewRepository(dbpool))
	paymentsHandler := payments.NewHandler(logger, paymentsService, templates, csrfManager, sessionManager, rbacMiddleware)

	publicationsService := publications.NewService(publications.NewRepository(dbpool), auditLogger)
	publicationsHandler := publications.NewHandler(logger, publicationsService, templates, csrfManager, sessionManager, rbacMiddleware)

	messagesService := messages.NewService(messages.NewRepository(dbpool))
	messagesHandler := messages.NewHandler(logger, messagesService, templates, csrfManager, sessionManager, rbacMiddleware)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Templates:           templates,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		AuthHandler:         authHandler,
		UsersHandler:        usersHandler,
		RolesHandler:        rolesHandler,
		PermissionsHandler:  permissionsHandler,
		StaffHandler:        staffHandler,
		HorsesHandler:       horsesHandler,
		RidersHandler:       ridersHandler,
		ChargesHandler:      chargesHandler,
		PaymentsHandler:     paymentsHandler,
		PublicationsHandler: publicationsHandler,
		MessagesHandler:     messagesHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
