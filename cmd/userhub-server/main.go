package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eion/userhub/internal/audit"
	"github.com/eion/userhub/internal/auth"
	"github.com/eion/userhub/internal/config"
	"github.com/eion/userhub/internal/database"
	"github.com/eion/userhub/internal/health"
	"github.com/eion/userhub/internal/query"
	"github.com/eion/userhub/internal/users"
)

const (
	shutdownTimeout     = 30 * time.Second
	auditPruneInterval  = time.Hour
	readHeaderTimeout   = 10 * time.Second
	monitoringPathStart = "/monitoring"
)

// AppState holds all application services
type AppState struct {
	Logger       *zap.Logger
	Config       *config.Config
	DB           *bun.DB
	Health       *health.Manager
	UserService  users.UserService
	AuditService *audit.Service
}

func main() {
	// Load configuration
	config.Load()

	logger := initLogger()
	defer func() { _ = logger.Sync() }()

	if err := config.Get().Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	logger.Info("Configuration loaded",
		zap.String("driver", config.Database().Driver),
		zap.String("address", config.Http().Addr()))

	ctx := context.Background()
	as, err := newAppState(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application state", zap.Error(err))
	}

	if err := as.Health.StartupHealthCheck(ctx); err != nil {
		logger.Fatal("Startup health check failed", zap.Error(err))
	}

	router := setupRouter(as)

	server := &http.Server{
		Addr:              config.Http().Addr(),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	retentionCtx, stopRetention := context.WithCancel(ctx)
	go runAuditRetention(retentionCtx, as)

	// Setup graceful shutdown
	done := setupSignalHandler(as, server, stopRetention)

	logger.Info("Starting userhub server", zap.String("address", server.Addr))

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	<-done
	logger.Info("Server shutdown complete")
}

// newAppState opens the configured database and builds the services on it
func newAppState(ctx context.Context, logger *zap.Logger) (*AppState, error) {
	dbConfig := config.Database()

	opts := database.Options{
		Driver:             dbConfig.Driver,
		PostgresDSN:        dbConfig.Postgres.DSN(),
		ReadTimeout:        time.Duration(dbConfig.Postgres.ReadTimeout) * time.Second,
		WriteTimeout:       time.Duration(dbConfig.Postgres.WriteTimeout) * time.Second,
		SqlitePath:         dbConfig.Sqlite.Path,
		MaxOpenConnections: dbConfig.MaxOpenConnections,
	}
	if dbConfig.Debug {
		opts.Logger = logger
	}

	switch dbConfig.Driver {
	case database.DriverPostgres:
		logger.Info("Database configuration",
			zap.String("host", dbConfig.Postgres.Host),
			zap.Int("port", dbConfig.Postgres.Port),
			zap.String("database", dbConfig.Postgres.Database),
			zap.String("user", dbConfig.Postgres.User))
	case database.DriverSqlite:
		logger.Info("Database configuration", zap.String("path", dbConfig.Sqlite.Path))
	}

	db, err := database.Open(ctx, opts)
	if err != nil {
		return nil, err
	}

	as, err := buildAppState(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return as, nil
}

// buildAppState creates the schema and wires stores, services and health checks
func buildAppState(ctx context.Context, db *bun.DB, logger *zap.Logger) (*AppState, error) {
	if err := database.CreateTables(ctx, db, (*users.UserSchema)(nil), (*audit.RequestLog)(nil)); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	indexes := append(append([]string{}, users.UserIndexes...), audit.RequestLogIndexes...)
	if err := database.CreateIndexes(ctx, db, indexes...); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	healthManager := health.NewManager(logger)
	healthManager.AddChecker(health.NewDatabaseChecker(db))
	healthManager.AddChecker(health.NewConfigChecker(config.Get()))

	return &AppState{
		Logger:       logger,
		Config:       config.Get(),
		DB:           db,
		Health:       healthManager,
		UserService:  users.NewUserService(users.NewUserStore(db)),
		AuditService: audit.NewService(audit.NewBunStore(db)),
	}, nil
}

func initLogger() *zap.Logger {
	logConfig := config.Logger()

	var config zap.Config
	if logConfig.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	switch logConfig.Level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}

func setupRouter(as *AppState) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(cors.Default())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(limitRequestBody(config.Http().MaxRequestSize))

	// Health stays outside the API group: no API key, no audit entry
	router.GET("/health", health.Handler(as.Health))

	api := router.Group("/")
	api.Use(auth.APIKeyMiddleware(config.Auth().APIKey, as.Logger))
	if config.Audit().Enabled {
		api.Use(audit.Middleware(as.AuditService, as.Logger, monitoringPathStart))
	}

	pagination := config.Pagination()
	users.NewHandlers(as.UserService, query.PaginationConfig{
		DefaultLimit: pagination.DefaultLimit,
		MaxLimit:     pagination.MaxLimit,
	}, as.Logger).RegisterRoutes(api)

	audit.NewHandlers(as.AuditService, as.Logger).RegisterRoutes(api)

	return router
}

func limitRequestBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// runAuditRetention prunes old request logs until ctx is cancelled
func runAuditRetention(ctx context.Context, as *AppState) {
	auditConfig := config.Audit()
	if !auditConfig.Enabled || auditConfig.RetentionDays == 0 {
		return
	}
	retention := time.Duration(auditConfig.RetentionDays) * 24 * time.Hour

	ticker := time.NewTicker(auditPruneInterval)
	defer ticker.Stop()

	for {
		deleted, err := as.AuditService.Prune(ctx, retention)
		if err != nil && ctx.Err() == nil {
			as.Logger.Warn("Failed to prune request logs", zap.Error(err))
		} else if deleted > 0 {
			as.Logger.Info("Pruned request logs", zap.Int64("deleted", deleted))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func setupSignalHandler(as *AppState, server *http.Server, stopBackground context.CancelFunc) chan struct{} {
	done := make(chan struct{}, 1)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalCh

		as.Logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			as.Logger.Error("Error during server shutdown", zap.Error(err))
		}

		stopBackground()

		if err := as.DB.Close(); err != nil {
			as.Logger.Error("Error closing database", zap.Error(err))
		}

		done <- struct{}{}
	}()

	return done
}
