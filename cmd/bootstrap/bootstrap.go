package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medhead-reservation/config"
	deliveryHttp "medhead-reservation/internal/delivery/http"
	"medhead-reservation/internal/delivery/http/handler"
	"medhead-reservation/internal/delivery/http/middleware"
	domainRepo "medhead-reservation/internal/domain/repository"
	"medhead-reservation/internal/infrastructure/backend"
	"medhead-reservation/internal/infrastructure/cache"
	"medhead-reservation/internal/repository"
	"medhead-reservation/internal/service"
	"medhead-reservation/internal/usecase"
	"medhead-reservation/pkg/jwt"
	"medhead-reservation/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Core holds the reservation pipeline shared by the HTTP server and the CLI
type Core struct {
	Catalog            *service.SpecialityCatalog
	Guard              *service.SubmissionGuard
	FormUsecase        usecase.ReservationFormUsecase
	ReservationUsecase usecase.ReservationUsecase
}

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	RedisClient *redis.Client
	Core        *Core
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// Setup logger
	log, err := SetupLogger(cfg.App)
	if err != nil {
		return nil, err
	}
	app.Log = log
	log.Info("Configuration loaded successfully")

	// Initialize Redis (optional)
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	core, err := NewCore(cfg, log, redisClient)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Core = core

	// Initialize all layers
	app.Server = initializeServer(cfg, log, core)

	return app, nil
}

// SetupLogger configures the logrus logger
func SetupLogger(cfg config.AppConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(level)
	return log, nil
}

// NewCore wires the catalog, form storage, backend client and usecases.
// A nil redisClient keeps form state and submission locks in memory.
func NewCore(cfg *config.Config, log *logrus.Logger, redisClient *redis.Client) (*Core, error) {
	catalog, err := service.NewDefaultSpecialityCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load speciality catalog: %w", err)
	}

	var formStateRepo domainRepo.FormStateRepository
	if redisClient != nil {
		formStateRepo = repository.NewFormStateRedisRepository(redisClient, cfg.Session.TTL)
	} else {
		formStateRepo = repository.NewFormStateMemoryRepository(cfg.Session.TTL)
	}

	client, err := backend.NewClient(cfg.Backend, newTokenSource(cfg, log), log)
	if err != nil {
		return nil, err
	}

	// a lock outliving the backend call is released by the guard's cleanup
	guard := service.NewSubmissionGuard(redisClient, log, 2*cfg.Backend.Timeout)

	return &Core{
		Catalog:            catalog,
		Guard:              guard,
		FormUsecase:        usecase.NewReservationFormUsecase(log, formStateRepo, catalog, guard, client, cfg.Backend.Timeout),
		ReservationUsecase: usecase.NewReservationUsecase(log, catalog, client, cfg.Backend.Timeout),
	}, nil
}

// newTokenSource prefers a pre-issued token over signing our own
func newTokenSource(cfg *config.Config, log *logrus.Logger) backend.TokenSource {
	switch {
	case cfg.Backend.Token != "":
		return backend.StaticToken(cfg.Backend.Token)
	case cfg.JWT.Secret != "":
		return jwt.NewJWTService(cfg.JWT)
	default:
		log.Warn("Neither JWT_SECRET nor BACKEND_TOKEN set, backend requests are unauthenticated")
		return nil
	}
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, log *logrus.Logger, core *Core) *http.Server {
	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize handlers
	pageHandler := handler.NewPageHandler(log, core.FormUsecase, core.Catalog, customValidator)
	formHandler := handler.NewFormHandler(core.FormUsecase, customValidator)
	specialityHandler := handler.NewSpecialityHandler(core.Catalog)
	reservationHandler := handler.NewReservationHandler(core.ReservationUsecase, customValidator)

	// Initialize middleware
	loggingMiddleware := middleware.NewLoggingMiddleware(log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.AllowedOrigin)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(log, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.TrustedProxies)
	sessionMiddleware := middleware.NewSessionMiddleware(cfg.Session.TTL, cfg.App.IsProduction())

	// Initialize router
	router := deliveryHttp.NewRouter(
		pageHandler,
		formHandler,
		specialityHandler,
		reservationHandler,
		loggingMiddleware,
		corsMiddleware,
		rateLimitMiddleware,
		sessionMiddleware,
	)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close stops background workers and closes the Redis connection
func (app *App) Close() {
	if app.Core != nil {
		app.Core.Guard.Stop()
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
