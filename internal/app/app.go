package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"college-service/internal/auth"
	"college-service/internal/config"
	"college-service/internal/course"
	"college-service/internal/db"
	"college-service/internal/enrollment"
	"college-service/internal/events"
	"college-service/internal/health"
	"college-service/internal/httputil"
	"college-service/internal/logger"
	"college-service/internal/metrics"
	"college-service/internal/middleware"
	"college-service/internal/seed"
	"college-service/internal/student"
	"college-service/internal/telemetry"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
)

type App struct {
	config    *config.Config
	router    chi.Router
	server    *http.Server
	logger    *slog.Logger
	db        *bun.DB
	publisher events.Publisher
	telemetry *telemetry.Telemetry
}

// Models lists every table in dependency order for migrations.
func Models() []interface{} {
	return []interface{}{
		(*auth.User)(nil),
		(*student.Student)(nil),
		(*course.Course)(nil),
		(*enrollment.Enrollment)(nil),
	}
}

func New(ctx context.Context) (*App, error) {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Set as default logger so slog.Info() uses the same handler
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application", "version", Version, "commit", GitCommit)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env, "events_driver", cfg.Events.Driver)

	tel, err := telemetry.Init(ctx, cfg.Telemetry, ServiceName, Version, cfg.Env, slogLogger)
	if err != nil {
		return nil, err
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(ctx, database, Models()...); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := tel.Metrics.Database.RegisterDB(database.DB, tel.Metrics.Meter()); err != nil {
		slogLogger.Warn("failed to register database pool metrics", "error", err)
	}

	publisher, err := events.NewPublisher(cfg.Events, slogLogger)
	if err != nil {
		// Events are best effort; the API stays up without a broker.
		slogLogger.Warn("failed to initialize event publisher, events disabled", "driver", cfg.Events.Driver, "error", err)
		publisher = events.Noop{}
	}

	app, err := NewWithDependencies(ctx, cfg, database, publisher, tel.Metrics, slogLogger)
	if err != nil {
		publisher.Close()
		database.Close()
		return nil, err
	}
	app.telemetry = tel

	slogLogger.Info("application initialized successfully")
	return app, nil
}

// NewWithDependencies wires handlers over an already opened and migrated database.
func NewWithDependencies(
	ctx context.Context,
	cfg *config.Config,
	database *bun.DB,
	publisher events.Publisher,
	m *metrics.Metrics,
	slogLogger *slog.Logger,
) (*App, error) {
	app := &App{
		config:    cfg,
		router:    chi.NewRouter(),
		logger:    slogLogger,
		db:        database,
		publisher: publisher,
	}

	tx := db.NewTransactor(database)

	studentRepo := student.NewRepository(m)
	courseRepo := course.NewRepository(m)
	enrollmentRepo := enrollment.NewRepository(m)
	authRepo := auth.NewRepository(m)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	authService := auth.NewService(tx, authRepo, tokens, m)

	seeder := seed.New(tx, authService, studentRepo, courseRepo, enrollmentRepo, slogLogger)
	if cfg.Seed.Enabled {
		if err := seeder.EnsureAdmin(ctx, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword); err != nil {
			return nil, err
		}
	}
	if cfg.Seed.SampleData {
		if err := seeder.LoadSamples(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
	}

	dependencies := []health.Dependency{{
		Name:     metrics.DependencyPostgres,
		Required: true,
		Check: func(ctx context.Context) error {
			return db.Ping(ctx, database)
		},
	}}
	if pinger, ok := publisher.(interface{ Ping(context.Context) error }); ok {
		dependencies = append(dependencies, health.Dependency{Name: metrics.DependencyEvents, Check: pinger.Ping})
	}
	names := make([]string, 0, len(dependencies))
	for _, dep := range dependencies {
		names = append(names, dep.Name)
	}
	if err := m.Health.RegisterDependencies(m.Meter(), names...); err != nil {
		slogLogger.Warn("failed to register dependency metrics", "error", err)
	}

	publisher = events.Instrument(publisher, cfg.Events.Driver, m)

	app.router.Use(chimw.RequestID)
	app.router.Use(chimw.RealIP)
	app.router.Use(middleware.RequestLogger(slogLogger))
	app.router.Use(chimw.Recoverer)
	app.router.Use(middleware.CORS)
	app.router.Use(chimw.StripSlashes)

	app.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondWithError(w, http.StatusNotFound, "Not Found")
	})
	app.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	// Health and token endpoints (no auth required)
	health.NewHandler(m, slogLogger, dependencies...).RegisterRoutes(app.router)
	auth.NewHandler(authService, slogLogger).RegisterRoutes(app.router)

	studentService := student.NewService(tx, studentRepo, publisher, slogLogger)
	courseService := course.NewService(tx, courseRepo)
	enrollmentService := enrollment.NewService(tx, enrollmentRepo, studentRepo, courseRepo, publisher, m, slogLogger)

	app.router.Group(func(r chi.Router) {
		r.Use(auth.RequireToken(authService, slogLogger))
		student.NewHandler(studentService, slogLogger, m).RegisterRoutes(r)
		course.NewHandler(courseService, slogLogger, m).RegisterRoutes(r)
		enrollment.NewHandler(enrollmentService, slogLogger).RegisterRoutes(r)
	})

	return app, nil
}

// Handler exposes the router for in-process tests.
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones, then releases the broker,
// the database and the meter provider.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event publisher: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if err := a.telemetry.Shutdown(ctx, a.logger); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Seed migrates the configured database and loads the admin user and sample data,
// regardless of the seed settings.
func Seed(ctx context.Context) error {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)
	slog.SetDefault(slogLogger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close(database)

	if err := db.RunMigrations(ctx, database, Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m := metrics.NewMock()
	tx := db.NewTransactor(database)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	authService := auth.NewService(tx, auth.NewRepository(m), tokens, m)

	seeder := seed.New(tx, authService, student.NewRepository(m), course.NewRepository(m), enrollment.NewRepository(m), slogLogger)
	return seeder.Run(ctx, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword)
}
