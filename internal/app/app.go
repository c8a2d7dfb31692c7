package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/authportal/internal/apiclient"
	"github.com/simp-lee/authportal/internal/config"
	"github.com/simp-lee/authportal/internal/failure"
	"github.com/simp-lee/authportal/internal/form"
	"github.com/simp-lee/authportal/internal/journal"
	"github.com/simp-lee/authportal/internal/middleware"
	"github.com/simp-lee/authportal/internal/module/auth"
	"github.com/simp-lee/authportal/internal/module/greeting"
	"github.com/simp-lee/authportal/internal/module/incident"
	"github.com/simp-lee/authportal/internal/telemetry"
	"github.com/simp-lee/authportal/web"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine            *gin.Engine
	db                *gorm.DB
	logger            *logger.Logger
	cfg               *config.Config
	shutdownTelemetry telemetry.ShutdownFunc
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, tracing, the optional incident journal, the backend
// client, the failure handler, middleware, template rendering and the routes
// of the configured routing snapshot.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	// 1. Logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 exposes template hot reload and debug logs")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// 2. Tracing.
	shutdownTelemetry, err := telemetry.Setup(context.Background(), cfg.Telemetry, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		if !success {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	// 3. Failure handler with its sinks. The journal is optional.
	loc, err := cfg.DialogLocation()
	if err != nil {
		return nil, fmt.Errorf("load dialog timezone: %w", err)
	}
	classifier := failure.NewClassifier(failure.WithLocation(loc))
	sinks := []failure.Sink{failure.NewLogSink(log.Logger)}

	var (
		db         *gorm.DB
		journalSvc *journal.Service
	)
	if cfg.Journal.Enabled {
		db, err = config.SetupDatabase(&cfg.Journal.Database, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("setup journal database: %w", err)
		}
		defer func() {
			if success {
				return
			}
			if err := config.CloseDatabase(db); err != nil {
				slog.Error("database close error", slog.Any("error", err))
			}
		}()
		if err := journal.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate journal: %w", err)
		}
		journalSvc = journal.NewService(journal.NewRepository(db), log.Logger)
		sinks = append(sinks, journalSvc)
	}
	failures := failure.NewHandler(classifier, log.Logger, sinks...)

	// 4. Backend client.
	client, err := apiclient.New(cfg.Backend.BaseURL,
		apiclient.WithTimeout(cfg.BackendTimeout()),
		apiclient.WithInterceptors(apiclient.NewPrefixInterceptor(cfg.Backend.APIPrefix)),
	)
	if err != nil {
		return nil, fmt.Errorf("setup backend client: %w", err)
	}

	// 5. Modules of the active routing snapshot.
	modules, links := buildModules(cfg, client, log.Logger)
	if journalSvc != nil {
		modules = append(modules, incident.NewModule(incident.NewHandler(journalSvc, log.Logger)))
		links = append(links, Link{Href: "/incidents", Label: "Incidents"})
	}

	// 6. Gin engine with custom middleware (not gin.Default()).
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	var requestTimeout time.Duration
	if cfg.Server.Timeout != "" {
		requestTimeout, _ = time.ParseDuration(cfg.Server.Timeout)
	}

	engine.Use(
		middleware.Recovery(log.Logger, failures.HandlePanic),
		middleware.Tracing(nil),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: cfg.Server.TrustRequestID,
		}),
		middleware.Logger(log.Logger),
		middleware.Timeout(requestTimeout),
		failures.Middleware(),
	)

	// 7. Template renderer.
	var fsys fs.FS
	if cfg.Server.Mode == gin.DebugMode {
		fsys, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug template fs: %w", err)
		}
	} else {
		fsys = web.EmbeddedFS
	}

	renderer, err := NewTemplateRenderer(fsys, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	// 8. CSRF secret.
	csrfSecret := cfg.Server.CSRFSecret
	if isPlaceholderCSRFSecret(csrfSecret) {
		if cfg.Server.Mode == gin.ReleaseMode {
			return nil, errors.New("csrf_secret must be a non-placeholder value in release mode")
		}

		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate csrf secret: %w", err)
		}
		csrfSecret = hex.EncodeToString(b)
		log.Warn("no csrf_secret configured, using random secret in non-release mode (will change on restart)")
	}

	// 9. Routes.
	if err := RegisterRoutes(engine, &RouteDeps{
		Modules:    modules,
		Links:      links,
		DB:         db,
		Mode:       cfg.Server.Mode,
		CSRFSecret: csrfSecret,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	log.Info("application configured",
		slog.String("routes", cfg.Server.Routes),
		slog.String("backend", cfg.Backend.BaseURL),
		slog.Bool("journal", cfg.Journal.Enabled),
		slog.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	success = true
	return &App{
		engine:            engine,
		db:                db,
		logger:            log,
		cfg:               cfg,
		shutdownTelemetry: shutdownTelemetry,
	}, nil
}

// buildModules returns the page modules and home links of the configured
// routing snapshot. The snapshots are mutually exclusive.
func buildModules(cfg *config.Config, client *apiclient.Client, log *slog.Logger) ([]Module, []Link) {
	switch cfg.Server.Routes {
	case config.RoutesGreeting:
		h := greeting.NewHandler(apiclient.NewGreetingClient(client), log)
		return []Module{greeting.NewModule(h)}, []Link{{Href: "/ola", Label: "Greeting"}}
	default:
		tokens := auth.NewCookieTokenStore(cfg.Token.StorageKey, cfg.TokenMaxAge(), cfg.Server.Mode == gin.ReleaseMode)
		h := auth.NewAuthHandler(apiclient.NewAuthClient(client), tokens, form.NewValidator(), log)
		return []Module{auth.NewModule(h)}, []Link{
			{Href: "/login", Label: "Login"},
			{Href: "/cadastro", Label: "Register"},
		}
	}
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}

	switch strings.ToLower(trimmed) {
	case "change-me-to-a-random-secret", "change-me-in-env":
		return true
	default:
		return false
	}
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It shuts down gracefully with a 5-second timeout, then flushes traces and
// closes the journal database and the logger.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr), slog.String("routes", a.cfg.Server.Routes))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if runErr == nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(shutdownCtx); err != nil {
			log.Error("telemetry shutdown error", slog.Any("error", err))
		}
	}

	if a.db != nil {
		if err := config.CloseDatabase(a.db); err != nil {
			log.Error("database close error", slog.Any("error", err))
		} else {
			log.Info("journal database closed")
		}
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}
