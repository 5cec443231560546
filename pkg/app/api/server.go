// Package api implements the runner for the API server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/blockraise/crowdfund-api/pkg/app/http"
	"github.com/blockraise/crowdfund-api/pkg/config"
	fundingservice "github.com/blockraise/crowdfund-api/pkg/funding/service"
	"github.com/blockraise/crowdfund-api/pkg/fundingstore"
	"github.com/blockraise/crowdfund-api/pkg/pgutil"
	reconcilerpkg "github.com/blockraise/crowdfund-api/pkg/reconciler"
)

const defaultRequestTimeout = 60

// Server holds cfg to init the api server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes new api server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("api server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting API server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend),
	)

	store, closeStore, err := s.openStore(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	fundingstore.EnsureDefaultCategories(ctx, store, logger)

	rec := reconcilerpkg.New(store, logger, cfg.Reconciliation.Repair)
	s.runInitialReconcile(ctx, rec, logger)

	stopReconcile := s.startPeriodicReconcile(rec, logger)
	// We will call stopReconcile explicitly after ServeAndWait returns for deterministic shutdown order.
	// Keep this defer as a safety net.
	defer stopReconcile()

	service := fundingservice.NewService(store, logger)
	router := s.setupRouter(fundingservice.NewLog(service, logger), logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Stop background work before the deferred store close kicks in.
	stopReconcile()

	return err
}

// openStore selects the storage backend configured for this process. The
// returned close function is a no-op for the memory backend.
func (s *Server) openStore(logger *zap.Logger) (fundingstore.Store, func(), error) {
	switch s.cfg.Storage.Backend {
	case config.BackendMemory:
		logger.Info("Using in-memory storage backend (data is volatile)")
		return fundingstore.NewMemoryStore(), func() {}, nil

	case config.BackendPostgres:
		db, err := pgutil.ConnectDB(&s.cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
		logger.Info("Connected to database",
			zap.String("host", s.cfg.Database.Host),
			zap.String("database", s.cfg.Database.Database),
		)
		return fundingstore.NewStore(db), func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", s.cfg.Storage.Backend)
	}
}

func (s *Server) runInitialReconcile(
	ctx context.Context,
	reconciler *reconcilerpkg.Reconciler,
	logger *zap.Logger,
) {
	if s.cfg.Reconciliation.InitialTimeout <= 0 {
		return
	}

	logger.Info("Running initial campaign total reconciliation",
		zap.Duration("timeout", s.cfg.Reconciliation.InitialTimeout),
	)

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.Reconciliation.InitialTimeout)
	defer cancel()

	if err := reconciler.ReconcileAll(startupCtx); err != nil {
		logger.Warn("Initial reconciliation failed (will retry periodically)", zap.Error(err))
		return
	}

	logger.Info("Initial campaign total reconciliation completed")
}

func (s *Server) startPeriodicReconcile(
	reconciler *reconcilerpkg.Reconciler,
	logger *zap.Logger,
) func() {
	if s.cfg.Reconciliation.Interval <= 0 {
		return func() {}
	}

	logger.Info("Starting periodic reconciliation", zap.Duration("interval", s.cfg.Reconciliation.Interval))
	reconciler.StartPeriodicReconciliation(s.cfg.Reconciliation.Interval)

	// Return stopper for deterministic shutdown ordering.
	return func() { reconciler.Stop() }
}

func (s *Server) setupRouter(service fundingservice.Service, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Second * defaultRequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Crowdfunding endpoints
	r.Route("/api", func(r chi.Router) {
		fundingservice.RegisterRoutes(r, service, logger)
	})

	return r
}
