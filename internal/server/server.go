// Package server assembles the pipeline and exposes it over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rumor-ml/commons.systems/smsledger/internal/config"
	"github.com/rumor-ml/commons.systems/smsledger/internal/dedup"
	"github.com/rumor-ml/commons.systems/smsledger/internal/extract"
	"github.com/rumor-ml/commons.systems/smsledger/internal/handlers"
	"github.com/rumor-ml/commons.systems/smsledger/internal/middleware"
	"github.com/rumor-ml/commons.systems/smsledger/internal/observability"
	"github.com/rumor-ml/commons.systems/smsledger/internal/parse"
	"github.com/rumor-ml/commons.systems/smsledger/internal/pipeline"
	"github.com/rumor-ml/commons.systems/smsledger/internal/queue"
	"github.com/rumor-ml/commons.systems/smsledger/internal/remote"
	"github.com/rumor-ml/commons.systems/smsledger/internal/store"
	"github.com/rumor-ml/commons.systems/smsledger/internal/validate"
)

// Server owns the pipeline, its storage, and the HTTP routes.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics

	db     *store.SQLite
	remote remote.Store
	queue  *queue.Queue
	pipe   *pipeline.Pipeline

	mux *http.ServeMux
}

// New builds the full processing stack: keyword sets, parser,
// validator, dedup store, Firestore-backed remote with retry and
// breaker, offline queue, and the pipeline tying them together.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kw, err := loadKeywords(cfg)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	fsStore, err := remote.NewFirestoreStore(ctx, cfg.ProjectID, cfg.CredentialsFile)
	if err != nil {
		db.Close()
		return nil, err
	}

	detector := dedup.New(db.DedupTable())
	if cfg.DedupMaxAge > 0 {
		removed, err := detector.Cleanup(cfg.DedupMaxAge)
		if err != nil {
			db.Close()
			fsStore.Close()
			return nil, fmt.Errorf("dedup cleanup failed: %w", err)
		}
		if removed > 0 {
			logger.Info("removed old dedup records", zap.Int("removed", removed))
		}
	}

	metrics := observability.NewMetrics()
	resilient := remote.NewResilientStore(fsStore, logger)
	q := queue.New(db.QueueTable(), resilient, logger, metrics)

	validatorCfg := validate.Config{
		MaxAmount:     cfg.MaxAmount,
		RetentionDays: cfg.RetentionDays,
	}

	pipe := pipeline.New(
		cfg.OwnerID,
		parse.New(kw, logger),
		validate.New(validatorCfg),
		detector,
		resilient,
		q,
		logger,
		metrics,
	)

	authClient, err := newAuthClient(ctx, cfg)
	if err != nil {
		db.Close()
		fsStore.Close()
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		db:      db,
		remote:  resilient,
		queue:   q,
		pipe:    pipe,
		mux:     http.NewServeMux(),
	}
	s.setupRoutes(authClient)

	return s, nil
}

func loadKeywords(cfg *config.Config) (*extract.Keywords, error) {
	if cfg.KeywordsFile != "" {
		return extract.LoadFromFile(cfg.KeywordsFile)
	}
	return extract.LoadEmbedded()
}

func newAuthClient(ctx context.Context, cfg *config.Config) (middleware.TokenVerifier, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Auth client: %w", err)
	}
	return client, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(verifier middleware.TokenVerifier) {
	// Health check and metrics (no auth required)
	s.mux.HandleFunc("/health", handlers.HealthCheck)
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	apiHandler := handlers.NewAPIHandler(s.pipe, s.remote, s.logger)
	authMiddleware := middleware.NewAuthMiddleware(verifier, s.cfg.OwnerID)

	// Protected API routes
	s.mux.Handle("/api/messages", authMiddleware.RequireAuth(http.HandlerFunc(apiHandler.PostMessage)))
	s.mux.Handle("/api/transactions", authMiddleware.RequireAuth(routeByMethod(
		apiHandler.GetTransactions, apiHandler.PostManualEntry)))
	s.mux.Handle("/api/sync", authMiddleware.RequireAuth(http.HandlerFunc(apiHandler.TriggerSync)))
	s.mux.Handle("/api/stats", authMiddleware.RequireAuth(http.HandlerFunc(apiHandler.GetStats)))
}

func routeByMethod(get, post http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			get(w, r)
		case http.MethodPost:
			post(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// Handler returns the HTTP handler with request middleware applied.
func (s *Server) Handler() http.Handler {
	return middleware.CORS(s.mux)
}

// StartMonitoring begins connectivity-triggered queue syncing.
func (s *Server) StartMonitoring(ctx context.Context, signal <-chan bool) {
	s.queue.StartMonitoring(ctx, signal)
}

// Close releases server resources.
func (s *Server) Close() error {
	s.queue.StopMonitoring()
	err := s.remote.Close()
	if dbErr := s.db.Close(); err == nil {
		err = dbErr
	}
	return err
}
