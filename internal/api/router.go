package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/credencehq/credence/internal/api/handlers"
	"github.com/credencehq/credence/internal/buildconfig"
	mw "github.com/credencehq/credence/internal/api/middleware"
	"github.com/credencehq/credence/internal/config"
	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/embedding"
	"github.com/credencehq/credence/internal/service"
	"github.com/credencehq/credence/internal/similarity"
	"github.com/credencehq/credence/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and request counters for the metrics endpoint.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, scoring config.Scoring, logger *zap.Logger) *App {
	// Stores
	beliefStore := store.NewBeliefStore(db)
	argumentStore := store.NewArgumentStore(db)
	evidenceStore := store.NewEvidenceStore(db)
	linkStore := store.NewLinkStore(db)
	studyStore := store.NewStudyStore(db)
	confidenceStore := store.NewConfidenceStore(db)
	challengeStore := store.NewChallengeStore(db)
	criteriaStore := store.NewCriteriaStore(db)

	// Embedding client via provider factory
	embeddingClient, err := embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed, falling back to mock",
			zap.String("provider", config.EmbeddingProvider()), zap.Error(err))
		embeddingClient = embedding.NewMockClient()
	} else {
		logger.Info("embedding client initialized", zap.String("provider", config.EmbeddingProvider()))
	}

	oracle := similarity.NewOracle(embeddingClient)

	// Services
	scorer := service.NewArgumentScorer(beliefStore, argumentStore, evidenceStore, scoring, logger)
	confidenceEngine := service.NewConfidenceEngine(beliefStore, evidenceStore, challengeStore, confidenceStore, scoring, logger)
	network := service.NewNetworkAnalyzer(beliefStore, linkStore, logger)
	recalc := service.NewRecalculator(beliefStore, argumentStore, studyStore, scorer, confidenceEngine, network, scoring, logger)
	detector := service.NewRedundancyDetector(beliefStore, argumentStore, oracle, embeddingClient, scoring, logger)
	beliefSvc := service.NewBeliefService(beliefStore, argumentStore, evidenceStore, embeddingClient, detector, recalc, logger)
	citationSvc := service.NewCitationService(studyStore, beliefStore, scoring, logger)
	criteriaSvc := service.NewCriteriaService(criteriaStore, scoring, logger)

	// Merge rescoring goes through the recalculator; the detector is
	// constructed first, so it is wired here.
	detector.SetRecalculator(recalc)

	// Handlers
	beliefHandler := handlers.NewBeliefHandler(beliefSvc, recalc, network, detector, confidenceEngine)
	studyHandler := handlers.NewStudyHandler(citationSvc)
	criteriaHandler := handlers.NewCriteriaHandler(criteriaSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		// Beliefs and their scored graph
		r.Route("/beliefs", func(r chi.Router) {
			r.Post("/", beliefHandler.Create)
			r.Get("/similar", beliefHandler.FindSimilar)
			r.Post("/duplicates", beliefHandler.DetectDuplicate)
			r.Post("/merge", beliefHandler.Merge)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", beliefHandler.GetByID)
				r.Post("/arguments", beliefHandler.AddArgument)
				r.Post("/evidence", beliefHandler.AddEvidence)
				r.Post("/recalculate", beliefHandler.Recalculate)
				r.Get("/breakdown", beliefHandler.Breakdown)
				r.Get("/export", beliefHandler.Export)
				r.Get("/network", beliefHandler.Network)
				r.Post("/links", beliefHandler.CreateLink)
				r.Post("/challenges", beliefHandler.RecordChallenge)
				r.Post("/unfalsifiable", beliefHandler.MarkUnfalsifiable)
			})
		})

		// Studies and the citation graph
		r.Route("/studies", func(r chi.Router) {
			r.Post("/", studyHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", studyHandler.GetByID)
				r.Post("/references", studyHandler.AddReference)
				r.Post("/stances", studyHandler.RecordStance)
			})
		})

		r.Post("/citations/rank", studyHandler.Rank)

		// Objective criteria
		r.Route("/criteria", func(r chi.Router) {
			r.Post("/", criteriaHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", criteriaHandler.GetByID)
				r.Post("/arguments", criteriaHandler.AddArgument)
				r.Post("/recalculate", criteriaHandler.Recalculate)
			})
		})
	})

	return app
}

// NewRouter returns just the chi.Mux.
func NewRouter(db *pgxpool.Pool, scoring config.Scoring, logger *zap.Logger) *chi.Mux {
	return NewApp(db, scoring, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"version":    buildconfig.Version(),
			"commit":     buildconfig.Commit(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.BeliefStore      = (*store.BeliefStore)(nil)
	_ domain.ArgumentStore    = (*store.ArgumentStore)(nil)
	_ domain.EvidenceStore    = (*store.EvidenceStore)(nil)
	_ domain.LinkStore        = (*store.LinkStore)(nil)
	_ domain.StudyStore       = (*store.StudyStore)(nil)
	_ domain.ConfidenceStore  = (*store.ConfidenceStore)(nil)
	_ domain.ChallengeStore   = (*store.ChallengeStore)(nil)
	_ domain.CriteriaStore    = (*store.CriteriaStore)(nil)
	_ domain.EmbeddingClient  = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient  = (*embedding.MockClient)(nil)
	_ domain.SimilarityOracle = (*similarity.Oracle)(nil)
)
