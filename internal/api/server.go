package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/anderson/internal/analyzer"
	"github.com/MikeSquared-Agency/anderson/internal/batch"
	"github.com/MikeSquared-Agency/anderson/internal/store"
)

// Store is the persistence surface the API needs. *store.Store satisfies it.
type Store interface {
	SaveAnalysis(ctx context.Context, rec store.AnalysisRecord) (uuid.UUID, error)
	RecentAnalyses(ctx context.Context, limit int) ([]store.AnalysisRecord, error)
	LatestAnalysisByConversation(ctx context.Context, conversationID string) (*store.AnalysisRecord, error)
	GetPrompt(ctx context.Context) (string, bool, error)
	SavePrompt(ctx context.Context, text string) error
}

// Scorer runs one transcript through the scoring pipeline.
type Scorer interface {
	Analyze(ctx context.Context, conversationID, content, customPrompt string) (*analyzer.Result, error)
}

// Bus publishes progress events. Optional; a nil Bus disables publishing.
type Bus interface {
	Publish(subject string, data any) error
	PublishRowState(batchID string, st batch.RowState)
}

type Server struct {
	router   *chi.Mux
	port     int
	apiToken string
	db       Store
	scorer   Scorer
	bus      Bus
	waveSize int
	logger   *slog.Logger

	mu      sync.Mutex
	batches map[uuid.UUID]*batch.Coordinator
}

func NewServer(port int, apiToken string, db Store, scorer Scorer, bus Bus, waveSize int, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		apiToken: apiToken,
		db:       db,
		scorer:   scorer,
		bus:      bus,
		waveSize: waveSize,
		logger:   logger,
		batches:  make(map[uuid.UUID]*batch.Coordinator),
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/anderson/status", s.status)

	router.Route("/api/v1/anderson", func(r chi.Router) {
		r.Get("/analyses", s.listAnalyses)
		r.Get("/analyses/{conversationID}", s.getAnalysis)
		r.Get("/prompt", s.getPrompt)
		r.Get("/batches/{batchID}", s.getBatch)

		r.Group(func(r chi.Router) {
			r.Use(bearerAuth(apiToken))
			r.Post("/analyze", s.analyze)
			r.Post("/batches", s.startBatch)
			r.Delete("/batches/{batchID}", s.cancelBatch)
			r.Put("/prompt", s.savePrompt)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	active := 0
	for _, c := range s.batches {
		if c.Running() {
			active++
		}
	}
	total := len(s.batches)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"agent":          "anderson",
		"status":         "ready",
		"batches":        total,
		"active_batches": active,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
