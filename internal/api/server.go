// Package api exposes the analysis pipeline over REST.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/stocklens/stocklens/internal/analyzer"
	"github.com/stocklens/stocklens/internal/catalog"
	"github.com/stocklens/stocklens/internal/model"
	"github.com/stocklens/stocklens/internal/store"
	"github.com/stocklens/stocklens/pkg/fmp"
)

// Server holds the REST surface's collaborators. Store may be nil, in
// which case the analysis history endpoints respond 503.
type Server struct {
	orch    *analyzer.Orchestrator
	catalog *catalog.Catalog
	store   store.Store
}

// NewServer builds the REST server.
func NewServer(orch *analyzer.Orchestrator, cat *catalog.Catalog, st store.Store) *Server {
	return &Server{orch: orch, catalog: cat, store: st}
}

// Router assembles the chi router with middleware and all routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/analysis/{ticker}", s.handleAnalysis)
		r.Get("/analysis/{ticker}/latest", s.handleLatestAnalysis)
		r.Get("/analyses", s.handleListAnalyses)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
		r.Get("/strategies", s.handleStrategies)
		r.Get("/strategies/{strategy}/fields", s.handleStrategyFields)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalysis runs a full analysis. Query params: strategy
// (default phil_town) and web (default true) to allow or forbid web
// imputation for this request.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	strategyParam := r.URL.Query().Get("strategy")
	if strategyParam == "" {
		strategyParam = string(model.StrategyPhilTown)
	}
	strategy, err := model.ParseStrategy(strategyParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown strategy: "+strategyParam)
		return
	}

	web := true
	if raw := r.URL.Query().Get("web"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "web must be a boolean")
			return
		}
		web = parsed
	}

	result, err := s.orch.Analyze(r.Context(), ticker, strategy, web)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnknownStrategy):
			writeError(w, http.StatusBadRequest, "unknown strategy: "+strategyParam)
		case errors.Is(err, fmp.ErrTickerNotFound):
			writeError(w, http.StatusNotFound, "ticker not found: "+ticker)
		default:
			zap.L().Error("analysis failed",
				zap.String("ticker", ticker),
				zap.String("strategy", string(strategy)),
				zap.Error(err),
			)
			writeError(w, http.StatusBadGateway, "analysis failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleLatestAnalysis returns the newest stored analysis for a ticker
// without recomputing it.
func (s *Server) handleLatestAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis history not configured")
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "ticker")))

	strategyParam := r.URL.Query().Get("strategy")
	if strategyParam == "" {
		strategyParam = string(model.StrategyPhilTown)
	}
	strategy, err := model.ParseStrategy(strategyParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown strategy: "+strategyParam)
		return
	}

	rec, err := s.store.LatestAnalysis(r.Context(), ticker, strategy)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no stored analysis for "+ticker)
			return
		}
		zap.L().Error("latest analysis lookup failed", zap.String("ticker", ticker), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "latest analysis lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis history not configured")
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := s.store.GetAnalysis(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "analysis not found: "+id)
			return
		}
		zap.L().Error("analysis lookup failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis history not configured")
		return
	}

	filter := store.AnalysisFilter{Ticker: r.URL.Query().Get("ticker")}
	if raw := r.URL.Query().Get("strategy"); raw != "" {
		strategy, err := model.ParseStrategy(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown strategy: "+raw)
			return
		}
		filter.Strategy = strategy
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	records, err := s.store.ListAnalyses(r.Context(), filter)
	if err != nil {
		zap.L().Error("list analyses failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list analyses failed")
		return
	}
	if records == nil {
		records = []store.AnalysisRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": records})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"strategies": model.Strategies()})
}

func (s *Server) handleStrategyFields(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "strategy")
	strategy, err := model.ParseStrategy(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown strategy: "+raw)
		return
	}

	set, err := s.catalog.For(strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown strategy: "+raw)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"strategy":     set.Strategy,
		"requirements": set.Requirements,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
