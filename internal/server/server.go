// Package server exposes the simulation engine over HTTP: one endpoint
// per entry point named in spec §6, plus a websocket stream that reports
// Monte Carlo progress while a run is in flight.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/ruhestand-sim/internal/config"
	"github.com/aristath/ruhestand-sim/internal/domain"
	"github.com/aristath/ruhestand-sim/internal/historical"
	"github.com/aristath/ruhestand-sim/internal/montecarlo"
	"github.com/aristath/ruhestand-sim/internal/validation"
	"github.com/aristath/ruhestand-sim/internal/engine/yearstep"
)

// Config bundles the server's dependencies.
type Config struct {
	Log       zerolog.Logger
	EngineCfg config.EngineConfig
	Port      int
	DevMode   bool
}

// Server wraps the chi router and HTTP listener.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	engCfg config.EngineConfig
}

// New builds a Server with routes and middleware wired.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		engCfg: cfg.EngineCfg,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(120 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/simulate-year", s.handleSimulateYear)
		r.Post("/run-historical", s.handleRunHistorical)
		r.Post("/run-monte-carlo", s.handleRunMonteCarlo)
		r.Get("/monte-carlo/progress", s.handleMonteCarloProgress)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request handled")
	})
}

// Start begins listening; it blocks until the listener returns.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("server starting")
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests before closing the
// listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read cpu usage")
		cpuPercent = []float64{0}
	}

	ramPercent := 0.0
	if memStat, err := mem.VirtualMemory(); err != nil {
		s.log.Warn().Err(err).Msg("failed to read memory usage")
	} else {
		ramPercent = memStat.UsedPercent
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"cpuPercent": cpuAvg,
		"ramPercent": ramPercent,
	})
}

// simulateYearRequest is the wire shape for entry point 1 (§6).
type simulateYearRequest struct {
	Portfolio domain.PortfolioState  `json:"portfolio"`
	Strategy  domain.Strategy        `json:"strategy"`
	Market    domain.MarketContext   `json:"market"`
	PriorState *domain.GuardrailState `json:"priorState,omitempty"`
	YearsSinceATH float64            `json:"yearsSinceAth"`
	Year      int                    `json:"year"`
}

func (s *Server) handleSimulateYear(w http.ResponseWriter, r *http.Request) {
	var req simulateYearRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	errs := validation.Validate(validation.Input{Portfolio: req.Portfolio, Strategy: req.Strategy, Market: req.Market})
	if len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"errors": errs})
		return
	}

	prior := domain.NewGuardrailState(req.Portfolio.Liquidity())
	if req.PriorState != nil {
		prior = *req.PriorState
	}

	out := yearstep.Run(yearstep.Input{
		Portfolio: req.Portfolio, Strategy: req.Strategy, Market: req.Market,
		YearsSinceATH: req.YearsSinceATH, CAPE: req.Market.CAPERatio, Year: req.Year,
	}, prior, s.engCfg)

	writeJSON(w, http.StatusOK, out)
}

type runHistoricalRequest struct {
	Portfolio domain.PortfolioState `json:"portfolio"`
	Strategy  domain.Strategy       `json:"strategy"`
	StartYear int                   `json:"startYear"`
	EndYear   int                   `json:"endYear"`
	Rows      []historical.MarketRow `json:"rows"`
}

func (s *Server) handleRunHistorical(w http.ResponseWriter, r *http.Request) {
	var req runHistoricalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := historical.Run(req.Portfolio, req.Strategy, historical.Config{
		StartYear: req.StartYear, EndYear: req.EndYear, Rows: req.Rows,
	}, s.engCfg)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type runMonteCarloRequest struct {
	Portfolio       domain.PortfolioState `json:"portfolio"`
	Strategy        domain.Strategy       `json:"strategy"`
	NumSimulations  int                   `json:"numSimulations"`
	YearsToSimulate int                   `json:"yearsToSimulate"`
	Returns         []float64             `json:"returns"`
	Inflations      []float64             `json:"inflations"`
}

func (s *Server) handleRunMonteCarlo(w http.ResponseWriter, r *http.Request) {
	var req runMonteCarloRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	runID := uuid.New().String()
	log := s.log.With().Str("runId", runID).Logger()

	report, err := montecarlo.Run(req.Portfolio, req.Strategy, montecarlo.Config{
		NumSimulations:  req.NumSimulations,
		YearsToSimulate: req.YearsToSimulate,
		Returns:         req.Returns,
		Inflations:      req.Inflations,
	}, s.engCfg)
	if err != nil {
		log.Warn().Err(err).Msg("monte carlo run failed")
		writeError(w, err)
		return
	}

	log.Info().Float64("successRate", report.SuccessRate).Msg("monte carlo run complete")
	writeJSON(w, http.StatusOK, map[string]interface{}{"runId": runID, "report": report})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *domain.ValidationError, *domain.ConfigurationError:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
