// Package server computes layouts over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/san-kum/forcesim/internal/analysis"
	"github.com/san-kum/forcesim/internal/config"
	"github.com/san-kum/forcesim/internal/experiment"
	"github.com/san-kum/forcesim/internal/export"
	"github.com/san-kum/forcesim/internal/graph"
)

const maxBody = 16 << 20

// LayoutRequest is the body of POST /layout. Preset selects a base
// configuration; Params override single keys of it.
type LayoutRequest struct {
	Graph    *graph.Graph       `json:"graph"`
	Preset   string             `json:"preset,omitempty"`
	Params   map[string]float64 `json:"params,omitempty"`
	MaxTicks int                `json:"max_ticks,omitempty"`
}

type LayoutResponse struct {
	Layout  *graph.Graph       `json:"layout"`
	Ticks   int                `json:"ticks"`
	Settled bool               `json:"settled"`
	Metrics map[string]float64 `json:"metrics"`
	Report  analysis.Report    `json:"report"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	router  chi.Router
	logger  *log.Logger
	timeout time.Duration
}

// New returns a server whose layout requests are cancelled after timeout.
func New(logger *log.Logger, timeout time.Duration) *Server {
	s := &Server{router: chi.NewRouter(), logger: logger, timeout: timeout}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)
	if timeout > 0 {
		s.router.Use(middleware.Timeout(timeout))
	}

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s.router.Get("/presets", s.handlePresets)
	s.router.Post("/layout", s.handleLayout)
	s.router.Post("/layout.svg", s.handleLayoutSVG)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, config.ListPresets())
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	resp, status, err := s.layout(w, r)
	if err != nil {
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLayoutSVG(w http.ResponseWriter, r *http.Request) {
	resp, status, err := s.layout(w, r)
	if err != nil {
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	io.WriteString(w, export.LayoutToSVG(resp.Layout, export.SVGOptions{}))
}

func (s *Server) layout(w http.ResponseWriter, r *http.Request) (*LayoutResponse, int, error) {
	var req LayoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("decode request: %w", err)
	}
	if req.Graph == nil {
		return nil, http.StatusBadRequest, errors.New("missing graph")
	}

	cfg := config.DefaultConfig()
	if req.Preset != "" {
		if cfg = config.GetPreset(req.Preset); cfg == nil {
			return nil, http.StatusBadRequest, fmt.Errorf("unknown preset: %s", req.Preset)
		}
	}
	for k, v := range req.Params {
		if err := cfg.Set(k, v); err != nil {
			return nil, http.StatusBadRequest, err
		}
	}

	exp, err := experiment.New(cfg, req.Graph)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, err
	}
	result, err := exp.Run(r.Context(), req.MaxTicks)
	if err != nil {
		return nil, http.StatusServiceUnavailable, err
	}

	layout := exp.Snapshot()
	report, err := analysis.Analyze(layout, cfg.Spring.RestLength)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	s.logger.Debug("layout computed", "nodes", len(layout.Nodes), "ticks", result.Ticks, "settled", result.Settled)

	return &LayoutResponse{
		Layout:  layout,
		Ticks:   result.Ticks,
		Settled: result.Settled,
		Metrics: result.Metrics,
		Report:  report,
	}, http.StatusOK, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves until the server fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("listening", "addr", addr)
	return srv.ListenAndServe()
}
