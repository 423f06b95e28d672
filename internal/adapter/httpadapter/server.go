// Package httpadapter serves health checks, Prometheus metrics, and read-only
// lookups over the pipeline's artifacts.
package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/aqi-forecast-etl/internal/artifact"
	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup answers point queries. It is implemented by pipeline.Query.
type Lookup interface {
	DistrictAverage(ctx context.Context, scope domain.Scope, district string, year int) (float64, error)
	Prediction(ctx context.Context, scope domain.Scope, district string, year int) (float64, error)
}

// TimelineSource exposes the timeline of the last completed run.
type TimelineSource interface {
	Timeline() (domain.Timeline, bool)
}

// API holds the collaborators behind the /api, /maps, and /plots routes. A nil field
// disables its routes.
type API struct {
	Lookup      Lookup
	Timeline    TimelineSource
	Maps        artifact.Store
	Breakpoints *domain.BreakpointTable
}

// Server exposes health, readiness, metrics, and query HTTP endpoints.
type Server struct {
	httpServer *http.Server
	api        API
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// routes enabled by api.
func NewServer(addr string, ready sharedobs.ReadinessChecker, api API, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:    api,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	if api.Lookup != nil {
		mux.HandleFunc("GET /api/v1/averages/{scope}/{district}/{year}", s.handleAverage)
		mux.HandleFunc("GET /api/v1/predictions/{scope}/{district}/{year}", s.handlePrediction)
	}
	if api.Timeline != nil {
		mux.HandleFunc("GET /api/v1/timeline", s.handleTimeline)
	}
	if api.Maps != nil {
		mux.HandleFunc("GET /maps/{path...}", s.handlePage(artifact.MapsPrefix))
		mux.HandleFunc("GET /plots/{path...}", s.handlePage(artifact.PlotsPrefix))
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type valueResponse struct {
	Scope    domain.Scope `json:"scope"`
	District string       `json:"district_id"`
	Year     int          `json:"year"`
	AQI      float64      `json:"aqi"`
	Category string       `json:"category,omitempty"`
}

func (s *Server) handleAverage(w http.ResponseWriter, r *http.Request) {
	s.serveValue(w, r, s.api.Lookup.DistrictAverage)
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	s.serveValue(w, r, s.api.Lookup.Prediction)
}

type lookupFunc func(ctx context.Context, scope domain.Scope, district string, year int) (float64, error)

func (s *Server) serveValue(w http.ResponseWriter, r *http.Request, lookup lookupFunc) {
	scope, err := domain.ParseScope(r.PathValue("scope"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be an integer")
		return
	}
	district := r.PathValue("district")

	v, err := lookup(r.Context(), scope, district, year)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.logger.Error("lookup failed", "scope", scope, "district", district, "year", year, "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	resp := valueResponse{Scope: scope, District: district, Year: year, AQI: v}
	if s.api.Breakpoints != nil {
		resp.Category = s.api.Breakpoints.Category(int(math.Round(v)))
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTimeline(w http.ResponseWriter, _ *http.Request) {
	tl, ok := s.api.Timeline.Timeline()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no completed run")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, tl)
}

// handlePage serves rendered HTML artifacts stored under prefix.
func (s *Server) handlePage(prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rel := r.PathValue("path")
		if path.Ext(rel) != ".html" || strings.Contains(rel, "..") {
			writeError(w, http.StatusNotFound, "no such page")
			return
		}
		key := prefix + rel

		data, err := s.api.Maps.Get(r.Context(), key)
		switch {
		case errors.Is(err, artifact.ErrNotExist):
			writeError(w, http.StatusNotFound, "no such page")
			return
		case err != nil:
			s.logger.Error("read page failed", "key", key, "error", err)
			writeError(w, http.StatusInternalServerError, "read page failed")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(data) //nolint:errcheck // client went away
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
