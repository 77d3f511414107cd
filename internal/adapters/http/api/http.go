// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/okian/scoretable/internal/adapters/repository"
	"github.com/okian/scoretable/internal/adapters/tablefile"
	"github.com/okian/scoretable/internal/domain/model"
	"github.com/okian/scoretable/internal/domain/record"
	"github.com/okian/scoretable/internal/domain/scoring"
	"github.com/okian/scoretable/internal/domain/types"
	"github.com/okian/scoretable/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Categories(ctx context.Context) ([]string, error)
	Summary(ctx context.Context, category string) (TableSummary, error)
	Events(ctx context.Context, category string) ([]EventInfo, error)
	Column(ctx context.Context, category, eventID string) (*model.Column, error)
	Reload(ctx context.Context, category string) (TableSummary, error)

	Lookup(ctx context.Context, category, eventID string, value float64) (scoring.Result, error)
	LookupComponents(ctx context.Context, category, eventID string, components map[string]float64) (scoring.Result, error)

	Clean(ctx context.Context, g model.Grid) (model.Grid, record.Report, error)
}

// TableSummary mirrors the read shape of a loaded table.
type TableSummary = types.TableSummary

// EventInfo mirrors the read shape of one event column.
type EventInfo = types.EventInfo

// Default limits.
const (
	DefaultMaxUploadBytes int64 = 10 << 20
	DefaultRateLimitRPS         = 100
	DefaultRateLimitBurst       = 200
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used by handlers and middleware.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxUploadBytes caps the body of POST /v1/clean.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithRateLimit sets the token bucket guarding /v1. A non-positive rps
// disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.rateLimitRPS = rps
		s.rateLimitBurst = burst
	}
}

// WithOutputLocation sets the timezone that dates cleaned CSV downloads.
func WithOutputLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.outputLoc = loc
		}
	}
}

// WithClock overrides the time source for download names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	tablesHandler *TablesHandler
	lookupHandler *LookupHandler
	cleanHandler  *CleanHandler

	logger         logger.Logger
	maxUploadBytes int64
	rateLimitRPS   float64
	rateLimitBurst int
	outputLoc      *time.Location
	now            func() time.Time
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		logger:         logger.Get().Named("http"),
		maxUploadBytes: DefaultMaxUploadBytes,
		rateLimitRPS:   DefaultRateLimitRPS,
		rateLimitBurst: DefaultRateLimitBurst,
		outputLoc:      time.UTC,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.tablesHandler = NewTablesHandler(deps, s.logger)
	s.lookupHandler = NewLookupHandler(deps)
	s.cleanHandler = NewCleanHandler(deps, s.maxUploadBytes, s.outputLoc, s.now)
	return s
}

// Router builds the chi router serving every API route.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(MetricsMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Route("/v1", func(r chi.Router) {
		if s.rateLimitRPS > 0 {
			r.Use(NewRateLimiter(s.rateLimitRPS, s.rateLimitBurst, s.logger).Handler)
		}
		r.Get("/tables", s.tablesHandler.HandleList)
		r.Route("/tables/{category}", func(r chi.Router) {
			r.Get("/", s.tablesHandler.HandleSummary)
			r.Get("/events", s.tablesHandler.HandleEvents)
			r.Get("/events/{event}/rows", s.tablesHandler.HandleRows)
			r.Post("/lookup", s.lookupHandler.HandleLookup)
			r.Post("/reload", s.tablesHandler.HandleReload)
		})
		r.Post("/clean", s.cleanHandler.HandleClean)
	})
	return r
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", s.Router())
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates upstream sentinels to status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, types.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_started"
	case errors.Is(err, repository.ErrInvalidCategory):
		return http.StatusBadRequest, "invalid_category"
	case errors.Is(err, repository.ErrTableNotFound):
		return http.StatusNotFound, "table_not_found"
	case errors.Is(err, model.ErrUnknownEvent):
		return http.StatusNotFound, "unknown_event"
	case errors.Is(err, scoring.ErrNoUsableRows):
		return http.StatusUnprocessableEntity, "no_usable_data"
	case errors.Is(err, types.ErrInvalidQuery), errors.Is(err, scoring.ErrInvalidQuery):
		return http.StatusBadRequest, "invalid_query"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, model.ErrNoPointsColumn),
		errors.Is(err, model.ErrEmptyTable),
		errors.Is(err, model.ErrDuplicateHeader),
		errors.Is(err, model.ErrNonMonotonic),
		errors.Is(err, tablefile.ErrEmptyFile),
		errors.Is(err, tablefile.ErrNoSheet),
		errors.Is(err, tablefile.ErrMalformedFile),
		errors.Is(err, tablefile.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity, "invalid_table"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
