// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/cors"

	repository "github.com/okian/dxrating/internal/adapters/repository"
	service "github.com/okian/dxrating/internal/app"
	"github.com/okian/dxrating/internal/domain/rank"
	"github.com/okian/dxrating/internal/domain/rating"
	"github.com/okian/dxrating/internal/domain/recommend"
	"github.com/okian/dxrating/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Ranks() []rank.Tier
	Rating(ctx context.Context, lv, achv float64) (rating.Detail, error)
	RatingRange(ctx context.Context, lv float64, title string) (service.RatingRange, error)
	RecommendedLevels(ctx context.Context, target, minAchv float64) []recommend.TierEntries
	Analyze(ctx context.Context, req service.AnalyzeRequest) (service.Analysis, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used by the request middleware.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBodyBytes caps the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithAllowedOrigins restricts cross-origin callers. All origins are
// allowed by default.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	ratingHandler  *RatingHandler
	analyzeHandler *AnalyzeHandler

	logger       logger.Logger
	maxBodyBytes int64
	origins      []string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		logger:       logger.Nop(),
		maxBodyBytes: 4 << 20,
		origins:      []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(statsProvider)
	s.statsHandler = NewStatsHandler(statsProvider)
	s.ratingHandler = NewRatingHandler(deps, s.maxBodyBytes)
	s.analyzeHandler = NewAnalyzeHandler(deps, s.maxBodyBytes)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/ranks", MetricsMiddleware(s.ratingHandler.HandleRanks, "ranks"))
	mux.HandleFunc("/rating", MetricsMiddleware(s.ratingHandler.HandleRating, "rating"))
	mux.HandleFunc("/rating-range", MetricsMiddleware(s.ratingHandler.HandleRatingRange, "rating_range"))
	mux.HandleFunc("/recommended-levels", MetricsMiddleware(s.ratingHandler.HandleRecommendedLevels, "recommended_levels"))
	mux.HandleFunc("/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
}

// Handler wraps next with request ids and CORS.
func (s *Server) Handler(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	})
	return RequestIDMiddleware(s.logger)(c.Handler(next))
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

// decodeBody reads a JSON body into v, rejecting unknown fields and
// trailing data.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", ErrBadRequest)
	}
	return nil
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	return false
}

// writeServiceError translates service errors into HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, repository.ErrUnsupportedVersion),
		errors.Is(err, repository.ErrUnsupportedRegion):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrRankNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", fmt.Errorf("%w: %w", ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
