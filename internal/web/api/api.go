// Package api exposes the parser over HTTP: parse requests, grammar
// introspection and, when a watch hub is attached, a websocket event stream.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tsparse/tsparse/internal/compiler/parser"
	"github.com/tsparse/tsparse/internal/watch"
	"github.com/tsparse/tsparse/internal/web/cache"
	"github.com/tsparse/tsparse/internal/web/metrics"
	"github.com/tsparse/tsparse/internal/web/middleware"
)

// DefaultMaxSourceBytes bounds the size of a parse request body.
const DefaultMaxSourceBytes = 1 << 20

// Config wires the service's collaborators
type Config struct {
	Parser *parser.Parser

	// Cache stores successful parses; nil disables caching
	Cache    cache.Cache
	CacheTTL time.Duration

	// Hub serves /v1/events; nil disables the endpoint
	Hub *watch.Hub

	// Metrics records request and parse metrics and serves /metrics; nil
	// disables both
	Metrics *metrics.Collector

	MaxSourceBytes int64
	Logger         *zap.Logger
}

// Service handles HTTP requests
type Service struct {
	parser   *parser.Parser
	cache    cache.Cache
	cacheTTL time.Duration
	hub      *watch.Hub
	metrics  *metrics.Collector
	maxBytes int64
	logger   *zap.Logger
}

// New creates the service
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBytes := cfg.MaxSourceBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSourceBytes
	}

	return &Service{
		parser:   cfg.Parser,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		hub:      cfg.Hub,
		metrics:  cfg.Metrics,
		maxBytes: maxBytes,
		logger:   logger.Named("api"),
	}
}

// Router returns the service's routes wrapped in the standard middleware
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(s.logger, "/healthz", "/metrics"),
		middleware.Recovery(s.logger),
	)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/parse", s.handleParse)
		r.Get("/grammar", s.handleGrammar)
		r.Get("/grammar/rules", s.handleGrammarRules)
		r.Delete("/cache", s.handleClearCache)
		if s.hub != nil {
			r.Get("/events", s.hub.HandleWebSocket)
		}
	})

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	return r
}
