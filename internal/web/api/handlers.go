package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tsparse/tsparse/internal/compiler/errors"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
	"github.com/tsparse/tsparse/internal/web/cache"
	"github.com/tsparse/tsparse/internal/web/metrics"
	"github.com/tsparse/tsparse/internal/web/middleware"
	"github.com/tsparse/tsparse/internal/web/response"
)

// ParseRequest is the JSON body of POST /v1/parse. A text/plain body is
// taken as the source itself.
type ParseRequest struct {
	Source string `json:"source"`
	File   string `json:"file,omitempty"`
}

// ParseResponse is returned for input that parsed
type ParseResponse struct {
	// Expressions holds the JSON form of each top-level expression
	Expressions []json.RawMessage `json:"expressions"`
	// SExpressions holds the fully parenthesized form of each expression
	SExpressions []string `json:"sexpr"`
	Cached       bool     `json:"cached"`
}

// RuleInfo describes a category produced by the grammar
type RuleInfo struct {
	Name     string `json:"name"`
	Operator bool   `json:"operator"`
	Literal  bool   `json:"literal"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.RenderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleParse(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeParseRequest(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			response.RenderError(w, http.StatusRequestEntityTooLarge, "source_too_large",
				fmt.Sprintf("source exceeds %d bytes", tooLarge.Limit))
			return
		}
		response.RenderError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	key := cache.SourceKey(s.parser.Grammar().Name(), req.Source)
	if cached, ok := s.lookup(r, key); ok {
		response.RenderJSON(w, http.StatusOK, cached)
		return
	}

	start := time.Now()
	exprs, err := s.parser.Parse(req.Source)
	if s.metrics != nil {
		s.metrics.RecordParse(err == nil, time.Since(start))
	}
	if err != nil {
		failure, ok := err.(*grammar.Failure)
		if !ok {
			response.RenderError(w, http.StatusInternalServerError, "internal_server_error", err.Error())
			return
		}
		diag := errors.FromFailure(failure)
		if req.File != "" {
			diag.WithFile(req.File)
		}
		response.RenderErrorWithDetails(w, http.StatusUnprocessableEntity, "parse_failed", diag.Error(), diag)
		return
	}

	resp := &ParseResponse{
		Expressions:  make([]json.RawMessage, 0, len(exprs)),
		SExpressions: make([]string, 0, len(exprs)),
	}
	for _, e := range exprs {
		data, err := json.Marshal(e)
		if err != nil {
			response.RenderError(w, http.StatusInternalServerError, "internal_server_error", err.Error())
			return
		}
		resp.Expressions = append(resp.Expressions, data)
		resp.SExpressions = append(resp.SExpressions, e.String())
	}

	s.store(r, key, resp)
	response.RenderJSON(w, http.StatusOK, resp)
}

func (s *Service) decodeParseRequest(w http.ResponseWriter, r *http.Request) (*ParseRequest, error) {
	body := http.MaxBytesReader(w, r.Body, s.maxBytes)
	defer body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/plain" {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		return &ParseRequest{Source: string(data)}, nil
	}

	var req ParseRequest
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

// lookup returns a cached response. Backend errors are logged and treated
// as misses.
func (s *Service) lookup(r *http.Request, key string) (*ParseResponse, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(r.Context(), key)
	if err != nil {
		if cache.IsCacheMiss(err) {
			s.recordLookup(metrics.CacheMiss)
		} else {
			s.recordLookup(metrics.CacheError)
			s.logger.Warn("cache get", s.requestField(r), zap.Error(err))
		}
		return nil, false
	}

	var resp ParseResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.recordLookup(metrics.CacheError)
		s.logger.Warn("cache decode", s.requestField(r), zap.Error(err))
		return nil, false
	}
	s.recordLookup(metrics.CacheHit)
	resp.Cached = true
	return &resp, true
}

func (s *Service) recordLookup(result string) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(result)
	}
}

func (s *Service) store(r *http.Request, key string, resp *ParseResponse) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("cache encode", s.requestField(r), zap.Error(err))
		return
	}
	if err := s.cache.Set(r.Context(), key, data, s.cacheTTL); err != nil {
		s.logger.Warn("cache set", s.requestField(r), zap.Error(err))
	}
}

func (s *Service) handleGrammar(w http.ResponseWriter, r *http.Request) {
	g := s.parser.Grammar()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Grammar-Name", g.Name())
	_, _ = io.WriteString(w, g.Source())
}

func (s *Service) handleGrammarRules(w http.ResponseWriter, r *http.Request) {
	g := s.parser.Grammar()

	rules := make([]RuleInfo, 0)
	for _, c := range g.Categories() {
		rules = append(rules, RuleInfo{
			Name:     c.String(),
			Operator: c.IsOperator(),
			Literal:  c.IsLiteral(),
		})
	}

	response.RenderJSON(w, http.StatusOK, map[string]interface{}{
		"grammar": g.Name(),
		"rules":   rules,
	})
}

func (s *Service) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		if err := s.cache.Clear(r.Context()); err != nil {
			response.RenderError(w, http.StatusBadGateway, "cache_unavailable", err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleNotFound(w http.ResponseWriter, r *http.Request) {
	response.RenderError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
}

func (s *Service) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.RenderError(w, http.StatusMethodNotAllowed, "method_not_allowed",
		r.Method+" is not allowed on "+r.URL.Path)
}

func (s *Service) requestField(r *http.Request) zap.Field {
	return zap.String("request_id", middleware.GetRequestID(r.Context()))
}
