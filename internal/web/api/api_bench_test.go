package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tsparse/tsparse/internal/compiler/parser"
	webcache "github.com/tsparse/tsparse/internal/web/cache"
)

func benchmarkParseEndpoint(b *testing.B, cfg Config) {
	p, err := parser.New()
	if err != nil {
		b.Fatal(err)
	}
	cfg.Parser = p
	h := New(cfg).Router()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/parse", strings.NewReader("1 + 2 * (3 - 4) >= 5"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			b.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
	}
}

// BenchmarkParseEndpoint benchmarks the full middleware stack without a cache
func BenchmarkParseEndpoint(b *testing.B) {
	benchmarkParseEndpoint(b, Config{})
}

// BenchmarkParseEndpointCached benchmarks repeated requests answered from memory
func BenchmarkParseEndpointCached(b *testing.B) {
	memory := webcache.NewMemoryCache(webcache.DefaultConfig(), 0)
	defer memory.Close()
	benchmarkParseEndpoint(b, Config{Cache: memory, CacheTTL: time.Minute})
}
