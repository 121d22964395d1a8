package cache

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tsparse/tsparse/internal/compiler/grammar"
	"github.com/tsparse/tsparse/internal/compiler/parser"
)

func createTestFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
	return path
}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()

	p, err := parser.New()
	if err != nil {
		t.Fatalf("parser.New() error = %v", err)
	}
	return NewCoordinator(p)
}

func TestCoordinator_ParseFiles_Sequential(t *testing.T) {
	tmpDir := t.TempDir()
	a := createTestFile(t, tmpDir, "a.ts", "1 + 2\n3")
	b := createTestFile(t, tmpDir, "b.ts", "!true")

	coordinator := newTestCoordinator(t)

	results, metrics := coordinator.ParseFiles([]string{a, b}, false)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if metrics.CacheHits != 0 || metrics.CacheMisses != 2 || metrics.FilesParsed != 2 {
		t.Errorf("first run metrics = %+v, want 0 hits, 2 misses, 2 parsed", metrics)
	}

	for _, result := range results {
		if result.Err != nil {
			t.Errorf("Parse error for %s: %v", result.Path, result.Err)
		}
		if result.Cached {
			t.Errorf("%s should not be cached on first run", result.Path)
		}
	}
	if results[0].Path != a || len(results[0].Exprs) != 2 {
		t.Errorf("results[0] = %s with %d expressions, want %s with 2", results[0].Path, len(results[0].Exprs), a)
	}

	// Second run hits the cache.
	results, metrics = coordinator.ParseFiles([]string{a, b}, false)
	if metrics.CacheHits != 2 || metrics.FilesParsed != 0 {
		t.Errorf("second run metrics = %+v, want 2 hits and nothing parsed", metrics)
	}
	if metrics.CacheHitRate() != 100.0 {
		t.Errorf("CacheHitRate() = %f, want 100", metrics.CacheHitRate())
	}
	for _, result := range results {
		if !result.Cached {
			t.Errorf("%s should be cached on second run", result.Path)
		}
	}
}

func TestCoordinator_CacheInvalidationOnChange(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFile(t, tmpDir, "a.ts", "1")

	coordinator := newTestCoordinator(t)
	coordinator.ParseFiles([]string{path}, false)

	createTestFile(t, tmpDir, "a.ts", "1 2")
	results, metrics := coordinator.ParseFiles([]string{path}, false)

	if results[0].Cached {
		t.Errorf("changed file should not be served from cache")
	}
	if metrics.CacheMisses != 1 {
		t.Errorf("CacheMisses = %d, want 1", metrics.CacheMisses)
	}
	if len(results[0].Exprs) != 2 {
		t.Errorf("got %d expressions, want 2", len(results[0].Exprs))
	}
}

func TestCoordinator_RenamedFileHitsCache(t *testing.T) {
	tmpDir := t.TempDir()
	original := createTestFile(t, tmpDir, "a.ts", "(1 + 2) * 3")
	copied := createTestFile(t, tmpDir, "copy.ts", "(1 + 2) * 3")

	coordinator := newTestCoordinator(t)
	coordinator.ParseFiles([]string{original}, false)

	results, _ := coordinator.ParseFiles([]string{copied}, false)
	if !results[0].Cached {
		t.Errorf("identical content under a new path should hit the cache")
	}
	if _, exists := coordinator.astCache.Get(copied); !exists {
		t.Errorf("cache should hold an entry for the new path")
	}
}

func TestCoordinator_Failures(t *testing.T) {
	tmpDir := t.TempDir()
	bad := createTestFile(t, tmpDir, "bad.ts", "1 +")
	missing := filepath.Join(tmpDir, "missing.ts")

	coordinator := newTestCoordinator(t)
	results, metrics := coordinator.ParseFiles([]string{bad, missing}, true)

	var failure *grammar.Failure
	if !errors.As(results[0].Err, &failure) {
		t.Fatalf("results[0].Err = %v, want *grammar.Failure", results[0].Err)
	}
	if failure.Pos.Column != 4 {
		t.Errorf("failure column = %d, want 4", failure.Pos.Column)
	}
	if results[1].Err == nil {
		t.Errorf("missing file should report an error")
	}
	if metrics.Failures != 1 {
		t.Errorf("Failures = %d, want 1", metrics.Failures)
	}
	if coordinator.astCache.Size() != 0 {
		t.Errorf("failed parses must not be cached")
	}
}

func TestCoordinator_ParallelKeepsOrder(t *testing.T) {
	tmpDir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.ts", "b.ts", "c.ts", "d.ts", "e.ts"} {
		paths = append(paths, createTestFile(t, tmpDir, name, "1 + 1 // "+name))
	}

	coordinator := newTestCoordinator(t)
	results, metrics := coordinator.ParseFiles(paths, true)

	for i, result := range results {
		if result.Path != paths[i] {
			t.Errorf("results[%d].Path = %s, want %s", i, result.Path, paths[i])
		}
	}
	if metrics.TotalFiles != len(paths) {
		t.Errorf("TotalFiles = %d, want %d", metrics.TotalFiles, len(paths))
	}
}

func TestCoordinator_ParallelWithOneWorker(t *testing.T) {
	tmpDir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.ts", "b.ts", "c.ts"} {
		paths = append(paths, createTestFile(t, tmpDir, name, "2 * 3"))
	}

	coordinator := newTestCoordinator(t)
	coordinator.SetWorkers(0)
	results, metrics := coordinator.ParseFiles(paths, true)

	for i, result := range results {
		if result.Err != nil || result.Path != paths[i] {
			t.Errorf("results[%d] = %+v", i, result)
		}
	}
	// Identical content is parsed once and then served by hash.
	if metrics.FilesParsed != 1 || metrics.CacheHits != 2 {
		t.Errorf("FilesParsed = %d, CacheHits = %d, want 1 and 2", metrics.FilesParsed, metrics.CacheHits)
	}
}

func TestForEachBoundsConcurrency(t *testing.T) {
	const limit = 3

	var (
		running atomic.Int32
		peak    atomic.Int32
		calls   atomic.Int32
	)
	forEach(50, limit, func(int) {
		now := running.Add(1)
		for {
			old := peak.Load()
			if now <= old || peak.CompareAndSwap(old, now) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		calls.Add(1)
	})

	if calls.Load() != 50 {
		t.Errorf("calls = %d, want 50", calls.Load())
	}
	if peak.Load() > limit {
		t.Errorf("peak concurrency = %d, want at most %d", peak.Load(), limit)
	}
}

func TestCoordinator_WatchModeParse(t *testing.T) {
	tmpDir := t.TempDir()
	a := createTestFile(t, tmpDir, "a.ts", "1")
	b := createTestFile(t, tmpDir, "b.ts", "2")

	coordinator := newTestCoordinator(t)
	coordinator.ParseFiles([]string{a, b}, false)

	results, metrics := coordinator.WatchModeParse([]string{a})
	if len(results) != 1 || results[0].Cached {
		t.Fatalf("changed file should be re-parsed")
	}
	if metrics.FilesParsed != 1 {
		t.Errorf("FilesParsed = %d, want 1", metrics.FilesParsed)
	}
	if coordinator.GetCacheStats()["cache_size"] != 2 {
		t.Errorf("cache_size = %v, want 2", coordinator.GetCacheStats()["cache_size"])
	}

	coordinator.Clear()
	if coordinator.GetCacheStats()["cache_size"] != 0 {
		t.Errorf("cache should be empty after Clear()")
	}
	if coordinator.GetMetrics().TotalFiles != 0 {
		t.Errorf("metrics should be reset after Clear()")
	}
}

func TestScanDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "a.ts", "1")
	createTestFile(t, tmpDir, "nested/b.ts", "2")
	createTestFile(t, tmpDir, "nested/c.expr", "3")
	createTestFile(t, tmpDir, "README.md", "docs")

	files, err := ScanDirectory(tmpDir, []string{"*.ts", "*.expr"})
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}

	sort.Strings(files)
	want := []string{
		filepath.Join(tmpDir, "a.ts"),
		filepath.Join(tmpDir, "nested", "b.ts"),
		filepath.Join(tmpDir, "nested", "c.expr"),
	}
	if len(files) != len(want) {
		t.Fatalf("ScanDirectory() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}

	if _, err := ScanDirectory(tmpDir, []string{"[a-"}); err == nil {
		t.Errorf("ScanDirectory() should reject a malformed pattern")
	}
}
