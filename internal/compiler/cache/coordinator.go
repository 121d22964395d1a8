package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/tsparse/tsparse/internal/compiler/ast"
	"github.com/tsparse/tsparse/internal/compiler/parser"
)

// ParseMetrics tracks performance metrics for a batch of parses
type ParseMetrics struct {
	TotalFiles      int
	CacheHits       int
	CacheMisses     int
	FilesParsed     int
	Failures        int
	TotalDuration   time.Duration
	ParsingDuration time.Duration
	StartTime       time.Time
	EndTime         time.Time
}

// CacheHitRate returns the cache hit rate as a percentage
func (pm *ParseMetrics) CacheHitRate() float64 {
	if pm.TotalFiles == 0 {
		return 0.0
	}
	return float64(pm.CacheHits) / float64(pm.TotalFiles) * 100.0
}

// ParseResult represents the result of parsing a single file. Err is a
// *grammar.Failure when the file was read but did not parse.
type ParseResult struct {
	Path   string
	Exprs  []ast.ExprNode
	Hash   string
	Err    error
	Cached bool
}

// Coordinator parses files through an AST cache
type Coordinator struct {
	astCache *ASTCache
	hasher   *FileHasher
	parser   *parser.Parser
	metrics  *ParseMetrics
	workers  int
	mu       sync.Mutex
}

// NewCoordinator creates a coordinator that parses with p
func NewCoordinator(p *parser.Parser) *Coordinator {
	return &Coordinator{
		astCache: NewASTCache(),
		hasher:   NewFileHasher(),
		parser:   p,
		metrics:  &ParseMetrics{},
		workers:  runtime.GOMAXPROCS(0),
	}
}

// SetWorkers limits how many files a parallel ParseFiles reads and parses
// at once. Values below one mean one.
func (c *Coordinator) SetWorkers(n int) {
	c.workers = max(n, 1)
}

// ParseFiles parses every path, reusing cached results for unchanged files.
// Results are returned in the order of paths.
func (c *Coordinator) ParseFiles(paths []string, parallel bool) ([]*ParseResult, *ParseMetrics) {
	c.mu.Lock()
	c.metrics = &ParseMetrics{
		TotalFiles: len(paths),
		StartTime:  time.Now(),
	}
	c.mu.Unlock()

	results := make([]*ParseResult, len(paths))
	if parallel {
		forEach(len(paths), c.workers, func(i int) {
			results[i] = c.parseFile(paths[i])
		})
	} else {
		for i, path := range paths {
			results[i] = c.parseFile(path)
		}
	}

	c.mu.Lock()
	c.metrics.EndTime = time.Now()
	c.metrics.TotalDuration = c.metrics.EndTime.Sub(c.metrics.StartTime)
	metrics := *c.metrics
	c.mu.Unlock()

	return results, &metrics
}

// forEach calls fn for every index below n, running at most limit calls at
// a time.
func forEach(n, limit int, fn func(i int)) {
	sem := make(chan struct{}, max(limit, 1))
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer func() {
				<-sem
				wg.Done()
			}()
			fn(i)
		}(i)
	}
	wg.Wait()
}

// parseFile parses a single file with caching
func (c *Coordinator) parseFile(path string) *ParseResult {
	hash, err := c.hasher.HashFile(path)
	if err != nil {
		return &ParseResult{
			Path: path,
			Err:  fmt.Errorf("failed to hash file: %w", err),
		}
	}

	if cached, exists := c.astCache.Get(path); exists {
		if cached.Hash == hash {
			c.count(func(m *ParseMetrics) { m.CacheHits++ })
			return &ParseResult{
				Path:   path,
				Exprs:  cached.Exprs,
				Hash:   hash,
				Cached: true,
			}
		}
		c.astCache.Invalidate(path)
	}

	// A renamed or copied file parses to the same AST.
	if cached, exists := c.astCache.GetByHash(hash); exists {
		c.count(func(m *ParseMetrics) { m.CacheHits++ })
		c.astCache.Set(path, cached.Exprs, hash)
		return &ParseResult{
			Path:   path,
			Exprs:  cached.Exprs,
			Hash:   hash,
			Cached: true,
		}
	}

	c.count(func(m *ParseMetrics) {
		m.CacheMisses++
		m.FilesParsed++
	})

	content, err := os.ReadFile(path)
	if err != nil {
		return &ParseResult{
			Path: path,
			Err:  fmt.Errorf("failed to read file: %w", err),
		}
	}

	parseStart := time.Now()
	exprs, err := c.parser.Parse(string(content))
	parseDuration := time.Since(parseStart)
	c.count(func(m *ParseMetrics) { m.ParsingDuration += parseDuration })

	if err != nil {
		c.count(func(m *ParseMetrics) { m.Failures++ })
		return &ParseResult{
			Path: path,
			Hash: hash,
			Err:  err,
		}
	}

	c.astCache.Set(path, exprs, hash)

	return &ParseResult{
		Path:  path,
		Exprs: exprs,
		Hash:  hash,
	}
}

func (c *Coordinator) count(update func(*ParseMetrics)) {
	c.mu.Lock()
	update(c.metrics)
	c.mu.Unlock()
}

// InvalidateFile drops the cached result for path
func (c *Coordinator) InvalidateFile(path string) {
	c.astCache.Invalidate(path)
}

// WatchModeParse re-parses files reported as changed
func (c *Coordinator) WatchModeParse(changedFiles []string) ([]*ParseResult, *ParseMetrics) {
	for _, path := range changedFiles {
		c.InvalidateFile(path)
	}
	return c.ParseFiles(changedFiles, true)
}

// GetMetrics returns a copy of the metrics of the last batch
func (c *Coordinator) GetMetrics() *ParseMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	metrics := *c.metrics
	return &metrics
}

// GetCacheStats returns cache statistics
func (c *Coordinator) GetCacheStats() map[string]interface{} {
	return map[string]interface{}{
		"cache_size": c.astCache.Size(),
	}
}

// Clear empties the cache and resets the metrics
func (c *Coordinator) Clear() {
	c.astCache.InvalidateAll()
	c.mu.Lock()
	c.metrics = &ParseMetrics{}
	c.mu.Unlock()
}

// ScanDirectory returns the files under dir whose base name matches any of
// patterns (filepath.Match syntax).
func ScanDirectory(dir string, patterns []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ok, err := MatchAny(patterns, d.Name())
		if err != nil {
			return err
		}
		if ok {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// MatchAny reports whether name matches one of patterns.
func MatchAny(patterns []string, name string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
