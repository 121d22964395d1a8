package watch

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tsparse/tsparse/internal/compiler/cache"
)

// Reporter receives the results of every parsed batch, in input order
type Reporter func(results []*cache.ParseResult, metrics *cache.ParseMetrics)

// Session re-parses files through a cache coordinator whenever they change.
// Results go to the reporter and, when a hub is attached, to its subscribers.
type Session struct {
	ID string

	coordinator *cache.Coordinator
	watcher     *FileWatcher
	hub         *Hub
	report      Reporter
	logger      *zap.Logger
}

// NewSession creates a watch session. hub may be nil.
func NewSession(c *cache.Coordinator, opts Options, hub *Hub, report Reporter) (*Session, error) {
	id := uuid.NewString()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("watch").With(zap.String("session", id))
	opts.Logger = logger

	s := &Session{
		ID:          id,
		coordinator: c,
		hub:         hub,
		report:      report,
		logger:      logger,
	}

	fw, err := NewFileWatcher(opts, s.handleChange)
	if err != nil {
		return nil, err
	}
	s.watcher = fw

	return s, nil
}

// Start parses the initial files, then starts watching
func (s *Session) Start(initial []string) error {
	if len(initial) > 0 {
		s.logger.Info("initial parse", zap.Int("files", len(initial)))
		results, metrics := s.coordinator.ParseFiles(initial, true)
		s.publish(results, metrics)
	}

	return s.watcher.Start()
}

// Stop stops watching
func (s *Session) Stop() error {
	s.logger.Info("stopping")
	return s.watcher.Stop()
}

func (s *Session) handleChange(files []string) error {
	s.logger.Info("files changed", zap.Strings("files", files))
	if s.hub != nil {
		s.hub.NotifyParsing(s.ID, files)
	}

	results, metrics := s.coordinator.WatchModeParse(files)
	s.publish(results, metrics)
	return nil
}

func (s *Session) publish(results []*cache.ParseResult, metrics *cache.ParseMetrics) {
	s.logger.Debug("parsed",
		zap.Int("files", metrics.TotalFiles),
		zap.Int("failures", metrics.Failures),
		zap.Int("cache_hits", metrics.CacheHits),
		zap.Duration("duration", metrics.TotalDuration))

	if s.report != nil {
		s.report(results, metrics)
	}
	if s.hub != nil {
		s.hub.NotifyResults(s.ID, results, metrics.TotalDuration)
	}
}
