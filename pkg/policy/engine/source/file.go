package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/policy/engine"
	"mercator-hq/irvm/pkg/policy/manager"
)

// DefaultCacheSize is the number of decoded documents a FileSource keeps.
const DefaultCacheSize = 16

// CacheObserver is notified of every decode cache lookup with the number of
// entries cached after the lookup.
type CacheObserver interface {
	ObserveCacheLookup(hit bool, entries int)
}

// FileSource loads one IR document (.json, .yaml or .yml) from disk. Decoded
// policies are cached by the digest of the raw document, so reloading an
// unchanged file, or a file reverted to an earlier revision, skips decoding.
type FileSource struct {
	path     string
	logger   *slog.Logger
	loader   *manager.PolicyLoader
	cache    *lru.Cache
	observer CacheObserver

	watch       bool
	debounce    time.Duration
	maxFileSize int64
	cacheSize   int
}

// FileSourceOption configures a FileSource.
type FileSourceOption func(*FileSource)

// WithWatch enables fsnotify watching of the policy file.
func WithWatch(enabled bool) FileSourceOption {
	return func(s *FileSource) { s.watch = enabled }
}

// WithDebounce sets the quiet period before a burst of file events is
// reported.
func WithDebounce(d time.Duration) FileSourceOption {
	return func(s *FileSource) { s.debounce = d }
}

// WithMaxFileSize rejects documents larger than n bytes.
func WithMaxFileSize(n int64) FileSourceOption {
	return func(s *FileSource) { s.maxFileSize = n }
}

// WithCacheSize sets the number of decoded documents kept in memory.
func WithCacheSize(n int) FileSourceOption {
	return func(s *FileSource) { s.cacheSize = n }
}

// WithCacheObserver reports cache hits and misses, typically to metrics.
func WithCacheObserver(o CacheObserver) FileSourceOption {
	return func(s *FileSource) { s.observer = o }
}

// NewFileSource creates a file-based policy source for path.
func NewFileSource(path string, logger *slog.Logger, opts ...FileSourceOption) (*FileSource, error) {
	if path == "" {
		return nil, fmt.Errorf("policy path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &FileSource{
		path:      path,
		logger:    logger,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	cache, err := lru.New(s.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create policy cache: %w", err)
	}
	s.cache = cache

	// The VM runs the semantic pass itself; the loader only decodes.
	loaderConfig := manager.DefaultLoaderConfig()
	loaderConfig.Schema = false
	loaderConfig.MaxFileSize = s.maxFileSize
	loader, err := manager.NewPolicyLoader(loaderConfig, nil)
	if err != nil {
		return nil, err
	}
	s.loader = loader

	return s, nil
}

// Path returns the watched file path.
func (s *FileSource) Path() string {
	return s.path
}

// LoadPolicy reads and decodes the policy file.
func (s *FileSource) LoadPolicy(ctx context.Context) (*ir.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("policy path %q is a directory", s.path)
	}
	if s.maxFileSize > 0 && info.Size() > s.maxFileSize {
		return nil, fmt.Errorf("policy file %q is %d bytes, limit is %d", s.path, info.Size(), s.maxFileSize)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", s.path, err)
	}

	format, _ := ir.FormatFromPath(s.path)
	key := string(format) + ":" + ir.DigestBytes(data)

	if cached, ok := s.cache.Get(key); ok {
		s.observe(true)
		s.logger.Debug("policy cache hit", "path", s.path)
		return cached.(*ir.Policy), nil
	}
	s.observe(false)

	loaded, err := s.loader.LoadBytes(s.path, data)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, loaded.Policy)

	s.logger.Debug("loaded policy file",
		"path", s.path,
		"digest", loaded.Digest,
		"plans", len(loaded.Policy.PlanList()),
		"funcs", len(loaded.Policy.FuncList()),
	)

	return loaded.Policy, nil
}

func (s *FileSource) observe(hit bool) {
	if s.observer != nil {
		s.observer.ObserveCacheLookup(hit, s.cache.Len())
	}
}

// Watch watches the policy file and sends events on the returned channel.
// Without WithWatch the channel stays silent. The channel is closed when the
// context is cancelled.
func (s *FileSource) Watch(ctx context.Context) (<-chan engine.PolicyEvent, error) {
	eventCh := make(chan engine.PolicyEvent, 8)

	if !s.watch {
		go func() {
			<-ctx.Done()
			close(eventCh)
		}()
		return eventCh, nil
	}

	config := manager.DefaultFileWatcherConfig()
	config.Path = s.path
	if s.debounce > 0 {
		config.DebounceInterval = s.debounce
	}

	watcher, err := manager.NewFileWatcher(config, s.logger)
	if err != nil {
		return nil, err
	}

	em := &emitter{ch: eventCh}
	go func() {
		defer em.close()
		defer func() { _ = watcher.Stop() }()

		err := watcher.Watch(ctx, func(ev manager.ReloadEvent) error {
			em.send(ctx, engine.PolicyEvent{Type: eventType(ev.Type), Path: ev.FilePath})
			return nil
		})
		if err != nil {
			em.send(ctx, engine.PolicyEvent{Path: s.path, Error: err})
		}
	}()

	s.logger.Info("policy file watcher started", "path", s.path)
	return eventCh, nil
}

// emitter serializes sends with closing the channel; debounced callbacks may
// still be running when the watch loop exits.
type emitter struct {
	mu     sync.Mutex
	ch     chan engine.PolicyEvent
	closed bool
}

func (e *emitter) send(ctx context.Context, ev engine.PolicyEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.ch <- ev:
	case <-ctx.Done():
	}
}

func (e *emitter) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}

func eventType(t manager.ReloadEventType) engine.PolicyEventType {
	switch t {
	case manager.ReloadEventCreate:
		return engine.PolicyEventCreated
	case manager.ReloadEventDelete:
		return engine.PolicyEventDeleted
	default:
		return engine.PolicyEventModified
	}
}

var _ engine.PolicySource = (*FileSource)(nil)
