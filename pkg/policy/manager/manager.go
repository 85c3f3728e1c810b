package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/irvm/pkg/config"
	"mercator-hq/irvm/pkg/ir"
)

// ErrWatchDisabled is returned by Watch when neither file watching nor a
// reload schedule is configured.
var ErrWatchDisabled = errors.New("policy watching is not enabled in configuration")

// DefaultPolicyManager is the default implementation of PolicyManager.
// It coordinates policy loading, validation, registration, and hot-reload.
type DefaultPolicyManager struct {
	config   *config.PolicyConfig
	loader   *PolicyLoader
	registry *PolicyRegistry
	logger   *slog.Logger

	mu            sync.RWMutex
	lastLoadTime  time.Time
	lastLoadError error
	lastResult    *LoadResult

	callbacksMu sync.RWMutex
	callbacks   []ReloadCallback

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
}

// NewPolicyManager creates a new policy manager. v runs the semantic pass on
// every loaded policy when validation is enabled; nil skips it.
func NewPolicyManager(cfg *config.PolicyConfig, v PolicyValidator, logger *slog.Logger) (*DefaultPolicyManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	loaderConfig := DefaultLoaderConfig()
	if cfg.MaxFileSize > 0 {
		loaderConfig.MaxFileSize = cfg.MaxFileSize
	}
	loaderConfig.Schema = cfg.Validation.Enabled && cfg.Validation.Schema
	if !cfg.Validation.Enabled {
		v = nil
	}

	loader, err := NewPolicyLoader(loaderConfig, v)
	if err != nil {
		return nil, err
	}

	return &DefaultPolicyManager{
		config:   cfg,
		loader:   loader,
		registry: NewPolicyRegistry(),
		logger:   logger.With("component", "policy.manager"),
	}, nil
}

// LoadPolicies loads all policies from the configured source.
// This performs validation and registration with atomic updates.
func (m *DefaultPolicyManager) LoadPolicies() error {
	return m.load("Loading policies", "Policies loaded successfully")
}

// ReloadPolicies reloads all policies from the configured source. On any
// failure the previously registered policies stay active.
func (m *DefaultPolicyManager) ReloadPolicies() error {
	return m.load("Reloading policies", "Policies reloaded successfully")
}

func (m *DefaultPolicyManager) load(startMsg, doneMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	startTime := time.Now()
	m.logger.Info(startMsg, "path", m.config.Path)

	result, err := m.loadPoliciesFromSource()
	if err != nil {
		m.lastLoadError = err
		m.logger.Error("Failed to load policies, keeping previous policies",
			"error", err,
			"active_version", m.registry.GetVersion(),
			"duration_ms", time.Since(startTime).Milliseconds(),
		)
		return err
	}

	if err := m.registry.Replace(result.Policies); err != nil {
		m.lastLoadError = err
		m.logger.Error("Failed to register policies",
			"error", err,
			"duration_ms", time.Since(startTime).Milliseconds(),
		)
		return err
	}

	result.LoadTime = time.Since(startTime)
	result.Version = m.registry.GetVersion()

	m.lastLoadTime = time.Now()
	m.lastLoadError = nil
	m.lastResult = result

	for _, werr := range result.Errors {
		m.logger.Warn("Skipped policy file", "error", werr)
	}

	m.logger.Info(doneMsg,
		"count", len(result.Policies),
		"version", result.Version,
		"duration_ms", result.LoadTime.Milliseconds(),
	)

	return nil
}

// GetPolicy retrieves a single policy by name.
func (m *DefaultPolicyManager) GetPolicy(name string) (*ir.Policy, error) {
	p, ok := m.registry.Get(name)
	if !ok {
		return nil, &RegistryError{
			PolicyName: name,
			Operation:  "get",
			Message:    "policy not found",
		}
	}
	return p.Policy, nil
}

// GetAllPolicies retrieves all loaded policies sorted by name.
func (m *DefaultPolicyManager) GetAllPolicies() []*LoadedPolicy {
	return m.registry.GetAllSorted()
}

// GetPolicyVersion returns the version of the currently loaded policies.
func (m *DefaultPolicyManager) GetPolicyVersion() string {
	return m.registry.GetVersion()
}

// OnReload registers a callback invoked after every watch- or
// schedule-triggered reload attempt.
func (m *DefaultPolicyManager) OnReload(cb ReloadCallback) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// HandleEvent reloads policies in response to event and notifies the
// registered callbacks.
func (m *DefaultPolicyManager) HandleEvent(event ReloadEvent) error {
	err := m.ReloadPolicies()

	m.callbacksMu.RLock()
	callbacks := append([]ReloadCallback(nil), m.callbacks...)
	m.callbacksMu.RUnlock()

	for _, cb := range callbacks {
		cb(event, err)
	}
	return err
}

// Watch starts watching the policy source for changes and, when a reload
// schedule is configured, reloading on that schedule. It blocks until ctx is
// cancelled or Close is called.
func (m *DefaultPolicyManager) Watch(ctx context.Context) error {
	if !m.config.Watch && m.config.ReloadSchedule == "" {
		m.logger.Debug("Policy watching disabled in configuration")
		return ErrWatchDisabled
	}

	m.watchMu.Lock()
	if m.watchCancel != nil {
		m.watchMu.Unlock()
		return fmt.Errorf("watch already started")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	m.watchCancel = cancel
	m.watchMu.Unlock()

	defer func() {
		m.watchMu.Lock()
		m.watchCancel = nil
		m.watchMu.Unlock()
		cancel()
	}()

	m.logger.Info("Starting policy watcher",
		"path", m.config.Path,
		"watch_enabled", m.config.Watch,
		"reload_schedule", m.config.ReloadSchedule,
	)

	scheduler := NewReloadScheduler(m.config.ReloadSchedule, m.HandleEvent, m.logger)
	if err := scheduler.Start(watchCtx); err != nil {
		return err
	}
	defer scheduler.Stop()

	if !m.config.Watch {
		<-watchCtx.Done()
		return nil
	}

	watchConfig := DefaultFileWatcherConfig()
	watchConfig.Path = m.config.Path
	if m.config.DebounceInterval > 0 {
		watchConfig.DebounceInterval = m.config.DebounceInterval
	}

	watcher, err := NewFileWatcher(watchConfig, m.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Watch(watchCtx, m.HandleEvent)
	}()

	select {
	case <-watchCtx.Done():
	case err := <-errCh:
		if err != nil {
			m.logger.Error("File watcher error", "error", err)
			_ = watcher.Stop()
			return err
		}
	}

	if err := watcher.Stop(); err != nil {
		m.logger.Error("Failed to stop file watcher", "error", err)
		return err
	}

	return nil
}

// Close stops any running watch and releases resources.
func (m *DefaultPolicyManager) Close() error {
	m.watchMu.Lock()
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	m.watchMu.Unlock()

	m.logger.Info("Policy manager closed")
	return nil
}

// ValidatePoliciesDryRun loads and validates policies without applying them
// to the registry.
func (m *DefaultPolicyManager) ValidatePoliciesDryRun() (*LoadResult, error) {
	m.logger.Info("Dry-run validation", "path", m.config.Path)

	result, err := m.loadPoliciesFromSource()
	if err != nil {
		return nil, fmt.Errorf("policy validation failed: %w", err)
	}

	m.logger.Info("Dry-run validation successful", "count", len(result.Policies))
	return result, nil
}

// loadPoliciesFromSource loads policies from the configured path. In strict
// mode any failing file fails the whole load; otherwise failing files of a
// directory are reported in LoadResult.Errors and skipped.
func (m *DefaultPolicyManager) loadPoliciesFromSource() (*LoadResult, error) {
	isDir, err := m.loader.IsDirectory(m.config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to access policy path: %w", err)
	}

	result := &LoadResult{}

	if !isDir {
		loaded, err := m.loader.LoadFromFile(m.config.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load policy file: %w", err)
		}
		result.Policies = []*LoadedPolicy{loaded}
		result.FileCount = 1
		return result, nil
	}

	policies, err := m.loader.LoadFromDirectory(m.config.Path)
	if err != nil {
		var errList *ErrorList
		if len(policies) == 0 || m.config.Validation.Strict || !errors.As(err, &errList) {
			return nil, fmt.Errorf("failed to load policies from directory: %w", err)
		}
		result.Errors = errList.Errors
	}
	result.Policies = policies
	result.FileCount = len(policies) + len(result.Errors)
	return result, nil
}

// GetLastLoadTime returns the timestamp of the last successful load.
func (m *DefaultPolicyManager) GetLastLoadTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastLoadTime
}

// GetLastLoadError returns the error from the last load attempt.
func (m *DefaultPolicyManager) GetLastLoadError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastLoadError
}

// GetLastResult returns the result of the last successful load.
func (m *DefaultPolicyManager) GetLastResult() *LoadResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastResult
}

// GetRegistry returns the underlying policy registry.
func (m *DefaultPolicyManager) GetRegistry() *PolicyRegistry {
	return m.registry
}

var _ PolicyManager = (*DefaultPolicyManager)(nil)
