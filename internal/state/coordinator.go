// Package state owns the in-memory mirror of every durable collection:
// saved flows, reports, running-test liveness markers, schedule
// descriptors and user settings. All mutations go through the
// Coordinator, which persists the touched collection after each one.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flowdeck/flowdeck/internal/flow"
	"github.com/flowdeck/flowdeck/internal/storage"
)

// ErrNotFound is returned when a flow or report id is unknown.
var ErrNotFound = errors.New("not found")

const (
	// DefaultMaxReports bounds the report log.
	DefaultMaxReports = 100
	// DefaultRunTTL is how long a running-test marker stays live without
	// being unregistered.
	DefaultRunTTL = 5 * time.Minute
)

// Options tune the coordinator's retention behavior.
type Options struct {
	MaxReports int
	RunTTL     time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxReports <= 0 {
		o.MaxReports = DefaultMaxReports
	}
	if o.RunTTL <= 0 {
		o.RunTTL = DefaultRunTTL
	}
	return o
}

// Coordinator is the single source of truth for the process's view of
// durable state. Durable storage is shared with other processes without
// a locking primitive; externally-observed mutations trigger a full
// reload (last-writer-wins, eventually consistent).
type Coordinator struct {
	backend storage.Backend
	logger  *zap.Logger
	opts    Options
	now     func() time.Time

	mu          sync.RWMutex
	flows       []flow.TestFlow
	reports     []flow.TestReport
	running     []flow.RunningTestEntry
	scheduled   []json.RawMessage
	settings    map[string]string
	loading     bool
	loadErr     error
	lastUpdated time.Time
}

func NewCoordinator(backend storage.Backend, logger *zap.Logger, opts Options) *Coordinator {
	return &Coordinator{
		backend:  backend,
		logger:   logger,
		opts:     opts.withDefaults(),
		now:      time.Now,
		loading:  true,
		settings: map[string]string{},
	}
}

// Load reads every tracked collection from durable storage. A failure is
// sticky: the coordinator stays in the error state and does not retry on
// its own.
func (c *Coordinator) Load(ctx context.Context) error {
	err := c.reload(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.loadErr = err
		return err
	}
	c.loading = false
	c.loadErr = nil
	return nil
}

// Reload discards the in-memory state and re-reads every collection.
// Called when another process mutated durable storage.
func (c *Coordinator) Reload(ctx context.Context) {
	if err := c.reload(ctx); err != nil {
		c.logger.Warn("reload after external mutation failed", zap.Error(err))
		return
	}
	c.logger.Debug("reloaded state after external mutation")
}

func (c *Coordinator) reload(ctx context.Context) error {
	var (
		flows     []flow.TestFlow
		reports   []flow.TestReport
		running   []flow.RunningTestEntry
		scheduled []json.RawMessage
		settings  = map[string]string{}
	)
	if err := c.loadKey(ctx, storage.KeyFlows, &flows); err != nil {
		return err
	}
	if err := c.loadKey(ctx, storage.KeyReports, &reports); err != nil {
		return err
	}
	if err := c.loadKey(ctx, storage.KeyRunning, &running); err != nil {
		return err
	}
	if err := c.loadKey(ctx, storage.KeyScheduled, &scheduled); err != nil {
		return err
	}
	if err := c.loadKey(ctx, storage.KeySettings, &settings); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.flows = flows
	c.reports = reports
	c.running = running
	c.scheduled = scheduled
	c.settings = settings
	c.lastUpdated = c.now().UTC()
	return nil
}

func (c *Coordinator) loadKey(ctx context.Context, key string, out any) error {
	doc, err := c.backend.Load(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return err
	}
	return nil
}

// Loading reports whether the first load has completed.
func (c *Coordinator) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// LoadErr returns the sticky load error, if any.
func (c *Coordinator) LoadErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// LastUpdated is the time of the last successful load or reload.
func (c *Coordinator) LastUpdated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdated
}

// WatchExternal consumes the backend's change signal and reloads on any
// tracked key. Backends without a change signal are left alone.
func (c *Coordinator) WatchExternal(ctx context.Context) error {
	events, err := c.backend.Watch(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrWatchUnsupported) {
			c.logger.Info("storage backend has no change signal; cross-process reload disabled")
			return nil
		}
		return err
	}
	go func() {
		tracked := map[string]bool{}
		for _, key := range storage.TrackedKeys() {
			tracked[key] = true
		}
		for ev := range events {
			if !tracked[ev.Key] {
				continue
			}
			c.Reload(ctx)
		}
	}()
	return nil
}

// persistLocked re-serializes one collection to durable storage. Must be
// called with the model lock held so no partially-applied mutation is
// ever written. A write failure is a warning: in-memory state stays
// authoritative for this process.
func (c *Coordinator) persistLocked(ctx context.Context, key string, v any) {
	doc, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("state not persisted", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.backend.Store(ctx, key, doc); err != nil {
		c.logger.Warn("state not persisted", zap.String("key", key), zap.Error(err))
	}
}
