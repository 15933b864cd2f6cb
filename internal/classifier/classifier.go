// Package classifier runs the Target Classifier: a polling loop that elects
// the active navigable surface of one application and publishes it to the
// State Store, following the global desired-target record when another
// process asks it to watch a different application.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/platform"
	"github.com/mj1618/navsync/internal/state"
	"github.com/mj1618/navsync/internal/target"
	"go.uber.org/zap"
)

// Config holds classifier timing.
type Config struct {
	PollInterval   time.Duration // window poll cadence
	SwitchInterval time.Duration // global record check cadence
	StatusInterval time.Duration // process status probe cadence
	CallTimeout    time.Duration // bound on every backend query
}

// DefaultConfig returns the default classifier configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval:   500 * time.Millisecond,
		SwitchInterval: 2 * time.Second,
		StatusInterval: 5 * time.Second,
		CallTimeout:    2 * time.Second,
	}
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithProbe replaces the default backend-based status probe.
func WithProbe(p ProcessProbe) Option { return func(c *Classifier) { c.probe = p } }

// WithClock sets the time source for published targets.
func WithClock(now func() time.Time) Option { return func(c *Classifier) { c.now = now } }

// Classifier elects and publishes the Active Target of one application at a
// time. It is not safe for concurrent use; Run drives it from one goroutine.
type Classifier struct {
	config   Config
	provider *platform.Provider
	store    *state.Store
	refs     target.Refs
	probe    ProcessProbe
	logger   *zap.Logger
	source   string
	now      func() time.Time

	bundleID      string
	appName       string
	app           *platform.App
	tracker       target.Tracker
	last          *model.ActiveTarget
	globalVersion uint64
	running       *bool
	refreshAsked  bool
}

// New creates a Classifier. Zero durations in cfg take their defaults.
func New(cfg Config, provider *platform.Provider, store *state.Store, refs target.Refs, logger *zap.Logger, opts ...Option) *Classifier {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.SwitchInterval <= 0 {
		cfg.SwitchInterval = def.SwitchInterval
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = def.StatusInterval
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Classifier{
		config:   cfg,
		provider: provider,
		store:    store,
		refs:     refs,
		logger:   logger,
		source:   "classifier/" + uuid.NewString(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.probe == nil {
		c.probe = BackendProbe{Manager: provider.WindowManager}
	}
	return c
}

// Source is the publisher id stamped into every record this classifier writes.
func (c *Classifier) Source() string { return c.source }

// BundleID is the application currently monitored.
func (c *Classifier) BundleID() string { return c.bundleID }

// Run attaches to app (or, when empty, the global record's active bundle)
// and polls until ctx is done. Backend failures never end the loop.
func (c *Classifier) Run(ctx context.Context, app string) error {
	if err := c.Attach(ctx, app); err != nil {
		return err
	}

	signals, err := c.store.WatchGlobal(ctx)
	if err != nil {
		c.logger.Warn("global record watch unavailable, relying on switch interval", zap.Error(err))
	}

	c.logger.Info("classifier started",
		zap.String("bundle_id", c.bundleID),
		zap.String("source", c.source),
		zap.Duration("poll_interval", c.config.PollInterval))

	c.CheckStatus(ctx)
	c.Poll(ctx)

	pollTicker := time.NewTicker(c.config.PollInterval)
	switchTicker := time.NewTicker(c.config.SwitchInterval)
	statusTicker := time.NewTicker(c.config.StatusInterval)
	defer func() {
		pollTicker.Stop()
		switchTicker.Stop()
		statusTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("classifier stopping", zap.String("bundle_id", c.bundleID))
			return ctx.Err()

		case <-pollTicker.C:
			c.Poll(ctx)

		case <-switchTicker.C:
			c.CheckGlobal(ctx)

		case _, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			c.CheckGlobal(ctx)

		case <-statusTicker.C:
			c.CheckStatus(ctx)
		}
	}
}

// Attach selects the monitored application. An explicit app is written to
// the global record so that other processes follow it.
func (c *Classifier) Attach(ctx context.Context, app string) error {
	explicit := app != ""
	if !explicit {
		g, err := c.store.ReadGlobal()
		if err != nil || g.ActiveBundleID == "" {
			return fmt.Errorf("no application given and none requested: %w", model.ErrNoActiveTarget)
		}
		app = g.ActiveBundleID
		c.globalVersion = g.Version
	}

	bundleID, name, err := c.resolve(ctx, app)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", app, err)
	}
	c.bundleID, c.appName = bundleID, name
	c.app = nil
	c.running = nil
	c.resetTracking()

	if explicit {
		g, err := c.store.SetActiveBundle(bundleID, c.source)
		if err != nil {
			return err
		}
		c.globalVersion = g.Version
	}
	return nil
}

// Poll runs one classification cycle: focus if needed, snapshot windows,
// elect and publish when the target changed.
func (c *Classifier) Poll(ctx context.Context) {
	if c.bundleID == "" || (c.running != nil && !*c.running) {
		return
	}
	app, err := c.focus(ctx)
	if err != nil {
		c.fail("focus_failed", err)
		return
	}

	windows, err := platform.Bounded(ctx, c.config.CallTimeout, func(ctx context.Context) ([]target.Window, error) {
		els, err := c.provider.Reader.Windows(ctx, app)
		if err != nil {
			return nil, err
		}
		return target.SnapshotAll(els), nil
	})
	if err != nil {
		c.fail("enumeration_failed", err)
		return
	}
	c.refreshAsked = false

	for _, w := range c.tracker.Observe(windows) {
		c.logger.Info("window detected",
			zap.String("bundle_id", c.bundleID),
			zap.String("title", w.Title),
			zap.String("hash", w.Hash()),
			zap.Int("sheets", len(w.Sheets)))
	}

	e, ok := target.Elect(windows)
	if !ok {
		c.logger.Debug("no active target", zap.String("bundle_id", c.bundleID), zap.Int("windows", len(windows)))
		return
	}
	at := c.refs.Resolve(e, c.bundleID, c.now())
	if c.last != nil && c.last.SameAs(at) {
		return
	}

	rec, err := c.store.Publish(c.bundleID, model.StateRecord{
		ActiveTarget: at,
		BundleID:     c.bundleID,
		AppName:      c.appName,
		Source:       c.source,
		Timestamp:    at.Timestamp,
	})
	if err != nil {
		c.logger.Warn("publish failed", zap.String("bundle_id", c.bundleID), zap.Error(err))
		return
	}
	c.last = &at
	c.logger.Info("active target elected",
		zap.String("bundle_id", c.bundleID),
		zap.String("type", string(at.Type)),
		zap.String("title", at.Title),
		zap.String("target_ref", at.TargetRef),
		zap.Uint64("version", rec.Version))
}

// CheckGlobal follows the global record: switch applications when another
// bundle is requested, re-focus when a refresh is requested.
func (c *Classifier) CheckGlobal(ctx context.Context) {
	g, err := c.store.ReadGlobal()
	if err != nil || g.Version == c.globalVersion {
		return
	}
	c.globalVersion = g.Version

	if g.ActiveBundleID != "" && g.ActiveBundleID != c.bundleID {
		c.switchTo(ctx, g.ActiveBundleID)
		if g.Refresh {
			// A switch already re-focuses and resets tracking.
			c.clearRefresh()
		}
		return
	}
	if !g.Refresh {
		return
	}

	c.logger.Info("refresh requested",
		zap.String("bundle_id", c.bundleID),
		zap.String("reason", g.RefreshReason),
		zap.String("requested_by", g.Source))
	c.app = nil
	if _, err := c.focus(ctx); err != nil {
		c.logger.Warn("refresh focus failed", zap.String("bundle_id", c.bundleID), zap.Error(err))
		return
	}
	c.resetTracking()
	c.clearRefresh()
}

func (c *Classifier) clearRefresh() {
	c.refreshAsked = false
	g, err := c.store.ClearRefresh(c.source)
	if err != nil {
		c.logger.Warn("refresh acknowledge failed", zap.String("bundle_id", c.bundleID), zap.Error(err))
		return
	}
	c.globalVersion = g.Version
}

// switchTo moves the classifier to bundleID. When the new application
// cannot be resolved or focused, the global record is pointed back at the
// previous one.
func (c *Classifier) switchTo(ctx context.Context, requested string) {
	prev := c.bundleID
	bundleID, name, err := c.resolve(ctx, requested)
	var app platform.App
	if err == nil {
		app, err = platform.Bounded(ctx, c.config.CallTimeout, func(ctx context.Context) (platform.App, error) {
			return c.provider.WindowManager.Focus(ctx, bundleID)
		})
	}
	if err != nil {
		c.logger.Warn("target switch failed, reverting",
			zap.String("requested", requested),
			zap.String("bundle_id", prev),
			zap.Error(err))
		if g, err := c.store.SetActiveBundle(prev, c.source); err == nil {
			c.globalVersion = g.Version
		}
		return
	}

	c.bundleID, c.appName, c.app = bundleID, name, &app
	c.running = nil
	c.resetTracking()
	c.logger.Info("target switched", zap.String("from", prev), zap.String("to", bundleID))
}

// CheckStatus records whether the application is running. A quit
// application is not polled; a relaunch resets tracking.
func (c *Classifier) CheckStatus(ctx context.Context) {
	if c.bundleID == "" {
		return
	}
	running, err := platform.Bounded(ctx, c.config.CallTimeout, func(ctx context.Context) (bool, error) {
		return c.probe.Running(ctx, c.bundleID, c.appName)
	})
	if err != nil {
		c.logger.Debug("status probe failed", zap.String("bundle_id", c.bundleID), zap.Error(err))
		return
	}
	if c.running != nil && *c.running == running {
		return
	}
	first := c.running == nil
	c.running = &running

	status := model.StatusRunning
	if !running {
		status = model.StatusQuit
		c.app = nil
	}
	if !first || !running {
		c.resetTracking()
	}
	if g, err := c.store.SetStatus(status, c.source); err == nil {
		c.globalVersion = g.Version
	}
	c.logger.Info("application status", zap.String("bundle_id", c.bundleID), zap.String("status", status))
}

func (c *Classifier) resolve(ctx context.Context, nameOrID string) (string, string, error) {
	type resolved struct{ id, name string }
	r, err := platform.Bounded(ctx, c.config.CallTimeout, func(ctx context.Context) (resolved, error) {
		id, name, err := c.provider.WindowManager.Resolve(ctx, nameOrID)
		return resolved{id, name}, err
	})
	return r.id, r.name, err
}

func (c *Classifier) focus(ctx context.Context) (platform.App, error) {
	if c.app != nil {
		return *c.app, nil
	}
	app, err := platform.Bounded(ctx, c.config.CallTimeout, func(ctx context.Context) (platform.App, error) {
		return c.provider.WindowManager.Focus(ctx, c.bundleID)
	})
	if err != nil {
		return app, err
	}
	c.app = &app
	return app, nil
}

// fail drops the backend handle and asks for a refresh once per failure run.
func (c *Classifier) fail(reason string, err error) {
	level := c.logger.Warn
	if errors.Is(err, model.ErrBackendUnavailable) {
		level = c.logger.Info
	}
	level("poll failed",
		zap.String("bundle_id", c.bundleID),
		zap.String("reason", reason),
		zap.Error(err))
	c.app = nil
	if c.refreshAsked {
		return
	}
	if _, err := c.store.RequestRefresh(reason, c.source); err == nil {
		c.refreshAsked = true
	}
}

func (c *Classifier) resetTracking() {
	c.tracker.Reset()
	c.last = nil
}
