// Package navcache is the client-facing orchestrator. A Navigator follows
// the State Records published for one application, keeps the navigation and
// menu indexes for its current target_ref, rebuilds them through the
// crawler when missing or volatile, and resolves find, click and menu
// operations against them.
package navcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mj1618/navsync/internal/crawler"
	"github.com/mj1618/navsync/internal/index"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/navconfig"
	"github.com/mj1618/navsync/internal/platform"
	"github.com/mj1618/navsync/internal/state"
	"go.uber.org/zap"
)

// Builder produces indexes from a live subtree. *crawler.Crawler is the
// production implementation.
type Builder interface {
	BuildIndex(root, menuBar platform.Element, cfg crawler.Config) (nav, menu index.Index, err error)
}

// Options wires a Navigator. Provider, Store and Indexes are required.
type Options struct {
	Provider *platform.Provider

	// App is a pre-held backend handle. When nil the Navigator focuses the
	// application itself before its first read.
	App *platform.App

	Store   *state.Store
	Indexes *index.Store
	Config  *navconfig.Table
	Builder Builder
	Logger  *zap.Logger

	// Builds collapses concurrent builds of one index. Navigators sharing a
	// group never crawl the same key twice at once; nil uses a process-wide
	// group.
	Builds *BuildGroup

	DataDir     string
	ActionDelay time.Duration
	CallTimeout time.Duration
	Clock       func() time.Time
}

// Navigator is safe for concurrent use; operations are serialized.
type Navigator struct {
	bundleID string
	provider *platform.Provider
	store    *state.Store
	indexes  *index.Store
	table    *navconfig.Table
	builder  Builder
	builds   *BuildGroup
	logger   *zap.Logger

	dataDir     string
	actionDelay time.Duration
	callTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	app      *platform.App
	synced   bool
	record   model.StateRecord
	rule     navconfig.Rule
	volatile bool
	nav      *index.Index
	menu     *index.Index
	assoc    *assocCache
}

// New constructs a Navigator for bundleID and performs the initial sync:
// read the State Record, resolve the configuration and load (or build) the
// indexes for the current target.
func New(ctx context.Context, bundleID string, opts Options) (*Navigator, error) {
	if bundleID == "" {
		return nil, errors.New("navcache: empty bundle id")
	}
	if opts.Provider == nil || opts.Store == nil || opts.Indexes == nil {
		return nil, errors.New("navcache: provider, store and indexes are required")
	}
	n := &Navigator{
		bundleID:    bundleID,
		provider:    opts.Provider,
		store:       opts.Store,
		indexes:     opts.Indexes,
		table:       opts.Config,
		builder:     opts.Builder,
		builds:      opts.Builds,
		logger:      opts.Logger,
		dataDir:     opts.DataDir,
		actionDelay: opts.ActionDelay,
		callTimeout: opts.CallTimeout,
		now:         opts.Clock,
		app:         opts.App,
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	n.logger = n.logger.With(zap.String("bundle_id", bundleID))
	if n.table == nil {
		n.table = navconfig.Default()
	}
	if n.builder == nil {
		n.builder = crawler.New(n.logger)
	}
	if n.builds == nil {
		n.builds = defaultBuilds
	}
	if n.now == nil {
		n.now = time.Now
	}
	if n.callTimeout <= 0 {
		n.callTimeout = 2 * time.Second
	}
	n.assoc = newAssocCache(n.indexes, n.now)

	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.refreshLocked(ctx, false); err != nil {
		return nil, err
	}
	return n, nil
}

// BundleID returns the application this Navigator serves.
func (n *Navigator) BundleID() string { return n.bundleID }

// Target returns the Active Target the indexes belong to.
func (n *Navigator) Target() model.ActiveTarget {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.record.ActiveTarget
}

// Record returns the last State Record acted upon.
func (n *Navigator) Record() model.StateRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.record
}

// Rule returns the configuration in effect for the current target.
func (n *Navigator) Rule() navconfig.Rule {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rule
}

// Refresh re-reads the State Record and reloads indexes, rebuilding them
// when absent or volatile.
func (n *Navigator) Refresh(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.refreshLocked(ctx, false)
}

// Rebuild re-syncs and crawls the current target regardless of what is on
// disk. It returns the navigation index before and after.
func (n *Navigator) Rebuild(ctx context.Context) (before, after index.Index, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.syncLocked(ctx); err != nil {
		return before, after, err
	}
	if prev, err := n.indexes.Load(n.navName()); err == nil {
		before = prev
	}
	if err := n.loadIndexesLocked(ctx, true); err != nil {
		return before, after, err
	}
	return before, *n.nav, nil
}

// Index returns the navigation index, loading it if needed.
func (n *Navigator) Index(ctx context.Context) (index.Index, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.ensureIndexesLocked(ctx); err != nil {
		return index.Index{}, err
	}
	return *n.nav, nil
}

// MenuIndex returns the menu index, loading it if needed.
func (n *Navigator) MenuIndex(ctx context.Context) (index.Index, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.ensureIndexesLocked(ctx); err != nil {
		return index.Index{}, err
	}
	return *n.menu, nil
}

func (n *Navigator) refreshLocked(ctx context.Context, force bool) error {
	if err := n.syncLocked(ctx); err != nil {
		return err
	}
	return n.loadIndexesLocked(ctx, force)
}

func (n *Navigator) lookupErr(kind error, query string, err error) error {
	return model.NewLookupError(kind, n.bundleID, n.record.ActiveTarget.TargetRef, query, err)
}

// pause waits d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (n *Navigator) String() string {
	return fmt.Sprintf("navigator(%s/%s)", n.bundleID, n.record.ActiveTarget.TargetRef)
}
