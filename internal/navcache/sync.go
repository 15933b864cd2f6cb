package navcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/mj1618/navsync/internal/index"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/platform"
	"github.com/mj1618/navsync/internal/state"
	"github.com/mj1618/navsync/internal/target"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// BuildGroup deduplicates concurrent index builds by index name.
type BuildGroup struct {
	g singleflight.Group
}

// NewBuildGroup returns an empty group.
func NewBuildGroup() *BuildGroup { return &BuildGroup{} }

// Do runs fn unless a build for key is already in flight, in which case it
// waits for and shares that build's outcome.
func (b *BuildGroup) Do(key string, fn func() error) (shared bool, err error) {
	_, err, shared = b.g.Do(key, func() (any, error) {
		return nil, fn()
	})
	return shared, err
}

var defaultBuilds = NewBuildGroup()

// focusLocked ensures the Navigator holds an application handle. Focus
// failures ask the classifier for a refresh before being reported.
func (n *Navigator) focusLocked(ctx context.Context) (platform.App, error) {
	if n.app != nil {
		return *n.app, nil
	}
	app, err := platform.Bounded(ctx, n.callTimeout, func(ctx context.Context) (platform.App, error) {
		return n.provider.WindowManager.Focus(ctx, n.bundleID)
	})
	if err != nil {
		n.escalate("focus_failed")
		return platform.App{}, n.lookupErr(model.ErrApplicationNotFocusable, "", err)
	}
	n.app = &app
	return app, nil
}

func (n *Navigator) escalate(reason string) {
	if _, err := n.store.RequestRefresh(reason, "navigator/"+n.bundleID); err != nil {
		n.logger.Warn("refresh request failed", zap.String("reason", reason), zap.Error(err))
	}
}

// syncLocked reads the State Record and adopts it. A record older than the
// one already acted upon is ignored. When the target_ref changes the
// configuration and associations are reloaded and the indexes dropped.
func (n *Navigator) syncLocked(ctx context.Context) error {
	if _, err := n.focusLocked(ctx); err != nil {
		return err
	}
	rec, err := n.store.Read(n.bundleID)
	if errors.Is(err, state.ErrNotFound) {
		return n.lookupErr(model.ErrNoActiveTarget, "", err)
	}
	if err != nil {
		return err
	}
	if n.synced && rec.Version < n.record.Version {
		n.logger.Debug("ignoring older state record",
			zap.Uint64("version", rec.Version),
			zap.Uint64("current", n.record.Version))
		return nil
	}

	changed := !n.synced || rec.ActiveTarget.TargetRef != n.record.ActiveTarget.TargetRef
	n.record = rec
	n.synced = true
	if !changed {
		return nil
	}

	ref := rec.ActiveTarget.TargetRef
	n.rule = n.table.Resolve(n.bundleID, ref)
	n.volatile = n.table.IsVolatile(n.rule, rec.ActiveTarget)
	n.nav, n.menu = nil, nil
	n.assoc.reset()
	for _, a := range n.rule.Associations {
		if err := n.assoc.preload(a, a.Path(n.dataDir, n.bundleID, ref)); err != nil {
			n.logger.Warn("association load failed", zap.String("name", a.Name), zap.Error(err))
		}
	}
	n.logger.Info("target adopted",
		zap.String("target_ref", ref),
		zap.String("type", string(rec.ActiveTarget.Type)),
		zap.Bool("volatile", n.volatile),
		zap.Uint64("version", rec.Version))
	return nil
}

func (n *Navigator) navName() string {
	return model.IndexName(model.IndexNavigation, n.bundleID, n.record.ActiveTarget.TargetRef)
}

func (n *Navigator) menuName() string {
	return model.IndexName(model.IndexMenu, n.bundleID, n.record.ActiveTarget.TargetRef)
}

// ensureIndexesLocked loads indexes dropped by a target change.
func (n *Navigator) ensureIndexesLocked(ctx context.Context) error {
	if n.nav != nil && n.menu != nil {
		return nil
	}
	return n.loadIndexesLocked(ctx, false)
}

// loadIndexesLocked loads the on-disk indexes for the current target, or
// builds them first when absent, volatile or forced.
func (n *Navigator) loadIndexesLocked(ctx context.Context, force bool) error {
	navName, menuName := n.navName(), n.menuName()
	if force || n.volatile || !n.indexes.Exists(navName) {
		shared, err := n.builds.Do(navName, func() error {
			return n.buildLocked(ctx, navName, menuName)
		})
		if err != nil {
			return err
		}
		if shared {
			n.logger.Debug("joined in-flight build", zap.String("index", navName))
		}
	}

	nav, err := n.indexes.Load(navName)
	if err != nil {
		return n.lookupErr(model.ErrIndexBuildFailed, navName, err)
	}
	menu, err := n.indexes.Load(menuName)
	if err != nil && !errors.Is(err, index.ErrNotFound) {
		return n.lookupErr(model.ErrIndexBuildFailed, menuName, err)
	}
	n.nav, n.menu = &nav, &menu
	return nil
}

// buildLocked crawls the live target and persists both indexes.
func (n *Navigator) buildLocked(ctx context.Context, navName, menuName string) error {
	app, err := n.focusLocked(ctx)
	if err != nil {
		return err
	}
	windows, err := platform.Bounded(ctx, n.callTimeout, func(ctx context.Context) ([]target.Window, error) {
		els, err := n.provider.Reader.Windows(ctx, app)
		if err != nil {
			return nil, err
		}
		return target.SnapshotAll(els), nil
	})
	if err != nil {
		n.app = nil
		n.escalate("enumeration_failed")
		return n.lookupErr(model.ErrIndexBuildFailed, navName, err)
	}
	root, ok := n.table.Refs.Locate(windows, n.record.ActiveTarget)
	if !ok {
		return n.lookupErr(model.ErrStaleTargetRef, navName,
			fmt.Errorf("no live surface for %q", n.record.ActiveTarget.TargetRef))
	}
	bar, err := platform.Bounded(ctx, n.callTimeout, func(ctx context.Context) (platform.Element, error) {
		return n.provider.Reader.MenuBar(ctx, app)
	})
	if err != nil {
		n.logger.Warn("menu bar unavailable", zap.Error(err))
		bar = nil
	}

	nav, menu, err := n.builder.BuildIndex(root, bar, n.rule.Config)
	if err != nil {
		return n.lookupErr(model.ErrIndexBuildFailed, navName, err)
	}
	if err := n.indexes.Save(navName, nav); err != nil {
		return n.lookupErr(model.ErrIndexBuildFailed, navName, err)
	}
	if err := n.indexes.Save(menuName, menu); err != nil {
		return n.lookupErr(model.ErrIndexBuildFailed, menuName, err)
	}
	n.logger.Info("index built",
		zap.String("index", navName),
		zap.Int("fields", len(nav.Fields)),
		zap.Int("elements", len(nav.Elements)),
		zap.Int("menu_items", len(menu.Elements)))
	return nil
}

// checkStaleLocked reports whether a newer record names a different target.
func (n *Navigator) checkStaleLocked() bool {
	rec, err := n.store.Read(n.bundleID)
	if err != nil {
		return false
	}
	return rec.Version > n.record.Version &&
		rec.ActiveTarget.TargetRef != n.record.ActiveTarget.TargetRef
}
