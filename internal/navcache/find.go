package navcache

import (
	"context"
	"errors"
	"strings"

	"github.com/mj1618/navsync/internal/model"
	"go.uber.org/zap"
)

// Match finds the descriptor for label: an exact label match wins, then the
// first case-insensitive substring match in index order.
func Match(ds []model.Descriptor, label string) (model.Descriptor, bool) {
	for _, d := range ds {
		if d.Label == label {
			return d, true
		}
	}
	q := strings.ToLower(strings.TrimSpace(label))
	if q == "" {
		return model.Descriptor{}, false
	}
	for _, d := range ds {
		if strings.Contains(strings.ToLower(d.Label), q) {
			return d, true
		}
	}
	return model.Descriptor{}, false
}

// FindElement returns the descriptor for label from the navigation index.
func (n *Navigator) FindElement(ctx context.Context, label string) (model.Descriptor, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.findLocked(ctx, label)
}

func (n *Navigator) findLocked(ctx context.Context, label string) (model.Descriptor, error) {
	if err := n.ensureIndexesLocked(ctx); err != nil {
		return model.Descriptor{}, err
	}
	d, ok := Match(n.nav.All(), label)
	if !ok {
		return model.Descriptor{}, n.lookupErr(model.ErrElementNotFound, label, nil)
	}
	return d, nil
}

// ClickElement finds label and clicks its click point. If a newer State
// Record has moved the target since the indexes were loaded, the Navigator
// re-syncs and returns ErrStaleTargetRef without clicking.
func (n *Navigator) ClickElement(ctx context.Context, label string) (model.Descriptor, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	d, err := n.findLocked(ctx, label)
	if err != nil {
		return model.Descriptor{}, err
	}
	return d, n.clickDescriptorLocked(ctx, d, label)
}

// clickDescriptorLocked clicks d unless it has no click point or the target
// has moved on since the indexes were loaded. query names d in errors.
func (n *Navigator) clickDescriptorLocked(ctx context.Context, d model.Descriptor, query string) error {
	if d.ClickPoint == nil {
		return n.lookupErr(model.ErrElementNotFound, query, errors.New("element has no click point"))
	}
	if n.checkStaleLocked() {
		stale := n.lookupErr(model.ErrStaleTargetRef, query, nil)
		if err := n.syncLocked(ctx); err != nil {
			n.logger.Warn("resync after stale target failed", zap.Error(err))
		}
		return stale
	}
	if err := n.clickLocked(ctx, *d.ClickPoint); err != nil {
		return err
	}
	n.logger.Info("clicked",
		zap.String("label", d.Label),
		zap.String("role", d.Role),
		zap.Float64("x", d.ClickPoint.X),
		zap.Float64("y", d.ClickPoint.Y))
	return n.afterActionLocked(ctx)
}

// ClickAt clicks a raw screen point in the application.
func (n *Navigator) ClickAt(ctx context.Context, p model.Point) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.clickLocked(ctx, p); err != nil {
		return err
	}
	return n.afterActionLocked(ctx)
}

func (n *Navigator) clickLocked(ctx context.Context, p model.Point) error {
	if _, err := n.focusLocked(ctx); err != nil {
		return err
	}
	if err := n.provider.Inputter.Click(ctx, p); err != nil {
		n.app = nil
		return err
	}
	return nil
}

// afterActionLocked waits for the UI to settle then re-syncs, so a target
// change caused by the action is adopted before the next operation.
func (n *Navigator) afterActionLocked(ctx context.Context) error {
	if err := pause(ctx, n.actionDelay); err != nil {
		return err
	}
	return n.syncLocked(ctx)
}
