package navcache

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/mj1618/navsync/internal/crawler"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/platform"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
)

// NavigateMenuPath walks the live menu bar along path, pressing each
// segment so that the next level becomes visible, and finally presses the
// last item. Segments are matched by exact title, then case-insensitively.
func (n *Navigator) NavigateMenuPath(ctx context.Context, path []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.navigateLocked(ctx, path)
}

func (n *Navigator) navigateLocked(ctx context.Context, path []string) error {
	query := strings.Join(path, " > ")
	if len(path) == 0 {
		return n.lookupErr(model.ErrMenuPathNotFound, query, fmt.Errorf("empty path"))
	}
	app, err := n.focusLocked(ctx)
	if err != nil {
		return err
	}
	bar, err := platform.Bounded(ctx, n.callTimeout, func(ctx context.Context) (platform.Element, error) {
		return n.provider.Reader.MenuBar(ctx, app)
	})
	if err != nil {
		return n.lookupErr(model.ErrMenuPathNotFound, query, err)
	}
	if bar == nil {
		return n.lookupErr(model.ErrMenuPathNotFound, query, fmt.Errorf("application has no menu bar"))
	}

	cur := bar
	pressed := make([]string, 0, len(path))
	for i, label := range path {
		next := menuItem(crawler.MenuChildren(cur), label)
		if next == nil {
			return n.lookupErr(model.ErrMenuPathNotFound, query,
				fmt.Errorf("segment %d %q not found", i+1, label))
		}
		if v, ok := next.Attribute(platform.AttrEnabled); ok {
			if enabled, _ := v.(bool); !enabled {
				return n.lookupErr(model.ErrMenuPathNotFound, query,
					fmt.Errorf("segment %d %q is disabled", i+1, label))
			}
		}
		pressed = append(pressed, platform.String(next, platform.AttrTitle))
		if err := n.provider.Inputter.PressPath(ctx, app, pressed); err != nil {
			return n.lookupErr(model.ErrMenuPathNotFound, query, err)
		}
		cur = next
	}
	n.logger.Info("menu pressed", zap.Strings("path", pressed))
	return n.afterActionLocked(ctx)
}

func menuItem(items []platform.Element, label string) platform.Element {
	for _, it := range items {
		if platform.String(it, platform.AttrTitle) == label {
			return it
		}
	}
	for _, it := range items {
		if strings.EqualFold(platform.String(it, platform.AttrTitle), label) {
			return it
		}
	}
	return nil
}

// FindMenuItem searches the menu index for query. Every query word must
// occur in the item's path; among candidates the one with the smallest edit
// distance to its leaf title wins, then the deepest path.
func (n *Navigator) FindMenuItem(ctx context.Context, query string) (model.Descriptor, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.findMenuLocked(ctx, query)
}

func (n *Navigator) findMenuLocked(ctx context.Context, query string) (model.Descriptor, error) {
	if err := n.ensureIndexesLocked(ctx); err != nil {
		return model.Descriptor{}, err
	}
	d, ok := SearchMenu(n.menu.Elements, query)
	if !ok {
		return model.Descriptor{}, n.lookupErr(model.ErrMenuPathNotFound, query, nil)
	}
	return d, nil
}

// ClickMenuItem finds query in the menu index and presses its path.
func (n *Navigator) ClickMenuItem(ctx context.Context, query string) (model.Descriptor, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	d, err := n.findMenuLocked(ctx, query)
	if err != nil {
		return d, err
	}
	return d, n.navigateLocked(ctx, d.MenuPath())
}

// SearchMenu ranks menu descriptors against a free-form query such as
// "export pdf" or "File > Save As".
func SearchMenu(items []model.Descriptor, query string) (model.Descriptor, bool) {
	words := tokens(query)
	if len(words) == 0 {
		return model.Descriptor{}, false
	}
	q := strings.Join(words, " ")
	dmp := diffmatchpatch.New()

	var (
		best      model.Descriptor
		bestScore = -1
		found     bool
	)
	for _, d := range items {
		path := d.MenuPath()
		hay := strings.Join(tokens(strings.Join(path, " ")), " ")
		if !containsAll(hay, words) {
			continue
		}
		leaf := strings.Join(tokens(d.Label), " ")
		score := dmp.DiffLevenshtein(dmp.DiffMain(q, leaf, false))
		if !found || score < bestScore ||
			(score == bestScore && len(path) > len(best.MenuPath())) {
			best, bestScore, found = d, score, true
		}
	}
	return best, found
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsAll(hay string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(hay, w) {
			return false
		}
	}
	return true
}
