// Package crawler walks a live UI element subtree and derives the ordered
// navigation and menu indexes served by the orchestrator.
package crawler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mj1618/navsync/internal/index"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/platform"
	"go.uber.org/zap"
)

// Crawler builds indexes. It holds no state between builds.
type Crawler struct {
	logger *zap.Logger
}

// New returns a Crawler. A nil logger disables logging.
func New(logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{logger: logger}
}

// BuildIndex crawls root into a navigation index (text fields, then
// actionable elements in tier order) and menuBar, when non-nil, into a menu
// index.
func (c *Crawler) BuildIndex(root, menuBar platform.Element, cfg Config) (nav, menu index.Index, err error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nav, menu, fmt.Errorf("invalid crawl config: %w", err)
	}
	if root == nil {
		return nav, menu, fmt.Errorf("crawl: nil root")
	}
	w, err := newWalk(cfg)
	if err != nil {
		return nav, menu, err
	}

	w.visit(root, nil, 0, 0)
	SortByTier(w.out)
	nav.Elements = w.out
	nav.Fields = collectFields(root, cfg)

	if menuBar != nil {
		menu.Elements = walkMenuBar(menuBar, cfg.MenuMaxDepth)
	}

	c.logger.Debug("index built",
		zap.Int("elements", len(nav.Elements)),
		zap.Int("fields", len(nav.Fields)),
		zap.Int("menu_items", len(menu.Elements)),
		zap.Bool("truncated", w.full()))
	return nav, menu, nil
}

// SortByTier orders descriptors by ascending tier, then vertical, then
// horizontal click position. Descriptors without a click point sort last
// within their tier. The sort is stable.
func SortByTier(ds []model.Descriptor) {
	sort.SliceStable(ds, func(i, j int) bool {
		ti, tj := ds[i].Tier(), ds[j].Tier()
		if ti != tj {
			return ti < tj
		}
		pi, pj := ds[i].Position(), ds[j].Position()
		if pi.Y != pj.Y {
			return pi.Y < pj.Y
		}
		return pi.X < pj.X
	})
}

// node is the per-role visit behavior, selected by walk.kindOf.
type node interface {
	visit(w *walk, el platform.Element, role string, path []model.PathSegment, index, depth int)
}

type (
	skipNode       struct{}
	structuralNode struct{}
	actionableNode struct{ composite bool }
	rowNode        struct{}
	otherNode      struct{}
)

type rowRule struct {
	field string
	match func(string) bool
}

// walk is the state of one actionable-element traversal.
type walk struct {
	cfg   Config
	kinds map[string]node
	rules []rowRule
	out   []model.Descriptor
	seen  map[string]bool

	skipIdentifiers  []string
	skipDescriptions []string
}

func newWalk(cfg Config) (*walk, error) {
	w := &walk{
		cfg:   cfg,
		kinds: make(map[string]node),
		seen:  make(map[string]bool),
	}
	composite := toSet(cfg.CompositeRoles)
	for _, r := range cfg.ActionableRoles {
		w.kinds[r] = actionableNode{composite: composite[r]}
	}
	for _, r := range cfg.StructuralRoles {
		w.kinds[r] = structuralNode{}
	}
	for _, r := range cfg.RowRoles {
		w.kinds[r] = rowNode{}
	}
	for _, r := range cfg.SkipRoles {
		w.kinds[r] = skipNode{}
	}
	for _, fr := range cfg.RowFields {
		match, err := fr.Predicate()
		if err != nil {
			return nil, err
		}
		w.rules = append(w.rules, rowRule{field: fr.Field, match: match})
	}
	w.skipIdentifiers = lowerAll(cfg.SkipIdentifiers)
	w.skipDescriptions = lowerAll(cfg.SkipDescriptions)
	return w, nil
}

func (w *walk) kindOf(role string) node {
	if k, ok := w.kinds[role]; ok {
		return k
	}
	return otherNode{}
}

func (w *walk) full() bool { return len(w.out) >= w.cfg.MaxResults }

func (w *walk) visit(el platform.Element, path []model.PathSegment, index, depth int) {
	if depth > w.cfg.MaxDepth || w.full() {
		return
	}
	role := platform.Role(el)
	k := w.kindOf(role)
	if _, structural := k.(structuralNode); !structural && w.excluded(el) {
		return
	}
	k.visit(w, el, role, path, index, depth)
}

// children visits el's children with el appended to the ancestor path.
func (w *walk) children(el platform.Element, role string, path []model.PathSegment, index, depth int) {
	if depth >= w.cfg.MaxDepth {
		return
	}
	childPath := appendPath(path, model.PathSegment{Role: role, Index: index})
	for i, child := range el.Children() {
		if w.full() {
			return
		}
		w.visit(child, childPath, i, depth+1)
	}
}

// excluded applies the identifier/description exclusions. The attributes
// are only fetched when exclusions are configured.
func (w *walk) excluded(el platform.Element) bool {
	if len(w.skipIdentifiers) > 0 && containsAny(platform.String(el, platform.AttrIdentifier), w.skipIdentifiers) {
		return true
	}
	if len(w.skipDescriptions) > 0 && containsAny(platform.String(el, platform.AttrDescription), w.skipDescriptions) {
		return true
	}
	return false
}

// emit appends d unless an equal label was already emitted at the same
// path. own further qualifies the key; rows pass their sibling index so that
// same-subject rows of one table are all kept.
func (w *walk) emit(d model.Descriptor, own string) {
	key := d.Label + "\x00" + pathKey(d.AncestorPath) + own
	if w.seen[key] {
		return
	}
	w.seen[key] = true
	w.out = append(w.out, d)
}

func (skipNode) visit(*walk, platform.Element, string, []model.PathSegment, int, int) {}

// Structural containers are never emitted and only their children are read.
func (structuralNode) visit(w *walk, el platform.Element, role string, path []model.PathSegment, index, depth int) {
	w.children(el, role, path, index, depth)
}

func (otherNode) visit(w *walk, el platform.Element, role string, path []model.PathSegment, index, depth int) {
	w.children(el, role, path, index, depth)
}

func (n actionableNode) visit(w *walk, el platform.Element, role string, path []model.PathSegment, _, _ int) {
	label := firstNonEmpty(
		platform.String(el, platform.AttrTitle),
		platform.String(el, platform.AttrDescription),
		platform.String(el, platform.AttrHelp),
	)
	var control string
	if role == model.RoleButton {
		control = model.WindowControlOf(platform.String(el, platform.AttrSubrole))
		if label == "" && control != "" {
			label = control + " button"
		}
	}
	if label == "" || strings.EqualFold(label, "unknown") {
		return
	}
	d := model.Descriptor{
		Role:         role,
		Label:        label,
		ClickPoint:   clickPoint(el),
		AncestorPath: clonePath(path),
	}
	if control != "" {
		d.Fields = map[string]string{model.FieldControl: control}
	}
	if n.composite {
		d.Details = details(el, 2)
	}
	w.emit(d, "")
}

func (rowNode) visit(w *walk, el platform.Element, role string, path []model.PathSegment, index, _ int) {
	cells := el.Children()
	var values []string
	var dets []model.Detail
	for _, cell := range cells {
		for _, det := range details(cell, 2) {
			v := strings.TrimSpace(firstNonEmpty(det.Value, det.Label))
			if v == "" {
				continue
			}
			values = append(values, v)
			dets = append(dets, det)
		}
	}

	fields := map[string]string{}
	fallback := ""
	for _, v := range values {
		matched := false
		for _, r := range w.rules {
			if fields[r.field] == "" && r.match(v) {
				fields[r.field] = v
				matched = true
				break
			}
		}
		if !matched && fallback == "" {
			fallback = v
		}
	}
	if fallback != "" {
		fields[model.FieldTitle] = fallback
	}

	first := ""
	if len(values) > 0 {
		first = values[0]
	}
	label := firstNonEmpty(
		platform.String(el, platform.AttrTitle),
		platform.String(el, platform.AttrDescription),
		fields[model.FieldName],
		fallback,
		first,
		"unknown",
	)

	// Rows are clicked through their first cell, like a user would.
	point := (*model.Point)(nil)
	if len(cells) > 0 {
		point = clickPoint(cells[0])
	}
	if point == nil {
		point = clickPoint(el)
	}

	d := model.Descriptor{
		Role:         role,
		Label:        label,
		ClickPoint:   point,
		AncestorPath: clonePath(path),
		Details:      dets,
	}
	if len(fields) > 0 {
		d.Fields = fields
	}
	w.emit(d, fmt.Sprintf("%s#%d", role, index))
}

// details collects the text-bearing descendants of el up to depth levels.
func details(el platform.Element, depth int) []model.Detail {
	var out []model.Detail
	var rec func(e platform.Element, d int)
	rec = func(e platform.Element, d int) {
		role := platform.Role(e)
		label := firstNonEmpty(platform.String(e, platform.AttrTitle), platform.String(e, platform.AttrDescription))
		value := platform.String(e, platform.AttrValue)
		if label != "" || value != "" {
			out = append(out, model.Detail{Role: role, Label: label, Value: value})
		}
		if d >= depth {
			return
		}
		for _, c := range e.Children() {
			rec(c, d+1)
		}
	}
	for _, c := range el.Children() {
		rec(c, 1)
	}
	if len(out) == 0 {
		// A leaf cell carries its own text.
		label := platform.String(el, platform.AttrTitle)
		value := platform.String(el, platform.AttrValue)
		if label != "" || value != "" {
			out = append(out, model.Detail{Role: platform.Role(el), Label: label, Value: value})
		}
	}
	return out
}

func clickPoint(el platform.Element) *model.Point {
	r, ok := platform.Frame(el)
	if !ok || r.Empty() {
		return nil
	}
	c := r.Center()
	return &c
}

func appendPath(path []model.PathSegment, seg model.PathSegment) []model.PathSegment {
	out := make([]model.PathSegment, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}

func clonePath(path []model.PathSegment) []model.PathSegment {
	if len(path) == 0 {
		return nil
	}
	return append([]model.PathSegment(nil), path...)
}

func pathKey(path []model.PathSegment) string {
	var b strings.Builder
	for _, s := range path {
		fmt.Fprintf(&b, "%s#%d/", s.Role, s.Index)
	}
	return b.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func toSet(vals []string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

func lowerAll(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
