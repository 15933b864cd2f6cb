// Package memory is an in-process UI backend driven by a scripted Fixture.
// It backs offline dry runs (--fixture) and the engine's tests, and records
// every click, press and attribute fetch for inspection.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/platform"
)

// Backend implements platform.Reader, platform.Inputter and
// platform.WindowManager over a Fixture.
type Backend struct {
	mu      sync.Mutex
	fixture *Fixture
	pointer model.Point
	opened  map[*Node]bool
	fetches map[*Node][]string

	clicks  []model.Point
	presses [][]string
	pressed []string
	focused []string

	// WindowsDelay stalls every Windows call, ignoring the context, to
	// simulate a hung accessibility query.
	WindowsDelay time.Duration

	// WindowsErr, when set, is returned by every Windows call.
	WindowsErr error

	// PointerDelay stalls every PointerLocation call, ignoring the context.
	PointerDelay time.Duration

	// OnClick runs after a click is recorded, without the lock held, so
	// tests can mutate the scene the way a real application would.
	OnClick func(b *Backend, p model.Point)
}

var (
	_ platform.Reader        = (*Backend)(nil)
	_ platform.Inputter      = (*Backend)(nil)
	_ platform.WindowManager = (*Backend)(nil)
)

// New returns a Backend serving f.
func New(f *Fixture) *Backend {
	if f == nil {
		f = &Fixture{}
	}
	return &Backend{
		fixture: f,
		opened:  make(map[*Node]bool),
		fetches: make(map[*Node][]string),
	}
}

// Provider bundles b as a platform.Provider.
func (b *Backend) Provider() *platform.Provider {
	return &platform.Provider{Reader: b, Inputter: b, WindowManager: b}
}

// Register makes platform.NewProvider return a Backend for the fixture at path.
func Register(path string) {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		f, err := LoadFixture(path)
		if err != nil {
			return nil, err
		}
		return New(f).Provider(), nil
	}
}

func (b *Backend) app(bundleID string) *AppFixture {
	for _, a := range b.fixture.Apps {
		if a.BundleID == bundleID {
			return a
		}
	}
	return nil
}

// SetWindows replaces the windows of bundleID.
func (b *Backend) SetWindows(bundleID string, windows ...*Node) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a := b.app(bundleID); a != nil {
		a.Windows = windows
	}
}

// SetRunning flips the running state of bundleID.
func (b *Backend) SetRunning(bundleID string, running bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a := b.app(bundleID); a != nil {
		a.Running = &running
	}
}

// SetPointer moves the simulated pointer.
func (b *Backend) SetPointer(p model.Point) {
	b.mu.Lock()
	b.pointer = p
	b.mu.Unlock()
}

// Clicks returns the recorded click points.
func (b *Backend) Clicks() []model.Point {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Point(nil), b.clicks...)
}

// Presses returns the recorded PressPath label lists.
func (b *Backend) Presses() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.presses...)
}

// Focused returns the bundle ids passed to Focus, in order.
func (b *Backend) Focused() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.focused...)
}

// Fetches returns the non-role attribute names fetched from n.
func (b *Backend) Fetches(n *Node) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.fetches[n]...)
}

func (b *Backend) Windows(_ context.Context, app platform.App) ([]platform.Element, error) {
	if b.WindowsDelay > 0 {
		time.Sleep(b.WindowsDelay)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.WindowsErr != nil {
		return nil, b.WindowsErr
	}
	a := b.app(app.BundleID)
	if a == nil {
		return nil, fmt.Errorf("memory: unknown app %s: %w", app.BundleID, model.ErrBackendUnavailable)
	}
	out := make([]platform.Element, 0, len(a.Windows))
	for _, w := range a.Windows {
		out = append(out, &element{b: b, n: w})
	}
	return out, nil
}

func (b *Backend) MenuBar(_ context.Context, app platform.App) (platform.Element, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.app(app.BundleID)
	if a == nil {
		return nil, fmt.Errorf("memory: unknown app %s: %w", app.BundleID, model.ErrBackendUnavailable)
	}
	if a.MenuBar == nil {
		return nil, nil
	}
	return &element{b: b, n: a.MenuBar}, nil
}

func (b *Backend) Click(_ context.Context, p model.Point) error {
	b.mu.Lock()
	b.clicks = append(b.clicks, p)
	hook := b.OnClick
	b.mu.Unlock()
	if hook != nil {
		hook(b, p)
	}
	return nil
}

// PressPath presses the node at the end of labels, starting from the menu
// bar. Intermediate nodes must already be visible. A level holding a single
// AXMenu is descended through transparently.
func (b *Backend) PressPath(_ context.Context, app platform.App, labels []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presses = append(b.presses, append([]string(nil), labels...))
	a := b.app(app.BundleID)
	if a == nil || a.MenuBar == nil {
		return fmt.Errorf("memory: no menu bar for %s", app.BundleID)
	}
	if len(labels) == 0 {
		return fmt.Errorf("memory: empty menu path")
	}
	cur := a.MenuBar
	for _, label := range labels {
		next := findChild(b.visibleChildren(cur), label)
		if next == nil {
			return fmt.Errorf("memory: menu item %q not found", label)
		}
		if next.Disabled {
			return fmt.Errorf("memory: menu item %q is disabled", label)
		}
		cur = next
	}
	b.opened[cur] = true
	b.pressed = append(b.pressed, cur.Title)
	return nil
}

// Pressed returns the title of every menu item actually pressed, in order.
func (b *Backend) Pressed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.pressed...)
}

func findChild(children []*Node, title string) *Node {
	if len(children) == 1 && children[0].Role == model.RoleMenu {
		children = children[0].Children
	}
	for _, c := range children {
		if c.Title == title {
			return c
		}
	}
	return nil
}

func (b *Backend) visibleChildren(n *Node) []*Node {
	if n.Collapsed && !b.opened[n] {
		return nil
	}
	return n.Children
}

func (b *Backend) PointerLocation(context.Context) (model.Point, error) {
	if b.PointerDelay > 0 {
		time.Sleep(b.PointerDelay)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pointer, nil
}

func (b *Backend) Focus(_ context.Context, bundleID string) (platform.App, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.focused = append(b.focused, bundleID)
	a := b.app(bundleID)
	if a == nil || a.Unfocusable || (a.Running != nil && !*a.Running) {
		return platform.App{}, fmt.Errorf("memory: focus %s: %w", bundleID, model.ErrApplicationNotFocusable)
	}
	return platform.App{BundleID: a.BundleID, Name: a.Name, PID: a.PID}, nil
}

func (b *Backend) Resolve(_ context.Context, nameOrID string) (string, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.fixture.Apps {
		if a.BundleID == nameOrID || strings.EqualFold(a.Name, nameOrID) {
			return a.BundleID, a.Name, nil
		}
	}
	return "", "", fmt.Errorf("memory: no application matches %q", nameOrID)
}

func (b *Backend) Running(_ context.Context, bundleID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.app(bundleID)
	if a == nil {
		return false, nil
	}
	return a.Running == nil || *a.Running, nil
}

func (b *Backend) ScreenSize(context.Context) (float64, float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fixture.Screen.X == 0 || b.fixture.Screen.Y == 0 {
		return 1440, 900, nil
	}
	return b.fixture.Screen.X, b.fixture.Screen.Y, nil
}

// element adapts a Node to platform.Element.
type element struct {
	b *Backend
	n *Node
}

func (e *element) Attribute(name string) (any, bool) {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()
	if name != platform.AttrRole {
		e.b.fetches[e.n] = append(e.b.fetches[e.n], name)
	}
	n := e.n
	str := func(s string) (any, bool) { return s, s != "" }
	switch name {
	case platform.AttrRole:
		return str(n.Role)
	case platform.AttrSubrole:
		return str(n.Subrole)
	case platform.AttrTitle:
		return str(n.Title)
	case platform.AttrIdentifier:
		return str(n.Identifier)
	case platform.AttrDescription:
		return str(n.Description)
	case platform.AttrHelp:
		return str(n.Help)
	case platform.AttrPlaceholder:
		return str(n.Placeholder)
	case platform.AttrValue:
		return str(n.Value)
	case platform.AttrShortcut:
		return str(n.Shortcut)
	case platform.AttrPosition:
		if n.Frame == nil {
			return nil, false
		}
		return model.Point{X: n.Frame.X, Y: n.Frame.Y}, true
	case platform.AttrSize:
		if n.Frame == nil {
			return nil, false
		}
		return model.Point{X: n.Frame.Width, Y: n.Frame.Height}, true
	case platform.AttrFocused:
		return n.Focused, true
	case platform.AttrMain:
		return n.Main, true
	case platform.AttrModal:
		return n.Modal, true
	case platform.AttrEnabled:
		return !n.Disabled, true
	}
	return nil, false
}

func (e *element) Children() []platform.Element {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()
	kids := e.b.visibleChildren(e.n)
	out := make([]platform.Element, 0, len(kids))
	for _, c := range kids {
		out = append(out, &element{b: e.b, n: c})
	}
	return out
}

// NodeOf returns the fixture node behind a platform.Element produced by this
// backend, or nil.
func NodeOf(el platform.Element) *Node {
	if e, ok := el.(*element); ok {
		return e.n
	}
	return nil
}
