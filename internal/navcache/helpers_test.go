package navcache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mj1618/navsync/internal/crawler"
	"github.com/mj1618/navsync/internal/index"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/navconfig"
	"github.com/mj1618/navsync/internal/platform"
	"github.com/mj1618/navsync/internal/platform/memory"
	"github.com/mj1618/navsync/internal/state"
	"github.com/mj1618/navsync/internal/target"
	"github.com/stretchr/testify/require"
)

const mailBundle = "com.apple.mail"

var platformApp = platform.App{BundleID: mailBundle, Name: "Mail", PID: 42}

func frame(x, y, w, h float64) *model.Rect {
	return &model.Rect{X: x, Y: y, Width: w, Height: h}
}

func button(title string, f *model.Rect) *memory.Node {
	return &memory.Node{Role: model.RoleButton, Title: title, Frame: f}
}

func menuNode(title string, kids ...*memory.Node) *memory.Node {
	n := &memory.Node{Role: model.RoleMenuItem, Title: title}
	if len(kids) > 0 {
		n.Children = []*memory.Node{{Role: model.RoleMenu, Children: kids}}
	}
	return n
}

func mailWindow(title string) *memory.Node {
	return &memory.Node{
		Role: model.RoleWindow, Title: title, Main: true, Focused: true,
		Frame: frame(0, 0, 800, 600),
		Children: []*memory.Node{
			button("Save", frame(10, 10, 40, 20)),
			button("Save As", frame(60, 10, 40, 20)),
			button("Archive", frame(110, 10, 40, 20)),
		},
	}
}

func mailMenuBar() *memory.Node {
	return &memory.Node{Role: model.RoleMenuBar, Children: []*memory.Node{
		menuNode("Apple", menuNode("About This Mac")),
		menuNode("File",
			menuNode("Save"),
			menuNode("Save As…"),
			menuNode("Export", menuNode("Export as PDF…"), menuNode("Export as Text")),
		),
		menuNode("Mailbox", menuNode("Get All New Mail")),
	}}
}

// countingBuilder wraps the crawler and counts BuildIndex calls.
type countingBuilder struct {
	inner *crawler.Crawler
	calls atomic.Int32
	delay time.Duration
}

func (c *countingBuilder) BuildIndex(root, bar platform.Element, cfg crawler.Config) (index.Index, index.Index, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.inner.BuildIndex(root, bar, cfg)
}

type harness struct {
	app     *memory.AppFixture
	backend *memory.Backend
	store   *state.Store
	indexes *index.Store
	table   *navconfig.Table
	builder *countingBuilder
	builds  *BuildGroup
	now     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	st, err := state.New(dir)
	require.NoError(t, err)
	ix, err := index.NewStore(dir)
	require.NoError(t, err)
	h := &harness{
		app: &memory.AppFixture{
			BundleID: mailBundle, Name: "Mail", PID: 42,
			Windows: []*memory.Node{mailWindow("Inbox")},
			MenuBar: mailMenuBar(),
		},
		store:   st,
		indexes: ix,
		table:   navconfig.Default(),
		builder: &countingBuilder{inner: crawler.New(nil)},
		builds:  NewBuildGroup(),
		now:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	h.backend = memory.New(&memory.Fixture{Apps: []*memory.AppFixture{h.app}})
	return h
}

func (h *harness) publish(t *testing.T, title string) model.StateRecord {
	t.Helper()
	at := h.table.Refs.Resolve(target.Election{Type: model.TargetWindow, Title: title}, mailBundle, h.now)
	rec, err := h.store.Publish(mailBundle, model.StateRecord{ActiveTarget: at, AppName: "Mail"})
	require.NoError(t, err)
	return rec
}

func (h *harness) options() Options {
	return Options{
		Provider: h.backend.Provider(),
		Store:    h.store,
		Indexes:  h.indexes,
		Config:   h.table,
		Builder:  h.builder,
		Builds:   h.builds,
		Clock:    func() time.Time { return h.now },
	}
}

func (h *harness) navigator(t *testing.T) *Navigator {
	t.Helper()
	n, err := New(context.Background(), mailBundle, h.options())
	require.NoError(t, err)
	return n
}
