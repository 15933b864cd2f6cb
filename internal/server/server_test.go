package server

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/navsync/internal/index"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/navcache"
	"github.com/mj1618/navsync/internal/navconfig"
	"github.com/mj1618/navsync/internal/platform/memory"
	"github.com/mj1618/navsync/internal/state"
	"github.com/mj1618/navsync/internal/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
)

const notes = "com.apple.notes"

type testEnv struct {
	backend *memory.Backend
	store   *state.Store
	indexes *index.Store
	server  *Server
}

func newTestEnv(t *testing.T, ttl time.Duration) *testEnv {
	t.Helper()
	return newTestEnvWith(t, ttl, nil)
}

// newTestEnvWith serves the Notes fixture under table, plus any extra
// window children.
func newTestEnvWith(t *testing.T, ttl time.Duration, table *navconfig.Table, extra ...*memory.Node) *testEnv {
	t.Helper()
	backend := memory.New(&memory.Fixture{Apps: []*memory.AppFixture{{
		BundleID: notes, Name: "Notes",
		Windows: []*memory.Node{{
			Role: model.RoleWindow, Title: "Notes", Main: true,
			Children: append([]*memory.Node{
				{Role: model.RoleButton, Title: "New Note", Frame: &model.Rect{X: 0, Y: 0, Width: 10, Height: 10}},
			}, extra...),
		}},
		MenuBar: &memory.Node{Role: model.RoleMenuBar, Children: []*memory.Node{
			{Role: model.RoleMenuItem, Title: "Apple"},
			{Role: model.RoleMenuItem, Title: "Format", Children: []*memory.Node{{Role: model.RoleMenu, Children: []*memory.Node{
				{Role: model.RoleMenuItem, Title: "Checklist"},
			}}}},
		}},
	}}})
	dir := t.TempDir()
	store, err := state.New(dir)
	require.NoError(t, err)
	indexes, err := index.NewStore(dir)
	require.NoError(t, err)

	at := target.DefaultRefs().Resolve(target.Election{Type: model.TargetWindow, Title: "Notes"}, notes, time.Now())
	_, err = store.Publish(notes, model.StateRecord{ActiveTarget: at})
	require.NoError(t, err)
	_, err = store.SetActiveBundle(notes, "test")
	require.NoError(t, err)

	srv, err := New(Config{NavigatorTTL: ttl}, Deps{
		Provider: backend.Provider(),
		Store:    store,
		Indexes:  indexes,
		Table:    table,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return &testEnv{backend: backend, store: store, indexes: indexes, server: srv}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return tc.Text
}

func TestHandleFind(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	res, err := env.server.handleFind(context.Background(), call(map[string]any{"label": "new"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out struct {
		OK        bool   `yaml:"ok"`
		TargetRef string `yaml:"target_ref"`
		Element   struct {
			Label string `yaml:"label"`
		} `yaml:"element"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(resultText(t, res)), &out))
	assert.True(t, out.OK)
	assert.Equal(t, "Notes", out.TargetRef)
	assert.Equal(t, "New Note", out.Element.Label)
}

func TestHandleFind_NotFoundIsToolError(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	res, err := env.server.handleFind(context.Background(), call(map[string]any{"app": "Notes", "label": "Delete"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "element not found")
	assert.Contains(t, resultText(t, res), "target_ref=Notes")
}

func TestHandleClick(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	res, err := env.server.handleClick(ctx, call(map[string]any{"label": "New Note"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	res, err = env.server.handleClick(ctx, call(map[string]any{"x": 3.0, "y": 4.0}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Equal(t, []model.Point{{X: 5, Y: 5}, {X: 3, Y: 4}}, env.backend.Clicks())

	res, err = env.server.handleClick(ctx, call(map[string]any{"x": 3.0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleMenuAndSearch(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	res, err := env.server.handleMenu(ctx, call(map[string]any{"path": "Format > Checklist"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Equal(t, [][]string{{"Format"}, {"Format", "Checklist"}}, env.backend.Presses())

	res, err = env.server.handleMenuSearch(ctx, call(map[string]any{"query": "checklist"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), "- Format\n")
	assert.Len(t, env.backend.Presses(), 2, "search alone presses nothing")
}

func TestHandleTargetAndRefresh(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	res, err := env.server.handleTarget(ctx, call(map[string]any{}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "active_bundle_id: com.apple.notes")

	_, err = env.server.handleFind(ctx, call(map[string]any{"label": "New Note"}))
	require.NoError(t, err)
	require.Equal(t, 1, env.server.pool.Len())

	res, err = env.server.handleRefresh(ctx, call(map[string]any{"reason": "stale"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Zero(t, env.server.pool.Len())

	g, err := env.store.ReadGlobal()
	require.NoError(t, err)
	assert.True(t, g.Refresh)
	assert.Equal(t, "stale", g.RefreshReason)
}

func TestHandleBuild(t *testing.T) {
	env := newTestEnv(t, 0)
	res, err := env.server.handleBuild(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out struct {
		Elements  int `yaml:"elements"`
		MenuItems int `yaml:"menu_items"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, 1, out.Elements)
	assert.Equal(t, 2, out.MenuItems)
}

func TestHandleAssociation_Undeclared(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	res, err := env.server.handleAssociation(context.Background(), call(map[string]any{"name": "picker"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleAssociation_FindAndClick(t *testing.T) {
	table := navconfig.Default()
	table.Rules = []navconfig.Rule{{
		BundleID: notes, TargetRef: navconfig.Wildcard,
		Associations: []navconfig.Association{{Name: "picker"}},
	}}
	env := newTestEnvWith(t, time.Minute, table)
	name := model.IndexName(model.IndexAssociation, notes, "Notes", "picker")
	require.NoError(t, env.indexes.Save(name, index.Index{Elements: []model.Descriptor{
		{Role: model.RoleRow, Label: "Groceries", ClickPoint: &model.Point{X: 40, Y: 300}},
	}}))
	ctx := context.Background()

	res, err := env.server.handleAssociation(ctx, call(map[string]any{"name": "picker", "label": "grocer"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), "action: association_find")
	assert.Empty(t, env.backend.Clicks())

	res, err = env.server.handleAssociation(ctx, call(map[string]any{"name": "picker", "label": "Groceries", "click": true}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Equal(t, []model.Point{{X: 40, Y: 300}}, env.backend.Clicks())

	res, err = env.server.handleAssociation(ctx, call(map[string]any{"name": "picker", "label": "Recipes", "click": true}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "element not found")
}

func TestHandleRowAndWindow(t *testing.T) {
	row := func(title string, y float64) *memory.Node {
		return &memory.Node{Role: model.RoleRow, Children: []*memory.Node{
			{Role: model.RoleCell, Value: title, Frame: &model.Rect{X: 0, Y: y, Width: 100, Height: 20}},
		}}
	}
	env := newTestEnvWith(t, time.Minute, nil,
		&memory.Node{Role: model.RoleButton, Subrole: model.SubroleMinimizeButton, Frame: &model.Rect{X: 20, Y: 0, Width: 4, Height: 4}},
		&memory.Node{Role: model.RoleTable, Children: []*memory.Node{row("Shopping", 100), row("Shopping", 120)}},
	)
	ctx := context.Background()

	res, err := env.server.handleRow(ctx, call(map[string]any{"index": 2.0}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Equal(t, []model.Point{{X: 50, Y: 130}}, env.backend.Clicks())

	res, err = env.server.handleRow(ctx, call(map[string]any{"index": 3.0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = env.server.handleWindow(ctx, call(map[string]any{}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	var out struct {
		Controls []struct {
			Label string `yaml:"label"`
		} `yaml:"controls"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(resultText(t, res)), &out))
	require.Len(t, out.Controls, 1)
	assert.Equal(t, "minimize button", out.Controls[0].Label)

	res, err = env.server.handleWindow(ctx, call(map[string]any{"action": "minimize"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Equal(t, model.Point{X: 22, Y: 2}, env.backend.Clicks()[1])

	res, err = env.server.handleWindow(ctx, call(map[string]any{"action": "close"}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "this window has no close button")

	res, err = env.server.handleWindow(ctx, call(map[string]any{"action": "fullscreen"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestPool_ReusesWithinTTL(t *testing.T) {
	env := newTestEnv(t, 0)
	var opened int
	p := newNavigatorPool(time.Minute, func(ctx context.Context, bundleID string) (*navcache.Navigator, error) {
		opened++
		return env.server.deps.Open(ctx, bundleID)
	})
	now := time.Now()
	p.now = func() time.Time { return now }

	_, err := p.Get(context.Background(), notes)
	require.NoError(t, err)
	_, err = p.Get(context.Background(), notes)
	require.NoError(t, err)
	assert.Equal(t, 1, opened)

	now = now.Add(2 * time.Minute)
	_, err = p.Get(context.Background(), notes)
	require.NoError(t, err)
	assert.Equal(t, 2, opened)

	p.Invalidate(notes)
	assert.Zero(t, p.Len())
}

func TestSplitMenuPath(t *testing.T) {
	assert.Equal(t, []string{"File", "Export", "PDF"}, SplitMenuPath(" File > Export>PDF "))
	assert.Empty(t, SplitMenuPath(" > "))
}
