package navcache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/navsync/internal/index"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/navconfig"
	"github.com/mj1618/navsync/internal/platform/memory"
	"github.com/mj1618/navsync/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NoStateRecord(t *testing.T) {
	h := newHarness(t)
	_, err := New(context.Background(), mailBundle, h.options())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNoActiveTarget)

	var le *model.LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, mailBundle, le.BundleID)
}

func TestNew_UnfocusableRequestsRefresh(t *testing.T) {
	h := newHarness(t)
	h.publish(t, "Inbox")
	_, err := New(context.Background(), "com.example.missing", h.options())
	assert.ErrorIs(t, err, model.ErrApplicationNotFocusable)

	g, err := h.store.ReadGlobal()
	require.NoError(t, err)
	assert.True(t, g.Refresh)
	assert.Equal(t, "focus_failed", g.RefreshReason)
}

func TestNew_PreHeldHandleSkipsFocus(t *testing.T) {
	h := newHarness(t)
	h.publish(t, "Inbox")
	opts := h.options()
	opts.App = &platformApp
	_, err := New(context.Background(), mailBundle, opts)
	require.NoError(t, err)
	assert.Empty(t, h.backend.Focused())
}

func TestNew_BuildsOnceThenLoadsFromDisk(t *testing.T) {
	h := newHarness(t)
	h.publish(t, "Inbox")

	n := h.navigator(t)
	assert.EqualValues(t, 1, h.builder.calls.Load())
	assert.True(t, h.indexes.Exists(model.IndexName(model.IndexNavigation, mailBundle, "Inbox")))
	assert.True(t, h.indexes.Exists(model.IndexName(model.IndexMenu, mailBundle, "Inbox")))

	d, err := n.FindElement(context.Background(), "Archive")
	require.NoError(t, err)
	assert.Equal(t, "Archive", d.Label)

	h.navigator(t)
	require.NoError(t, n.Refresh(context.Background()))
	assert.EqualValues(t, 1, h.builder.calls.Load(), "on-disk indexes are reused")
}

func TestVolatileTargetRebuildsOnEveryLoad(t *testing.T) {
	h := newHarness(t)
	h.table.Rules = []navconfig.Rule{{BundleID: mailBundle, TargetRef: "Inbox", Volatile: true}}
	h.publish(t, "Inbox")

	n := h.navigator(t)
	require.NoError(t, n.Refresh(context.Background()))
	assert.EqualValues(t, 2, h.builder.calls.Load())
}

func TestFindElement_ExactBeforeSubstring(t *testing.T) {
	h := newHarness(t)
	h.publish(t, "Inbox")
	n := h.navigator(t)
	ctx := context.Background()

	d, err := n.FindElement(ctx, "Save")
	require.NoError(t, err)
	assert.Equal(t, "Save", d.Label)

	d, err = n.FindElement(ctx, "save as")
	require.NoError(t, err)
	assert.Equal(t, "Save As", d.Label)

	d, err = n.FindElement(ctx, "sav")
	require.NoError(t, err)
	assert.Equal(t, "Save", d.Label, "first substring match in index order")

	_, err = n.FindElement(ctx, "Delete")
	assert.ErrorIs(t, err, model.ErrElementNotFound)
	var le *model.LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "Inbox", le.TargetRef)
	assert.Equal(t, "Delete", le.Query)
}

func TestMatch(t *testing.T) {
	ds := []model.Descriptor{{Label: "Save As"}, {Label: "Save"}, {Label: "Archive"}}
	tests := []struct {
		name  string
		query string
		want  string
		ok    bool
	}{
		{"exact wins over earlier substring", "Save", "Save", true},
		{"case-insensitive substring", "ARCH", "Archive", true},
		{"blank query", "  ", "", false},
		{"missing", "Delete", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := Match(ds, tt.query)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, d.Label)
		})
	}
}

func TestClickElement_ClicksCenterAndResyncs(t *testing.T) {
	h := newHarness(t)
	h.publish(t, "Inbox")
	n := h.navigator(t)

	// The click opens a compose window, which the classifier publishes.
	h.backend.OnClick = func(b *memory.Backend, _ model.Point) {
		h.publish(t, "New Message")
	}

	d, err := n.ClickElement(context.Background(), "Archive")
	require.NoError(t, err)
	assert.Equal(t, []model.Point{{X: 130, Y: 20}}, h.backend.Clicks())
	assert.Equal(t, "Archive", d.Label)
	assert.Equal(t, "New_Message", n.Target().TargetRef)
	assert.EqualValues(t, 1, h.builder.calls.Load(), "navigation index reloads lazily")
}

func TestClickElement_StaleTarget(t *testing.T) {
	h := newHarness(t)
	h.publish(t, "Inbox")
	n := h.navigator(t)
	h.publish(t, "Drafts")

	_, err := n.ClickElement(context.Background(), "Archive")
	assert.ErrorIs(t, err, model.ErrStaleTargetRef)
	assert.Empty(t, h.backend.Clicks())
	assert.Equal(t, "Drafts", n.Target().TargetRef)
}

func TestSync_IgnoresOlderRecord(t *testing.T) {
	h := newHarness(t)
	h.publish(t, "Inbox")
	h.publish(t, "Inbox")
	n := h.navigator(t)
	require.EqualValues(t, 2, n.Record().Version)

	older := model.StateRecord{
		ActiveTarget: model.ActiveTarget{Type: model.TargetWindow, TargetRef: "Drafts"},
		BundleID:     mailBundle,
		Version:      1,
	}
	data, err := json.Marshal(older)
	require.NoError(t, err)
	require.NoError(t, state.AtomicWrite(h.store.RecordPath(mailBundle), data, 0o644))

	require.NoError(t, n.Refresh(context.Background()))
	assert.Equal(t, "Inbox", n.Target().TargetRef)
}

func TestClickAt(t *testing.T) {
	h := newHarness(t)
	h.publish(t, "Inbox")
	n := h.navigator(t)

	require.NoError(t, n.ClickAt(context.Background(), model.Point{X: 5, Y: 6}))
	assert.Equal(t, []model.Point{{X: 5, Y: 6}}, h.backend.Clicks())
}

func TestRebuild(t *testing.T) {
	h := newHarness(t)
	h.publish(t, "Inbox")
	n := h.navigator(t)

	before, after, err := n.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.EqualValues(t, 2, h.builder.calls.Load())
}

func TestIndexBuildFailed_StaleWindow(t *testing.T) {
	h := newHarness(t)
	h.publish(t, "Outbox")
	_, err := New(context.Background(), mailBundle, h.options())
	assert.ErrorIs(t, err, model.ErrStaleTargetRef)
	assert.Zero(t, h.builder.calls.Load())
}

func TestIndexBuildFailed_Enumeration(t *testing.T) {
	h := newHarness(t)
	h.publish(t, "Inbox")
	h.backend.WindowsErr = errors.New("ax unavailable")
	_, err := New(context.Background(), mailBundle, h.options())
	assert.ErrorIs(t, err, model.ErrIndexBuildFailed)

	g, err := h.store.ReadGlobal()
	require.NoError(t, err)
	assert.Equal(t, "enumeration_failed", g.RefreshReason)
}

func TestBuildGroup_CollapsesConcurrentBuilds(t *testing.T) {
	g := NewBuildGroup()
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[0] = g.Do("k", func() error {
			calls++
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[1] = g.Do("k", func() error {
			calls++
			return nil
		})
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Equal(t, 1, calls)
}

func TestConcurrentNavigatorsShareOneBuild(t *testing.T) {
	h := newHarness(t)
	h.builder.delay = 50 * time.Millisecond
	h.publish(t, "Inbox")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := New(context.Background(), mailBundle, h.options())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, h.builder.calls.Load(), int32(2))
	assert.GreaterOrEqual(t, h.builder.calls.Load(), int32(1))
}

func TestGetAssociation_TTLAndNoImplicitBuild(t *testing.T) {
	h := newHarness(t)
	h.table.Rules = []navconfig.Rule{{
		BundleID: mailBundle, TargetRef: "*",
		Associations: []navconfig.Association{{Name: "messages", TTL: time.Minute}},
	}}
	h.publish(t, "Inbox")
	n := h.navigator(t)

	items, err := n.GetAssociation("messages")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, []string{"messages"}, n.Associations())

	name := model.IndexName(model.IndexAssociation, mailBundle, "Inbox", "messages")
	require.NoError(t, h.indexes.Save(name, index.Index{Elements: []model.Descriptor{{Label: "Lunch?"}}}))

	items, err = n.GetAssociation("messages")
	require.NoError(t, err)
	assert.Empty(t, items, "served from cache within TTL")

	h.now = h.now.Add(2 * time.Minute)
	items, err = n.GetAssociation("messages")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Lunch?", items[0].Label)

	_, err = n.GetAssociation("picker")
	assert.ErrorIs(t, err, model.ErrElementNotFound)
}
