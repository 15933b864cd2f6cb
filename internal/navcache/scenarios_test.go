package navcache_test

import (
	"context"
	"os"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mj1618/navsync/internal/crawler"
	"github.com/mj1618/navsync/internal/index"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/navcache"
	"github.com/mj1618/navsync/internal/navconfig"
	"github.com/mj1618/navsync/internal/platform"
	"github.com/mj1618/navsync/internal/platform/memory"
	"github.com/mj1618/navsync/internal/state"
)

type builds struct {
	inner *crawler.Crawler
	n     atomic.Int32
}

func (b *builds) BuildIndex(root, bar platform.Element, cfg crawler.Config) (index.Index, index.Index, error) {
	b.n.Add(1)
	return b.inner.BuildIndex(root, bar, cfg)
}

var _ = Describe("Navigator", func() {
	const bundle = "com.apple.finder"

	var (
		ctx     context.Context
		dir     string
		backend *memory.Backend
		store   *state.Store
		indexes *index.Store
		table   *navconfig.Table
		builder *builds
		window  *memory.Node
	)

	publish := func(title string) {
		at := table.Refs.Resolve(targetElection(title), bundle, timeZero)
		_, err := store.Publish(bundle, model.StateRecord{ActiveTarget: at})
		Expect(err).NotTo(HaveOccurred())
	}

	open := func() (*navcache.Navigator, error) {
		return navcache.New(ctx, bundle, navcache.Options{
			Provider: backend.Provider(),
			Store:    store,
			Indexes:  indexes,
			Config:   table,
			Builder:  builder,
			Builds:   navcache.NewBuildGroup(),
		})
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		dir, err = os.MkdirTemp("", "navsync-scenarios-*")
		Expect(err).NotTo(HaveOccurred())

		window = &memory.Node{
			Role: model.RoleWindow, Title: "Downloads", Main: true,
			Children: []*memory.Node{
				{Role: model.RoleButton, Title: "Back", Frame: &model.Rect{X: 10, Y: 10, Width: 20, Height: 20}},
			},
		}
		backend = memory.New(&memory.Fixture{Apps: []*memory.AppFixture{{
			BundleID: bundle, Name: "Finder", Windows: []*memory.Node{window},
		}}})
		store, err = state.New(dir)
		Expect(err).NotTo(HaveOccurred())
		indexes, err = index.NewStore(dir)
		Expect(err).NotTo(HaveOccurred())
		table = navconfig.Default()
		builder = &builds{inner: crawler.New(nil)}
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	Describe("loading indexes", func() {
		Context("when no on-disk index exists", func() {
			It("builds exactly once and serves the fresh index", func() {
				publish("Downloads")
				nav, err := open()
				Expect(err).NotTo(HaveOccurred())
				Expect(builder.n.Load()).To(BeEquivalentTo(1))

				d, err := nav.FindElement(ctx, "Back")
				Expect(err).NotTo(HaveOccurred())
				Expect(d.ClickPoint).To(Equal(&model.Point{X: 20, Y: 20}))
			})
		})

		Context("when the target is declared volatile", func() {
			It("rebuilds on every load even though a file exists", func() {
				table.Rules = []navconfig.Rule{{BundleID: bundle, TargetRef: "Downloads", Volatile: true}}
				publish("Downloads")

				nav, err := open()
				Expect(err).NotTo(HaveOccurred())
				Expect(indexes.Exists(model.IndexName(model.IndexNavigation, bundle, "Downloads"))).To(BeTrue())

				Expect(nav.Refresh(ctx)).To(Succeed())
				Expect(builder.n.Load()).To(BeEquivalentTo(2))
			})
		})

		Context("when the target changes between loads", func() {
			It("builds the new target's index", func() {
				publish("Downloads")
				nav, err := open()
				Expect(err).NotTo(HaveOccurred())

				window.Title = "Applications"
				publish("Applications")
				Expect(nav.Refresh(ctx)).To(Succeed())
				Expect(nav.Target().TargetRef).To(Equal("Applications"))
				Expect(builder.n.Load()).To(BeEquivalentTo(2))
			})
		})
	})

	Describe("failures", func() {
		It("reports nothing to act on before the classifier has published", func() {
			_, err := open()
			Expect(err).To(MatchError(model.ErrNoActiveTarget))
		})

		It("surfaces crawler failures without retrying", func() {
			table.Rules = []navconfig.Rule{{
				BundleID: bundle, TargetRef: "*",
				Config: crawler.Config{SkipRoles: []string{model.RoleButton}, ActionableRoles: []string{model.RoleButton}},
			}}
			publish("Downloads")
			_, err := open()
			Expect(err).To(MatchError(model.ErrIndexBuildFailed))
			Expect(builder.n.Load()).To(BeEquivalentTo(1))
		})
	})
})
