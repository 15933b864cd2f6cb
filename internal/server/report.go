package server

import (
	"context"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mj1618/navsync/internal/index"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/navcache"
	"github.com/mj1618/navsync/internal/output"
	"github.com/mj1618/navsync/internal/state"
)

// Summarize collects the global record and all State Records.
func Summarize(store *state.Store) (output.TargetResult, error) {
	var res output.TargetResult
	if g, err := store.ReadGlobal(); err == nil {
		res.Global = &g
	}
	keys, err := store.Keys()
	if err != nil {
		return res, err
	}
	for _, k := range keys {
		rec, err := store.Read(k)
		if err != nil {
			continue
		}
		res.Records = append(res.Records, output.RecordSummary{
			StateRecord: rec,
			Age:         humanize.Time(rec.Timestamp),
		})
	}
	return res, nil
}

// Build forces a rebuild of nav's indexes and reports the result against
// the previous on-disk copy.
func Build(ctx context.Context, nav *navcache.Navigator, indexes *index.Store) (output.BuildResult, error) {
	before, after, err := nav.Rebuild(ctx)
	if err != nil {
		return output.BuildResult{}, err
	}
	menu, err := nav.MenuIndex(ctx)
	if err != nil {
		return output.BuildResult{}, err
	}
	at := nav.Target()
	name := model.IndexName(model.IndexNavigation, nav.BundleID(), at.TargetRef)
	res := output.BuildResult{
		App:       nav.BundleID(),
		TargetRef: at.TargetRef,
		Index:     indexes.Path(name),
		Fields:    len(after.Fields),
		Elements:  len(after.Elements),
		MenuItems: len(menu.Elements),
		Changes:   model.DiffDescriptors(before.All(), after.All()),
	}
	if fi, err := os.Stat(res.Index); err == nil {
		res.Size = humanize.Bytes(uint64(fi.Size()))
	}
	return res, nil
}
