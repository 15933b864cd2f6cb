package navcache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mj1618/navsync/internal/index"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/navconfig"
)

// assocEntry holds a loaded association with its load time.
type assocEntry struct {
	items     []model.Descriptor
	path      string
	timestamp time.Time
}

// assocCache is a TTL cache of association indexes. Entries are reloaded
// from disk once older than the association's lifetime; nothing is built.
type assocCache struct {
	mu      sync.Mutex
	entries map[string]assocEntry
	indexes *index.Store
	now     func() time.Time
}

func newAssocCache(indexes *index.Store, now func() time.Time) *assocCache {
	return &assocCache{
		entries: make(map[string]assocEntry),
		indexes: indexes,
		now:     now,
	}
}

// get returns the association's items, reloading them when the cached copy
// has outlived its TTL. A missing source yields an empty result.
func (c *assocCache) get(a navconfig.Association, path string) ([]model.Descriptor, error) {
	c.mu.Lock()
	if e, ok := c.entries[a.Name]; ok && e.path == path && c.now().Sub(e.timestamp) < a.Lifetime() {
		items := e.items
		c.mu.Unlock()
		return items, nil
	}
	c.mu.Unlock()

	items, err := c.read(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[a.Name] = assocEntry{items: items, path: path, timestamp: c.now()}
	c.mu.Unlock()
	return items, nil
}

// preload reads an association if its source exists.
func (c *assocCache) preload(a navconfig.Association, path string) error {
	_, err := c.get(a, path)
	return err
}

func (c *assocCache) read(path string) ([]model.Descriptor, error) {
	ix, err := c.indexes.Load(path)
	if errors.Is(err, index.ErrNotFound) {
		return []model.Descriptor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load association %s: %w", path, err)
	}
	return ix.All(), nil
}

// reset clears every entry.
func (c *assocCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]assocEntry)
}

// GetAssociation returns the named association for the current target.
// Associations are read-only here: a missing source yields an empty slice
// and nothing is built.
func (n *Navigator) GetAssociation(name string) ([]model.Descriptor, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	a, ok := n.rule.Association(name)
	if !ok {
		return nil, n.lookupErr(model.ErrElementNotFound, name,
			fmt.Errorf("association %q is not declared", name))
	}
	return n.assoc.get(a, a.Path(n.dataDir, n.bundleID, n.record.ActiveTarget.TargetRef))
}

// Associations lists the names declared for the current target.
func (n *Navigator) Associations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	names := make([]string, 0, len(n.rule.Associations))
	for _, a := range n.rule.Associations {
		names = append(names, a.Name)
	}
	return names
}
