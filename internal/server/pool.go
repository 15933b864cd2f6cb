package server

import (
	"context"
	"sync"
	"time"

	"github.com/mj1618/navsync/internal/navcache"
	"github.com/mj1618/navsync/internal/navconfig"
)

// poolEntry holds a Navigator with its creation time.
type poolEntry struct {
	nav       *navcache.Navigator
	timestamp time.Time
}

// navigatorPool reuses Navigators per bundle id for up to ttl.
type navigatorPool struct {
	mu      sync.Mutex
	entries map[string]poolEntry
	ttl     time.Duration
	open    func(ctx context.Context, bundleID string) (*navcache.Navigator, error)
	now     func() time.Time
}

func newNavigatorPool(ttl time.Duration, open func(context.Context, string) (*navcache.Navigator, error)) *navigatorPool {
	return &navigatorPool{
		entries: make(map[string]poolEntry),
		ttl:     ttl,
		open:    open,
		now:     time.Now,
	}
}

// Get returns a pooled Navigator younger than ttl, refreshed against the
// latest State Record, or opens a new one.
func (p *navigatorPool) Get(ctx context.Context, bundleID string) (*navcache.Navigator, error) {
	if p.ttl == 0 {
		return p.open(ctx, bundleID)
	}

	p.mu.Lock()
	entry, ok := p.entries[bundleID]
	p.mu.Unlock()
	if ok && p.now().Sub(entry.timestamp) < p.ttl {
		if err := entry.nav.Refresh(ctx); err == nil {
			return entry.nav, nil
		}
		p.Invalidate(bundleID)
	}

	nav, err := p.open(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.entries[bundleID] = poolEntry{nav: nav, timestamp: p.now()}
	p.mu.Unlock()
	return nav, nil
}

// Invalidate drops the Navigator for bundleID; Wildcard drops all.
func (p *navigatorPool) Invalidate(bundleID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bundleID == navconfig.Wildcard {
		p.entries = make(map[string]poolEntry)
		return
	}
	delete(p.entries, bundleID)
}

// Len returns the number of pooled Navigators.
func (p *navigatorPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
