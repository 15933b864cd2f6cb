//go:build windows

package state

import "sync"

var lockMu sync.Mutex

// withLock serializes writers within this process only.
func withLock(_ string, fn func() error) error {
	lockMu.Lock()
	defer lockMu.Unlock()
	return fn()
}
