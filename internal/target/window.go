// Package target turns live windows into the elected Active Target of an
// application: snapshots, change hashes, the election rules and target_ref
// derivation.
package target

import (
	"crypto/sha256"
	"fmt"

	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/platform"
)

// Sheet is a modal child of a window.
type Sheet struct {
	Element    platform.Element `json:"-"`
	Role       string           `json:"role"`
	Title      string           `json:"title,omitempty"`
	Identifier string           `json:"identifier,omitempty"`
	Focused    bool             `json:"focused,omitempty"`
	Modal      bool             `json:"modal,omitempty"`
}

// Active reports whether the sheet holds focus or blocks its window.
func (s Sheet) Active() bool { return s.Focused || s.Modal }

// Window is a point-in-time snapshot of a top-level window.
type Window struct {
	Element    platform.Element `json:"-"`
	Title      string           `json:"title,omitempty"`
	Role       string           `json:"role"`
	Subrole    string           `json:"subrole,omitempty"`
	Identifier string           `json:"identifier,omitempty"`
	Frame      model.Rect       `json:"frame"`
	Focused    bool             `json:"focused,omitempty"`
	Main       bool             `json:"main,omitempty"`
	Sheets     []Sheet          `json:"sheets,omitempty"`
}

// Active reports whether the window is focused, main, or hosts an active sheet.
func (w Window) Active() bool {
	if w.Focused || w.Main {
		return true
	}
	for _, s := range w.Sheets {
		if s.Active() {
			return true
		}
	}
	return false
}

// Floating reports whether the window is a floating panel.
func (w Window) Floating() bool { return w.Subrole == model.SubroleFloating }

// Hash identifies a window across poll cycles from its title, role, subrole,
// identifier, position and size.
func (w Window) Hash() string {
	key := fmt.Sprintf("%s|%s|%s|%s|%g,%g|%g,%g",
		w.Title, w.Role, w.Subrole, w.Identifier,
		w.Frame.X, w.Frame.Y, w.Frame.Width, w.Frame.Height)
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum[:8])
}

// Snapshot reads the attributes election needs from a live window.
func Snapshot(el platform.Element) Window {
	w := Window{
		Element:    el,
		Title:      platform.String(el, platform.AttrTitle),
		Role:       platform.Role(el),
		Subrole:    platform.String(el, platform.AttrSubrole),
		Identifier: platform.String(el, platform.AttrIdentifier),
		Focused:    platform.Bool(el, platform.AttrFocused),
		Main:       platform.Bool(el, platform.AttrMain),
	}
	w.Frame, _ = platform.Frame(el)
	for _, child := range el.Children() {
		role := platform.Role(child)
		if !model.IsSheetRole(role) {
			continue
		}
		w.Sheets = append(w.Sheets, Sheet{
			Element:    child,
			Role:       role,
			Title:      platform.String(child, platform.AttrTitle),
			Identifier: platform.String(child, platform.AttrIdentifier),
			Focused:    platform.Bool(child, platform.AttrFocused),
			Modal:      platform.Bool(child, platform.AttrModal),
		})
	}
	return w
}

// SnapshotAll snapshots every window in order.
func SnapshotAll(els []platform.Element) []Window {
	out := make([]Window, 0, len(els))
	for _, el := range els {
		out = append(out, Snapshot(el))
	}
	return out
}

// Tracker remembers window hashes from the previous poll cycle.
type Tracker struct {
	seen map[string]bool
}

// Observe records the current cycle's windows and returns those whose hash
// was not present in the previous cycle.
func (t *Tracker) Observe(windows []Window) []Window {
	next := make(map[string]bool, len(windows))
	var fresh []Window
	for _, w := range windows {
		h := w.Hash()
		next[h] = true
		if !t.seen[h] {
			fresh = append(fresh, w)
		}
	}
	t.seen = next
	return fresh
}

// Reset forgets every hash, so the next Observe reports all windows.
func (t *Tracker) Reset() { t.seen = nil }

// Len returns the number of tracked hashes.
func (t *Tracker) Len() int { return len(t.seen) }
