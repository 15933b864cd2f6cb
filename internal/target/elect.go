package target

import (
	"strings"
	"time"

	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/platform"
)

// Election is the surface chosen by Elect.
type Election struct {
	Type       model.TargetType
	Title      string
	Identifier string
	Element    platform.Element
}

// Elect applies the election rules in order, first match wins:
//  1. the last sheet of the first active window that has sheets
//  2. the first floating window
//  3. the first active window
//
// ok is false when no window qualifies.
func Elect(windows []Window) (e Election, ok bool) {
	for _, w := range windows {
		if w.Active() && len(w.Sheets) > 0 {
			s := w.Sheets[len(w.Sheets)-1]
			return Election{Type: model.TargetSheet, Title: s.Title, Identifier: s.Identifier, Element: s.Element}, true
		}
	}
	for _, w := range windows {
		if w.Floating() {
			return Election{Type: model.TargetFloat, Title: w.Title, Identifier: w.Identifier, Element: w.Element}, true
		}
	}
	for _, w := range windows {
		if w.Active() {
			return Election{Type: model.TargetWindow, Title: w.Title, Identifier: w.Identifier, Element: w.Element}, true
		}
	}
	return Election{}, false
}

// Refs derives target_ref values from element identifiers and titles.
type Refs struct {
	// Remap maps exact identifiers to logical names.
	Remap map[string]string `yaml:"remap"`

	// Passthrough lists identifier substrings kept verbatim.
	Passthrough []string `yaml:"passthrough"`
}

// DefaultRefs returns the built-in remap table.
func DefaultRefs() Refs {
	return Refs{
		Remap: map[string]string{
			"open-panel":            "FilePicker",
			"Mail.sendMessageAlert": "SendMessageAlert",
		},
		Passthrough: []string{"messageViewer"},
	}
}

// Derive returns the target_ref for an element. Identifiers containing a
// passthrough substring are kept as is and never remapped; other identifiers
// go through Remap, falling back to the identifier itself. Elements without
// an identifier use their sanitized title.
func (r Refs) Derive(identifier, title string) string {
	if identifier != "" {
		for _, sub := range r.Passthrough {
			if strings.Contains(identifier, sub) {
				return identifier
			}
		}
		if mapped, ok := r.Remap[identifier]; ok {
			return mapped
		}
		return identifier
	}
	return model.TitleRef(title)
}

// Resolve turns an election into the ActiveTarget published for bundleID.
func (r Refs) Resolve(e Election, bundleID string, now time.Time) model.ActiveTarget {
	ref := r.Derive(e.Identifier, e.Title)
	return model.ActiveTarget{
		Type:      e.Type,
		Title:     e.Title,
		TargetRef: ref,
		IndexName: model.IndexName(model.IndexNavigation, bundleID, ref),
		Timestamp: now,
	}
}

// Locate finds the live element for a published target among windows. The
// elected surface is tried first; otherwise every window and sheet whose
// derived ref matches is considered.
func (r Refs) Locate(windows []Window, at model.ActiveTarget) (platform.Element, bool) {
	if e, ok := Elect(windows); ok && r.Derive(e.Identifier, e.Title) == at.TargetRef {
		return e.Element, true
	}
	for _, w := range windows {
		for i := len(w.Sheets) - 1; i >= 0; i-- {
			s := w.Sheets[i]
			if r.Derive(s.Identifier, s.Title) == at.TargetRef {
				return s.Element, true
			}
		}
		if r.Derive(w.Identifier, w.Title) == at.TargetRef {
			return w.Element, true
		}
	}
	return nil, false
}
