package model

import (
	"regexp"
	"strings"
)

// maxTitleRef is the longest target_ref derived from a window title.
const maxTitleRef = 32

// fileUnsafeRe matches characters not allowed in index file names.
var fileUnsafeRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// TitleRef derives a target_ref from a window title: spaces become
// underscores and the result is truncated. Empty titles become "Unknown".
func TitleRef(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Unknown"
	}
	ref := strings.ReplaceAll(title, " ", "_")
	if r := []rune(ref); len(r) > maxTitleRef {
		ref = string(r[:maxTitleRef])
	}
	return ref
}

func fileSafe(s string) string {
	return strings.Trim(fileUnsafeRe.ReplaceAllString(s, "_"), "_")
}

// IndexKind names the kind of a persisted index.
type IndexKind string

const (
	IndexNavigation  IndexKind = "appNav"
	IndexMenu        IndexKind = "menu"
	IndexAssociation IndexKind = "assoc"
)

// IndexName returns the deterministic file name for an index of kind for
// (bundleID, targetRef). Associations append their name.
func IndexName(kind IndexKind, bundleID, targetRef string, extra ...string) string {
	parts := []string{string(kind), fileSafe(bundleID), fileSafe(targetRef)}
	for _, e := range extra {
		parts = append(parts, fileSafe(e))
	}
	return strings.Join(parts, "_") + ".jsonl"
}
