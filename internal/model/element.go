package model

import (
	"math"
	"strings"
)

// Point is a screen coordinate in backend units.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Rect is a screen rectangle: origin plus size.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"w" yaml:"w"`
	Height float64 `json:"h" yaml:"h"`
}

// Center returns the geometric center of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// PathSegment is one ancestor on the way from the crawl root to a descriptor.
// Index is the position among the parent's children. Label is only set when
// the crawler already fetched it (menu items); structural containers carry
// their role alone.
type PathSegment struct {
	Role  string `json:"role" yaml:"role"`
	Index int    `json:"index" yaml:"index"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Detail is a sub-element of a composite descriptor, e.g. a cell's text.
type Detail struct {
	Role  string `json:"role" yaml:"role"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Descriptor is the derived, persisted form of one actionable UI element.
// Live backend elements are never cached; descriptors are.
type Descriptor struct {
	Role         string            `json:"role" yaml:"role"`
	Label        string            `json:"label" yaml:"label"`
	ClickPoint   *Point            `json:"click_point,omitempty" yaml:"click_point,omitempty"`
	AncestorPath []PathSegment     `json:"ancestor_path,omitempty" yaml:"ancestor_path,omitempty"`
	Fields       map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Details      []Detail          `json:"details,omitempty" yaml:"details,omitempty"`
}

// Well-known keys of Descriptor.Fields.
const (
	FieldKind        = "kind"
	FieldName        = "name"
	FieldSize        = "size"
	FieldDate        = "date"
	FieldTitle       = "title"
	FieldValue       = "value"
	FieldDescription = "description"
	FieldHelp        = "help"
	FieldShortcut    = "shortcut"
	FieldEnabled     = "enabled"
	FieldIdentifier  = "identifier"
	FieldChildren    = "children"
	FieldControl     = "control"
)

// Ordering tiers for the navigation index.
const (
	TierPlain = iota
	TierSizeOrDate
	TierName
	TierKind
)

// Tier returns the ordering tier of d: kind beats name beats size/date.
func (d Descriptor) Tier() int {
	switch {
	case d.Fields[FieldKind] != "":
		return TierKind
	case d.Fields[FieldName] != "":
		return TierName
	case d.Fields[FieldSize] != "" || d.Fields[FieldDate] != "":
		return TierSizeOrDate
	default:
		return TierPlain
	}
}

// Position returns the click point, or +Inf coordinates when there is none so
// that point-less descriptors sort last within their tier.
func (d Descriptor) Position() Point {
	if d.ClickPoint == nil {
		return Point{X: math.Inf(1), Y: math.Inf(1)}
	}
	return *d.ClickPoint
}

// Field returns d.Fields[key] without allocating a map.
func (d Descriptor) Field(key string) string {
	if d.Fields == nil {
		return ""
	}
	return d.Fields[key]
}

// MenuPath returns the labelled ancestors plus d's own label. For menu
// descriptors this is the sequence of titles pressed to reach the item.
func (d Descriptor) MenuPath() []string {
	var path []string
	for _, seg := range d.AncestorPath {
		if seg.Label != "" {
			path = append(path, seg.Label)
		}
	}
	return append(path, d.Label)
}

// PathString renders the ancestor path as a " > " breadcrumb.
func (d Descriptor) PathString() string {
	parts := make([]string, 0, len(d.AncestorPath))
	for _, seg := range d.AncestorPath {
		if seg.Label != "" {
			parts = append(parts, seg.Label)
		} else {
			parts = append(parts, MapRole(seg.Role))
		}
	}
	return strings.Join(parts, " > ")
}
