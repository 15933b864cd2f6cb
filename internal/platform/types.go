package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/navsync/internal/model"
)

// Attribute names understood by every backend.
const (
	AttrRole        = "role"
	AttrSubrole     = "subrole"
	AttrTitle       = "title"
	AttrIdentifier  = "identifier"
	AttrDescription = "description"
	AttrHelp        = "help"
	AttrPlaceholder = "placeholder"
	AttrValue       = "value"
	AttrPosition    = "position" // model.Point
	AttrSize        = "size"     // model.Point, X=width Y=height
	AttrFocused     = "focused"
	AttrMain        = "main"
	AttrModal       = "modal"
	AttrEnabled     = "enabled"
	AttrShortcut    = "shortcut"
)

// String returns a string attribute, or "" when absent or not a string.
func String(el Element, name string) string {
	v, ok := el.Attribute(name)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// Bool returns a boolean attribute, false when absent.
func Bool(el Element, name string) bool {
	v, ok := el.Attribute(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Role is shorthand for String(el, AttrRole).
func Role(el Element) string {
	return String(el, AttrRole)
}

// Frame combines the position and size attributes. ok is false when either
// is missing.
func Frame(el Element) (model.Rect, bool) {
	pv, ok := el.Attribute(AttrPosition)
	if !ok {
		return model.Rect{}, false
	}
	sv, ok := el.Attribute(AttrSize)
	if !ok {
		return model.Rect{}, false
	}
	pos, ok1 := pv.(model.Point)
	size, ok2 := sv.(model.Point)
	if !ok1 || !ok2 {
		return model.Rect{}, false
	}
	return model.Rect{X: pos.X, Y: pos.Y, Width: size.X, Height: size.Y}, true
}

// ParsePoint parses an "x,y" string into a Point.
func ParsePoint(s string) (model.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Point{}, fmt.Errorf("invalid point %q: expected x,y", s)
	}
	vals := make([]float64, 2)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
		}
		vals[i] = v
	}
	return model.Point{X: vals[0], Y: vals[1]}, nil
}
