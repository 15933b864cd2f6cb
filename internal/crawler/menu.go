package crawler

import (
	"strings"

	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/platform"
)

// walkMenuBar flattens a menu bar into descriptors whose labelled ancestors
// form the menu path. The first top-level menu is the system menu and is
// skipped.
func walkMenuBar(bar platform.Element, maxDepth int) []model.Descriptor {
	top := bar.Children()
	if len(top) > 1 {
		top = top[1:]
	}
	barPath := []model.PathSegment{{Role: model.RoleMenuBar}}
	var out []model.Descriptor
	for i, item := range top {
		out = walkMenuItem(out, item, barPath, i+1, 1, maxDepth)
	}
	return out
}

func walkMenuItem(out []model.Descriptor, el platform.Element, path []model.PathSegment, index, depth, maxDepth int) []model.Descriptor {
	role := platform.Role(el)
	title := platform.String(el, platform.AttrTitle)
	kids := MenuChildren(el)

	segment := model.PathSegment{Role: role, Index: index}
	if title != "" {
		d := model.Descriptor{
			Role:         role,
			Label:        title,
			ClickPoint:   clickPoint(el),
			AncestorPath: clonePath(path),
			Fields:       menuFields(el, kids),
		}
		out = append(out, d)
		segment.Label = title
	}
	if depth >= maxDepth {
		return out
	}
	childPath := appendPath(path, segment)
	for i, child := range kids {
		out = walkMenuItem(out, child, childPath, i, depth+1, maxDepth)
	}
	return out
}

// MenuChildren returns the items under a menu element, descending through
// the single AXMenu container that menu bar items and submenus hold.
func MenuChildren(el platform.Element) []platform.Element {
	kids := el.Children()
	if len(kids) == 1 && platform.Role(kids[0]) == model.RoleMenu {
		return kids[0].Children()
	}
	return kids
}

func menuFields(el platform.Element, kids []platform.Element) map[string]string {
	fields := map[string]string{}
	if v, ok := el.Attribute(platform.AttrEnabled); ok {
		if enabled, _ := v.(bool); !enabled {
			fields[model.FieldEnabled] = "false"
		}
	}
	if s := platform.String(el, platform.AttrShortcut); s != "" {
		fields[model.FieldShortcut] = s
	}
	if id := platform.String(el, platform.AttrIdentifier); id != "" {
		fields[model.FieldIdentifier] = id
	}
	var titles []string
	for _, k := range kids {
		if t := platform.String(k, platform.AttrTitle); t != "" {
			titles = append(titles, t)
		}
	}
	if len(titles) > 0 {
		fields[model.FieldChildren] = strings.Join(titles, ", ")
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
