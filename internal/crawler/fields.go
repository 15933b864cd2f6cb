package crawler

import (
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/platform"
)

// TextInputDescription marks descriptors produced by the text-field pass.
const TextInputDescription = "Text Input Field"

// BodyLabel labels free-form text areas and web content.
const BodyLabel = "Body"

var (
	textInputRoles = map[string]bool{model.RoleTextField: true, model.RoleSearchField: true}
	bodyRoles      = map[string]bool{model.RoleTextArea: true, model.RoleWebArea: true}
	fieldSkipRoles = map[string]bool{model.RoleTable: true, model.RoleList: true, model.RoleRow: true}
)

// fieldWalk is the state of the text-input traversal.
type fieldWalk struct {
	cfg     Config
	rowRole map[string]bool
	out     []model.Descriptor
}

// collectFields finds editable nodes under root and pairs each with a label:
// its own title, description, help or placeholder; else the nearest
// preceding static-text sibling; else its parent's title, description or help.
func collectFields(root platform.Element, cfg Config) []model.Descriptor {
	fw := &fieldWalk{cfg: cfg, rowRole: toSet(cfg.RowRoles)}
	fw.visit(root, nil, nil, "", 0, 0)
	for i := range fw.out {
		if label, ok := cfg.TextFieldLabels[i]; ok && label != "" {
			fw.out[i].Label = label
		}
	}
	return fw.out
}

// visit returns el's role so the caller can track preceding static text.
func (fw *fieldWalk) visit(el, parent platform.Element, path []model.PathSegment, preceding string, index, depth int) string {
	role := platform.Role(el)
	if depth > fw.cfg.MaxDepth || len(fw.out) >= fw.cfg.MaxResults {
		return role
	}
	if fieldSkipRoles[role] || fw.rowRole[role] {
		return role
	}

	switch {
	case textInputRoles[role]:
		label := firstNonEmpty(
			platform.String(el, platform.AttrTitle),
			platform.String(el, platform.AttrDescription),
			platform.String(el, platform.AttrHelp),
			platform.String(el, platform.AttrPlaceholder),
			preceding,
		)
		if label == "" && parent != nil {
			label = firstNonEmpty(
				platform.String(parent, platform.AttrTitle),
				platform.String(parent, platform.AttrDescription),
				platform.String(parent, platform.AttrHelp),
			)
		}
		fw.emit(el, role, label, path)
		return role
	case bodyRoles[role]:
		fw.emit(el, role, BodyLabel, path)
		return role
	}

	if depth >= fw.cfg.MaxDepth {
		return role
	}
	childPath := appendPath(path, model.PathSegment{Role: role, Index: index})
	last := ""
	for i, child := range el.Children() {
		childRole := fw.visit(child, el, childPath, last, i, depth+1)
		if childRole == model.RoleStaticText {
			if text := firstNonEmpty(platform.String(child, platform.AttrValue), platform.String(child, platform.AttrTitle)); text != "" {
				last = text
			}
		}
	}
	return role
}

func (fw *fieldWalk) emit(el platform.Element, role, label string, path []model.PathSegment) {
	fields := map[string]string{model.FieldDescription: TextInputDescription}
	if v := platform.String(el, platform.AttrValue); v != "" {
		fields[model.FieldValue] = v
	}
	fw.out = append(fw.out, model.Descriptor{
		Role:         role,
		Label:        label,
		ClickPoint:   clickPoint(el),
		AncestorPath: clonePath(path),
		Fields:       fields,
	})
}
