package navcache

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/mj1618/navsync/internal/model"
)

// FindAssociationItem returns the item of the named association that
// matches label, using the same precedence as FindElement.
func (n *Navigator) FindAssociationItem(ctx context.Context, name, label string) (model.Descriptor, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.findAssociationLocked(name, label)
}

func (n *Navigator) findAssociationLocked(name, label string) (model.Descriptor, error) {
	a, ok := n.rule.Association(name)
	if !ok {
		return model.Descriptor{}, n.lookupErr(model.ErrElementNotFound, name,
			fmt.Errorf("association %q is not declared", name))
	}
	items, err := n.assoc.get(a, a.Path(n.dataDir, n.bundleID, n.record.ActiveTarget.TargetRef))
	if err != nil {
		return model.Descriptor{}, err
	}
	d, ok := Match(items, label)
	if !ok {
		return model.Descriptor{}, n.lookupErr(model.ErrElementNotFound, label,
			fmt.Errorf("no item in association %q", name))
	}
	return d, nil
}

// ClickAssociationItem finds label in the named association and clicks it.
func (n *Navigator) ClickAssociationItem(ctx context.Context, name, label string) (model.Descriptor, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	d, err := n.findAssociationLocked(name, label)
	if err != nil {
		return model.Descriptor{}, err
	}
	return d, n.clickDescriptorLocked(ctx, d, label)
}

// Rows returns the row descriptors of the navigation index in index order.
func (n *Navigator) Rows(ctx context.Context) ([]model.Descriptor, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rowsLocked(ctx)
}

func (n *Navigator) rowsLocked(ctx context.Context) ([]model.Descriptor, error) {
	if err := n.ensureIndexesLocked(ctx); err != nil {
		return nil, err
	}
	var rows []model.Descriptor
	for _, d := range n.nav.Elements {
		if slices.Contains(n.rule.RowRoles, d.Role) {
			rows = append(rows, d)
		}
	}
	return rows, nil
}

// ClickRow clicks the i-th row (1-based) of the navigation index.
func (n *Navigator) ClickRow(ctx context.Context, i int) (model.Descriptor, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	rows, err := n.rowsLocked(ctx)
	if err != nil {
		return model.Descriptor{}, err
	}
	query := "row " + strconv.Itoa(i)
	if i < 1 || i > len(rows) {
		return model.Descriptor{}, n.lookupErr(model.ErrElementNotFound, query,
			fmt.Errorf("%d rows indexed", len(rows)))
	}
	d := rows[i-1]
	return d, n.clickDescriptorLocked(ctx, d, query)
}

// WindowControls returns the title-bar buttons found in the navigation
// index, ordered close, minimize, zoom. Missing controls are omitted.
func (n *Navigator) WindowControls(ctx context.Context) ([]model.Descriptor, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.ensureIndexesLocked(ctx); err != nil {
		return nil, err
	}
	var out []model.Descriptor
	for _, c := range model.WindowControls {
		if d, ok := n.controlLocked(c); ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (n *Navigator) controlLocked(control string) (model.Descriptor, bool) {
	for _, d := range n.nav.Elements {
		if d.Field(model.FieldControl) == control {
			return d, true
		}
	}
	return model.Descriptor{}, false
}

// PressWindowControl clicks the target window's close, minimize or zoom
// button.
func (n *Navigator) PressWindowControl(ctx context.Context, control string) (model.Descriptor, error) {
	if !slices.Contains(model.WindowControls, control) {
		return model.Descriptor{}, fmt.Errorf("unknown window control %q", control)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.ensureIndexesLocked(ctx); err != nil {
		return model.Descriptor{}, err
	}
	d, ok := n.controlLocked(control)
	if !ok {
		return model.Descriptor{}, n.lookupErr(model.ErrElementNotFound, control+" button", nil)
	}
	return d, n.clickDescriptorLocked(ctx, d, control+" button")
}

// CloseWindow clicks the close button.
func (n *Navigator) CloseWindow(ctx context.Context) (model.Descriptor, error) {
	return n.PressWindowControl(ctx, model.ControlClose)
}

// MinimizeWindow clicks the minimize button.
func (n *Navigator) MinimizeWindow(ctx context.Context) (model.Descriptor, error) {
	return n.PressWindowControl(ctx, model.ControlMinimize)
}

// MaximizeWindow clicks the zoom button.
func (n *Navigator) MaximizeWindow(ctx context.Context) (model.Descriptor, error) {
	return n.PressWindowControl(ctx, model.ControlZoom)
}
