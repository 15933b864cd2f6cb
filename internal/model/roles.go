package model

// Accessibility roles the engine reasons about.
const (
	RoleWindow      = "AXWindow"
	RoleSheet       = "AXSheet"
	RoleDialog      = "AXDialog"
	RoleGroup       = "AXGroup"
	RoleButton      = "AXButton"
	RoleMenuButton  = "AXMenuButton"
	RolePopUpButton = "AXPopUpButton"
	RoleCheckBox    = "AXCheckBox"
	RoleCell        = "AXCell"
	RoleRow         = "AXRow"
	RoleTable       = "AXTable"
	RoleList        = "AXList"
	RoleOutline     = "AXOutline"
	RoleStaticText  = "AXStaticText"
	RoleTextField   = "AXTextField"
	RoleSearchField = "AXSearchField"
	RoleTextArea    = "AXTextArea"
	RoleWebArea     = "AXWebArea"
	RoleMenuBar     = "AXMenuBar"
	RoleMenuBarItem = "AXMenuBarItem"
	RoleMenu        = "AXMenu"
	RoleMenuItem    = "AXMenuItem"
	RoleScrollArea  = "AXScrollArea"
	RoleSplitGroup  = "AXSplitGroup"
	RoleTabGroup    = "AXTabGroup"
	RoleToolbar     = "AXToolbar"
	RoleDrawer      = "AXDrawer"
	RolePopover     = "AXPopover"
	RoleSidebar     = "AXSidebar"
	RoleUnknown     = "AXUnknown"
	SubroleFloating = "AXFloatingWindow"
	SubroleStandard = "AXStandardWindow"

	SubroleCloseButton    = "AXCloseButton"
	SubroleMinimizeButton = "AXMinimizeButton"
	SubroleZoomButton     = "AXZoomButton"
)

// Window controls, as recorded in Descriptor.Fields[FieldControl].
const (
	ControlClose    = "close"
	ControlMinimize = "minimize"
	ControlZoom     = "zoom"
)

// WindowControls lists the controls in title-bar order.
var WindowControls = []string{ControlClose, ControlMinimize, ControlZoom}

// WindowControlOf maps a button subrole to its window control, or "".
func WindowControlOf(subrole string) string {
	switch subrole {
	case SubroleCloseButton:
		return ControlClose
	case SubroleMinimizeButton:
		return ControlMinimize
	case SubroleZoomButton:
		return ControlZoom
	}
	return ""
}

// DefaultActionableRoles are emitted as descriptors by the crawler.
var DefaultActionableRoles = []string{RoleButton, RoleMenuButton, RolePopUpButton, RoleCheckBox, RoleCell}

// DefaultStructuralRoles are traversed but never emitted or queried.
var DefaultStructuralRoles = []string{
	RoleWindow, RoleSheet, RoleGroup, RoleScrollArea, RoleSplitGroup, RoleTabGroup,
	RoleToolbar, RoleDrawer, RolePopover, RoleSidebar, RoleUnknown, RoleOutline,
}

// DefaultRowRoles are aggregated into a single row descriptor.
var DefaultRowRoles = []string{RoleRow}

// RoleMap maps macOS AXRole values to compact role codes for display.
var RoleMap = map[string]string{
	"AXButton":      "btn",
	"AXMenuButton":  "btn",
	"AXPopUpButton": "popup",
	"AXStaticText":  "txt",
	"AXLink":        "lnk",
	"AXImage":       "img",
	"AXTextField":   "input",
	"AXSearchField": "input",
	"AXTextArea":    "input",
	"AXCheckBox":    "chk",
	"AXRadioButton": "radio",
	"AXMenu":        "menu",
	"AXMenuBar":     "menu",
	"AXMenuBarItem": "menu",
	"AXMenuItem":    "menuitem",
	"AXTabGroup":    "tab",
	"AXList":        "list",
	"AXTable":       "list",
	"AXOutline":     "list",
	"AXRow":         "row",
	"AXCell":        "cell",
	"AXGroup":       "group",
	"AXSplitGroup":  "group",
	"AXScrollArea":  "scroll",
	"AXToolbar":     "toolbar",
	"AXWebArea":     "web",
	"AXWindow":      "window",
	"AXSheet":       "sheet",
	"AXDialog":      "sheet",
}

// MapRole converts a raw accessibility role to a compact code.
func MapRole(axRole string) string {
	if short, ok := RoleMap[axRole]; ok {
		return short
	}
	return "other"
}

// IsSheetRole reports whether role marks a modal child of a window.
func IsSheetRole(role string) bool {
	return role == RoleSheet || role == RoleDialog
}
