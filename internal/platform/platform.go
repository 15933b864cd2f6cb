package platform

import (
	"context"

	"github.com/mj1618/navsync/internal/model"
)

// Element is a live node of a target application's accessibility tree. It is
// only valid for the duration of one query; callers derive descriptors from
// it and never retain it.
type Element interface {
	// Attribute fetches a named attribute. The second result is false when
	// the attribute is absent. Each call may be a round trip to the OS.
	Attribute(name string) (any, bool)

	// Children returns the element's children in on-screen order.
	Children() []Element
}

// App is a handle to a focused target application.
type App struct {
	BundleID string
	Name     string
	PID      int
}

// Reader reads UI element trees from the OS accessibility layer.
type Reader interface {
	// Windows returns the top-level windows of app.
	Windows(ctx context.Context, app App) ([]Element, error)

	// MenuBar returns app's menu bar element.
	MenuBar(ctx context.Context, app App) (Element, error)
}

// Inputter injects pointer events and menu presses.
type Inputter interface {
	Click(ctx context.Context, p model.Point) error

	// PressPath presses the menu item at the end of labels. The leading
	// labels locate it from the menu bar through menus opened by earlier
	// calls; they are not pressed again, so a caller walking a submenu
	// chain presses each level exactly once.
	PressPath(ctx context.Context, app App, labels []string) error

	// PointerLocation returns the current pointer position.
	PointerLocation(ctx context.Context) (model.Point, error)
}

// WindowManager resolves, focuses and inspects applications.
type WindowManager interface {
	// Focus activates the application and returns a handle to it.
	Focus(ctx context.Context, bundleID string) (App, error)

	// Resolve maps an application name or bundle id to its canonical bundle
	// id and display name.
	Resolve(ctx context.Context, nameOrID string) (bundleID, appName string, err error)

	// Running reports whether the application has a live process.
	Running(ctx context.Context, bundleID string) (bool, error)

	// ScreenSize returns the main screen size.
	ScreenSize(ctx context.Context) (width, height float64, err error)
}
