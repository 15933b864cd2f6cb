package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/navcache"
	"github.com/mj1618/navsync/internal/navconfig"
	"github.com/mj1618/navsync/internal/output"
	"github.com/mj1618/navsync/internal/platform"
	"go.uber.org/zap"
)

func (s *Server) registerTools() {
	appParam := mcp.WithString("app", mcp.Description("Application bundle id or name (default: the active bundle of the global record)"))

	s.mcp.AddTool(
		mcp.NewTool("find",
			mcp.WithDescription("Find an element of the active target by label: exact match first, then case-insensitive substring"),
			appParam,
			mcp.WithString("label", mcp.Description("Element label"), mcp.Required()),
		),
		s.handleFind,
	)

	s.mcp.AddTool(
		mcp.NewTool("click",
			mcp.WithDescription("Click an element of the active target by label, or a screen point"),
			appParam,
			mcp.WithString("label", mcp.Description("Element label")),
			mcp.WithNumber("x", mcp.Description("Click at X coordinate")),
			mcp.WithNumber("y", mcp.Description("Click at Y coordinate")),
		),
		s.handleClick,
	)

	s.mcp.AddTool(
		mcp.NewTool("menu",
			mcp.WithDescription("Press a menu item by its path, e.g. 'File > Export > PDF'"),
			appParam,
			mcp.WithString("path", mcp.Description("Menu path, segments separated by '>'"), mcp.Required()),
		),
		s.handleMenu,
	)

	s.mcp.AddTool(
		mcp.NewTool("menu_search",
			mcp.WithDescription("Fuzzy-search the menu index, optionally pressing the best match"),
			appParam,
			mcp.WithString("query", mcp.Description("Free-form query, e.g. 'export pdf'"), mcp.Required()),
			mcp.WithBoolean("click", mcp.Description("Press the best match")),
		),
		s.handleMenuSearch,
	)

	s.mcp.AddTool(
		mcp.NewTool("association",
			mcp.WithDescription("Read a declared association (secondary index) of the active target, or find and click one of its items"),
			appParam,
			mcp.WithString("name", mcp.Description("Association name, e.g. picker"), mcp.Required()),
			mcp.WithString("label", mcp.Description("Find the item with this label instead of listing")),
			mcp.WithBoolean("click", mcp.Description("Click the item found by label")),
		),
		s.handleAssociation,
	)

	s.mcp.AddTool(
		mcp.NewTool("row",
			mcp.WithDescription("Click the n-th row (1-based) of the active target's navigation index"),
			appParam,
			mcp.WithNumber("index", mcp.Description("Row number, starting at 1"), mcp.Required()),
		),
		s.handleRow,
	)

	s.mcp.AddTool(
		mcp.NewTool("window",
			mcp.WithDescription("List the active window's title-bar controls, or press one"),
			appParam,
			mcp.WithString("action",
				mcp.Description("controls, close, minimize or maximize"),
				mcp.Enum("controls", "close", "minimize", "maximize"),
				mcp.DefaultString("controls"),
			),
		),
		s.handleWindow,
	)

	s.mcp.AddTool(
		mcp.NewTool("target",
			mcp.WithDescription("Show the global desired-target record and the published State Records"),
			mcp.WithString("set", mcp.Description("Point the classifier at this application")),
		),
		s.handleTarget,
	)

	s.mcp.AddTool(
		mcp.NewTool("refresh",
			mcp.WithDescription("Ask the classifier to re-focus and re-scan, and drop cached navigators"),
			mcp.WithString("reason", mcp.Description("Reason recorded in the global record")),
		),
		s.handleRefresh,
	)

	s.mcp.AddTool(
		mcp.NewTool("build",
			mcp.WithDescription("Rebuild the active target's indexes and report what changed"),
			appParam,
		),
		s.handleBuild,
	)
}

// toText serializes v to YAML for an MCP response.
func toText(v interface{}) string {
	var buf bytes.Buffer
	if err := output.Write(&buf, output.FormatYAML, false, v); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return buf.String()
}

func errorResult(v interface{}) *mcp.CallToolResult {
	return mcp.NewToolResultError(toText(v))
}

// Open constructs a Navigator for bundleID.
func (d Deps) Open(ctx context.Context, bundleID string) (*navcache.Navigator, error) {
	return navcache.New(ctx, bundleID, navcache.Options{
		Provider:    d.Provider,
		Store:       d.Store,
		Indexes:     d.Indexes,
		Config:      d.Table,
		Logger:      d.Logger,
		DataDir:     d.DataDir,
		ActionDelay: d.ActionDelay,
		CallTimeout: d.CallTimeout,
	})
}

// ResolveApp maps an app name or bundle id to a bundle id. An empty app
// falls back to the global record's active bundle.
func (d Deps) ResolveApp(ctx context.Context, app string) (string, error) {
	if app == "" {
		g, err := d.Store.ReadGlobal()
		if err != nil || g.ActiveBundleID == "" {
			return "", fmt.Errorf("no app given and no active bundle: %w", model.ErrNoActiveTarget)
		}
		return g.ActiveBundleID, nil
	}
	return platform.Bounded(ctx, d.CallTimeout, func(ctx context.Context) (string, error) {
		id, _, err := d.Provider.WindowManager.Resolve(ctx, app)
		return id, err
	})
}

func (s *Server) navigator(ctx context.Context, request mcp.CallToolRequest) (*navcache.Navigator, error) {
	bundleID, err := s.deps.ResolveApp(ctx, request.GetString("app", ""))
	if err != nil {
		return nil, err
	}
	return s.pool.Get(ctx, bundleID)
}

func (s *Server) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := output.ElementResult{Action: "find"}
	label, err := request.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nav, err := s.navigator(ctx, request)
	if err != nil {
		res.Error = err.Error()
		return errorResult(res), nil
	}
	res.App, res.TargetRef = nav.BundleID(), nav.Target().TargetRef
	d, err := nav.FindElement(ctx, label)
	if err != nil {
		res.Error = err.Error()
		return errorResult(res), nil
	}
	res.OK, res.Element, res.Path = true, &d, d.PathString()
	return mcp.NewToolResultText(toText(res)), nil
}

func (s *Server) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := output.ElementResult{Action: "click"}
	label := request.GetString("label", "")
	args := request.GetArguments()
	_, hasX := args["x"]
	_, hasY := args["y"]
	if label == "" && !(hasX && hasY) {
		return mcp.NewToolResultError("specify label, or both x and y"), nil
	}
	nav, err := s.navigator(ctx, request)
	if err != nil {
		res.Error = err.Error()
		return errorResult(res), nil
	}
	res.App = nav.BundleID()

	if label == "" {
		p := model.Point{X: request.GetFloat("x", 0), Y: request.GetFloat("y", 0)}
		err = nav.ClickAt(ctx, p)
	} else {
		var d model.Descriptor
		d, err = nav.ClickElement(ctx, label)
		if d.Label != "" {
			res.Element, res.Path = &d, d.PathString()
		}
	}
	res.TargetRef = nav.Target().TargetRef
	if err != nil {
		res.Error = err.Error()
		return errorResult(res), nil
	}
	res.OK = true
	return mcp.NewToolResultText(toText(res)), nil
}

// SplitMenuPath parses "File > Export > PDF" into its segments.
func SplitMenuPath(s string) []string {
	var out []string
	for _, seg := range strings.Split(s, ">") {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func (s *Server) handleMenu(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := output.MenuResult{Action: "menu", Path: SplitMenuPath(raw)}
	nav, err := s.navigator(ctx, request)
	if err != nil {
		res.Error = err.Error()
		return errorResult(res), nil
	}
	res.App = nav.BundleID()
	if err := nav.NavigateMenuPath(ctx, res.Path); err != nil {
		res.Error = err.Error()
		return errorResult(res), nil
	}
	res.OK = true
	return mcp.NewToolResultText(toText(res)), nil
}

func (s *Server) handleMenuSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := output.MenuResult{Action: "menu_search"}
	nav, err := s.navigator(ctx, request)
	if err != nil {
		res.Error = err.Error()
		return errorResult(res), nil
	}
	res.App = nav.BundleID()

	var d model.Descriptor
	if request.GetBool("click", false) {
		res.Action = "menu_click"
		d, err = nav.ClickMenuItem(ctx, query)
	} else {
		d, err = nav.FindMenuItem(ctx, query)
	}
	if d.Label != "" {
		res.Item, res.Path = &d, d.MenuPath()
	}
	if err != nil {
		res.Error = err.Error()
		return errorResult(res), nil
	}
	res.OK = true
	return mcp.NewToolResultText(toText(res)), nil
}

func (s *Server) handleAssociation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if label := request.GetString("label", ""); label != "" {
		if request.GetBool("click", false) {
			return s.elementAction(ctx, request, "association_click", func(nav *navcache.Navigator) (model.Descriptor, error) {
				return nav.ClickAssociationItem(ctx, name, label)
			})
		}
		return s.elementAction(ctx, request, "association_find", func(nav *navcache.Navigator) (model.Descriptor, error) {
			return nav.FindAssociationItem(ctx, name, label)
		})
	}
	nav, err := s.navigator(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := nav.GetAssociation(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toText(output.AssociationResult{
		App:       nav.BundleID(),
		TargetRef: nav.Target().TargetRef,
		Name:      name,
		Items:     items,
	})), nil
}

func (s *Server) handleRow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := request.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.elementAction(ctx, request, "row", func(nav *navcache.Navigator) (model.Descriptor, error) {
		return nav.ClickRow(ctx, i)
	})
}

// windowActions maps the window tool's actions to window controls.
var windowActions = map[string]string{
	"close":    model.ControlClose,
	"minimize": model.ControlMinimize,
	"maximize": model.ControlZoom,
}

func (s *Server) handleWindow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := request.GetString("action", "controls")
	if control, ok := windowActions[action]; ok {
		return s.elementAction(ctx, request, action, func(nav *navcache.Navigator) (model.Descriptor, error) {
			return nav.PressWindowControl(ctx, control)
		})
	}
	if action != "controls" {
		return mcp.NewToolResultError(fmt.Sprintf("unknown window action %q", action)), nil
	}
	nav, err := s.navigator(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	controls, err := nav.WindowControls(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toText(output.ControlsResult{
		App:       nav.BundleID(),
		TargetRef: nav.Target().TargetRef,
		Controls:  controls,
	})), nil
}

// elementAction runs fn on the request's navigator and reports the
// descriptor it acted on.
func (s *Server) elementAction(ctx context.Context, request mcp.CallToolRequest, action string,
	fn func(*navcache.Navigator) (model.Descriptor, error)) (*mcp.CallToolResult, error) {
	res := output.ElementResult{Action: action}
	nav, err := s.navigator(ctx, request)
	if err != nil {
		res.Error = err.Error()
		return errorResult(res), nil
	}
	res.App = nav.BundleID()
	d, err := fn(nav)
	if d.Label != "" {
		res.Element, res.Path = &d, d.PathString()
	}
	res.TargetRef = nav.Target().TargetRef
	if err != nil {
		res.Error = err.Error()
		return errorResult(res), nil
	}
	res.OK = true
	return mcp.NewToolResultText(toText(res)), nil
}

func (s *Server) handleTarget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if app := request.GetString("set", ""); app != "" {
		bundleID, err := s.deps.ResolveApp(ctx, app)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, err := s.deps.Store.SetActiveBundle(bundleID, "mcp"); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.deps.Logger.Info("active bundle set", zap.String("bundle_id", bundleID))
	}
	res, err := Summarize(s.deps.Store)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toText(res)), nil
}

func (s *Server) handleRefresh(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reason := request.GetString("reason", "manual")
	g, err := s.deps.Store.RequestRefresh(reason, "mcp")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.pool.Invalidate(navconfig.Wildcard)
	return mcp.NewToolResultText(toText(output.TargetResult{Global: &g})), nil
}

func (s *Server) handleBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nav, err := s.navigator(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := Build(ctx, nav, s.deps.Indexes)
	if err != nil {
		if errors.Is(err, model.ErrIndexBuildFailed) || errors.Is(err, model.ErrStaleTargetRef) {
			s.pool.Invalidate(nav.BundleID())
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toText(res)), nil
}
