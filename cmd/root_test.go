package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/output"
	"github.com/mj1618/navsync/internal/state"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"classify", "target", "find", "click", "menu", "assoc", "row", "window", "build", "serve"}
	commands := rootCmd.Commands()

	found := make(map[string]bool)
	for _, c := range commands {
		found[c.Name()] = true
	}

	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

const fixtureYAML = `
apps:
  - bundle_id: com.apple.notes
    name: Notes
    windows:
      - role: AXWindow
        title: Notes
        main: true
        children:
          - role: AXButton
            title: New Note
            frame: {x: 0, y: 0, w: 10, h: 10}
          - role: AXButton
            subrole: AXCloseButton
            frame: {x: 20, y: 0, w: 6, h: 6}
          - role: AXTable
            children:
              - role: AXRow
                children:
                  - role: AXCell
                    value: Groceries
                    frame: {x: 0, y: 100, w: 100, h: 20}
              - role: AXRow
                children:
                  - role: AXCell
                    value: Groceries
                    frame: {x: 0, y: 120, w: 100, h: 20}
    menu_bar:
      role: AXMenuBar
      children:
        - role: AXMenuBarItem
          title: Apple
        - role: AXMenuBarItem
          title: Format
          children:
            - role: AXMenu
              children:
                - role: AXMenuItem
                  title: Checklist
`

// resetFlags restores every flag to its default so runs do not leak into
// each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type cli struct {
	dataDir string
	fixture string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	fixture := filepath.Join(dir, "fixture.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(fixtureYAML), 0o644))
	return &cli{dataDir: filepath.Join(dir, "data"), fixture: fixture}
}

func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	prev := output.Out
	output.Out = &buf
	defer func() { output.Out = prev }()

	rootCmd.SetArgs(append([]string{"--data-dir", c.dataDir, "--fixture", c.fixture, "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

// publish writes the State Record a running classifier would.
func (c *cli) publish(t *testing.T) {
	t.Helper()
	store, err := state.New(filepath.Join(c.dataDir, "state"))
	require.NoError(t, err)
	_, err = store.Publish("com.apple.notes", model.StateRecord{ActiveTarget: model.ActiveTarget{
		Type:      model.TargetWindow,
		Title:     "Notes",
		TargetRef: "Notes",
		IndexName: model.IndexName(model.IndexNavigation, "com.apple.notes", "Notes"),
		Timestamp: time.Now(),
	}})
	require.NoError(t, err)
}

func TestTargetSetAndShow(t *testing.T) {
	c := newCLI(t)
	out, err := c.run(t, "target", "set", "Notes")
	require.NoError(t, err)
	assert.Contains(t, out, "active_bundle_id: com.apple.notes")
	assert.Contains(t, out, "source: cli")

	c.publish(t)
	out, err = c.run(t, "target", "show", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"target_ref":"Notes"`)
	assert.Contains(t, out, `"age":`)
}

func TestFindAndClick(t *testing.T) {
	c := newCLI(t)
	c.publish(t)
	_, err := c.run(t, "target", "set", "com.apple.notes")
	require.NoError(t, err)

	out, err := c.run(t, "find", "new note")
	require.NoError(t, err)
	assert.Contains(t, out, "ok: true")
	assert.Contains(t, out, "label: New Note")

	out, err = c.run(t, "find", "Delete")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrElementNotFound)
	assert.Contains(t, out, "ok: false")

	out, err = c.run(t, "click", "New Note")
	require.NoError(t, err)
	assert.Contains(t, out, "action: click")
}

func TestClick_RequiresExactlyOneTarget(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "click")
	assert.Error(t, err)
	_, err = c.run(t, "click", "Send", "--at", "1,2")
	assert.Error(t, err)
	_, err = c.run(t, "click", "--at", "oops")
	assert.Error(t, err)
}

func TestMenu(t *testing.T) {
	c := newCLI(t)
	c.publish(t)

	out, err := c.run(t, "menu", "--app", "Notes", "Format > Checklist")
	require.NoError(t, err)
	assert.Contains(t, out, "ok: true")

	out, err = c.run(t, "menu", "--app", "Notes", "--search", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "action: menu_search")
	assert.Contains(t, out, "label: Checklist")

	_, err = c.run(t, "menu", "--app", "Notes", "Format", "Missing")
	assert.ErrorIs(t, err, model.ErrMenuPathNotFound)

	_, err = c.run(t, "menu", "--click")
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	c := newCLI(t)
	c.publish(t)
	out, err := c.run(t, "build", "--app", "Notes")
	require.NoError(t, err)
	assert.Contains(t, out, "elements: 4")
	assert.Contains(t, out, "menu_items: 2")
}

func TestUnsupportedFormat(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "target", "show", "--format", "xml")
	assert.Error(t, err)
}

func TestRowAndWindow(t *testing.T) {
	c := newCLI(t)
	c.publish(t)

	out, err := c.run(t, "row", "--app", "Notes", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "action: row")
	assert.Contains(t, out, "label: Groceries")

	_, err = c.run(t, "row", "--app", "Notes", "3")
	assert.ErrorIs(t, err, model.ErrElementNotFound)
	_, err = c.run(t, "row", "--app", "Notes", "two")
	assert.Error(t, err)

	out, err = c.run(t, "window", "--app", "Notes")
	require.NoError(t, err)
	assert.Contains(t, out, "label: close button")

	out, err = c.run(t, "window", "--app", "Notes", "close")
	require.NoError(t, err)
	assert.Contains(t, out, "action: close")

	_, err = c.run(t, "window", "--app", "Notes", "maximize")
	assert.ErrorIs(t, err, model.ErrElementNotFound)
	_, err = c.run(t, "window", "--app", "Notes", "fullscreen")
	assert.Error(t, err)
}

func TestAssoc_FindAndClick(t *testing.T) {
	c := newCLI(t)
	c.publish(t)
	navConfig := filepath.Join(t.TempDir(), "nav.yaml")
	require.NoError(t, os.WriteFile(navConfig, []byte(`
rules:
  - bundle_id: com.apple.notes
    target_ref: "*"
    associations:
      - name: folders
`), 0o644))

	_, err := c.run(t, "--nav-config", navConfig, "assoc", "--app", "Notes", "folders", "--find", "Recipes")
	assert.ErrorIs(t, err, model.ErrElementNotFound, "a missing source is empty")

	_, err = c.run(t, "assoc", "--app", "Notes", "folders", "--find", "a", "--click", "b")
	assert.Error(t, err)
}
