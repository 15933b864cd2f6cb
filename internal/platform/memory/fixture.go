package memory

import (
	"fmt"
	"os"

	"github.com/mj1618/navsync/internal/model"
	"gopkg.in/yaml.v3"
)

// Fixture is a scripted desktop: a set of applications with their windows
// and menu bars. It is the YAML document accepted by --fixture.
type Fixture struct {
	Screen model.Point   `yaml:"screen"`
	Apps   []*AppFixture `yaml:"apps"`
}

// AppFixture is one scripted application.
type AppFixture struct {
	BundleID    string  `yaml:"bundle_id"`
	Name        string  `yaml:"name"`
	PID         int     `yaml:"pid"`
	Running     *bool   `yaml:"running,omitempty"`
	Unfocusable bool    `yaml:"unfocusable,omitempty"`
	Windows     []*Node `yaml:"windows"`
	MenuBar     *Node   `yaml:"menu_bar,omitempty"`
}

// Node is one scripted UI element.
type Node struct {
	Role        string      `yaml:"role"`
	Subrole     string      `yaml:"subrole,omitempty"`
	Title       string      `yaml:"title,omitempty"`
	Identifier  string      `yaml:"identifier,omitempty"`
	Description string      `yaml:"description,omitempty"`
	Help        string      `yaml:"help,omitempty"`
	Placeholder string      `yaml:"placeholder,omitempty"`
	Value       string      `yaml:"value,omitempty"`
	Shortcut    string      `yaml:"shortcut,omitempty"`
	Frame       *model.Rect `yaml:"frame,omitempty"`
	Focused     bool        `yaml:"focused,omitempty"`
	Main        bool        `yaml:"main,omitempty"`
	Modal       bool        `yaml:"modal,omitempty"`
	Disabled    bool        `yaml:"disabled,omitempty"`

	// Collapsed hides Children until the node is pressed via PressPath.
	Collapsed bool    `yaml:"collapsed,omitempty"`
	Children  []*Node `yaml:"children,omitempty"`
}

// LoadFixture reads a YAML fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	for i, app := range f.Apps {
		if app.BundleID == "" {
			return nil, fmt.Errorf("fixture %s: app %d has no bundle_id", path, i)
		}
	}
	return &f, nil
}
