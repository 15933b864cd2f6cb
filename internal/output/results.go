package output

import "github.com/mj1618/navsync/internal/model"

// ElementResult is the output of find and click, including clicks on
// association items, rows and window controls.
type ElementResult struct {
	OK        bool              `yaml:"ok"                   json:"ok"`
	Action    string            `yaml:"action"               json:"action"`
	App       string            `yaml:"app"                  json:"app"`
	TargetRef string            `yaml:"target_ref"           json:"target_ref"`
	Element   *model.Descriptor `yaml:"element,omitempty"    json:"element,omitempty"`
	Path      string            `yaml:"path,omitempty"       json:"path,omitempty"`
	Error     string            `yaml:"error,omitempty"      json:"error,omitempty"`
}

// MenuResult is the output of menu navigation and search.
type MenuResult struct {
	OK     bool              `yaml:"ok"                json:"ok"`
	Action string            `yaml:"action"            json:"action"`
	App    string            `yaml:"app"               json:"app"`
	Path   []string          `yaml:"path"              json:"path"`
	Item   *model.Descriptor `yaml:"item,omitempty"    json:"item,omitempty"`
	Error  string            `yaml:"error,omitempty"   json:"error,omitempty"`
}

// AssociationResult is the output of assoc.
type AssociationResult struct {
	App       string             `yaml:"app"        json:"app"`
	TargetRef string             `yaml:"target_ref" json:"target_ref"`
	Name      string             `yaml:"name"       json:"name"`
	Items     []model.Descriptor `yaml:"items"      json:"items"`
}

// ControlsResult lists the target window's title-bar buttons.
type ControlsResult struct {
	App       string             `yaml:"app"        json:"app"`
	TargetRef string             `yaml:"target_ref" json:"target_ref"`
	Controls  []model.Descriptor `yaml:"controls"   json:"controls"`
}

// BuildResult summarizes a forced index build.
type BuildResult struct {
	App       string              `yaml:"app"                 json:"app"`
	TargetRef string              `yaml:"target_ref"          json:"target_ref"`
	Index     string              `yaml:"index"               json:"index"`
	Fields    int                 `yaml:"fields"              json:"fields"`
	Elements  int                 `yaml:"elements"            json:"elements"`
	MenuItems int                 `yaml:"menu_items"          json:"menu_items"`
	Size      string              `yaml:"size,omitempty"      json:"size,omitempty"`
	Changes   []model.IndexChange `yaml:"changes,omitempty"   json:"changes,omitempty"`
}

// TargetResult shows the global record and the per-app State Records.
type TargetResult struct {
	Global  *model.GlobalRecord `yaml:"global,omitempty"  json:"global,omitempty"`
	Records []RecordSummary     `yaml:"records,omitempty" json:"records,omitempty"`
}

// RecordSummary is a State Record with a human age.
type RecordSummary struct {
	model.StateRecord `yaml:",inline"`
	Age               string `yaml:"age" json:"age"`
}
