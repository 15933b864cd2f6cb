// Package navconfig holds the per-(bundle_id, target_ref) navigation
// configuration: crawl settings, volatility and declared associations.
package navconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mj1618/navsync/internal/crawler"
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/target"
	"gopkg.in/yaml.v3"
)

// Wildcard matches any bundle id or target ref.
const Wildcard = "*"

// Association declares a named secondary index.
type Association struct {
	Name string `yaml:"name"`

	// Source is a file path; ${DATA_DIR}, ${BUNDLE_ID} and ${TARGET_REF}
	// are expanded. Empty means the default association index name.
	Source string        `yaml:"source,omitempty"`
	TTL    time.Duration `yaml:"ttl,omitempty"`
}

// defaultTTLs are the per-kind association lifetimes.
var defaultTTLs = map[string]time.Duration{
	"picker":   30 * time.Second,
	"messages": 60 * time.Second,
	"menu":     60 * time.Second,
	"focus":    5 * time.Second,
}

// DefaultTTL is used for associations of unknown kind without a ttl.
const DefaultTTL = 30 * time.Second

// Lifetime returns the association's TTL, falling back to its kind default.
func (a Association) Lifetime() time.Duration {
	if a.TTL > 0 {
		return a.TTL
	}
	if d, ok := defaultTTLs[a.Name]; ok {
		return d
	}
	return DefaultTTL
}

// Path resolves the association's source for a target.
func (a Association) Path(dataDir, bundleID, targetRef string) string {
	if a.Source == "" {
		return model.IndexName(model.IndexAssociation, bundleID, targetRef, a.Name)
	}
	return os.Expand(a.Source, func(key string) string {
		switch key {
		case "DATA_DIR":
			return dataDir
		case "BUNDLE_ID":
			return bundleID
		case "TARGET_REF":
			return targetRef
		}
		return "${" + key + "}"
	})
}

// Rule configures one (bundle_id, target_ref) pair; either may be Wildcard.
type Rule struct {
	BundleID       string `yaml:"bundle_id"`
	TargetRef      string `yaml:"target_ref"`
	Volatile       bool   `yaml:"volatile,omitempty"`
	crawler.Config `yaml:",inline"`
	Associations   []Association `yaml:"associations,omitempty"`
}

// Association looks up a declared association by name.
func (r Rule) Association(name string) (Association, bool) {
	for _, a := range r.Associations {
		if a.Name == name {
			return a, true
		}
	}
	return Association{}, false
}

// Table is the whole configuration document.
type Table struct {
	target.Refs `yaml:",inline"`

	// VolatileRefs marks targets whose ref contains any entry
	// (case-insensitive) as always rebuilt.
	VolatileRefs []string `yaml:"volatile_refs,omitempty"`

	// VolatileTypes marks target types (window, sheet, float) as always
	// rebuilt.
	VolatileTypes []model.TargetType `yaml:"volatile_types,omitempty"`

	Rules []Rule `yaml:"rules,omitempty"`
}

// Default returns the built-in table.
func Default() *Table {
	return &Table{
		Refs:         target.DefaultRefs(),
		VolatileRefs: []string{"FilePicker", "SendMessageAlert", "sheet"},
	}
}

// Load reads a YAML table from path. A missing file yields Default().
// Remap entries from the file are merged over the built-in ones.
func Load(path string) (*Table, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("read nav config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML table.
func Parse(data []byte) (*Table, error) {
	t := Default()
	var file Table
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse nav config: %w", err)
	}
	for k, v := range file.Remap {
		t.Remap[k] = v
	}
	if file.Passthrough != nil {
		t.Passthrough = file.Passthrough
	}
	if file.VolatileRefs != nil {
		t.VolatileRefs = file.VolatileRefs
	}
	if file.VolatileTypes != nil {
		t.VolatileTypes = file.VolatileTypes
	}
	t.Rules = file.Rules
	for i, r := range t.Rules {
		if r.BundleID == "" || r.TargetRef == "" {
			return nil, fmt.Errorf("nav config rule %d: bundle_id and target_ref are required (use %q for any)", i, Wildcard)
		}
		if err := r.Config.WithDefaults().Validate(); err != nil {
			return nil, fmt.Errorf("nav config rule %d (%s/%s): %w", i, r.BundleID, r.TargetRef, err)
		}
	}
	return t, nil
}

// Resolve returns the rule for (bundleID, targetRef), trying the exact pair,
// then (bundleID, *), then (*, *), then the built-in defaults. The first
// matching rule wins; rules are not merged. Crawl defaults are applied.
func (t *Table) Resolve(bundleID, targetRef string) Rule {
	for _, key := range [][2]string{
		{bundleID, targetRef},
		{bundleID, Wildcard},
		{Wildcard, Wildcard},
	} {
		for _, r := range t.Rules {
			if r.BundleID == key[0] && r.TargetRef == key[1] {
				r.Config = r.Config.WithDefaults()
				return r
			}
		}
	}
	return Rule{BundleID: Wildcard, TargetRef: Wildcard, Config: crawler.DefaultConfig()}
}

// IsVolatile reports whether indexes for at must be rebuilt on every load.
func (t *Table) IsVolatile(r Rule, at model.ActiveTarget) bool {
	if r.Volatile {
		return true
	}
	for _, typ := range t.VolatileTypes {
		if typ == at.Type {
			return true
		}
	}
	ref := strings.ToLower(at.TargetRef)
	for _, v := range t.VolatileRefs {
		if v != "" && strings.Contains(ref, strings.ToLower(v)) {
			return true
		}
	}
	return false
}
