package crawler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mj1618/navsync/internal/model"
)

// Config controls one crawl. Zero-valued fields fall back to defaults via
// WithDefaults.
type Config struct {
	MaxDepth        int      `yaml:"max_depth,omitempty"`
	MaxResults      int      `yaml:"max_results,omitempty"`
	MenuMaxDepth    int      `yaml:"menu_max_depth,omitempty"`
	ActionableRoles []string `yaml:"actionable_roles,omitempty"`
	CompositeRoles  []string `yaml:"composite_roles,omitempty"`
	StructuralRoles []string `yaml:"structural_roles,omitempty"`
	RowRoles        []string `yaml:"row_roles,omitempty"`
	SkipRoles       []string `yaml:"skip_roles,omitempty"`

	// SkipIdentifiers and SkipDescriptions drop any node whose identifier
	// or description contains one of the entries, case-insensitively.
	SkipIdentifiers  []string `yaml:"skip_identifiers,omitempty"`
	SkipDescriptions []string `yaml:"skip_descriptions,omitempty"`

	// TextFieldLabels overrides the label of the n-th text field found.
	TextFieldLabels map[int]string `yaml:"textfield_labels,omitempty"`

	// RowFields classifies row cell values, tried in order.
	RowFields []FieldRule `yaml:"row_fields,omitempty"`
}

// DefaultConfig returns the built-in crawl configuration.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.MaxDepth <= 0 {
		c.MaxDepth = 10
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 120
	}
	if c.MenuMaxDepth <= 0 {
		c.MenuMaxDepth = 10
	}
	if c.ActionableRoles == nil {
		c.ActionableRoles = model.DefaultActionableRoles
	}
	if c.CompositeRoles == nil {
		c.CompositeRoles = []string{model.RoleCell}
	}
	if c.StructuralRoles == nil {
		c.StructuralRoles = model.DefaultStructuralRoles
	}
	if c.RowRoles == nil {
		c.RowRoles = model.DefaultRowRoles
	}
	if c.RowFields == nil {
		c.RowFields = DefaultRowFields()
	}
	return c
}

// Validate checks the role sets are disjoint and every row rule compiles.
func (c Config) Validate() error {
	owner := map[string]string{}
	for name, set := range map[string][]string{
		"actionable": c.ActionableRoles,
		"structural": c.StructuralRoles,
		"row":        c.RowRoles,
		"skip":       c.SkipRoles,
	} {
		for _, r := range set {
			if prev, ok := owner[r]; ok && prev != name {
				return fmt.Errorf("role %s is both %s and %s", r, prev, name)
			}
			owner[r] = name
		}
	}
	for _, r := range c.RowFields {
		if _, err := r.Predicate(); err != nil {
			return err
		}
	}
	return nil
}

// Field rule kinds.
const (
	RuleDate  = "date"
	RuleSize  = "size"
	RuleKind  = "kind"
	RuleName  = "name"
	RuleRegex = "regex"
)

// FieldRule maps row cell values matching a predicate onto a named field.
type FieldRule struct {
	Field      string   `yaml:"field"`
	Kind       string   `yaml:"kind"`
	Pattern    string   `yaml:"pattern,omitempty"`
	Vocabulary []string `yaml:"vocabulary,omitempty"`
}

// DefaultKinds is the built-in file-kind vocabulary.
var DefaultKinds = []string{
	"folder", "document", "alias", "application", "plain text", "python source",
	"markdown document", "pdf document", "png image", "jpeg image", "zip archive",
}

// DefaultRowFields returns the date, size, kind and name rules.
func DefaultRowFields() []FieldRule {
	return []FieldRule{
		{Field: model.FieldDate, Kind: RuleDate},
		{Field: model.FieldSize, Kind: RuleSize},
		{Field: model.FieldKind, Kind: RuleKind},
		{Field: model.FieldName, Kind: RuleName},
	}
}

var (
	dateRes = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2} \w{3,9} \d{4}( at \d{1,2}:\d{2})?\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		regexp.MustCompile(`(?i)^(today|yesterday)( at \d{1,2}:\d{2})?$`),
	}
	nameRe = regexp.MustCompile(`^.+\.[a-zA-Z0-9]+$`)
)

// IsDateLike reports whether v looks like a Finder-style date.
func IsDateLike(v string) bool {
	for _, re := range dateRes {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// IsSizeLike reports whether v is a byte size with a unit, e.g. "12 KB".
func IsSizeLike(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || v[0] < '0' || v[0] > '9' {
		return false
	}
	if !strings.ContainsAny(strings.ToLower(v), "bkmgtp") {
		return false
	}
	v = strings.Replace(v, ",", ".", 1)
	lower := strings.ToLower(v)
	for _, unit := range []string{"bytes", "byte"} {
		if strings.HasSuffix(lower, unit) {
			v = v[:len(v)-len(unit)] + "B"
			break
		}
	}
	_, err := humanize.ParseBytes(v)
	return err == nil
}

// Predicate compiles the rule.
func (r FieldRule) Predicate() (func(string) bool, error) {
	switch r.Kind {
	case RuleDate:
		return IsDateLike, nil
	case RuleSize:
		return IsSizeLike, nil
	case RuleKind:
		vocab := r.Vocabulary
		if len(vocab) == 0 {
			vocab = DefaultKinds
		}
		set := make(map[string]bool, len(vocab))
		for _, k := range vocab {
			set[strings.ToLower(k)] = true
		}
		return func(v string) bool { return set[strings.ToLower(strings.TrimSpace(v))] }, nil
	case RuleName:
		return nameRe.MatchString, nil
	case RuleRegex:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("row field %s: %w", r.Field, err)
		}
		return re.MatchString, nil
	default:
		return nil, fmt.Errorf("row field %s: unknown kind %q", r.Field, r.Kind)
	}
}
