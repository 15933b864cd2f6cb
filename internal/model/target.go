package model

import "time"

// TargetType is the kind of surface elected as the active target.
type TargetType string

const (
	TargetWindow TargetType = "window"
	TargetSheet  TargetType = "sheet"
	TargetFloat  TargetType = "float"
)

// ActiveTarget is the elected navigable surface of an application.
type ActiveTarget struct {
	Type      TargetType `json:"type" yaml:"type"`
	Title     string     `json:"title" yaml:"title"`
	TargetRef string     `json:"target_ref" yaml:"target_ref"`
	IndexName string     `json:"index_name" yaml:"index_name"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
}

// SameAs reports whether a and b describe the same surface, ignoring time.
func (a ActiveTarget) SameAs(b ActiveTarget) bool {
	return a.Type == b.Type && a.Title == b.Title && a.TargetRef == b.TargetRef
}

// StateRecord is what a classifier publishes for one application.
type StateRecord struct {
	ActiveTarget ActiveTarget `json:"active_target" yaml:"active_target"`
	BundleID     string       `json:"bundle_id" yaml:"bundle_id"`
	AppName      string       `json:"app_name,omitempty" yaml:"app_name,omitempty"`
	Source       string       `json:"source" yaml:"source"`
	Timestamp    time.Time    `json:"timestamp" yaml:"timestamp"`
	Version      uint64       `json:"version" yaml:"version"`
}

// Status values of the global record.
const (
	StatusActive  = "active"
	StatusRunning = "running"
	StatusQuit    = "quit"
)

// GlobalRecord is the single-slot desired-target channel shared by all
// processes. The last write wins; Version increases on every write.
type GlobalRecord struct {
	ActiveBundleID string    `json:"active_bundle_id" yaml:"active_bundle_id"`
	Status         string    `json:"status" yaml:"status"`
	Source         string    `json:"source" yaml:"source"`
	Refresh        bool      `json:"refresh" yaml:"refresh"`
	RefreshReason  string    `json:"refresh_reason,omitempty" yaml:"refresh_reason,omitempty"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	Version        uint64    `json:"version" yaml:"version"`
}
