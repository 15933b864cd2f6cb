package model

import (
	"strconv"
	"strings"
)

// ChangeType represents the kind of index change detected.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeMoved   ChangeType = "moved"
)

// IndexChange is a single difference between two index builds.
type IndexChange struct {
	Type  ChangeType `json:"type" yaml:"type"`
	Role  string     `json:"role" yaml:"role"`
	Label string     `json:"label" yaml:"label"`
	Path  string     `json:"path,omitempty" yaml:"path,omitempty"`
	From  *Point     `json:"from,omitempty" yaml:"from,omitempty"`
	To    *Point     `json:"to,omitempty" yaml:"to,omitempty"`
}

// DescriptorKey identifies a descriptor across builds: role, label and
// ancestor path. Click points are not part of the key.
func DescriptorKey(d Descriptor) string {
	var b strings.Builder
	b.WriteString(d.Role)
	b.WriteByte('|')
	b.WriteString(d.Label)
	for _, seg := range d.AncestorPath {
		b.WriteByte('|')
		b.WriteString(seg.Role)
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(seg.Index))
	}
	return b.String()
}

// DiffDescriptors compares two descriptor sequences by DescriptorKey.
func DiffDescriptors(prev, curr []Descriptor) []IndexChange {
	prevMap := make(map[string]Descriptor, len(prev))
	for _, d := range prev {
		prevMap[DescriptorKey(d)] = d
	}
	currKeys := make(map[string]bool, len(curr))

	var changes []IndexChange
	for _, d := range curr {
		key := DescriptorKey(d)
		currKeys[key] = true
		old, existed := prevMap[key]
		if !existed {
			changes = append(changes, IndexChange{Type: ChangeAdded, Role: d.Role, Label: d.Label, Path: d.PathString(), To: d.ClickPoint})
			continue
		}
		if !samePoint(old.ClickPoint, d.ClickPoint) {
			changes = append(changes, IndexChange{Type: ChangeMoved, Role: d.Role, Label: d.Label, Path: d.PathString(), From: old.ClickPoint, To: d.ClickPoint})
		}
	}
	for _, d := range prev {
		if !currKeys[DescriptorKey(d)] {
			changes = append(changes, IndexChange{Type: ChangeRemoved, Role: d.Role, Label: d.Label, Path: d.PathString(), From: d.ClickPoint})
		}
	}
	return changes
}

func samePoint(a, b *Point) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
