package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBackendUnavailable      = errors.New("backend unavailable")
	ErrNoActiveTarget          = errors.New("no active target")
	ErrIndexBuildFailed        = errors.New("index build failed")
	ErrStaleTargetRef          = errors.New("stale target ref")
	ErrMenuPathNotFound        = errors.New("menu path not found")
	ErrElementNotFound         = errors.New("element not found")
	ErrApplicationNotFocusable = errors.New("application not focusable")
)

// LookupError carries the key a failed lookup was made against so that
// "cannot resolve X" messages are actionable.
type LookupError struct {
	Kind      error
	BundleID  string
	TargetRef string
	Query     string
	Err       error
}

func (e *LookupError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	fmt.Fprintf(&b, ": bundle=%s", orDash(e.BundleID))
	fmt.Fprintf(&b, " target_ref=%s", orDash(e.TargetRef))
	if e.Query != "" {
		fmt.Fprintf(&b, " query=%q", e.Query)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LookupError) Is(target error) bool { return target == e.Kind }

func (e *LookupError) Unwrap() error { return e.Err }

// NewLookupError builds a LookupError for kind.
func NewLookupError(kind error, bundleID, targetRef, query string, err error) *LookupError {
	return &LookupError{Kind: kind, BundleID: bundleID, TargetRef: targetRef, Query: query, Err: err}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
