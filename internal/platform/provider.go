package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Provider bundles all platform backends for the current OS.
type Provider struct {
	Reader        Reader
	Inputter      Inputter
	WindowManager WindowManager
}

// ErrUnsupported is returned when no backend has registered itself.
var ErrUnsupported = fmt.Errorf("navsync has no UI backend for %s/%s; pass --fixture to use the in-memory backend", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by backend packages via init() or by callers that
// select a backend explicitly (see internal/platform/memory).
var NewProviderFunc func() (*Provider, error)

// NewProvider returns the registered Provider.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	p, err := NewProviderFunc()
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) validate() error {
	var missing []string
	if p.Reader == nil {
		missing = append(missing, "reader")
	}
	if p.Inputter == nil {
		missing = append(missing, "inputter")
	}
	if p.WindowManager == nil {
		missing = append(missing, "window manager")
	}
	if len(missing) > 0 {
		return fmt.Errorf("incomplete provider: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
