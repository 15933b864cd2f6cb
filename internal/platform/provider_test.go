package platform

import (
	"errors"
	"strings"
	"testing"
)

func TestNewProvider_Unregistered(t *testing.T) {
	orig := NewProviderFunc
	NewProviderFunc = nil
	defer func() { NewProviderFunc = orig }()

	_, err := NewProvider()
	if err == nil {
		t.Fatal("expected error without a registered backend")
	}
	if err != ErrUnsupported {
		t.Errorf("expected ErrUnsupported, got: %v", err)
	}
}

func TestNewProvider_Incomplete(t *testing.T) {
	orig := NewProviderFunc
	NewProviderFunc = func() (*Provider, error) { return &Provider{}, nil }
	defer func() { NewProviderFunc = orig }()

	_, err := NewProvider()
	if err == nil {
		t.Fatal("expected error for incomplete provider")
	}
	for _, part := range []string{"reader", "inputter", "window manager"} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("error %q should mention %s", err, part)
		}
	}
}

func TestNewProvider_FactoryError(t *testing.T) {
	orig := NewProviderFunc
	boom := errors.New("boom")
	NewProviderFunc = func() (*Provider, error) { return nil, boom }
	defer func() { NewProviderFunc = orig }()

	if _, err := NewProvider(); !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
}
