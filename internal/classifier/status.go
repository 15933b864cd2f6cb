package classifier

import (
	"context"
	"strings"

	"github.com/mj1618/navsync/internal/platform"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessProbe reports whether the monitored application is running.
type ProcessProbe interface {
	Running(ctx context.Context, bundleID, appName string) (bool, error)
}

// BackendProbe asks the UI backend.
type BackendProbe struct {
	Manager platform.WindowManager
}

func (p BackendProbe) Running(ctx context.Context, bundleID, _ string) (bool, error) {
	return p.Manager.Running(ctx, bundleID)
}

// ProcessTable scans the OS process table for a process named like the
// application.
type ProcessTable struct{}

func (ProcessTable) Running(ctx context.Context, _, appName string) (bool, error) {
	if appName == "" {
		return false, nil
	}
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue // exited while scanning
		}
		if strings.EqualFold(name, appName) {
			return true, nil
		}
	}
	return false, nil
}

var (
	_ ProcessProbe = BackendProbe{}
	_ ProcessProbe = ProcessTable{}
)
