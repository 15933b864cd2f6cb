package classifier

import (
	"context"
	"errors"
	"time"

	"github.com/mj1618/navsync/internal/platform"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrAborted is returned when the operator moves the pointer into the
// abort corner.
var ErrAborted = errors.New("aborted by corner gesture")

// CornerAbort watches the pointer and aborts when it enters the top-right
// corner of the screen.
type CornerAbort struct {
	Provider *platform.Provider
	Corner   float64       // px from the top-right corner
	Interval time.Duration // pointer poll cadence
	Logger   *zap.Logger

	// CallTimeout bounds each screen and pointer query; 0 means one second.
	CallTimeout time.Duration
}

// Watch polls the pointer until ctx is done (returning nil) or the corner
// is hit (returning ErrAborted). Pointer errors are ignored.
func (a *CornerAbort) Watch(ctx context.Context) error {
	interval := a.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if a.hit(ctx) {
				logger.Info("abort corner reached")
				return ErrAborted
			}
		}
	}
}

func (a *CornerAbort) hit(ctx context.Context) bool {
	timeout := a.CallTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	w, err := platform.Bounded(ctx, timeout, func(ctx context.Context) (float64, error) {
		w, _, err := a.Provider.WindowManager.ScreenSize(ctx)
		return w, err
	})
	if err != nil {
		return false
	}
	p, err := platform.Bounded(ctx, timeout, a.Provider.Inputter.PointerLocation)
	if err != nil {
		return false
	}
	return p.X >= w-a.Corner && p.Y <= a.Corner
}

// Supervise runs c on app alongside the abort watcher, when one is given.
// Whichever stops first stops the other. Cancellation of ctx is a clean
// exit; an abort is reported as ErrAborted.
func Supervise(ctx context.Context, c *Classifier, app string, abort *CornerAbort) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Run(gctx, app)
	})
	if abort != nil && abort.Corner > 0 {
		g.Go(func() error {
			return abort.Watch(gctx)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
