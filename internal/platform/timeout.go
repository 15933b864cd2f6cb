package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/mj1618/navsync/internal/model"
)

// Bounded runs fn and gives up after d. A backend call that does not return
// in time is reported as model.ErrBackendUnavailable; its goroutine is left
// to finish on its own since backends cannot be interrupted.
func Bounded[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, ctx.Err())
	}
}
