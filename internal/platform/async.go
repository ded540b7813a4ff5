package platform

import (
	"context"
	"fmt"
)

// callWithContext runs a blocking backend call in its own goroutine so that
// ctx can abandon it. Panics become ErrQueryFailed.
func callWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("%w: panic: %v", ErrQueryFailed, r)}
			}
		}()
		v, err := fn()
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrQueryFailed, ctx.Err())
	}
}

// relativeTo converts a screen coordinate into work-area coordinates,
// clamped inside the area.
func relativeTo(wa WorkArea, x, y int) PointerPosition {
	px := min(max(x-wa.X, 0), max(wa.Width-1, 0))
	py := min(max(y-wa.Y, 0), max(wa.Height-1, 0))
	return PointerPosition{X: px, Y: py}
}
