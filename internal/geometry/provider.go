// Package geometry answers "where is the pointer and how large is the work
// area" on compositors without an introspection API, by briefly mapping a
// probe surface and reading what the compositor reports for it.
package geometry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 250 * time.Millisecond

var (
	// ErrBusy is returned when a probe is already in flight.
	ErrBusy = errors.New("geometry probe already in flight")
	// ErrProbeFailed is returned when the surface produced no usable sample.
	ErrProbeFailed = errors.New("geometry probe failed")
)

// Sample is what one probe surface reports. X/Y are relative to the surface,
// which covers the work area, so they are work-area relative too.
type Sample struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Surface is a transient overlay surface anchored to all four output edges.
type Surface interface {
	// Read blocks until the compositor has sent both the configure size and
	// a pointer position, or ctx is done.
	Read(ctx context.Context) (Sample, error)
	Destroy() error
}

// SurfaceFactory creates probe surfaces.
type SurfaceFactory interface {
	CreateSurface(ctx context.Context) (Surface, error)
}

// Provider runs probes one at a time.
type Provider struct {
	factory SurfaceFactory
	timeout time.Duration

	busy atomic.Bool
	live atomic.Int32
}

// NewProvider returns a Provider. A non-positive timeout selects DefaultTimeout.
func NewProvider(factory SurfaceFactory, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Provider{factory: factory, timeout: timeout}
}

// Timeout returns the per-probe deadline.
func (p *Provider) Timeout() time.Duration {
	return p.timeout
}

// LiveSurfaces reports how many probe surfaces currently exist.
func (p *Provider) LiveSurfaces() int {
	return int(p.live.Load())
}

// GetPointerPositionAndWorkAreaSize is Probe under the name renderers know it by.
func (p *Provider) GetPointerPositionAndWorkAreaSize(ctx context.Context) (Sample, error) {
	return p.Probe(ctx)
}

// Probe creates a surface, reads one sample and destroys the surface again.
// The surface is destroyed on every return path. A concurrent call fails
// with ErrBusy instead of creating a second surface.
func (p *Provider) Probe(ctx context.Context) (sample Sample, err error) {
	if !p.busy.CompareAndSwap(false, true) {
		return Sample{}, ErrBusy
	}
	defer p.busy.Store(false)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	surface, err := p.factory.CreateSurface(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: create surface: %v", ErrProbeFailed, err)
	}
	p.live.Add(1)
	defer func() {
		if derr := surface.Destroy(); derr != nil && err == nil {
			err = fmt.Errorf("%w: destroy surface: %v", ErrProbeFailed, derr)
		}
		p.live.Add(-1)
	}()
	defer func() {
		if r := recover(); r != nil {
			sample = Sample{}
			err = fmt.Errorf("%w: panic: %v", ErrProbeFailed, r)
		}
	}()

	sample, err = surface.Read(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Sample{}, fmt.Errorf("%w: timed out after %s", ErrProbeFailed, p.timeout)
		}
		return Sample{}, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	if sample.Width <= 0 || sample.Height <= 0 {
		return Sample{}, fmt.Errorf("%w: compositor reported empty work area %dx%d", ErrProbeFailed, sample.Width, sample.Height)
	}
	return clampSample(sample), nil
}

func clampSample(s Sample) Sample {
	s.X = min(max(s.X, 0), s.Width-1)
	s.Y = min(max(s.Y, 0), s.Height-1)
	return s
}
