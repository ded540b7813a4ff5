package geometry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeFactory struct {
	mu        sync.Mutex
	live      int
	maxLive   int
	created   int
	destroyed int

	createErr error
	read      func(ctx context.Context) (Sample, error)
}

func (f *fakeFactory) CreateSurface(ctx context.Context) (Surface, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	f.live++
	if f.live > f.maxLive {
		f.maxLive = f.live
	}
	return &fakeSurface{f: f}, nil
}

func (f *fakeFactory) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

type fakeSurface struct {
	f *fakeFactory
}

func (s *fakeSurface) Read(ctx context.Context) (Sample, error) {
	return s.f.read(ctx)
}

func (s *fakeSurface) Destroy() error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.live--
	s.f.destroyed++
	return nil
}

func TestProbe_Success(t *testing.T) {
	f := &fakeFactory{read: func(ctx context.Context) (Sample, error) {
		return Sample{X: 500, Y: 300, Width: 1920, Height: 1080}, nil
	}}
	p := NewProvider(f, 0)
	if p.Timeout() != DefaultTimeout {
		t.Fatalf("Timeout() = %s, want %s", p.Timeout(), DefaultTimeout)
	}

	got, err := p.GetPointerPositionAndWorkAreaSize(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	want := Sample{X: 500, Y: 300, Width: 1920, Height: 1080}
	if got != want {
		t.Fatalf("Probe = %+v, want %+v", got, want)
	}
	if f.liveCount() != 0 || p.LiveSurfaces() != 0 {
		t.Fatalf("surface leaked: factory=%d provider=%d", f.liveCount(), p.LiveSurfaces())
	}
	if f.destroyed != 1 {
		t.Fatalf("destroyed = %d, want 1", f.destroyed)
	}
}

func TestProbe_ClampsPointerIntoWorkArea(t *testing.T) {
	f := &fakeFactory{read: func(ctx context.Context) (Sample, error) {
		return Sample{X: -4, Y: 2000, Width: 1920, Height: 1080}, nil
	}}
	got, err := NewProvider(f, time.Second).Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if got.X != 0 || got.Y != 1079 {
		t.Fatalf("Probe = %+v, want clamped to (0,1079)", got)
	}
}

func TestProbe_ReadFailureDestroysSurface(t *testing.T) {
	f := &fakeFactory{read: func(ctx context.Context) (Sample, error) {
		return Sample{}, errors.New("compositor went away")
	}}
	p := NewProvider(f, time.Second)

	_, err := p.Probe(context.Background())
	if !errors.Is(err, ErrProbeFailed) {
		t.Fatalf("expected ErrProbeFailed, got %v", err)
	}
	if f.liveCount() != 0 || f.destroyed != 1 {
		t.Fatalf("surface not destroyed: live=%d destroyed=%d", f.liveCount(), f.destroyed)
	}
}

func TestProbe_EmptyWorkAreaIsFailure(t *testing.T) {
	f := &fakeFactory{read: func(ctx context.Context) (Sample, error) {
		return Sample{X: 1, Y: 1}, nil
	}}
	if _, err := NewProvider(f, time.Second).Probe(context.Background()); !errors.Is(err, ErrProbeFailed) {
		t.Fatalf("expected ErrProbeFailed, got %v", err)
	}
	if f.liveCount() != 0 {
		t.Fatalf("surface leaked")
	}
}

func TestProbe_TimeoutDestroysSurface(t *testing.T) {
	f := &fakeFactory{read: func(ctx context.Context) (Sample, error) {
		<-ctx.Done()
		return Sample{}, ctx.Err()
	}}
	p := NewProvider(f, 20*time.Millisecond)

	start := time.Now()
	_, err := p.Probe(context.Background())
	if !errors.Is(err, ErrProbeFailed) {
		t.Fatalf("expected ErrProbeFailed, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("probe took %s, timeout not applied", elapsed)
	}
	if f.liveCount() != 0 || p.LiveSurfaces() != 0 {
		t.Fatalf("surface leaked after timeout")
	}
}

func TestProbe_PanicInReadDestroysSurface(t *testing.T) {
	f := &fakeFactory{read: func(ctx context.Context) (Sample, error) {
		panic("boom")
	}}
	p := NewProvider(f, time.Second)

	_, err := p.Probe(context.Background())
	if !errors.Is(err, ErrProbeFailed) {
		t.Fatalf("expected ErrProbeFailed, got %v", err)
	}
	if f.liveCount() != 0 {
		t.Fatalf("surface leaked after panic")
	}
	// The busy guard must be released too.
	f.read = func(ctx context.Context) (Sample, error) {
		return Sample{Width: 10, Height: 10}, nil
	}
	if _, err := p.Probe(context.Background()); err != nil {
		t.Fatalf("second probe: %v", err)
	}
}

func TestProbe_CreateFailure(t *testing.T) {
	f := &fakeFactory{createErr: errors.New("no layer shell")}
	p := NewProvider(f, time.Second)
	if _, err := p.Probe(context.Background()); !errors.Is(err, ErrProbeFailed) {
		t.Fatalf("expected ErrProbeFailed, got %v", err)
	}
	if p.LiveSurfaces() != 0 {
		t.Fatalf("LiveSurfaces = %d, want 0", p.LiveSurfaces())
	}
}

func TestProbe_ConcurrentCallIsBusy(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	f := &fakeFactory{read: func(ctx context.Context) (Sample, error) {
		once.Do(func() { close(entered) })
		<-release
		return Sample{X: 1, Y: 1, Width: 100, Height: 100}, nil
	}}
	p := NewProvider(f, 5*time.Second)

	var firstErr atomic.Value
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := p.Probe(context.Background()); err != nil {
			firstErr.Store(err)
		}
	}()

	<-entered
	if _, err := p.Probe(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if p.LiveSurfaces() != 1 {
		t.Fatalf("LiveSurfaces = %d during probe, want 1", p.LiveSurfaces())
	}

	close(release)
	<-done
	if v := firstErr.Load(); v != nil {
		t.Fatalf("first probe: %v", v)
	}
	if f.maxLive != 1 {
		t.Fatalf("maxLive = %d, want 1", f.maxLive)
	}
	if f.liveCount() != 0 {
		t.Fatalf("surface leaked")
	}
}

func TestFindNativeLibrary(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, NativeLibraryName)
	if err := os.WriteFile(lib, []byte("not really elf"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := FindNativeLibrary(filepath.Join(dir, "missing.so")); !errors.Is(err, ErrNativeUnavailable) {
		t.Fatalf("expected ErrNativeUnavailable for missing configured path, got %v", err)
	}

	got, err := FindNativeLibrary(lib)
	if err != nil || got != lib {
		t.Fatalf("FindNativeLibrary(configured) = %q, %v", got, err)
	}

	t.Setenv(NativeLibraryEnv, lib)
	got, err = FindNativeLibrary("")
	if err != nil || got != lib {
		t.Fatalf("FindNativeLibrary(env) = %q, %v", got, err)
	}
}

func TestLoadNative_BadFileFails(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, NativeLibraryName)
	if err := os.WriteFile(lib, []byte("not really elf"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadNative(lib); !errors.Is(err, ErrNativeUnavailable) {
		t.Fatalf("expected ErrNativeUnavailable, got %v", err)
	}
}
