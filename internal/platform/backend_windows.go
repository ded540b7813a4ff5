//go:build windows

package platform

import (
	"context"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/1broseidon/overmenu/internal/keys"
	"golang.org/x/sys/windows"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procGetCursorPos         = user32.NewProc("GetCursorPos")
	procMonitorFromPoint     = user32.NewProc("MonitorFromPoint")
	procGetMonitorInfoW      = user32.NewProc("GetMonitorInfoW")
	procGetForegroundWindow  = user32.NewProc("GetForegroundWindow")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetClassNameW        = user32.NewProc("GetClassNameW")
	procKeybdEvent           = user32.NewProc("keybd_event")
	procSystemParametersInfo = user32.NewProc("SystemParametersInfoW")
)

const (
	monitorDefaultToNearest = 2
	keyEventFKeyUp          = 0x0002
	spiGetWorkArea          = 0x0030
)

type winPoint struct {
	X, Y int32
}

type winRect struct {
	Left, Top, Right, Bottom int32
}

type monitorInfo struct {
	CbSize  uint32
	Monitor winRect
	Work    winRect
	Flags   uint32
}

// WindowsBackend queries user32 directly.
type WindowsBackend struct{}

var _ Backend = (*WindowsBackend)(nil)

// NewWindowsBackend checks user32 is loadable.
func NewWindowsBackend() (*WindowsBackend, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("failed to load user32: %w", err)
	}
	return &WindowsBackend{}, nil
}

func (b *WindowsBackend) Descriptor() Descriptor {
	return Descriptor{
		Name:                       NameWindows,
		Platform:                   runtime.GOOS,
		WindowType:                 WindowTypeSplash,
		SupportsPointerQuery:       true,
		SupportsWindowInfo:         true,
		SupportsShortcutSimulation: true,
	}
}

func (b *WindowsBackend) QueryPointerAndWorkArea(ctx context.Context) (Geometry, error) {
	return callWithContext(ctx, func() (Geometry, error) {
		var pt winPoint
		if r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt))); r == 0 {
			return Geometry{}, fmt.Errorf("%w: GetCursorPos: %v", ErrQueryFailed, err)
		}
		// POINT is passed by value, packed into one register.
		packed := uintptr(uint32(pt.X)) | uintptr(uint32(pt.Y))<<32
		hmon, _, _ := procMonitorFromPoint.Call(packed, monitorDefaultToNearest)
		if hmon == 0 {
			return Geometry{}, fmt.Errorf("%w: MonitorFromPoint returned no monitor", ErrQueryFailed)
		}
		mi := monitorInfo{CbSize: uint32(unsafe.Sizeof(monitorInfo{}))}
		if r, _, err := procGetMonitorInfoW.Call(hmon, uintptr(unsafe.Pointer(&mi))); r == 0 {
			return Geometry{}, fmt.Errorf("%w: GetMonitorInfoW: %v", ErrQueryFailed, err)
		}
		wa := workAreaFromWinRect(mi.Work)
		return Geometry{Pointer: relativeTo(wa, int(pt.X), int(pt.Y)), WorkArea: wa}, nil
	})
}

// PrimaryWorkArea returns SPI_GETWORKAREA of the primary monitor.
func (b *WindowsBackend) PrimaryWorkArea(ctx context.Context) (WorkArea, error) {
	return callWithContext(ctx, func() (WorkArea, error) {
		var r winRect
		if ok, _, err := procSystemParametersInfo.Call(spiGetWorkArea, 0, uintptr(unsafe.Pointer(&r)), 0); ok == 0 {
			return WorkArea{}, fmt.Errorf("SystemParametersInfoW: %v", err)
		}
		return workAreaFromWinRect(r), nil
	})
}

func (b *WindowsBackend) QueryActiveWindowInfo(ctx context.Context) (WindowInfo, error) {
	return callWithContext(ctx, func() (WindowInfo, error) {
		hwnd, _, _ := procGetForegroundWindow.Call()
		if hwnd == 0 {
			return WindowInfo{}, fmt.Errorf("%w: no foreground window", ErrQueryFailed)
		}
		title := make([]uint16, 512)
		procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&title[0])), uintptr(len(title)))
		class := make([]uint16, 256)
		procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&class[0])), uintptr(len(class)))
		return WindowInfo{
			Name:  windows.UTF16ToString(title),
			AppID: windows.UTF16ToString(class),
		}, nil
	})
}

func (b *WindowsBackend) SimulateShortcut(ctx context.Context, shortcut keys.Shortcut) error {
	for _, k := range shortcut.Keys {
		procKeybdEvent.Call(uintptr(k.VK), 0, 0, 0)
	}
	for i := len(shortcut.Keys) - 1; i >= 0; i-- {
		procKeybdEvent.Call(uintptr(shortcut.Keys[i].VK), 0, keyEventFKeyUp, 0)
	}
	return nil
}

func (b *WindowsBackend) Close() error {
	return nil
}

func workAreaFromWinRect(r winRect) WorkArea {
	return WorkArea{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}
}
