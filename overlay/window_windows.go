//go:build windows

package overlay

import (
	"context"
	"fmt"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"github.com/kbinani/screenshot"
	"github.com/lxn/win"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"

	"veil/render"
)

const (
	className = "VeilOverlayWindow"

	// Excludes the window from capture APIs, including our own duplication,
	// so the mirror never shows itself. Windows 10 2004+.
	wdaExcludeFromCapture = 0x11
)

var (
	modUser32                    = windows.NewLazySystemDLL("user32.dll")
	procSetWindowDisplayAffinity = modUser32.NewProc("SetWindowDisplayAffinity")
)

// Window is the borderless click-through overlay. It owns the render thread:
// Run pins the calling goroutine to an OS thread for the lifetime of the
// message loop.
type Window struct {
	hwnd     win.HWND
	renderer *render.Renderer
	consumer *render.Consumer
	interval time.Duration
}

// active backs the window procedure, which has no closure state. One overlay
// window per process.
var active *Window

// New creates the overlay window covering the given monitor and its D3D
// renderer. Must be called on the goroutine that will call Run.
func New(monitor int, format uint32, minInterval time.Duration) (*Window, error) {
	runtime.LockOSThread()

	if monitor >= screenshot.NumActiveDisplays() {
		return nil, fmt.Errorf("monitor %d out of range (%d displays)", monitor, screenshot.NumActiveDisplays())
	}
	bounds := screenshot.GetDisplayBounds(monitor)

	w := &Window{interval: minInterval}
	active = w

	if err := w.create(bounds.Min.X, bounds.Min.Y, bounds.Dx(), bounds.Dy()); err != nil {
		active = nil
		return nil, err
	}

	renderer, err := render.NewRenderer(uintptr(w.hwnd), bounds.Dx(), bounds.Dy(), format)
	if err != nil {
		win.DestroyWindow(w.hwnd)
		active = nil
		return nil, err
	}
	w.renderer = renderer

	log.WithFields(log.Fields{
		"monitor": monitor,
		"bounds":  fmt.Sprintf("%dx%d@%d,%d", bounds.Dx(), bounds.Dy(), bounds.Min.X, bounds.Min.Y),
	}).Info("Overlay window created")
	return w, nil
}

func (w *Window) create(x, y, width, height int) error {
	instance := win.GetModuleHandle(nil)
	classPtr, _ := syscall.UTF16PtrFromString(className)

	wc := win.WNDCLASSEX{
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   syscall.NewCallback(wndProc),
		HInstance:     instance,
		HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_ARROW)),
		LpszClassName: classPtr,
	}
	wc.CbSize = uint32(unsafe.Sizeof(wc))
	if win.RegisterClassEx(&wc) == 0 {
		return fmt.Errorf("RegisterClassEx failed")
	}

	// Layered + transparent makes the window click-through; tool window and
	// no-activate keep it out of the taskbar and the focus order.
	exStyle := uint32(win.WS_EX_LAYERED | win.WS_EX_TRANSPARENT | win.WS_EX_TOPMOST |
		win.WS_EX_TOOLWINDOW | win.WS_EX_NOACTIVATE)
	titlePtr, _ := syscall.UTF16PtrFromString("veil")

	hwnd := win.CreateWindowEx(
		exStyle,
		classPtr, titlePtr,
		win.WS_POPUP|win.WS_VISIBLE,
		int32(x), int32(y), int32(width), int32(height),
		0, 0, instance, nil)
	if hwnd == 0 {
		return fmt.Errorf("CreateWindowEx failed")
	}
	w.hwnd = hwnd

	// Fully opaque; the layered style is only there for click-through.
	win.SetLayeredWindowAttributes(hwnd, 0, 255, win.LWA_ALPHA)
	win.SetWindowPos(hwnd, win.HWND_TOPMOST, 0, 0, 0, 0,
		win.SWP_NOMOVE|win.SWP_NOSIZE|win.SWP_NOACTIVATE)

	if err := excludeFromCapture(hwnd); err != nil {
		// Pre-2004 Windows. The overlay still works, but capturing its own
		// monitor would hall-of-mirrors.
		log.Warnf("Capture exclusion unavailable: %v", err)
	}
	return nil
}

func excludeFromCapture(hwnd win.HWND) error {
	if err := procSetWindowDisplayAffinity.Find(); err != nil {
		return err
	}
	r, _, err := procSetWindowDisplayAffinity.Call(uintptr(hwnd), wdaExcludeFromCapture)
	if r == 0 {
		return fmt.Errorf("SetWindowDisplayAffinity: %v", err)
	}
	return nil
}

// Attach installs the consumer whose Tick the message loop drives.
func (w *Window) Attach(consumer *render.Consumer) {
	w.consumer = consumer
}

// Renderer exposes the window's backend for consumer construction.
func (w *Window) Renderer() *render.Renderer {
	return w.renderer
}

// Run pumps window messages and render ticks until the window is destroyed
// or ctx is cancelled. Must run on the goroutine that called New.
func (w *Window) Run(ctx context.Context) error {
	var msg win.MSG
	var next time.Time
	for {
		for win.PeekMessage(&msg, 0, 0, 0, win.PM_REMOVE) {
			if msg.Message == win.WM_QUIT {
				return nil
			}
			win.TranslateMessage(&msg)
			win.DispatchMessage(&msg)
		}

		if ctx.Err() != nil {
			win.DestroyWindow(w.hwnd)
			return ctx.Err()
		}

		if !next.IsZero() {
			if d := time.Until(next); d > 0 {
				time.Sleep(d)
				continue
			}
		}

		drew, err := w.consumer.Tick()
		if err != nil {
			// The consumer does not advance its state on a failed tick, so
			// the frame is still pending. The window keeps showing its last
			// presented content in the meantime.
			log.Errorf("Render tick failed: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if w.interval > 0 && drew {
			next = time.Now().Add(w.interval)
		} else if !drew {
			// Idle: nothing new in the slot. Back off briefly instead of
			// spinning on the header lock.
			time.Sleep(time.Millisecond)
		}
	}
}

func (w *Window) Close() {
	if w.renderer != nil {
		w.renderer.Close()
		w.renderer = nil
	}
	active = nil
}

func wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_SIZE:
		if active != nil && active.renderer != nil {
			width := int(win.LOWORD(uint32(lParam)))
			height := int(win.HIWORD(uint32(lParam)))
			active.renderer.Resize(width, height)
		}
		return 0
	case win.WM_ERASEBKGND:
		// The swapchain repaints every tick; skipping the GDI erase avoids
		// a flash of background.
		return 1
	case win.WM_DESTROY:
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}
