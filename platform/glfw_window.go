// Package platform provides the GLFW window the engine renders for.
package platform

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/lumen/logging"
)

// GlfwWindow is a resizable window without a client API; the render
// backend owns the surface.
type GlfwWindow struct {
	window *glfw.Window
	logger logging.Logger
	title  string
	closed bool
}

// NewGlfwWindow initializes GLFW and creates a window. It locks the calling
// goroutine to its OS thread; every later call must come from it.
// If width/height are zero, sensible defaults are used.
func NewGlfwWindow(width, height int, title string, logger logging.Logger) (*GlfwWindow, error) {
	runtime.LockOSThread()
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "Lumen"
	}
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("platform: glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("platform: create window: %w", err)
	}

	w := &GlfwWindow{window: win, logger: logging.OrNop(logger), title: title}
	fw, fh := win.GetFramebufferSize()
	w.logger.Infof("Created window (%dx%d, framebuffer %dx%d) '%s'", width, height, fw, fh, title)
	return w, nil
}

// Size returns the framebuffer size in pixels.
func (w *GlfwWindow) Size() (int, int) {
	if w.closed {
		return 0, 0
	}
	return w.window.GetFramebufferSize()
}

func (w *GlfwWindow) ShouldClose() bool {
	return w.closed || w.window.ShouldClose()
}

func (w *GlfwWindow) PollEvents() {
	glfw.PollEvents()
}

// MonitorSize returns the video mode size of the primary monitor.
func (w *GlfwWindow) MonitorSize() (int, int) {
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return 0, 0
	}
	mode := monitor.GetVideoMode()
	return mode.Width, mode.Height
}

// Center moves the window to the middle of the primary monitor.
func (w *GlfwWindow) Center() {
	mw, mh := w.MonitorSize()
	if mw == 0 || mh == 0 {
		return
	}
	ww, wh := w.window.GetSize()
	w.window.SetPos((mw-ww)/2, (mh-wh)/2)
}

// Handle exposes the GLFW window for surface creation.
func (w *GlfwWindow) Handle() *glfw.Window { return w.window }

func (w *GlfwWindow) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.window.Destroy()
	glfw.Terminate()
	w.logger.Debugf("window '%s' destroyed", w.title)
}
