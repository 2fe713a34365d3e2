package lumen

// Window is the platform surface the engine renders for. Size reports the
// framebuffer size in pixels; zero means minimized.
type Window interface {
	Size() (width, height int)
	ShouldClose() bool
	PollEvents()
	Close()
}

// HeadlessWindow is an in-memory Window for tests and offscreen runs.
// It asks to close after MaxFrames polls when MaxFrames is positive.
type HeadlessWindow struct {
	Width     int
	Height    int
	MaxFrames int

	polls  int
	close  bool
	closed bool
}

// NewHeadlessWindow creates a headless window. If width/height are zero,
// sensible defaults are used.
func NewHeadlessWindow(width, height int) *HeadlessWindow {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	return &HeadlessWindow{Width: width, Height: height}
}

func (w *HeadlessWindow) Size() (int, int) { return w.Width, w.Height }

func (w *HeadlessWindow) SetSize(width, height int) {
	w.Width, w.Height = width, height
}

func (w *HeadlessWindow) ShouldClose() bool {
	return w.close || (w.MaxFrames > 0 && w.polls >= w.MaxFrames)
}

func (w *HeadlessWindow) RequestClose() { w.close = true }

func (w *HeadlessWindow) PollEvents() { w.polls++ }

func (w *HeadlessWindow) Close() { w.closed = true }

func (w *HeadlessWindow) IsClosed() bool { return w.closed }
