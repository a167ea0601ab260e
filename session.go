package screen

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/BeatGlow/screen/internal/logger"
	"github.com/BeatGlow/screen/pixel"
)

// DPI limits and the density of the reference screen.
const (
	MinDPI      = 160
	MaxDPI      = 960
	BaselineDPI = 160

	// BigScreenDP is the shortest side, in density independent pixels, from
	// which a display counts as a large screen.
	BigScreenDP = 600
)

// active guards the one live Session per process.
var active atomic.Bool

// Session owns the active backend and the software canvas.
type Session struct {
	backend Backend
	info    Info
	dpi     int
	big     bool
	canvas  *pixel.Canvas

	// tx is held from Begin to End.
	tx sync.Mutex

	// mu guards the fields below and the backend calls.
	mu         sync.Mutex
	presenting bool
	closed     bool
}

// Open selects a backend from candidates and starts a session on it.
func Open(candidates ...Candidate) (*Session, error) {
	if active.Load() {
		return nil, ErrSessionActive
	}
	b, err := Select(candidates...)
	if err != nil {
		return nil, err
	}
	s, err := New(b)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return s, nil
}

// New starts a session on an opened backend. The session takes ownership of
// the backend and closes it in Close. Only one session may be live at a time.
func New(b Backend) (*Session, error) {
	if b == nil {
		return nil, ErrNoBackend
	}
	info := b.Info()
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, info.Width, info.Height)
	}
	if !active.CompareAndSwap(false, true) {
		return nil, ErrSessionActive
	}

	s := &Session{
		backend: b,
		info:    info,
		dpi:     checkDPI(info.DPI, info.Width, info.Height),
		canvas:  pixel.NewCanvas(info.Width, info.Height),
	}
	if s.dpi != info.DPI {
		logger.Logger.Warn("display reports no usable dpi", "reported", info.DPI, "using", s.dpi)
	}
	s.big = min(s.PX(info.Width), s.PX(info.Height)) >= BigScreenDP

	if snap, ok := b.(Snapshotter); ok {
		if err := snap.Snapshot(s.canvas); err != nil {
			logger.Logger.Warn("snapshot failed, starting blank", "err", err)
			s.canvas.Clear()
		}
	}

	logger.Logger.Info("display initialized", "backend", b.String(), "info", info, "dpi", s.dpi)
	return s, nil
}

// checkDPI falls back to an estimate from the resolution when dpi is out of
// range, and to the baseline when that is out of range too.
func checkDPI(dpi, w, h int) int {
	if dpi < MinDPI || dpi > MaxDPI {
		dpi = min(w, h) / 160 * 80
	}
	if dpi < MinDPI || dpi > MaxDPI {
		dpi = BaselineDPI
	}
	return dpi
}

// Backend returns the active backend.
func (s *Session) Backend() Backend {
	return s.backend
}

// Info about the display.
func (s *Session) Info() Info {
	return s.info
}

// Width in pixels.
func (s *Session) Width() int {
	return s.info.Width
}

// Height in pixels.
func (s *Session) Height() int {
	return s.info.Height
}

// Bounds of the display.
func (s *Session) Bounds() image.Rectangle {
	return s.info.Bounds()
}

// DPI of the display, always within [MinDPI, MaxDPI].
func (s *Session) DPI() int {
	return s.dpi
}

// BigScreen reports whether the shortest side is at least BigScreenDP.
func (s *Session) BigScreen() bool {
	return s.big
}

// DoubleBuffered reports whether the backend flips between hardware buffers.
func (s *Session) DoubleBuffered() bool {
	return s.info.DoubleBuffered
}

// DP converts density independent pixels to pixels. Non-zero input never
// converts to zero.
func (s *Session) DP(dp int) int {
	px := dp * s.dpi / BaselineDPI
	if px == 0 && dp > 0 {
		return 1
	}
	return px
}

// PX converts pixels to density independent pixels.
func (s *Session) PX(px int) int {
	return px * BaselineDPI / s.dpi
}

// Canvas is the software canvas. Draw into it, then Sync or present regions
// of it.
func (s *Session) Canvas() *pixel.Canvas {
	return s.canvas
}

// Begin a present transaction, waiting for the previous one to end.
func (s *Session) Begin() error {
	s.tx.Lock()
	return s.begin()
}

// TryBegin is Begin without waiting; it returns ErrBusy if a transaction is
// open.
func (s *Session) TryBegin() error {
	if !s.tx.TryLock() {
		return ErrBusy
	}
	return s.begin()
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.tx.Unlock()
		return ErrClosed
	}
	if err := s.backend.Begin(); err != nil {
		s.tx.Unlock()
		return err
	}
	s.presenting = true
	return nil
}

// Present converts the w*h rectangle at (sx, sy) of buf to (dx, dy) on the
// screen. buf holds Width*Height pixels, row after row; nil presents the
// session canvas.
//
// The rectangle is clipped to the display on both the source and the
// destination side. A rectangle clipped to nothing is not an error.
func (s *Session) Present(buf []uint16, dx, dy, sx, sy, w, h int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.presenting {
		return ErrNotPresenting
	}
	if dx < 0 || dy < 0 || sx < 0 || sy < 0 {
		return fmt.Errorf("%w: negative origin", ErrBounds)
	}

	src := s.canvas
	if buf != nil {
		if len(buf) < s.info.Width*s.info.Height {
			return fmt.Errorf("%w: buffer holds %d pixels, need %d", ErrBounds, len(buf), s.info.Width*s.info.Height)
		}
		src = pixel.CanvasOf(buf, s.info.Width, s.info.Height)
	}

	w = min(w, s.info.Width-sx, s.info.Width-dx)
	h = min(h, s.info.Height-sy, s.info.Height-dy)
	if w < 1 || h < 1 {
		return nil
	}
	return s.backend.Present(image.Pt(dx, dy), src, image.Rect(sx, sy, sx+w, sy+h))
}

// End the transaction and push the result to the screen. The transaction is
// closed even if the backend reports an error.
func (s *Session) End() error {
	s.mu.Lock()
	if !s.presenting {
		s.mu.Unlock()
		return ErrNotPresenting
	}
	err := s.backend.End()
	s.presenting = false
	s.mu.Unlock()
	s.tx.Unlock()
	return err
}

// Sync presents the whole canvas.
func (s *Session) Sync() error {
	if err := s.Begin(); err != nil {
		return err
	}
	err := s.Present(nil, 0, 0, 0, 0, s.info.Width, s.info.Height)
	if endErr := s.End(); err == nil {
		err = endErr
	}
	return err
}

// Snapshot refreshes the canvas with what is currently on screen.
func (s *Session) Snapshot() error {
	snap, ok := s.backend.(Snapshotter)
	if !ok {
		return ErrNoSnapshot
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return snap.Snapshot(s.canvas)
}

// SetLayout changes the channel layout of 32-bit hardware formats, for
// panels that report their channel order wrong.
func (s *Session) SetLayout(r, g, b uint8) error {
	l := pixel.Layout{R: r, G: g, B: b}
	if err := l.Validate(32); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.backend.SetLayout(l); err != nil {
		return err
	}
	s.info.Layout = l
	return nil
}

// Close releases the backend. An open transaction is ended first. Closing
// twice returns ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.presenting {
		logger.Logger.Warn("closing with an open present transaction")
		_ = s.backend.End()
		s.presenting = false
		s.tx.Unlock()
	}
	s.closed = true
	s.canvas = pixel.NewCanvas(0, 0)
	active.Store(false)

	logger.Logger.Debug("releasing display backend", "backend", s.backend.String())
	return s.backend.Close()
}
