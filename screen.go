// Package screen presents a software canvas on embedded Linux displays.
//
// A [Session] owns one 16-bit RGB565 [pixel.Canvas] and one [Backend]. The
// backend is picked by [Select] from a list of candidates, tried in order;
// package auto provides the default chain (modesetting, compositor overlay,
// raw framebuffer).
//
// Producer code draws into the canvas and pushes it to the screen in a
// present transaction:
//
//	if err := s.Begin(); err != nil {
//		return err
//	}
//	err := s.Present(nil, 0, 0, 0, 0, w, h)
//	if endErr := s.End(); err == nil {
//		err = endErr
//	}
//
// Only one transaction is open at a time; Begin blocks until the previous one
// has ended.
package screen

import (
	"errors"
	"fmt"
	"image"

	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/screen/pixel"
)

// Errors
var (
	ErrNoBackend       = errors.New("screen: no display backend available")
	ErrSessionActive   = errors.New("screen: a session is already active")
	ErrClosed          = errors.New("screen: session closed")
	ErrNotPresenting   = errors.New("screen: no present transaction open")
	ErrBusy            = errors.New("screen: present transaction in progress")
	ErrBounds          = errors.New("screen: out of display bounds")
	ErrNoSnapshot      = errors.New("screen: backend does not support snapshots")
	ErrInvalidGeometry = errors.New("screen: invalid display geometry")
)

// Info describes the display claimed by a backend.
type Info struct {
	// Width and Height in pixels.
	Width, Height int

	// Format is the native pixel format of the hardware buffer.
	Format pixel.Format

	// Layout of the channels for 32-bit formats.
	Layout pixel.Layout

	// DPI as reported by the hardware, 0 if unknown.
	DPI int

	// PhysicalWidth and PhysicalHeight of the panel, 0 if unknown.
	PhysicalWidth, PhysicalHeight physic.Distance

	// DoubleBuffered is set if the backend flips between two hardware buffers.
	DoubleBuffered bool
}

// Bounds of the display.
func (i Info) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.Width, i.Height)
}

func (i Info) String() string {
	buffering := "single buffer"
	if i.DoubleBuffered {
		buffering = "double buffer"
	}
	return fmt.Sprintf("%dx%d %s %d dpi, %s", i.Width, i.Height, i.Format, i.DPI, buffering)
}

// Backend is one display output implementation. A backend is constructed
// already initialized; construction that fails releases everything it
// acquired.
//
// Backends are driven by a Session, which serializes calls and validates
// rectangles before Present.
type Backend interface {
	// String is the backend name.
	String() string

	// Info about the display.
	Info() Info

	// Begin a present transaction.
	Begin() error

	// Present converts the rectangle r of src into the draw buffer at dst.
	// Both rectangles are within bounds.
	Present(dst image.Point, src *pixel.Canvas, r image.Rectangle) error

	// End the transaction and push the draw buffer to the screen.
	End() error

	// SetLayout changes the channel layout used for 32-bit formats.
	SetLayout(pixel.Layout) error

	// Close releases every hardware resource, in reverse order of acquisition.
	Close() error
}

// Snapshotter is implemented by backends that can read back what is on
// screen.
type Snapshotter interface {
	// Snapshot copies the current screen contents into dst.
	Snapshot(dst *pixel.Canvas) error
}
