// Package framebuffer presents the canvas through a Linux framebuffer device
// (fbdev).
//
// Pixels are converted into a private draw buffer and copied into the mapped
// device memory on every flush. When the device memory holds two frames the
// backend flips between them by panning the display.
package framebuffer

import (
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/BeatGlow/screen"
	"github.com/BeatGlow/screen/internal/logger"
	"github.com/BeatGlow/screen/internal/unwind"
	"github.com/BeatGlow/screen/pixel"
)

// Name of the backend.
const Name = "framebuffer"

// Errors
var (
	ErrNotSupported = errors.New("framebuffer: not supported")
	ErrNoDevice     = errors.New("framebuffer: no device configured")
	ErrGeometry     = errors.New("framebuffer: unusable geometry")
	ErrDepth        = errors.New("framebuffer: unsupported color depth")
)

// Device is an open framebuffer device node.
type Device interface {
	// VarScreenInfo reads the variable screen description.
	VarScreenInfo() (VarScreenInfo, error)

	// SetVarScreenInfo writes the variable screen description.
	SetVarScreenInfo(*VarScreenInfo) error

	// FixScreenInfo reads the fixed screen description.
	FixScreenInfo() (FixScreenInfo, error)

	// Pan the display to the offsets in vi.
	Pan(vi *VarScreenInfo) error

	// Map size bytes of device memory.
	Map(size int) ([]byte, error)

	// Unmap memory returned by Map.
	Unmap([]byte) error

	// Close the device.
	Close() error
}

// Config for the framebuffer backend.
type Config struct {
	// Devices are the device nodes tried on every open attempt.
	Devices []string `mapstructure:"devices"`

	// OpenRetries is the number of open attempts while no device node exists.
	OpenRetries int `mapstructure:"open_retries"`

	// RetryDelay between open attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	// SwapRedOffsets are the red channel offsets of 32-bit devices that expect
	// red and blue exchanged relative to the reported layout.
	SwapRedOffsets []uint32 `mapstructure:"swap_red_offsets"`
}

// DefaultConfig are the default configuration values.
var DefaultConfig = Config{
	Devices:        []string{"/dev/graphics/fb0", "/dev/fb0"},
	OpenRetries:    20,
	RetryDelay:     100 * time.Millisecond,
	SwapRedOffsets: []uint32{8, 16},
}

// Framebuffer is the raw framebuffer backend.
type Framebuffer struct {
	dev       Device
	log       *log.Logger
	vi        VarScreenInfo
	fi        FixScreenInfo
	info      screen.Info
	layout    pixel.Layout
	swap      bool
	double    bool
	buffers   [2]*pixel.Surface
	draw      *pixel.Surface
	displayed int
	release   *unwind.Stack
}

var (
	_ screen.Backend     = (*Framebuffer)(nil)
	_ screen.Snapshotter = (*Framebuffer)(nil)
)

// Open the first available framebuffer device. If config is nil,
// DefaultConfig is used.
func Open(config *Config) (*Framebuffer, error) {
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}
	dev, err := OpenDevice(config)
	if err != nil {
		return nil, err
	}
	return New(dev, config)
}

// OpenDevice opens the first device node in config.Devices, waiting for the
// node to appear.
func OpenDevice(config *Config) (Device, error) {
	return openRetry(config, openDevice)
}

func openRetry(config *Config, open func(string) (Device, error)) (Device, error) {
	if len(config.Devices) == 0 {
		return nil, ErrNoDevice
	}

	var (
		log      = logger.For(Name)
		attempts = max(config.OpenRetries, 1)
		err      error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		for _, path := range config.Devices {
			var dev Device
			if dev, err = open(path); err == nil {
				log.Debug("opened device", "path", path)
				return dev, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
		if attempt < attempts {
			log.Warn("no framebuffer device (retrying)", "attempt", attempt)
			time.Sleep(config.RetryDelay)
		}
	}
	return nil, fmt.Errorf("framebuffer: giving up after %d attempts: %w", attempts, err)
}

// New sets up the backend on an open device. The backend owns dev from here
// on; if New fails, dev is closed.
func New(dev Device, config *Config) (_ *Framebuffer, err error) {
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}

	var stack unwind.Stack
	defer stack.OnError(&err)
	stack.Push(dev.Close)

	fb := &Framebuffer{
		dev: dev,
		log: logger.For(Name),
	}

	if fb.vi, err = dev.VarScreenInfo(); err != nil {
		return nil, err
	}
	if fb.vi.Red.Length != 8 {
		// The fixed description depends on the variable one, so this goes
		// first.
		fb.log.Info("forcing pixel format", "format", pixel.FormatRGB565)
		fb.vi.ForceRGB565()
		if err = dev.SetVarScreenInfo(&fb.vi); err != nil {
			return nil, fmt.Errorf("framebuffer: force %s: %w", pixel.FormatRGB565, err)
		}
	}
	if fb.fi, err = dev.FixScreenInfo(); err != nil {
		return nil, err
	}
	fb.log.Debug("screen info",
		"id", fb.fi.Name(),
		"xres", fb.vi.Xres, "yres", fb.vi.Yres,
		"xres_virtual", fb.vi.XresVirtual, "yres_virtual", fb.vi.YresVirtual,
		"bpp", fb.vi.BitsPerPixel,
		"red", fb.vi.Red, "green", fb.vi.Green, "blue", fb.vi.Blue, "transp", fb.vi.Transp,
		"width_mm", fb.vi.Width, "height_mm", fb.vi.Height,
		"line_length", fb.fi.LineLength, "smem_len", fb.fi.SmemLen)

	var (
		w, h   = int(fb.vi.Xres), int(fb.vi.Yres)
		format = fb.vi.Format()
		stride = int(fb.fi.LineLength)
		frame  = stride * h
	)
	if format.BytesPerPixel()*8 != int(fb.vi.BitsPerPixel) {
		return nil, fmt.Errorf("%w: %d bits per pixel as %s", ErrDepth, fb.vi.BitsPerPixel, format)
	}
	if format == pixel.FormatRGB565 && stride/4 == w {
		// Some 16-bit drivers report the line length of a 32-bit mode.
		stride /= 2
	}
	if w <= 0 || h <= 0 || stride < w*format.BytesPerPixel() || frame > int(fb.fi.SmemLen) {
		return nil, fmt.Errorf("%w: %dx%d, line %d, memory %d", ErrGeometry, w, h, fb.fi.LineLength, fb.fi.SmemLen)
	}

	mem, err := dev.Map(int(fb.fi.SmemLen))
	if err != nil {
		return nil, err
	}
	stack.Push(func() error { return dev.Unmap(mem) })
	clear(mem)

	fb.buffers[0] = &pixel.Surface{Width: w, Height: h, Stride: stride, Format: format, Pix: mem[:frame]}
	if fb.double = 2*frame <= len(mem); fb.double {
		fb.buffers[1] = &pixel.Surface{Width: w, Height: h, Stride: stride, Format: format, Pix: mem[frame : 2*frame]}
	}
	fb.draw = pixel.NewSurfaceStride(w, h, stride, format)
	fb.layout = fb.vi.Layout()
	fb.swap = fb.vi.NeedsSwap(config.SwapRedOffsets)

	pw, ph := fb.vi.PhysicalSize()
	fb.info = screen.Info{
		Width:          w,
		Height:         h,
		Format:         format,
		Layout:         fb.layout,
		DPI:            fb.vi.DPI(),
		PhysicalWidth:  pw,
		PhysicalHeight: ph,
		DoubleBuffered: fb.double,
	}
	fb.log.Debug("framebuffer ready", "info", fb.info, "layout", fb.layout, "swap", fb.swap, "stride", stride)

	if fb.double {
		if err := fb.pan(0); err != nil {
			fb.log.Warn("active buffer selection failed", "err", err)
		}
	}
	if err := fb.flush(); err != nil {
		fb.log.Warn("initial flush failed", "err", err)
	}

	fb.release = stack.Release()
	return fb, nil
}

func (fb *Framebuffer) String() string {
	return Name
}

// Info about the display.
func (fb *Framebuffer) Info() screen.Info {
	return fb.info
}

// VarScreenInfo is the variable screen description currently in effect.
func (fb *Framebuffer) VarScreenInfo() VarScreenInfo {
	return fb.vi
}

// FixScreenInfo is the fixed screen description.
func (fb *Framebuffer) FixScreenInfo() FixScreenInfo {
	return fb.fi
}

// Begin a present transaction.
func (fb *Framebuffer) Begin() error {
	if fb.release == nil {
		return screen.ErrClosed
	}
	return nil
}

// Present converts r of src into the draw buffer at dst.
func (fb *Framebuffer) Present(dst image.Point, src *pixel.Canvas, r image.Rectangle) error {
	pixel.Present(fb.draw, dst.X, dst.Y, src.Pix, src.Stride, r.Min.X, r.Min.Y, r.Dx(), r.Dy(), fb.layout)
	return nil
}

// End copies the draw buffer to the device.
func (fb *Framebuffer) End() error {
	return fb.flush()
}

// Snapshot reads back the draw buffer.
func (fb *Framebuffer) Snapshot(dst *pixel.Canvas) error {
	pixel.Snapshot(dst.Pix, dst.Stride, fb.draw, fb.layout)
	return nil
}

// SetLayout changes the channel layout of 32-bit formats.
func (fb *Framebuffer) SetLayout(l pixel.Layout) error {
	if fb.draw.BytesPerPixel() != 4 {
		return fmt.Errorf("%w: %s has no channel layout", pixel.ErrLayout, fb.info.Format)
	}
	if err := l.Validate(32); err != nil {
		return err
	}
	fb.layout = l
	fb.info.Layout = l
	return nil
}

// Close unmaps the device memory and closes the device.
func (fb *Framebuffer) Close() error {
	if fb.release == nil {
		return nil
	}
	err := fb.release.Run()
	fb.release = nil
	fb.draw, fb.buffers = nil, [2]*pixel.Surface{}
	return err
}

// flush copies the draw buffer into the hidden device buffer and pans to it.
func (fb *Framebuffer) flush() error {
	next := 0
	if fb.double {
		next = 1 - fb.displayed
	}

	var (
		target = fb.buffers[next]
		n      = fb.draw.Size()
	)
	if fb.swap {
		pixel.CopySwapRB(target.Pix[:n], fb.draw.Pix[:n])
	} else {
		copy(target.Pix[:n], fb.draw.Pix[:n])
	}

	if !fb.double {
		return nil
	}
	if err := fb.pan(next); err != nil {
		return err
	}
	fb.displayed = next
	return nil
}

func (fb *Framebuffer) pan(n int) error {
	fb.vi.YresVirtual = uint32(fb.draw.Height * 2)
	fb.vi.Yoffset = uint32(n * fb.draw.Height)
	fb.vi.BitsPerPixel = uint32(fb.draw.BytesPerPixel() * 8)
	if err := fb.dev.SetVarScreenInfo(&fb.vi); err != nil {
		return fmt.Errorf("framebuffer: select buffer %d: %w", n, err)
	}
	if err := fb.dev.Pan(&fb.vi); err != nil {
		return fmt.Errorf("framebuffer: pan to buffer %d: %w", n, err)
	}
	return nil
}
