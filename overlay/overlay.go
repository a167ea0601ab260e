// Package overlay presents the canvas through the Qualcomm MDP overlay
// compositor of MSM framebuffer devices.
//
// Frames are converted into a private draw buffer, copied into a physically
// contiguous ION allocation and handed to one overlay pipe (two on split
// panels) followed by a blocking display commit.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/BeatGlow/screen"
	"github.com/BeatGlow/screen/framebuffer"
	"github.com/BeatGlow/screen/internal/logger"
	"github.com/BeatGlow/screen/internal/unwind"
	"github.com/BeatGlow/screen/pixel"
)

// Name of the backend.
const Name = "overlay"

// Errors
var (
	ErrNotSupported = errors.New("overlay: not supported")
	ErrNoCompositor = errors.New("overlay: display has no overlay compositor")
	ErrGeometry     = errors.New("overlay: unusable geometry")
	ErrDepth        = errors.New("overlay: unsupported color depth")
	ErrRequestSize  = errors.New("overlay: request size too small")
)

// Device is a framebuffer device node with the MDP overlay interface.
type Device interface {
	// VarScreenInfo reads the variable screen description.
	VarScreenInfo() (framebuffer.VarScreenInfo, error)

	// FixScreenInfo reads the fixed screen description.
	FixScreenInfo() (framebuffer.FixScreenInfo, error)

	// SetOverlay registers an overlay pipe; the driver assigns r.ID.
	SetOverlay(r *Request) error

	// UnsetOverlay releases an overlay pipe.
	UnsetOverlay(id uint32) error

	// Play queues the buffer behind memoryFD on overlay id.
	Play(id uint32, memoryFD int) error

	// Commit the queued overlays, optionally waiting for the display.
	Commit(wait bool) error

	// Close the device.
	Close() error
}

// Buffer is a mapped contiguous allocation.
type Buffer struct {
	Handle int32
	FD     int
	Mem    []byte
}

// Allocator hands out physically contiguous memory.
type Allocator interface {
	// Alloc maps size bytes.
	Alloc(size int) (*Buffer, error)

	// Free unmaps and releases a buffer.
	Free(*Buffer) error

	// Close the allocator.
	Close() error
}

// Config for the overlay backend.
type Config struct {
	// Device is the framebuffer device node.
	Device string `mapstructure:"device"`

	// Allocator is the ION device node.
	Allocator string `mapstructure:"allocator"`

	// HeapMask selects the ION heaps to allocate from.
	HeapMask uint32 `mapstructure:"heap_mask"`

	// SplitPath is the sysfs attribute holding the MDSS display split.
	SplitPath string `mapstructure:"split_path"`

	// MaxPipeWidth is the widest panel a single overlay pipe can drive.
	MaxPipeWidth int `mapstructure:"max_pipe_width"`

	// MinMDPVersion is the oldest msmfb MDP revision with overlays.
	MinMDPVersion int `mapstructure:"min_mdp_version"`

	// OverlaySize is sizeof(struct mdp_overlay) of the running kernel.
	OverlaySize int `mapstructure:"overlay_size"`

	// CommitSize is sizeof(struct mdp_display_commit) of the running kernel.
	CommitSize int `mapstructure:"commit_size"`

	// SwapRedOffsets are the red channel offsets of 32-bit devices that expect
	// red and blue exchanged relative to the reported layout.
	SwapRedOffsets []uint32 `mapstructure:"swap_red_offsets"`
}

// ION heap ids from <linux/msm_ion.h>.
const (
	ionSystemContigHeap = 21
	ionIOMMUHeap        = 25
)

// DefaultConfig are the default configuration values.
var DefaultConfig = Config{
	Device:         "/dev/graphics/fb0",
	Allocator:      "/dev/ion",
	HeapMask:       1<<ionIOMMUHeap | 1<<ionSystemContigHeap,
	SplitPath:      "/sys/class/graphics/fb0/msm_fb_split",
	MaxPipeWidth:   2048,
	MinMDPVersion:  400,
	OverlaySize:    680,
	CommitSize:     200,
	SwapRedOffsets: []uint32{8, 16},
}

// Overlay is the compositor overlay backend.
type Overlay struct {
	dev     Device
	log     *log.Logger
	vi      framebuffer.VarScreenInfo
	fi      framebuffer.FixScreenInfo
	info    screen.Info
	layout  pixel.Layout
	swap    bool
	draw    *pixel.Surface
	mem     *Buffer
	ids     []uint32
	release *unwind.Stack
}

var _ screen.Backend = (*Overlay)(nil)

// Open the configured framebuffer device and set up the overlay. If config is
// nil, DefaultConfig is used.
func Open(config *Config) (*Overlay, error) {
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}
	dev, err := openDevice(config)
	if err != nil {
		return nil, err
	}
	return New(dev, func() (Allocator, error) {
		return openAllocator(config)
	}, config)
}

// New sets up the backend on an open device. The allocator is only opened
// once the device is known to have an overlay compositor. The backend owns dev
// from here on; if New fails, dev is closed.
func New(dev Device, allocator func() (Allocator, error), config *Config) (_ *Overlay, err error) {
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}

	var stack unwind.Stack
	defer stack.OnError(&err)
	stack.Push(dev.Close)

	if config.OverlaySize < requestHeadSize || config.CommitSize < commitHeadSize {
		return nil, fmt.Errorf("%w: overlay %d, commit %d", ErrRequestSize, config.OverlaySize, config.CommitSize)
	}

	o := &Overlay{
		dev: dev,
		log: logger.For(Name),
	}

	if o.fi, err = dev.FixScreenInfo(); err != nil {
		return nil, err
	}
	mdp5, ok := Compositor(o.fi.Name(), config.MinMDPVersion)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoCompositor, o.fi.Name())
	}
	if o.vi, err = dev.VarScreenInfo(); err != nil {
		return nil, err
	}
	o.log.Debug("screen info",
		"id", o.fi.Name(), "mdp5", mdp5,
		"xres", o.vi.Xres, "yres", o.vi.Yres,
		"bpp", o.vi.BitsPerPixel,
		"red", o.vi.Red, "green", o.vi.Green, "blue", o.vi.Blue, "transp", o.vi.Transp,
		"width_mm", o.vi.Width, "height_mm", o.vi.Height,
		"line_length", o.fi.LineLength)

	var (
		w, h   = int(o.vi.Xres), int(o.vi.Yres)
		format = o.vi.Format()
		stride = int(o.fi.LineLength)
		frame  = stride * h
	)
	if format.BytesPerPixel()*8 != int(o.vi.BitsPerPixel) {
		return nil, fmt.Errorf("%w: %d bits per pixel as %s", ErrDepth, o.vi.BitsPerPixel, format)
	}
	if format == pixel.FormatRGB565 && stride/4 == w {
		stride /= 2
	}
	if w <= 0 || h <= 0 || stride < w*format.BytesPerPixel() {
		return nil, fmt.Errorf("%w: %dx%d, line %d", ErrGeometry, w, h, o.fi.LineLength)
	}

	o.draw = pixel.NewSurfaceStride(w, h, stride, format)
	o.layout = pixel.LayoutRGBA
	if o.vi.Transp.Offset != 0 {
		o.layout = pixel.LayoutBGRA
	}
	o.swap = o.vi.NeedsSwap(config.SwapRedOffsets)

	alloc, err := allocator()
	if err != nil {
		return nil, err
	}
	stack.Push(alloc.Close)

	if o.mem, err = alloc.Alloc(frame); err != nil {
		return nil, fmt.Errorf("overlay: allocate %d bytes: %w", frame, err)
	}
	mem := o.mem
	stack.Push(func() error { return alloc.Free(mem) })

	var left, right int
	if mdp5 {
		left, right = readSplit(config.SplitPath, o.log)
	}
	split := w > config.MaxPipeWidth || right != 0

	stack.Push(o.unset)
	for _, r := range Requests(w, h, format, w, left, split) {
		r := r
		if err = dev.SetOverlay(&r); err != nil {
			return nil, fmt.Errorf("overlay: set %s: %w", &r, err)
		}
		o.log.Debug("overlay registered", "id", r.ID, "request", &r)
		o.ids = append(o.ids, r.ID)
	}

	pw, ph := o.vi.PhysicalSize()
	o.info = screen.Info{
		Width:          w,
		Height:         h,
		Format:         format,
		Layout:         o.layout,
		DPI:            o.vi.DPI(),
		PhysicalWidth:  pw,
		PhysicalHeight: ph,
	}
	o.log.Debug("overlay ready", "info", o.info, "layout", o.layout, "swap", o.swap, "split", split, "pipes", len(o.ids))

	if err := o.flush(); err != nil {
		o.log.Warn("initial flush failed", "err", err)
	}

	o.release = stack.Release()
	return o, nil
}

func readSplit(path string, log *log.Logger) (left, right int) {
	if path == "" {
		return
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Debug("no display split", "path", path, "err", err)
		return
	}
	left, right = ParseSplit(strings.TrimSpace(string(b)))
	log.Debug("display split", "left", left, "right", right)
	return
}

func (o *Overlay) String() string {
	return Name
}

// Info about the display.
func (o *Overlay) Info() screen.Info {
	return o.info
}

// Pipes is the number of registered overlay pipes.
func (o *Overlay) Pipes() int {
	return len(o.ids)
}

// Begin a present transaction.
func (o *Overlay) Begin() error {
	if o.release == nil {
		return screen.ErrClosed
	}
	return nil
}

// Present converts r of src into the draw buffer at dst.
func (o *Overlay) Present(dst image.Point, src *pixel.Canvas, r image.Rectangle) error {
	pixel.Present(o.draw, dst.X, dst.Y, src.Pix, src.Stride, r.Min.X, r.Min.Y, r.Dx(), r.Dy(), o.layout)
	return nil
}

// End copies the draw buffer into the allocation, plays it on every overlay
// and waits for the display commit.
func (o *Overlay) End() error {
	return o.flush()
}

// SetLayout changes the channel layout of 32-bit formats.
func (o *Overlay) SetLayout(l pixel.Layout) error {
	if o.draw.BytesPerPixel() != 4 {
		return fmt.Errorf("%w: %s has no channel layout", pixel.ErrLayout, o.info.Format)
	}
	if err := l.Validate(32); err != nil {
		return err
	}
	o.layout = l
	o.info.Layout = l
	return nil
}

// Close unregisters the overlays, frees the allocation and closes the device.
func (o *Overlay) Close() error {
	if o.release == nil {
		return nil
	}
	err := o.release.Run()
	o.release = nil
	o.draw, o.mem = nil, nil
	return err
}

func (o *Overlay) flush() error {
	n := min(o.draw.Size(), len(o.mem.Mem))
	if o.swap {
		pixel.CopySwapRB(o.mem.Mem[:n], o.draw.Pix[:n])
	} else {
		copy(o.mem.Mem[:n], o.draw.Pix[:n])
	}

	for _, id := range o.ids {
		if err := o.dev.Play(id, o.mem.FD); err != nil {
			return fmt.Errorf("overlay: play %d: %w", id, err)
		}
	}
	if err := o.dev.Commit(true); err != nil {
		return fmt.Errorf("overlay: commit: %w", err)
	}
	return nil
}

// unset releases every registered overlay and commits the change.
func (o *Overlay) unset() error {
	if len(o.ids) == 0 {
		return nil
	}
	var errs []error
	for _, id := range o.ids {
		if err := o.dev.UnsetOverlay(id); err != nil {
			errs = append(errs, fmt.Errorf("overlay: unset %d: %w", id, err))
		}
	}
	o.ids = nil
	if err := o.dev.Commit(true); err != nil {
		errs = append(errs, fmt.Errorf("overlay: commit: %w", err))
	}
	return errors.Join(errs...)
}
