// Package drm presents the canvas through kernel modesetting (DRM/KMS).
//
// The backend drives one connector, preferring the built-in panel types
// (LVDS, eDP, DSI), from two dumb buffers that are flipped on every present.
package drm

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/charmbracelet/log"
	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/screen"
	"github.com/BeatGlow/screen/internal/logger"
	"github.com/BeatGlow/screen/internal/unwind"
	"github.com/BeatGlow/screen/pixel"
)

// Name of the backend.
const Name = "drm"

// Errors
var (
	ErrNotSupported = errors.New("drm: not supported")
	ErrNoDevice     = errors.New("drm: no usable device")
	ErrNoDumbBuffer = errors.New("drm: dumb buffers not supported")
	ErrNoConnector  = errors.New("drm: no connected display")
	ErrNoCrtc       = errors.New("drm: no display controller for connector")
	ErrNoBackup     = errors.New("drm: cannot back up the display controller")
	ErrFormat       = errors.New("drm: unsupported format")
)

// connectorPriority lists the connector types of built-in panels.
var connectorPriority = []uint32{
	ConnectorLVDS,
	ConnectorEDP,
	ConnectorDSI,
}

// Device is an open DRM card.
type Device interface {
	// Capability queries a driver capability.
	Capability(c uint64) (uint64, error)

	// Resources lists the card's CRTCs, connectors and encoders.
	Resources() (*Resources, error)

	Connector(id uint32) (*Connector, error)
	Encoder(id uint32) (*Encoder, error)
	Crtc(id uint32) (*Crtc, error)

	// SetCrtc drives connectors from fb with mode. A zero fb and nil mode
	// disable the CRTC.
	SetCrtc(crtcID, fbID uint32, connectors []uint32, mode *ModeInfo) error

	CreateDumb(width, height, bpp uint32) (DumbBuffer, error)
	DestroyDumb(handle uint32) error

	// AddFB registers a dumb buffer as a scanout framebuffer.
	AddFB(width, height uint32, format Fourcc, handle, pitch uint32) (uint32, error)
	RemoveFB(fbID uint32) error

	// MapDumb maps size bytes of a dumb buffer.
	MapDumb(handle uint32, size int) ([]byte, error)
	Unmap([]byte) error

	// PageFlip schedules fbID for scanout on the next vertical blank.
	PageFlip(crtcID, fbID uint32) error

	Close() error
}

// Config for the modesetting backend.
type Config struct {
	// Devices are the card nodes tried in order.
	Devices []string `mapstructure:"devices"`

	// Format of the scanout buffers: RG16, XR24 or XB24.
	Format string `mapstructure:"format"`
}

// DefaultConfig are the default configuration values.
var DefaultConfig = Config{
	Devices: cardNodes(64),
	Format:  FourccRGB565.String(),
}

func cardNodes(n int) []string {
	nodes := make([]string, n)
	for i := range nodes {
		nodes[i] = fmt.Sprintf("/dev/dri/card%d", i)
	}
	return nodes
}

type surface struct {
	*pixel.Surface
	fbID    uint32
	handle  uint32
	release *unwind.Stack
}

// DRM is the modesetting backend.
type DRM struct {
	dev       Device
	log       *log.Logger
	format    Fourcc
	connector *Connector
	crtc      *Crtc
	mode      ModeInfo
	surfaces  [2]*surface
	current   int
	draw      *pixel.Surface
	layout    pixel.Layout
	info      screen.Info
	release   *unwind.Stack
}

var _ screen.Backend = (*DRM)(nil)

// Open the first card in config.Devices that has a connected display. If
// config is nil, DefaultConfig is used.
func Open(config *Config) (*DRM, error) {
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}

	var (
		log  = logger.For(Name)
		errs = []error{ErrNoDevice}
	)
	for _, path := range config.Devices {
		dev, err := openDevice(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		} else if err != nil {
			log.Debug("open failed", "path", path, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}

		d, err := New(dev, config)
		if err != nil {
			log.Debug("device rejected", "path", path, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		log.Debug("using device", "path", path)
		return d, nil
	}
	return nil, errors.Join(errs...)
}

// New sets up the backend on an open card. The backend owns dev from here on;
// if New fails, everything acquired so far is released and dev is closed.
func New(dev Device, config *Config) (_ *DRM, err error) {
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}

	var stack unwind.Stack
	defer stack.OnError(&err)
	stack.Push(dev.Close)

	d := &DRM{
		dev: dev,
		log: logger.For(Name),
	}
	if d.format, err = ParseFourcc(config.Format); err != nil {
		return nil, err
	}

	if c, err := dev.Capability(CapDumbBuffer); err != nil || c == 0 {
		return nil, errors.Join(ErrNoDumbBuffer, err)
	}

	res, err := dev.Resources()
	if err != nil {
		return nil, err
	}
	if len(res.Crtcs) == 0 || len(res.Connectors) == 0 {
		return nil, ErrNoConnector
	}

	var mode int
	if d.connector, mode = d.findMainConnector(res); d.connector == nil {
		return nil, ErrNoConnector
	}
	d.mode = d.connector.Modes[mode]

	if d.crtc = d.findCrtc(res, d.connector); d.crtc == nil {
		return nil, ErrNoCrtc
	}
	orig, err := dev.Crtc(d.crtc.ID)
	if err != nil {
		return nil, errors.Join(ErrNoBackup, err)
	}
	stack.Push(func() error { return d.restore(orig) })

	d.disableOtherCrtcs(res)

	var (
		w, h   = int(d.mode.Hdisplay), int(d.mode.Vdisplay)
		format = pixelFormat(d.format)
	)
	d.log.Debug("selected mode",
		"connector", d.connector.ID, "type", d.connector.Type,
		"crtc", d.crtc.ID, "mode", d.mode.String(), "format", d.format)

	for i := range d.surfaces {
		if d.surfaces[i], err = d.createSurface(w, h, format); err != nil {
			return nil, err
		}
		stack.Push(d.surfaces[i].release.Run)
	}

	d.draw = pixel.NewSurfaceStride(w, h, d.surfaces[0].Stride, format)
	d.layout = pixelLayout(d.format)

	// The first flip targets surface 0, so scan out of surface 1.
	if err = dev.SetCrtc(d.crtc.ID, d.surfaces[1].fbID, []uint32{d.connector.ID}, &d.mode); err != nil {
		return nil, fmt.Errorf("drm: enable crtc %d: %w", d.crtc.ID, err)
	}
	stack.Push(func() error { return dev.SetCrtc(d.crtc.ID, 0, nil, nil) })
	d.current = 0

	d.info = screen.Info{
		Width:          w,
		Height:         h,
		Format:         format,
		Layout:         d.layout,
		DPI:            estimateDPI(w, d.connector.MMWidth),
		PhysicalWidth:  physic.Distance(d.connector.MMWidth) * physic.MilliMetre,
		PhysicalHeight: physic.Distance(d.connector.MMHeight) * physic.MilliMetre,
		DoubleBuffered: true,
	}
	d.log.Debug("modesetting ready", "info", d.info, "pitch", d.draw.Stride)

	d.release = stack.Release()
	return d, nil
}

// findMainConnector picks the first connected built-in panel, or else the
// first connected connector, and the index of its preferred mode.
func (d *DRM) findMainConnector(res *Resources) (*Connector, int) {
	var (
		connectors = make([]*Connector, 0, len(res.Connectors))
		usable     = func(c *Connector) bool { return c.Connection == Connected && len(c.Modes) > 0 }
		main       *Connector
	)
	for _, id := range res.Connectors {
		c, err := d.dev.Connector(id)
		if err != nil {
			d.log.Debug("connector unavailable", "connector", id, "err", err)
			continue
		}
		connectors = append(connectors, c)
	}

search:
	for _, typ := range connectorPriority {
		for _, c := range connectors {
			if c.Type == typ && usable(c) {
				main = c
				break search
			}
		}
	}
	if main == nil {
		for _, c := range connectors {
			if usable(c) {
				main = c
				break
			}
		}
	}
	if main == nil {
		return nil, 0
	}

	for i := range main.Modes {
		if main.Modes[i].Preferred() {
			return main, i
		}
	}
	return main, 0
}

// findCrtc returns the CRTC driving c, or the first CRTC one of its encoders
// can drive.
func (d *DRM) findCrtc(res *Resources, c *Connector) *Crtc {
	if c.EncoderID != 0 {
		if e, err := d.dev.Encoder(c.EncoderID); err == nil && e.CrtcID != 0 {
			if crtc, err := d.dev.Crtc(e.CrtcID); err == nil {
				return crtc
			}
		}
	}

	for _, id := range c.Encoders {
		e, err := d.dev.Encoder(id)
		if err != nil {
			continue
		}
		for i, crtcID := range res.Crtcs {
			if e.PossibleCrtcs&(1<<i) == 0 {
				continue
			}
			if crtc, err := d.dev.Crtc(crtcID); err == nil {
				return crtc
			}
			break
		}
	}
	return nil
}

func (d *DRM) disableOtherCrtcs(res *Resources) {
	for _, id := range res.Connectors {
		c, err := d.dev.Connector(id)
		if err != nil {
			continue
		}
		crtc := d.findCrtc(res, c)
		if crtc == nil || crtc.ID == d.crtc.ID {
			continue
		}
		if err = d.dev.SetCrtc(crtc.ID, 0, nil, nil); err != nil {
			d.log.Warn("disable crtc failed", "crtc", crtc.ID, "err", err)
		}
	}
}

func (d *DRM) restore(orig *Crtc) error {
	var mode *ModeInfo
	if orig.ModeValid {
		mode = &orig.Mode
	}
	if err := d.dev.SetCrtc(orig.ID, orig.FbID, []uint32{d.connector.ID}, mode); err != nil {
		return fmt.Errorf("drm: restore crtc %d: %w", orig.ID, err)
	}
	return nil
}

// createSurface allocates, registers and maps one dumb buffer. On failure the
// steps already taken are undone.
func (d *DRM) createSurface(w, h int, format pixel.Format) (_ *surface, err error) {
	var stack unwind.Stack
	defer stack.OnError(&err)

	db, err := d.dev.CreateDumb(uint32(w), uint32(h), d.format.Bits())
	if err != nil {
		return nil, fmt.Errorf("drm: create dumb buffer: %w", err)
	}
	stack.Push(func() error { return d.dev.DestroyDumb(db.Handle) })

	fbID, err := d.dev.AddFB(uint32(w), uint32(h), d.format, db.Handle, db.Pitch)
	if err != nil {
		return nil, fmt.Errorf("drm: add framebuffer: %w", err)
	}
	stack.Push(func() error { return d.dev.RemoveFB(fbID) })

	mem, err := d.dev.MapDumb(db.Handle, int(db.Pitch)*h)
	if err != nil {
		return nil, fmt.Errorf("drm: map dumb buffer: %w", err)
	}
	stack.Push(func() error { return d.dev.Unmap(mem) })

	return &surface{
		Surface: &pixel.Surface{
			Width:  w,
			Height: h,
			Stride: int(db.Pitch),
			Format: format,
			Pix:    mem,
		},
		fbID:    fbID,
		handle:  db.Handle,
		release: stack.Release(),
	}, nil
}

func (d *DRM) String() string {
	return Name
}

// Info about the display.
func (d *DRM) Info() screen.Info {
	return d.info
}

// Mode is the display mode in use.
func (d *DRM) Mode() ModeInfo {
	return d.mode
}

// Begin a present transaction.
func (d *DRM) Begin() error {
	if d.release == nil {
		return screen.ErrClosed
	}
	return nil
}

// Present converts r of src into the draw buffer at dst.
func (d *DRM) Present(dst image.Point, src *pixel.Canvas, r image.Rectangle) error {
	pixel.Present(d.draw, dst.X, dst.Y, src.Pix, src.Stride, r.Min.X, r.Min.Y, r.Dx(), r.Dy(), d.layout)
	return nil
}

// End copies the draw buffer into the back buffer and flips to it.
func (d *DRM) End() error {
	back := d.surfaces[d.current]
	copy(back.Pix, d.draw.Pix)
	if err := d.dev.PageFlip(d.crtc.ID, back.fbID); err != nil {
		return fmt.Errorf("drm: page flip to framebuffer %d: %w", back.fbID, err)
	}
	d.current = 1 - d.current
	return nil
}

// SetLayout changes the channel layout of 32-bit formats.
func (d *DRM) SetLayout(l pixel.Layout) error {
	if d.draw.BytesPerPixel() != 4 {
		return fmt.Errorf("%w: %s has no channel layout", pixel.ErrLayout, d.format)
	}
	if err := l.Validate(32); err != nil {
		return err
	}
	d.layout = l
	d.info.Layout = l
	return nil
}

// Close disables the CRTC, destroys both buffers, restores the original
// display configuration and closes the card.
func (d *DRM) Close() error {
	if d.release == nil {
		return nil
	}
	err := d.release.Run()
	d.release = nil
	d.draw, d.surfaces = nil, [2]*surface{}
	return err
}

func pixelFormat(f Fourcc) pixel.Format {
	switch f {
	case FourccXRGB8888:
		return pixel.FormatBGRA8888
	case FourccXBGR8888:
		return pixel.FormatRGBX8888
	default:
		return pixel.FormatRGB565
	}
}

func pixelLayout(f Fourcc) pixel.Layout {
	if f == FourccXRGB8888 {
		return pixel.LayoutBGRA
	}
	return pixel.LayoutRGBA
}

// estimateDPI from the panel width, rounded to a multiple of 80. Zero when
// the size is unknown.
func estimateDPI(px int, mm uint32) int {
	if mm == 0 {
		return 0
	}
	return int(math.Round(float64(px)/(float64(mm)*0.03937)/80)) * 80
}
