package overlay

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/BeatGlow/screen/pixel"
)

// MDP pixel formats from <linux/msm_mdp.h>.
const (
	MDPRGB565   = 0
	MDPRGBA8888 = 13
	MDPBGRA8888 = 14
)

// Overlay request constants from <linux/msm_mdp.h>.
const (
	NewRequest        = 0xffffffff // MSMFB_NEW_REQUEST
	TranspNop         = 0xffffffff // MDP_TRANSP_NOP
	FlagRightMixer    = 0x100      // MDSS_MDP_RIGHT_MIXER
	CommitOverlay     = 0x1        // MDP_DISPLAY_COMMIT_OVERLAY
	opaque            = 0xff
	sourceWidthAlign  = 32
	mdp5Prefix        = "mdssfb"
	mdpPrefix         = "msmfb"
	mdpVersionDigits  = 3
	minIdentification = 8
)

// Image is struct msmfb_img.
type Image struct {
	Width, Height uint32
	Format        uint32
}

// Rect is struct mdp_rect.
type Rect struct {
	X, Y, W, H uint32
}

// Request is the leading part of struct mdp_overlay. The layout of the
// fields up to and including ID is shared by every MDP kernel; the tail
// differs and is left zeroed.
type Request struct {
	Src        Image
	SrcRect    Rect
	DstRect    Rect
	ZOrder     uint32
	IsFG       uint32
	Alpha      uint32
	BlendOp    uint32
	TranspMask uint32
	Flags      uint32
	PipeType   uint32
	ID         uint32
}

// Offsets into struct mdp_overlay.
const (
	requestHeadSize = 76
	requestIDOffset = 72
)

// Put encodes r into the head of b, which must hold at least 76 bytes.
func (r *Request) Put(b []byte) {
	order := binary.NativeEndian
	words := []uint32{
		r.Src.Width, r.Src.Height, r.Src.Format,
		r.SrcRect.X, r.SrcRect.Y, r.SrcRect.W, r.SrcRect.H,
		r.DstRect.X, r.DstRect.Y, r.DstRect.W, r.DstRect.H,
		r.ZOrder, r.IsFG, r.Alpha, r.BlendOp, r.TranspMask, r.Flags, r.PipeType, r.ID,
	}
	for i, w := range words {
		order.PutUint32(b[i*4:], w)
	}
}

// ReadID picks the overlay id assigned by the driver out of an encoded
// request.
func ReadID(b []byte) uint32 {
	return binary.NativeEndian.Uint32(b[requestIDOffset:])
}

func (r *Request) String() string {
	return fmt.Sprintf("src %dx%d fmt %d crop %d,%d %dx%d dst %d,%d %dx%d flags %#x",
		r.Src.Width, r.Src.Height, r.Src.Format,
		r.SrcRect.X, r.SrcRect.Y, r.SrcRect.W, r.SrcRect.H,
		r.DstRect.X, r.DstRect.Y, r.DstRect.W, r.DstRect.H,
		r.Flags)
}

// MDPFormat maps a pixel format to the MDP source format.
func MDPFormat(f pixel.Format) uint32 {
	switch f {
	case pixel.FormatBGRA8888:
		return MDPBGRA8888
	case pixel.FormatRGBA8888, pixel.FormatRGBX8888:
		return MDPRGBA8888
	default:
		return MDPRGB565
	}
}

// Compositor identifies the overlay compositor from a framebuffer driver id.
// ok is false when the driver has no usable overlay compositor; mdp5 is set
// for MDSS drivers, which may publish a display split.
func Compositor(id string, minVersion int) (mdp5, ok bool) {
	if len(id) < minIdentification {
		return false, false
	}
	switch {
	case strings.HasPrefix(id, mdpPrefix):
		version := leadingInt(id[len(mdpPrefix) : len(mdpPrefix)+mdpVersionDigits])
		return false, version >= minVersion
	case strings.HasPrefix(id, mdp5Prefix):
		return true, true
	default:
		return false, false
	}
}

// ParseSplit parses the "left right" display split published by MDSS drivers.
// Fields that do not parse are 0.
func ParseSplit(s string) (left, right int) {
	fields := strings.Fields(s)
	if len(fields) > 0 {
		left = leadingInt(fields[0])
	}
	if len(fields) > 1 {
		right = leadingInt(fields[1])
	}
	return
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}

func align(v, to uint32) uint32 {
	return (v + to - 1) &^ (to - 1)
}

// Requests builds the overlay requests for a w by h source on a panel xres
// pixels wide. A split panel gets a left and a right overlay; the source is
// cropped at the ratio of the left split to the panel width.
func Requests(w, h int, format pixel.Format, xres, leftSplit int, split bool) []Request {
	src := Image{
		Width:  align(uint32(w), sourceWidthAlign),
		Height: uint32(h),
		Format: MDPFormat(format),
	}
	base := Request{
		Src:        src,
		Alpha:      opaque,
		TranspMask: TranspNop,
		ID:         NewRequest,
	}
	if !split {
		r := base
		r.SrcRect = Rect{W: uint32(w), H: uint32(h)}
		r.DstRect = Rect{W: uint32(w), H: uint32(h)}
		return []Request{r}
	}

	if leftSplit == 0 {
		leftSplit = xres / 2
	}
	// Crop edges are truncated from the single precision product.
	crop := float32(w) * (float32(leftSplit) / float32(xres))

	left := base
	left.SrcRect = Rect{W: uint32(crop), H: uint32(h)}
	left.DstRect = Rect{W: uint32(leftSplit), H: uint32(h)}

	right := base
	right.SrcRect = Rect{X: uint32(crop), W: uint32(float32(w) - crop), H: uint32(h)}
	right.DstRect = Rect{W: uint32(w - leftSplit), H: uint32(h)}
	right.Flags = FlagRightMixer

	return []Request{left, right}
}

// Leading flags and wait_for_finish of struct mdp_display_commit.
const commitHeadSize = 8

func putCommit(b []byte, wait bool) {
	binary.NativeEndian.PutUint32(b, CommitOverlay)
	if wait {
		binary.NativeEndian.PutUint32(b[4:], 1)
	}
}
