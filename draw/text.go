package draw

import (
	"image"
	"image/color"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/BeatGlow/screen/pixel"
)

// DefaultFont is Go Regular.
func DefaultFont() (*truetype.Font, error) {
	return freetype.ParseFont(goregular.TTF)
}

// Face renders text in one font at a fixed size.
type Face struct {
	Font *truetype.Font
	Size float64 // points
	DPI  float64
}

// NewFace returns a face of f at size points for a display of dpi. A dpi
// of 0 uses the 160 dpi baseline.
func NewFace(f *truetype.Font, size float64, dpi int) *Face {
	if dpi <= 0 {
		dpi = 160
	}
	return &Face{Font: f, Size: size, DPI: float64(dpi)}
}

func (f *Face) face() font.Face {
	return truetype.NewFace(f.Font, &truetype.Options{
		Size:    f.Size,
		DPI:     f.DPI,
		Hinting: font.HintingFull,
	})
}

// Measure returns the advance width and the line height of s.
func (f *Face) Measure(s string) (width, height int) {
	face := f.face()
	defer face.Close()
	m := face.Metrics()
	return font.MeasureString(face, s).Ceil(), (m.Ascent + m.Descent).Ceil()
}

// Ascent is the distance from the top of a line to its baseline.
func (f *Face) Ascent() int {
	face := f.face()
	defer face.Close()
	return face.Metrics().Ascent.Ceil()
}

// Text draws s with its baseline starting at dot and returns the dot after
// the last glyph.
func (f *Face) Text(dst *pixel.Canvas, dot image.Point, s string, c color.Color) (image.Point, error) {
	ctx := freetype.NewContext()
	ctx.SetFont(f.Font)
	ctx.SetFontSize(f.Size)
	ctx.SetDPI(f.DPI)
	ctx.SetHinting(font.HintingFull)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)
	ctx.SetSrc(image.NewUniform(c))

	end, err := ctx.DrawString(s, fixed.P(dot.X, dot.Y))
	if err != nil {
		return dot, err
	}
	return image.Pt(end.X.Round(), end.Y.Round()), nil
}

// CenteredText draws s centered in r.
func (f *Face) CenteredText(dst *pixel.Canvas, r image.Rectangle, s string, c color.Color) error {
	w, h := f.Measure(s)
	dot := image.Pt(
		r.Min.X+(r.Dx()-w)/2,
		r.Min.Y+(r.Dy()-h)/2+f.Ascent(),
	)
	_, err := f.Text(dst, dot, s, c)
	return err
}
