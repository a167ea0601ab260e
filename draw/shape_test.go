package draw

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BeatGlow/screen/pixel"
)

const white = 0xFFFF

// dump renders the canvas as rows of '#' and '.'.
func dump(c *pixel.Canvas) []string {
	var rows []string
	for y := c.Rect.Min.Y; y < c.Rect.Max.Y; y++ {
		row := make([]byte, 0, c.Rect.Dx())
		for x := c.Rect.Min.X; x < c.Rect.Max.X; x++ {
			if c.RGB565At(x, y) != 0 {
				row = append(row, '#')
			} else {
				row = append(row, '.')
			}
		}
		rows = append(rows, string(row))
	}
	return rows
}

func TestLine(t *testing.T) {
	tests := []struct {
		Name string
		A, B image.Point
		Want []string
	}{
		{"point", image.Pt(1, 1), image.Pt(1, 1), []string{
			"....",
			".#..",
			"....",
		}},
		{"horizontal", image.Pt(3, 0), image.Pt(0, 0), []string{
			"####",
			"....",
			"....",
		}},
		{"vertical", image.Pt(2, 0), image.Pt(2, 2), []string{
			"..#.",
			"..#.",
			"..#.",
		}},
		{"diagonal", image.Pt(0, 0), image.Pt(2, 2), []string{
			"#...",
			".#..",
			"..#.",
		}},
		{"shallow", image.Pt(0, 0), image.Pt(3, 1), []string{
			"##..",
			"..##",
			"....",
		}},
		{"clipped", image.Pt(-2, 1), image.Pt(5, 1), []string{
			"....",
			"####",
			"....",
		}},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			c := pixel.NewCanvas(4, 3)
			Line(c, test.A, test.B, white)
			assert.Equal(it, test.Want, dump(c))
		})
	}
}

func TestRectangle(t *testing.T) {
	c := pixel.NewCanvas(5, 4)
	Rectangle(c, image.Rect(0, 0, 4, 3), white)
	assert.Equal(t, []string{
		"####.",
		"#..#.",
		"####.",
		".....",
	}, dump(c))
}

func TestRectangleOffset(t *testing.T) {
	c := pixel.NewCanvas(6, 5)
	Rectangle(c, image.Rect(4, 4, 1, 1), white)
	assert.Equal(t, []string{
		"......",
		".###..",
		".#.#..",
		".###..",
		"......",
	}, dump(c))
}

func TestBox(t *testing.T) {
	c := pixel.NewCanvas(4, 3)
	Box(c, image.Rect(1, 1, 9, 9), white)
	assert.Equal(t, []string{
		"....",
		".###",
		".###",
	}, dump(c))
}

func TestRoundedBox(t *testing.T) {
	c := pixel.NewCanvas(8, 6)
	RoundedBox(c, c.Bounds(), 2, white)
	assert.Equal(t, []string{
		"..####..",
		".######.",
		"########",
		"########",
		".######.",
		"..####..",
	}, dump(c))
}

func TestRoundedRectangle(t *testing.T) {
	c := pixel.NewCanvas(8, 6)
	RoundedRectangle(c, c.Bounds(), 2, white)
	assert.Equal(t, []string{
		"..####..",
		".#....#.",
		"#......#",
		"#......#",
		".#....#.",
		"..####..",
	}, dump(c))
}

func TestRoundedRadiusZero(t *testing.T) {
	a, b := pixel.NewCanvas(5, 4), pixel.NewCanvas(5, 4)
	RoundedBox(a, image.Rect(1, 1, 4, 3), 0, white)
	Box(b, image.Rect(1, 1, 4, 3), white)
	assert.Equal(t, b.Pix, a.Pix)
}

func TestCornerInsets(t *testing.T) {
	assert.Nil(t, cornerInsets(0, image.Rect(0, 0, 10, 10)))
	assert.Equal(t, []int{2, 1}, cornerInsets(2, image.Rect(0, 0, 10, 10)))
	assert.Len(t, cornerInsets(50, image.Rect(0, 0, 10, 6)), 3, "radius is limited by the shorter side")
}

func TestAlphaBox(t *testing.T) {
	c := pixel.NewCanvas(2, 1)
	c.FillRGB565(0xF800)
	AlphaBox(c, image.Rect(1, 0, 2, 1), 0x001F, 0x80)
	assert.Equal(t, uint16(0xF800), c.RGB565At(0, 0))
	assert.Equal(t, pixel.Alpha(0xF800, 0x001F, 0x80), c.RGB565At(1, 0))

	c.FillRGB565(0)
	AlphaBoxDither(c, c.Bounds(), white, 0xff)
	assert.Equal(t, uint16(white), c.RGB565At(0, 0))
	assert.Equal(t, uint16(white), c.RGB565At(1, 0))
}

func TestGradient(t *testing.T) {
	c := pixel.NewCanvas(1, 3)
	Gradient(c, c.Bounds(), 0x0000, white)
	assert.Equal(t, uint16(0), c.RGB565At(0, 0))
	assert.Equal(t, uint16(white), c.RGB565At(0, 2))
	mid := c.RGB565At(0, 1)
	assert.True(t, mid != 0 && mid != white, "middle row is in between")
}
