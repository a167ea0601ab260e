package screen

import (
	"errors"
	"image"

	"github.com/BeatGlow/screen/pixel"
)

// mockBackend keeps a draw buffer and a "hardware" buffer in memory.
type mockBackend struct {
	name   string
	info   Info
	draw   *pixel.Surface
	hw     *pixel.Surface
	layout pixel.Layout

	begins, presents, ends, closes int
	presented                      []image.Rectangle

	beginErr, endErr, closeErr error
}

func newMockBackend(w, h int, f pixel.Format) *mockBackend {
	return &mockBackend{
		name: "mock",
		info: Info{
			Width:  w,
			Height: h,
			Format: f,
			Layout: pixel.LayoutRGBA,
			DPI:    240,
		},
		draw:   pixel.NewSurface(w, h, f),
		hw:     pixel.NewSurface(w, h, f),
		layout: pixel.LayoutRGBA,
	}
}

func (m *mockBackend) String() string { return m.name }
func (m *mockBackend) Info() Info     { return m.info }

func (m *mockBackend) Begin() error {
	m.begins++
	return m.beginErr
}

func (m *mockBackend) Present(dst image.Point, src *pixel.Canvas, r image.Rectangle) error {
	m.presents++
	m.presented = append(m.presented, r)
	pixel.Present(m.draw, dst.X, dst.Y, src.Pix, src.Stride, r.Min.X, r.Min.Y, r.Dx(), r.Dy(), m.layout)
	return nil
}

func (m *mockBackend) End() error {
	m.ends++
	copy(m.hw.Pix, m.draw.Pix)
	return m.endErr
}

func (m *mockBackend) SetLayout(l pixel.Layout) error {
	if m.info.Format.BytesPerPixel() != 4 {
		return errors.New("mock: 16-bit has no layout")
	}
	m.layout = l
	return nil
}

func (m *mockBackend) Close() error {
	m.closes++
	return m.closeErr
}

// snapBackend is a mockBackend whose screen shows a solid color.
type snapBackend struct {
	*mockBackend
	color uint16
}

func (m *snapBackend) Snapshot(dst *pixel.Canvas) error {
	dst.FillRGB565(m.color)
	return nil
}

func mockCandidate(b Backend, err error) Candidate {
	return Candidate{
		Name: "mock",
		Open: func() (Backend, error) {
			if err != nil {
				return nil, err
			}
			return b, nil
		},
	}
}
