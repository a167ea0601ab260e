package screen

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeatGlow/screen/pixel"
)

func newTestSession(t *testing.T, b Backend) *Session {
	t.Helper()
	s, err := New(b)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCheckDPI(t *testing.T) {
	tests := []struct {
		dpi, w, h int
		want      int
	}{
		{240, 480, 800, 240},
		{160, 320, 480, 160},
		{960, 1440, 2560, 960},
		{0, 1080, 1920, 480},
		{1200, 720, 1280, 320},
		{100, 320, 480, 160},
		{120, 480, 800, 240},
		{159, 480, 800, 240},
		{160, 480, 800, 160},
		{0, 200, 200, 160},
		{0, 4000, 4000, 160},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, checkDPI(test.dpi, test.w, test.h), "dpi %d at %dx%d", test.dpi, test.w, test.h)
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoBackend)

	_, err = New(newMockBackend(0, 10, pixel.FormatRGB565))
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	b := newMockBackend(480, 800, pixel.FormatRGB565)
	s := newTestSession(t, b)
	assert.Equal(t, 480, s.Width())
	assert.Equal(t, 800, s.Height())
	assert.Equal(t, 240, s.DPI())
	assert.False(t, s.DoubleBuffered())
	assert.Equal(t, image.Rect(0, 0, 480, 800), s.Bounds())
	assert.Equal(t, b, s.Backend())
	assert.Len(t, s.Canvas().Pix, 480*800)

	_, err = New(newMockBackend(10, 10, pixel.FormatRGB565))
	assert.ErrorIs(t, err, ErrSessionActive)
	_, err = Open(mockCandidate(newMockBackend(10, 10, pixel.FormatRGB565), nil))
	assert.ErrorIs(t, err, ErrSessionActive)

	require.NoError(t, s.Close())
	assert.Equal(t, 1, b.closes)
	assert.ErrorIs(t, s.Close(), ErrClosed)
	assert.Equal(t, 1, b.closes)

	s2 := newTestSession(t, newMockBackend(10, 10, pixel.FormatRGB565))
	require.NotNil(t, s2)
}

func TestNewClampsLowDPI(t *testing.T) {
	b := newMockBackend(480, 800, pixel.FormatRGB565)
	b.info.DPI = 120
	s := newTestSession(t, b)
	assert.Equal(t, 240, s.DPI())
	assert.GreaterOrEqual(t, s.DPI(), MinDPI)
}

func TestDensity(t *testing.T) {
	b := newMockBackend(1080, 1920, pixel.FormatRGB565)
	b.info.DPI = 480
	s := newTestSession(t, b)

	assert.Equal(t, 3, s.DP(1))
	assert.Equal(t, 48, s.DP(16))
	assert.Equal(t, 0, s.DP(0))
	assert.Equal(t, 360, s.PX(1080))
	assert.False(t, s.BigScreen())
	require.NoError(t, s.Close())

	tablet := newMockBackend(1600, 2560, pixel.FormatRGB565)
	tablet.info.DPI = 320
	s = newTestSession(t, tablet)
	assert.True(t, s.BigScreen())
}

func TestSyncConvertsToHardware(t *testing.T) {
	b := newMockBackend(320, 480, pixel.FormatRGBA8888)
	s := newTestSession(t, b)

	s.Canvas().FillRGB565(0xF800)
	require.NoError(t, s.Sync())

	want := make([]byte, 4)
	binary.NativeEndian.PutUint32(want, 0x000000f8)
	for i := 0; i < len(b.hw.Pix); i += 4 {
		if !assert.Equal(t, want, b.hw.Pix[i:i+4], "pixel %d", i/4) {
			break
		}
	}
	assert.Equal(t, 1, b.begins)
	assert.Equal(t, 1, b.ends)
	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 320, 480)}, b.presented)
}

func TestSync16(t *testing.T) {
	b := newMockBackend(8, 4, pixel.FormatRGB565)
	s := newTestSession(t, b)

	s.Canvas().FillRGB565(0x1234)
	require.NoError(t, s.Sync())
	for i := 0; i < len(b.hw.Pix); i += 2 {
		require.Equal(t, uint16(0x1234), binary.NativeEndian.Uint16(b.hw.Pix[i:]))
	}
}

func TestPresentWithoutBegin(t *testing.T) {
	b := newMockBackend(16, 16, pixel.FormatRGB565)
	s := newTestSession(t, b)
	s.Canvas().FillRGB565(0xFFFF)

	err := s.Present(nil, 0, 0, 0, 0, 16, 16)
	assert.ErrorIs(t, err, ErrNotPresenting)
	assert.ErrorIs(t, s.End(), ErrNotPresenting)
	assert.Zero(t, b.presents)
	assert.Equal(t, make([]byte, len(b.draw.Pix)), b.draw.Pix)
	assert.Equal(t, make([]byte, len(b.hw.Pix)), b.hw.Pix)
}

func TestPresentClipping(t *testing.T) {
	b := newMockBackend(100, 50, pixel.FormatRGB565)
	s := newTestSession(t, b)
	buf := make([]uint16, 100*50)
	pixel.Fill(buf, 0xFFFF)

	tests := []struct {
		name           string
		dx, dy, sx, sy int
		w, h           int
		want           image.Rectangle
		presented      bool
	}{
		{"inside", 10, 10, 20, 5, 30, 20, image.Rect(20, 5, 50, 25), true},
		{"source overhang", 0, 0, 90, 45, 30, 30, image.Rect(90, 45, 100, 50), true},
		{"destination overhang", 95, 48, 0, 0, 30, 30, image.Rect(0, 0, 5, 2), true},
		{"both overhang", 80, 0, 0, 40, 50, 50, image.Rect(0, 40, 20, 50), true},
		{"destination outside", 100, 0, 0, 0, 10, 10, image.Rectangle{}, false},
		{"source outside", 0, 0, 0, 500, 10, 10, image.Rectangle{}, false},
		{"empty", 0, 0, 0, 0, 0, 10, image.Rectangle{}, false},
		{"negative size", 0, 0, 0, 0, -5, 10, image.Rectangle{}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b.presented = nil
			before := append([]byte(nil), b.draw.Pix...)

			require.NoError(t, s.Begin())
			err := s.Present(buf, test.dx, test.dy, test.sx, test.sy, test.w, test.h)
			require.NoError(t, s.End())
			require.NoError(t, err)

			if test.presented {
				assert.Equal(t, []image.Rectangle{test.want}, b.presented)
			} else {
				assert.Empty(t, b.presented)
				assert.Equal(t, before, b.draw.Pix)
			}
		})
	}

	t.Run("invalid", func(t *testing.T) {
		require.NoError(t, s.Begin())
		defer func() { require.NoError(t, s.End()) }()
		assert.ErrorIs(t, s.Present(buf, -1, 0, 0, 0, 10, 10), ErrBounds)
		assert.ErrorIs(t, s.Present(buf, 0, 0, 0, -1, 10, 10), ErrBounds)
		assert.ErrorIs(t, s.Present(buf[:10], 0, 0, 0, 0, 10, 10), ErrBounds)
	})
}

func TestBeginFailureReleasesLock(t *testing.T) {
	b := newMockBackend(8, 8, pixel.FormatRGB565)
	s := newTestSession(t, b)

	b.beginErr = errors.New("device lost")
	assert.ErrorIs(t, s.Begin(), b.beginErr)
	assert.ErrorIs(t, s.Present(nil, 0, 0, 0, 0, 8, 8), ErrNotPresenting)

	b.beginErr = nil
	require.NoError(t, s.TryBegin())
	require.NoError(t, s.End())
}

func TestEndFailureKeepsSessionUsable(t *testing.T) {
	b := newMockBackend(8, 8, pixel.FormatRGB565)
	s := newTestSession(t, b)

	b.endErr = errors.New("flip failed")
	assert.ErrorIs(t, s.Sync(), b.endErr)

	b.endErr = nil
	require.NoError(t, s.Sync())
	assert.Equal(t, 2, b.ends)
}

func TestTransactionsAreSerialized(t *testing.T) {
	b := newMockBackend(8, 8, pixel.FormatRGB565)
	s := newTestSession(t, b)

	require.NoError(t, s.Begin())
	assert.ErrorIs(t, s.TryBegin(), ErrBusy)

	begun := make(chan struct{})
	go func() {
		if err := s.Begin(); err == nil {
			close(begun)
		}
	}()

	select {
	case <-begun:
		t.Fatal("second transaction started while the first was open")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, s.End())
	select {
	case <-begun:
	case <-time.After(time.Second):
		t.Fatal("second transaction never started")
	}
	require.NoError(t, s.End())
}

func TestConcurrentProducers(t *testing.T) {
	b := newMockBackend(32, 32, pixel.FormatRGB565)
	s := newTestSession(t, b)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := s.Sync(); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 160, b.begins)
	assert.Equal(t, 160, b.ends)
}

func TestCloseWithOpenTransaction(t *testing.T) {
	b := newMockBackend(8, 8, pixel.FormatRGB565)
	s, err := New(b)
	require.NoError(t, err)

	require.NoError(t, s.Begin())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, b.ends)
	assert.Equal(t, 1, b.closes)

	assert.ErrorIs(t, s.Begin(), ErrClosed)
	assert.ErrorIs(t, s.End(), ErrNotPresenting)
	assert.ErrorIs(t, s.Sync(), ErrClosed)
}

func TestSnapshotPrefillsCanvas(t *testing.T) {
	b := &snapBackend{mockBackend: newMockBackend(8, 8, pixel.FormatRGB565), color: 0x07E0}
	s := newTestSession(t, b)
	for _, v := range s.Canvas().Pix {
		require.Equal(t, uint16(0x07E0), v)
	}

	s.Canvas().Clear()
	b.color = 0x001F
	require.NoError(t, s.Snapshot())
	assert.Equal(t, uint16(0x001F), s.Canvas().RGB565At(3, 3))
}

func TestSnapshotUnsupported(t *testing.T) {
	s := newTestSession(t, newMockBackend(8, 8, pixel.FormatRGB565))
	assert.ErrorIs(t, s.Snapshot(), ErrNoSnapshot)
	for _, v := range s.Canvas().Pix {
		require.Zero(t, v)
	}
}

func TestSetLayout(t *testing.T) {
	b := newMockBackend(2, 1, pixel.FormatBGRA8888)
	s := newTestSession(t, b)

	assert.ErrorIs(t, s.SetLayout(0, 4, 16), pixel.ErrLayout)
	require.NoError(t, s.SetLayout(16, 8, 0))
	assert.Equal(t, pixel.LayoutBGRA, s.Info().Layout)

	s.Canvas().FillRGB565(0xF800)
	require.NoError(t, s.Sync())
	assert.Equal(t, uint32(0x00f80000), binary.NativeEndian.Uint32(b.hw.Pix))
}

func TestDrawer(t *testing.T) {
	b := newMockBackend(16, 16, pixel.FormatRGB565)
	s := newTestSession(t, b)
	d := s.Drawer()

	assert.Equal(t, "mock", d.String())
	assert.Equal(t, s.Bounds(), d.Bounds())
	assert.Equal(t, pixel.RGB565Model, d.ColorModel())

	require.NoError(t, d.Draw(image.Rect(-4, 12, 4, 20), image.NewUniform(color.White), image.Point{}))
	assert.Equal(t, []image.Rectangle{image.Rect(0, 12, 4, 16)}, b.presented)
	assert.Equal(t, uint16(0xFFFF), s.Canvas().RGB565At(3, 15))
	assert.Equal(t, uint16(0), s.Canvas().RGB565At(4, 15))

	require.NoError(t, d.Halt())
	assert.Equal(t, uint16(0), s.Canvas().RGB565At(3, 15))
}
