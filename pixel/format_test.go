package pixel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		layout Layout
		bits   int
		ok     bool
	}{
		{LayoutRGBA, 32, true},
		{LayoutBGRA, 32, true},
		{Layout{R: 24, G: 16, B: 8}, 32, true},
		{Layout{R: 24, G: 16, B: 8}, 24, false},
		{Layout{R: 0, G: 4, B: 16}, 32, false},
		{Layout{R: 16, G: 8, B: 16}, 32, false},
		{Layout{R: 30, G: 8, B: 0}, 32, false},
	}
	for _, test := range tests {
		t.Run(test.layout.String(), func(t *testing.T) {
			err := test.layout.Validate(test.bits)
			if test.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrLayout)
			}
		})
	}
}

func TestLayoutBytes(t *testing.T) {
	r, g, b := LayoutBGRA.Bytes()
	assert.Equal(t, [3]uint8{2, 1, 0}, [3]uint8{r, g, b})
}

func TestFormat(t *testing.T) {
	assert.Equal(t, 2, FormatRGB565.BytesPerPixel())
	assert.Equal(t, 4, FormatBGRA8888.BytesPerPixel())
	assert.Equal(t, 0, FormatUnknown.BytesPerPixel())
	assert.Equal(t, "RGBX_8888", FormatRGBX8888.String())
}
