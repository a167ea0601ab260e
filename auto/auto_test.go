package auto

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeatGlow/screen"
	"github.com/BeatGlow/screen/drm"
	"github.com/BeatGlow/screen/framebuffer"
	"github.com/BeatGlow/screen/overlay"
)

func names(candidates []screen.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Name
	}
	return out
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		Name  string
		Order []string
		Want  []string
	}{
		{"default", nil, []string{"drm", "overlay", "framebuffer"}},
		{"single", []string{"framebuffer"}, []string{"framebuffer"}},
		{"reordered", []string{"overlay", "drm"}, []string{"overlay", "drm"}},
		{"normalized", []string{" DRM "}, []string{"drm"}},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			config := DefaultConfig
			config.Order = test.Order
			candidates, err := Candidates(&config)
			require.NoError(it, err)
			assert.Equal(it, test.Want, names(candidates))
			for _, c := range candidates {
				assert.NotNil(it, c.Open)
			}
		})
	}
}

func TestCandidatesNil(t *testing.T) {
	candidates, err := Candidates(nil)
	require.NoError(t, err)
	assert.Equal(t, Backends, names(candidates))
}

func TestUnknownBackend(t *testing.T) {
	config := DefaultConfig
	config.Order = []string{"drm", "x11"}
	_, err := Candidates(&config)
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = Open(&config)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestDefaultConfig(t *testing.T) {
	assert.Equal(t, drm.DefaultConfig.Devices, DefaultConfig.DRM.Devices)
	assert.Equal(t, overlay.DefaultConfig.Device, DefaultConfig.Overlay.Device)
	assert.Equal(t, framebuffer.DefaultConfig.Devices, DefaultConfig.Framebuffer.Devices)
}

func TestOpenWithoutDisplay(t *testing.T) {
	dir := t.TempDir()
	config := DefaultConfig
	config.DRM.Devices = []string{filepath.Join(dir, "card0")}
	config.Overlay.Device = filepath.Join(dir, "fb0")
	config.Framebuffer.Devices = []string{filepath.Join(dir, "fb0")}
	config.Framebuffer.OpenRetries = 1
	config.Framebuffer.RetryDelay = time.Millisecond

	s, err := Open(&config)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, screen.ErrNoBackend)
}
