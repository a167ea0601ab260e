package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeatGlow/screen/auto"
	"github.com/BeatGlow/screen/drm"
	"github.com/BeatGlow/screen/framebuffer"
	"github.com/BeatGlow/screen/overlay"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	config, err := load(viper.New(), "", []string{t.TempDir()})
	require.NoError(t, err)

	assert.False(t, config.Debug)
	assert.Equal(t, auto.Backends, config.Order)
	assert.Equal(t, drm.DefaultConfig, config.DRM)
	assert.Equal(t, overlay.DefaultConfig, config.Overlay)
	assert.Equal(t, framebuffer.DefaultConfig, config.Framebuffer)
}

func TestLoadSearchPath(t *testing.T) {
	var (
		empty = t.TempDir()
		dir   = t.TempDir()
	)
	writeFile(t, dir, "screen.yaml", `
debug: true
order: [framebuffer]
framebuffer:
  devices: [/dev/fb1]
  retry_delay: 50ms
`)

	config, err := load(viper.New(), "", []string{empty, dir})
	require.NoError(t, err)

	assert.True(t, config.Debug)
	assert.Equal(t, []string{"framebuffer"}, config.Order)
	assert.Equal(t, []string{"/dev/fb1"}, config.Framebuffer.Devices)
	assert.Equal(t, 50*time.Millisecond, config.Framebuffer.RetryDelay)
	assert.Equal(t, framebuffer.DefaultConfig.OpenRetries, config.Framebuffer.OpenRetries, "unset keys keep their default")
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "panel.toml", `
[drm]
format = "XR24"

[overlay]
max_pipe_width = 1080
overlay_size = 720
swap_red_offsets = [16]
`)

	config, err := load(viper.New(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, "XR24", config.DRM.Format)
	assert.Equal(t, drm.DefaultConfig.Devices, config.DRM.Devices)
	assert.Equal(t, 1080, config.Overlay.MaxPipeWidth)
	assert.Equal(t, 720, config.Overlay.OverlaySize)
	assert.Equal(t, []uint32{16}, config.Overlay.SwapRedOffsets)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("SCREEN_FRAMEBUFFER_OPEN_RETRIES", "3")
	t.Setenv("SCREEN_DRM_FORMAT", "XB24")

	config, err := load(viper.New(), "", []string{t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, 3, config.Framebuffer.OpenRetries)
	assert.Equal(t, "XB24", config.DRM.Format)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(it *testing.T) {
		_, err := load(viper.New(), filepath.Join(it.TempDir(), "screen.yaml"), nil)
		assert.Error(it, err)
	})

	t.Run("invalid file", func(it *testing.T) {
		dir := it.TempDir()
		writeFile(it, dir, "screen.toml", "[drm\nformat = ")
		_, err := load(viper.New(), "", []string{dir})
		assert.Error(it, err)
	})
}

func TestDefaultIsACopy(t *testing.T) {
	config := Default()
	config.Order = []string{"drm"}
	assert.Equal(t, auto.Backends, auto.DefaultConfig.Order)
}
