// Package config loads the backend configuration from a file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/BeatGlow/screen/auto"
)

// Name of the configuration file, without extension.
const Name = "screen"

// EnvPrefix of configuration environment variables, such as
// SCREEN_FRAMEBUFFER_OPEN_RETRIES.
const EnvPrefix = "SCREEN"

// SearchPaths are the directories searched for the configuration file, in
// order.
var SearchPaths = []string{".", "$HOME/.config/screen", "/etc/screen"}

// Config is the complete configuration.
type Config struct {
	// Debug enables debug logging.
	Debug bool `mapstructure:"debug"`

	auto.Config `mapstructure:",squash"`
}

// Default configuration values.
func Default() *Config {
	return &Config{Config: auto.DefaultConfig}
}

// Load the configuration. If path is empty, the SearchPaths are searched and
// a missing file is not an error.
func Load(path string) (*Config, error) {
	return load(viper.New(), path, SearchPaths)
}

func load(v *viper.Viper, path string, search []string) (*Config, error) {
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(Name)
		for _, dir := range search {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	config := new(Config)
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return config, nil
}

func setDefaults(v *viper.Viper, config *Config) {
	v.SetDefault("debug", config.Debug)
	v.SetDefault("order", config.Order)

	v.SetDefault("drm.devices", config.DRM.Devices)
	v.SetDefault("drm.format", config.DRM.Format)

	v.SetDefault("overlay.device", config.Overlay.Device)
	v.SetDefault("overlay.allocator", config.Overlay.Allocator)
	v.SetDefault("overlay.heap_mask", config.Overlay.HeapMask)
	v.SetDefault("overlay.split_path", config.Overlay.SplitPath)
	v.SetDefault("overlay.max_pipe_width", config.Overlay.MaxPipeWidth)
	v.SetDefault("overlay.min_mdp_version", config.Overlay.MinMDPVersion)
	v.SetDefault("overlay.overlay_size", config.Overlay.OverlaySize)
	v.SetDefault("overlay.commit_size", config.Overlay.CommitSize)
	v.SetDefault("overlay.swap_red_offsets", config.Overlay.SwapRedOffsets)

	v.SetDefault("framebuffer.devices", config.Framebuffer.Devices)
	v.SetDefault("framebuffer.open_retries", config.Framebuffer.OpenRetries)
	v.SetDefault("framebuffer.retry_delay", config.Framebuffer.RetryDelay)
	v.SetDefault("framebuffer.swap_red_offsets", config.Framebuffer.SwapRedOffsets)
}
