// Package auto wires the display backends into the default selection chain:
// modesetting first, then the compositor overlay, then the raw framebuffer.
package auto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BeatGlow/screen"
	"github.com/BeatGlow/screen/drm"
	"github.com/BeatGlow/screen/framebuffer"
	"github.com/BeatGlow/screen/overlay"
)

// ErrUnknownBackend is returned for backend names not in Backends.
var ErrUnknownBackend = errors.New("auto: unknown backend")

// Backends in default priority order.
var Backends = []string{drm.Name, overlay.Name, framebuffer.Name}

// Config for every backend and the order they are tried in.
type Config struct {
	// Order of backend names to try. Empty means Backends.
	Order []string `mapstructure:"order"`

	DRM         drm.Config         `mapstructure:"drm"`
	Overlay     overlay.Config     `mapstructure:"overlay"`
	Framebuffer framebuffer.Config `mapstructure:"framebuffer"`
}

// DefaultConfig are the default configuration values.
var DefaultConfig = Config{
	Order:       Backends,
	DRM:         drm.DefaultConfig,
	Overlay:     overlay.DefaultConfig,
	Framebuffer: framebuffer.DefaultConfig,
}

// Candidates for screen.Select in config order. If config is nil,
// DefaultConfig is used.
func Candidates(config *Config) ([]screen.Candidate, error) {
	if config == nil {
		config = &DefaultConfig
	}
	order := config.Order
	if len(order) == 0 {
		order = Backends
	}

	candidates := make([]screen.Candidate, 0, len(order))
	for _, name := range order {
		c, err := candidate(strings.ToLower(strings.TrimSpace(name)), config)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func candidate(name string, config *Config) (screen.Candidate, error) {
	c := screen.Candidate{Name: name}
	switch name {
	case drm.Name:
		cfg := config.DRM
		c.Open = func() (screen.Backend, error) {
			b, err := drm.Open(&cfg)
			if err != nil {
				return nil, err
			}
			return b, nil
		}
	case overlay.Name:
		cfg := config.Overlay
		c.Open = func() (screen.Backend, error) {
			b, err := overlay.Open(&cfg)
			if err != nil {
				return nil, err
			}
			return b, nil
		}
	case framebuffer.Name:
		cfg := config.Framebuffer
		c.Open = func() (screen.Backend, error) {
			b, err := framebuffer.Open(&cfg)
			if err != nil {
				return nil, err
			}
			return b, nil
		}
	default:
		return c, fmt.Errorf("%w: %q (have %s)", ErrUnknownBackend, name, strings.Join(Backends, ", "))
	}
	return c, nil
}

// Open selects the first working backend and starts a session on it. If
// config is nil, DefaultConfig is used.
func Open(config *Config) (*screen.Session, error) {
	candidates, err := Candidates(config)
	if err != nil {
		return nil, err
	}
	return screen.Open(candidates...)
}
