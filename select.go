package screen

import (
	"errors"
	"fmt"

	"github.com/BeatGlow/screen/internal/logger"
)

// Candidate is a backend that Select may try.
type Candidate struct {
	// Name of the backend, for logging.
	Name string

	// Open claims the display. It must leave no open handles or mappings
	// behind if it returns an error.
	Open func() (Backend, error)
}

// Select tries candidates in order and returns the first backend that opens
// and reports a usable geometry. A backend with an invalid geometry is closed
// and the next candidate is tried. If every candidate fails the returned
// error wraps ErrNoBackend and each candidate's failure.
func Select(candidates ...Candidate) (Backend, error) {
	errs := []error{ErrNoBackend}
	for _, c := range candidates {
		log := logger.For(c.Name)
		if c.Open == nil {
			continue
		}

		b, err := c.Open()
		if err != nil {
			log.Debug("backend unavailable", "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			continue
		}

		info := b.Info()
		if info.Width <= 0 || info.Height <= 0 {
			err = fmt.Errorf("%s: %w: %dx%d", c.Name, ErrInvalidGeometry, info.Width, info.Height)
			if closeErr := b.Close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
			log.Warn("backend rejected", "err", err)
			errs = append(errs, err)
			continue
		}

		log.Info("using display backend", "info", info)
		return b, nil
	}
	return nil, errors.Join(errs...)
}
