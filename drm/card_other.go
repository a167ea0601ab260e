//go:build !linux

package drm

func openDevice(_ string) (Device, error) {
	return nil, ErrNotSupported
}
