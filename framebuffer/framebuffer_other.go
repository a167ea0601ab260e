//go:build !linux

package framebuffer

func openDevice(_ string) (Device, error) {
	return nil, ErrNotSupported
}
