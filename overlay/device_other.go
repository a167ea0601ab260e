//go:build !linux

package overlay

func openDevice(_ *Config) (Device, error) {
	return nil, ErrNotSupported
}

func openAllocator(_ *Config) (Allocator, error) {
	return nil, ErrNotSupported
}
