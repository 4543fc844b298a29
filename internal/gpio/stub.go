//go:build !linux

package gpio

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns ErrNotSupported on non-Linux platforms.
func NewRealReader(chipName string, pin int, activeLow bool) (*RealReader, error) {
	return nil, ErrNotSupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (bool, error) {
	return false, ErrNotSupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}
