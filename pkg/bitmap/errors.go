package bitmap

import "errors"

var (
	// ErrNotBitmap indicates data that does not start with a BMP file header
	ErrNotBitmap = errors.New("not a BMP image")

	// ErrUnsupportedBitmap indicates a compressed or otherwise unhandled BMP variant
	ErrUnsupportedBitmap = errors.New("unsupported BMP format")

	// ErrShortBitmap indicates pixel data shorter than the header describes
	ErrShortBitmap = errors.New("bitmap data truncated")
)
