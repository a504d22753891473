package bitmap

import (
	"image/color"
)

// Gray16 maps 4-bit indices to 16 evenly spaced gray levels, black first
var Gray16 = grayPalette(16)

// Mono maps index 0 to black and 1 to white
var Mono = grayPalette(2)

func grayPalette(n int) color.Palette {
	p := make(color.Palette, n)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i * 255 / (n - 1))}
	}
	return p
}

// PaletteFor returns the default grayscale palette for a bit depth
func PaletteFor(bitsPerPixel int) color.Palette {
	switch bitsPerPixel {
	case 1:
		return Mono
	case 4:
		return Gray16
	default:
		return grayPalette(256)
	}
}
