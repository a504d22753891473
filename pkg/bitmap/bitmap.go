// Package bitmap turns instrument screen dumps into images. Instruments hand
// back either Windows BMP files or headerless packed pixel data.
package bitmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/bmp"
)

const (
	fileHeaderSize = 14
	infoHeaderSize = 40
	compressionRGB = 0
)

// Geometry describes headerless pixel data
type Geometry struct {
	Width        int
	Height       int
	BitsPerPixel int  // 1, 4 or 8
	BottomUp     bool // first row in the data is the bottom of the image
	RowAlign     int  // row stride is padded to a multiple of this many bytes; 0 means none
}

// AWG2021Geometry is the 640x480 16-level screen of the AWG2021
var AWG2021Geometry = Geometry{Width: 640, Height: 480, BitsPerPixel: 4, BottomUp: true}

// Stride returns the number of bytes per row, including padding
func (g Geometry) Stride() int {
	stride := (g.Width*g.BitsPerPixel + 7) / 8
	if g.RowAlign > 1 {
		stride = (stride + g.RowAlign - 1) / g.RowAlign * g.RowAlign
	}
	return stride
}

// Size returns the number of bytes the pixel data occupies
func (g Geometry) Size() int {
	return g.Stride() * g.Height
}

func (g Geometry) validate() error {
	switch g.BitsPerPixel {
	case 1, 4, 8:
	default:
		return fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedBitmap, g.BitsPerPixel)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrUnsupportedBitmap, g.Width, g.Height)
	}
	return nil
}

// DecodeRaw unpacks headerless pixel data. Pixels are packed most significant
// bits first, so a 4-bit byte holds the left pixel in its high nibble.
func DecodeRaw(data []byte, g Geometry, palette color.Palette) (*image.Paletted, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	if len(data) < g.Size() {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrShortBitmap, g.Size(), len(data))
	}
	if palette == nil {
		palette = PaletteFor(g.BitsPerPixel)
	}

	img := image.NewPaletted(image.Rect(0, 0, g.Width, g.Height), palette)
	stride := g.Stride()
	perByte := 8 / g.BitsPerPixel
	mask := byte(1<<g.BitsPerPixel - 1)

	for row := 0; row < g.Height; row++ {
		y := row
		if g.BottomUp {
			y = g.Height - 1 - row
		}
		src := data[row*stride : (row+1)*stride]
		dst := img.Pix[y*img.Stride : y*img.Stride+g.Width]
		for x := range dst {
			b := src[x/perByte]
			shift := uint(8 - g.BitsPerPixel*(x%perByte+1))
			idx := (b >> shift) & mask
			if int(idx) >= len(palette) {
				idx = byte(len(palette) - 1)
			}
			dst[x] = idx
		}
	}
	return img, nil
}

// header is the part of BITMAPFILEHEADER and BITMAPINFOHEADER that decoding needs
type header struct {
	pixelOffset  int
	infoSize     int
	width        int
	height       int
	topDown      bool
	bitsPerPixel int
	compression  uint32
	colorsUsed   int
}

// FileSize returns bfSize, the total file length announced by the
// BITMAPFILEHEADER at the start of data
func FileSize(data []byte) (int, bool) {
	if len(data) < fileHeaderSize || data[0] != 'B' || data[1] != 'M' {
		return 0, false
	}
	size := int(binary.LittleEndian.Uint32(data[2:6]))
	if size < fileHeaderSize {
		return 0, false
	}
	return size, true
}

func parseHeader(data []byte) (header, error) {
	var h header
	if len(data) < fileHeaderSize+infoHeaderSize || data[0] != 'B' || data[1] != 'M' {
		return h, ErrNotBitmap
	}
	le := binary.LittleEndian
	h.pixelOffset = int(le.Uint32(data[10:14]))
	h.infoSize = int(le.Uint32(data[14:18]))
	if h.infoSize < infoHeaderSize {
		return h, fmt.Errorf("%w: info header of %d bytes", ErrUnsupportedBitmap, h.infoSize)
	}
	h.width = int(int32(le.Uint32(data[18:22])))
	height := int(int32(le.Uint32(data[22:26])))
	if height < 0 {
		h.topDown = true
		height = -height
	}
	h.height = height
	h.bitsPerPixel = int(le.Uint16(data[28:30]))
	h.compression = le.Uint32(data[30:34])
	h.colorsUsed = int(le.Uint32(data[46:50]))
	return h, nil
}

// Decode parses a BMP file. Uncompressed 1, 4 and 8 bit images are returned
// as *image.Paletted with their own palette; other depths are handed to
// golang.org/x/image/bmp.
func Decode(data []byte) (image.Image, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	switch h.bitsPerPixel {
	case 1, 4, 8:
	default:
		img, err := bmp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedBitmap, err)
		}
		return img, nil
	}
	if h.compression != compressionRGB {
		return nil, fmt.Errorf("%w: compression %d", ErrUnsupportedBitmap, h.compression)
	}

	colors := h.colorsUsed
	if colors == 0 || colors > 1<<h.bitsPerPixel {
		colors = 1 << h.bitsPerPixel
	}
	paletteStart := fileHeaderSize + h.infoSize
	if len(data) < paletteStart+4*colors {
		return nil, fmt.Errorf("%w: palette", ErrShortBitmap)
	}
	palette := make(color.Palette, colors)
	for i := range palette {
		entry := data[paletteStart+4*i:]
		// stored as blue, green, red, reserved
		palette[i] = color.RGBA{R: entry[2], G: entry[1], B: entry[0], A: 0xFF}
	}

	if h.pixelOffset > len(data) {
		return nil, fmt.Errorf("%w: pixel offset %d", ErrShortBitmap, h.pixelOffset)
	}
	g := Geometry{
		Width:        h.width,
		Height:       h.height,
		BitsPerPixel: h.bitsPerPixel,
		BottomUp:     !h.topDown,
		RowAlign:     4,
	}
	return DecodeRaw(data[h.pixelOffset:], g, palette)
}

// Encode builds an uncompressed BMP from a paletted image of up to 256 colors
func Encode(img *image.Paletted, bitsPerPixel int) ([]byte, error) {
	b := img.Bounds()
	g := Geometry{Width: b.Dx(), Height: b.Dy(), BitsPerPixel: bitsPerPixel, BottomUp: true, RowAlign: 4}
	if err := g.validate(); err != nil {
		return nil, err
	}
	colors := 1 << bitsPerPixel
	if len(img.Palette) > colors {
		return nil, fmt.Errorf("%w: %d colors do not fit in %d bits", ErrUnsupportedBitmap, len(img.Palette), bitsPerPixel)
	}

	pixelOffset := fileHeaderSize + infoHeaderSize + 4*colors
	out := make([]byte, pixelOffset+g.Size())
	le := binary.LittleEndian
	out[0], out[1] = 'B', 'M'
	le.PutUint32(out[2:], uint32(len(out)))
	le.PutUint32(out[10:], uint32(pixelOffset))
	le.PutUint32(out[14:], infoHeaderSize)
	le.PutUint32(out[18:], uint32(g.Width))
	le.PutUint32(out[22:], uint32(g.Height))
	le.PutUint16(out[26:], 1)
	le.PutUint16(out[28:], uint16(bitsPerPixel))
	le.PutUint32(out[34:], uint32(g.Size()))
	le.PutUint32(out[46:], uint32(colors))

	for i, c := range img.Palette {
		r, gr, bl, _ := c.RGBA()
		entry := out[fileHeaderSize+infoHeaderSize+4*i:]
		entry[0], entry[1], entry[2] = byte(bl>>8), byte(gr>>8), byte(r>>8)
	}

	stride := g.Stride()
	for y := 0; y < g.Height; y++ {
		row := out[pixelOffset+(g.Height-1-y)*stride:]
		for x := 0; x < g.Width; x++ {
			idx := img.ColorIndexAt(b.Min.X+x, b.Min.Y+y)
			shift := uint(8 - bitsPerPixel*(x%(8/bitsPerPixel)+1))
			row[x*bitsPerPixel/8] |= idx << shift
		}
	}
	return out, nil
}
