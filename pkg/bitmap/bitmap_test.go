package bitmap

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestGeometry(t *testing.T) {
	assert.Equal(t, 320, AWG2021Geometry.Stride())
	assert.Equal(t, 153600, AWG2021Geometry.Size())

	g := Geometry{Width: 3, Height: 2, BitsPerPixel: 4, RowAlign: 4}
	assert.Equal(t, 4, g.Stride())
	g = Geometry{Width: 9, Height: 1, BitsPerPixel: 1}
	assert.Equal(t, 2, g.Stride())
}

func TestDecodeRawNibbles(t *testing.T) {
	g := Geometry{Width: 4, Height: 2, BitsPerPixel: 4}
	data := []byte{0x01, 0x23, 0xAB, 0xCF}

	img, err := DecodeRaw(data, g, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x0, 0x1, 0x2, 0x3}, img.Pix[0:4])
	assert.Equal(t, []uint8{0xA, 0xB, 0xC, 0xF}, img.Pix[img.Stride:img.Stride+4])
	assert.Equal(t, color.Gray{Y: 255}, img.At(3, 1))
	assert.Equal(t, color.Gray{Y: 0}, img.At(0, 0))
}

func TestDecodeRawBottomUp(t *testing.T) {
	g := Geometry{Width: 2, Height: 2, BitsPerPixel: 4, BottomUp: true}
	data := []byte{0x12, 0x34}

	img, err := DecodeRaw(data, g, nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), img.ColorIndexAt(0, 0))
	assert.Equal(t, uint8(4), img.ColorIndexAt(1, 0))
	assert.Equal(t, uint8(1), img.ColorIndexAt(0, 1))
	assert.Equal(t, uint8(2), img.ColorIndexAt(1, 1))
}

func TestDecodeRawMono(t *testing.T) {
	g := Geometry{Width: 10, Height: 1, BitsPerPixel: 1}
	data := []byte{0xA0, 0x40}

	img, err := DecodeRaw(data, g, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 0, 1, 0, 0, 0, 0, 0, 0, 1}, img.Pix[:10])
}

func TestDecodeRawErrors(t *testing.T) {
	_, err := DecodeRaw([]byte{0x00}, AWG2021Geometry, nil)
	assert.ErrorIs(t, err, ErrShortBitmap)

	_, err = DecodeRaw(make([]byte, 16), Geometry{Width: 4, Height: 4, BitsPerPixel: 3}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedBitmap)

	_, err = DecodeRaw(make([]byte, 16), Geometry{Width: 0, Height: 4, BitsPerPixel: 4}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedBitmap)
}

func testImage(w, h int, palette color.Palette) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, w, h), palette)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetColorIndex(x, y, uint8((x+y)%len(palette)))
		}
	}
	return img
}

func TestEncodeDecode(t *testing.T) {
	for _, bpp := range []int{1, 4, 8} {
		palette := PaletteFor(bpp)
		src := testImage(13, 7, palette)

		data, err := Encode(src, bpp)
		require.NoError(t, err)

		decoded, err := Decode(data)
		require.NoError(t, err, "bpp %d", bpp)
		img, ok := decoded.(*image.Paletted)
		require.True(t, ok)
		require.Equal(t, src.Bounds(), img.Bounds())
		for y := 0; y < 7; y++ {
			for x := 0; x < 13; x++ {
				require.Equal(t, src.ColorIndexAt(x, y), img.ColorIndexAt(x, y), "bpp %d at %d,%d", bpp, x, y)
			}
		}
	}
}

func TestFileSize(t *testing.T) {
	data, err := Encode(testImage(13, 7, PaletteFor(4)), 4)
	require.NoError(t, err)

	size, ok := FileSize(data[:fileHeaderSize])
	require.True(t, ok)
	assert.Equal(t, len(data), size)

	_, ok = FileSize(data[:6])
	assert.False(t, ok)
	_, ok = FileSize([]byte("#0BM\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"))
	assert.False(t, ok)
	_, ok = FileSize([]byte("BM\x02\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"))
	assert.False(t, ok)
}

func TestDecodeTopDown(t *testing.T) {
	src := testImage(4, 3, Gray16)
	data, err := Encode(src, 4)
	require.NoError(t, err)

	// flip the stored rows and negate the height
	stride := 4
	offset := len(data) - 3*stride
	rows := append([]byte(nil), data[offset:]...)
	for i := 0; i < 3; i++ {
		copy(data[offset+i*stride:], rows[(2-i)*stride:(3-i)*stride])
	}
	data[22], data[23], data[24], data[25] = 0xFD, 0xFF, 0xFF, 0xFF

	decoded, err := Decode(data)
	require.NoError(t, err)
	img := decoded.(*image.Paletted)
	assert.Equal(t, src.Pix, img.Pix)
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode([]byte("GIF89a"))
	assert.ErrorIs(t, err, ErrNotBitmap)

	data, err := Encode(testImage(4, 4, Gray16), 4)
	require.NoError(t, err)

	rle := append([]byte(nil), data...)
	rle[30] = 2
	_, err = Decode(rle)
	assert.ErrorIs(t, err, ErrUnsupportedBitmap)

	_, err = Decode(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrShortBitmap)
}

func TestDecodeTrueColor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	red := color.RGBA{R: 0xFF, A: 0xFF}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.Set(x, y, red)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{0xFFFF, 0, 0}, []uint32{r, g, b})
}

func TestWritePNG(t *testing.T) {
	img, err := DecodeRaw(make([]byte, AWG2021Geometry.Size()), AWG2021Geometry, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "screen.png")
	require.NoError(t, WritePNG(path, img))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
}
