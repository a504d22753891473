// bmp2png: Convert a saved instrument screen dump to PNG
//
// Reads a BMP file, or with -raw a headerless packed bitmap of the given
// geometry, and writes a PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/herlein/benchgpib/pkg/bitmap"
	"github.com/herlein/benchgpib/pkg/gpib"
)

func main() {
	input := flag.String("i", "", "Input file (required)")
	output := flag.String("o", "", "Output PNG file (required)")
	raw := flag.Bool("raw", false, "Input is headerless packed pixel data")
	width := flag.Int("w", bitmap.AWG2021Geometry.Width, "Raw image width")
	height := flag.Int("h", bitmap.AWG2021Geometry.Height, "Raw image height")
	bpp := flag.Int("bpp", bitmap.AWG2021Geometry.BitsPerPixel, "Raw bits per pixel (1, 4 or 8)")
	topDown := flag.Bool("topdown", false, "Raw rows are stored top row first")
	flag.Parse()

	if *input == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Error: -i and -o are required")
		flag.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// captures saved straight off the bus may still carry a block header
	data, err = gpib.ParseBlock(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var img image.Image
	if *raw {
		g := bitmap.Geometry{Width: *width, Height: *height, BitsPerPixel: *bpp, BottomUp: !*topDown}
		img, err = bitmap.DecodeRaw(data, g, nil)
	} else {
		img, err = bitmap.Decode(data)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to decode %s: %v\n", *input, err)
		os.Exit(1)
	}

	if err := bitmap.WritePNG(*output, img); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	b := img.Bounds()
	fmt.Printf("Wrote %dx%d image to %s\n", b.Dx(), b.Dy(), *output)
}
