// awg2021-screencap: Save the AWG2021 screen as an image
//
// Usage: awg2021-screencap [-r resource] <PAD> <image path>
//
// A .png path is converted from the instrument's bitmap; a .bmp path keeps
// the bytes exactly as sent.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/herlein/benchgpib/pkg/awg2021"
	"github.com/herlein/benchgpib/pkg/gpib"
	"github.com/herlein/benchgpib/pkg/resource"
)

func main() {
	res := flag.String("r", resource.Default(), resource.FlagUsage())
	maxSize := flag.Int("max", awg2021.MaxCaptureSize, "Read buffer size in bytes")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-r resource] <PAD> <image path>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}

	pad, err := gpib.ParsePAD(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	path := flag.Arg(1)
	if err := awg2021.CheckPath(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Trying to open PAD %d on %s ...\n", pad, *res)
	dev, err := resource.OpenDevice(*res, awg2021.DeviceConfig(pad))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open device: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	fmt.Print("Connection succeeded. ")
	data, err := awg2021.Capture(dev, *maxSize)
	if err != nil {
		fmt.Println()
		fmt.Fprintf(os.Stderr, "Error: Capture failed: %v\n", err)
		os.Exit(1)
	}

	if err := awg2021.SaveCapture(data, path); err != nil {
		fmt.Println()
		fmt.Fprintf(os.Stderr, "Error: Image writing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d KB received. Written to %s\n", dev.Count()/1024, path)
}
