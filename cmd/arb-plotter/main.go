// arb-plotter: Load a waveform into a Wavetek 275
//
// Without -p the built-in 1 kHz sawtooth is loaded. A program file holds one
// raw command per line; lines starting with '#' are ignored.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/herlein/benchgpib/pkg/gpib"
	"github.com/herlein/benchgpib/pkg/resource"
	"github.com/herlein/benchgpib/pkg/wavetek275"
)

func main() {
	res := flag.String("r", resource.Default(), resource.FlagUsage())
	pad := flag.Int("pad", wavetek275.DefaultPAD, "Generator primary address")
	programPath := flag.String("p", "", "Program file (default: 1 kHz sawtooth)")
	reset := flag.Bool("reset", true, "Clear and reset the generator first")
	verbose := flag.Bool("v", false, "Print each command as it is sent")
	flag.Parse()

	cmds, err := loadCommands(*programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	address := gpib.Address{PAD: *pad}
	if err := address.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dev, err := resource.OpenDevice(*res, wavetek275.DeviceConfig(*pad))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open generator: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	gen := wavetek275.New(dev)
	if *reset {
		if err := gen.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to initialize generator: %v\n", err)
			os.Exit(1)
		}
	}

	if *verbose {
		for _, cmd := range cmds {
			fmt.Printf("  %s\n", cmd)
		}
	}
	if err := gen.Send(cmds); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load waveform: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d commands into %s\n", len(cmds), dev)
}

func loadCommands(path string) ([]string, error) {
	if path == "" {
		return wavetek275.Sawtooth1kHz.Commands()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program: %w", err)
	}
	defer f.Close()
	return wavetek275.ParseCommands(f)
}
