// hp3478a-config: Set the HP 3478A function and range
//
// Functions: DCvolt, ACvolt, 2Wohms, 4Wohms, DCcurr, ACcurr, ENohms.
// The range is 3*10^x inside the function's limits, or 0 for autorange.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/herlein/benchgpib/pkg/gpib"
	"github.com/herlein/benchgpib/pkg/hp3478a"
	"github.com/herlein/benchgpib/pkg/resource"
)

func main() {
	res := flag.String("r", resource.Default(), resource.FlagUsage())
	pad := flag.Int("pad", hp3478a.DefaultPAD, "Meter primary address")
	function := flag.String("f", "DCvolt", "Measurement function")
	rng := flag.Float64("range", 0, "Range (3*10^x), 0 for autorange")
	fit := flag.Bool("fit", false, "Use the smallest range that holds -range instead of requiring an exact range")
	digits := flag.Int("digits", 0, "Display digits: 3, 4 or 5 (0 leaves unchanged)")
	text := flag.String("text", "", "Show text on the front panel")
	reset := flag.Bool("reset", true, "Home the meter before configuring")
	dryRun := flag.Bool("n", false, "Print the command string without sending it")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	fn, err := hp3478a.ParseFunction(*function)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	settings := hp3478a.Settings{Function: fn, Range: *rng, Digits: *digits}
	if *fit && *rng != 0 {
		settings.Range, err = hp3478a.RangeFor(fn, *rng)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *text != "" {
		settings.Display = hp3478a.DisplayText
		settings.Text = *text
	}

	cmd, err := settings.Command()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		fmt.Println(cmd)
		return
	}

	address := gpib.Address{PAD: *pad}
	if err := address.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dev, err := resource.OpenDevice(*res, gpib.DefaultDeviceConfig(*pad))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open meter: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	meter := hp3478a.New(dev)
	if err := meter.Init(*reset); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize meter: %v\n", err)
		os.Exit(1)
	}
	if err := meter.Configure(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Sent %q to %s\n", cmd, dev)
	} else {
		fmt.Println(cmd)
	}
}
