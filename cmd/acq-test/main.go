// acq-test: Measure the HP 3478A reading rate
//
// This tool puts the meter in its fastest DC volts mode, takes a run of
// readings and reports how long they took.
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
	count := flag.Int("n", 500, "Number of readings")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	address := gpib.Address{PAD: *pad}
	if err := address.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := gpib.DefaultDeviceConfig(*pad)
	cfg.Timeout = hp3478a.DefaultTimeout
	dev, err := resource.OpenDevice(*res, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open meter: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	if *verbose {
		fmt.Printf("Opened %s\n", dev)
	}

	meter := hp3478a.New(dev)
	meter.SetBufferSize(hp3478a.ValueBufferSize)
	if err := meter.Init(false); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize meter: %v\n", err)
		os.Exit(1)
	}
	if err := meter.Configure(hp3478a.FastDCV3); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	acq, err := meter.Acquire(*count)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hp3478a.FormatReadings(acq.Readings, "%1.3f"))
	fmt.Println()
	fmt.Printf("%d readings taken in %1.3f seconds.\n", acq.Attempts, acq.Elapsed.Seconds())
	fmt.Printf("Average reading frequency was %3.3f Hz.\n", acq.Rate())
	if acq.Failed > 0 {
		fmt.Printf("%d readings failed.\n", acq.Failed)
	}
}
