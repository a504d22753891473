// usbtmc-reset resets USBTMC GPIB adapters to recover from USB errors
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/gousb"

	"github.com/herlein/benchgpib/pkg/usbtmc"
)

func main() {
	clearOnly := flag.Bool("clear", false, "Send a USBTMC clear instead of a USB port reset")
	flag.Parse()

	ctx := gousb.NewContext()
	defer ctx.Close()

	// Try multiple times to find devices
	for attempt := 0; attempt < 3; attempt++ {
		devs, err := usbtmc.FindAllDevices(ctx)
		if err != nil {
			fmt.Printf("Attempt %d: Error finding devices: %v\n", attempt+1, err)
			time.Sleep(time.Second)
			continue
		}

		if len(devs) == 0 {
			fmt.Printf("Attempt %d: No devices found\n", attempt+1)
			time.Sleep(time.Second)
			continue
		}

		fmt.Printf("Found %d device(s)\n", len(devs))
		for i, dev := range devs {
			fmt.Printf("  Device %d: %s\n", i, dev)

			reset := dev.Reset
			if *clearOnly {
				reset = dev.Clear
			}
			if err := reset(); err != nil {
				fmt.Printf("    Reset failed: %v\n", err)
			} else {
				fmt.Printf("    Reset OK\n")
			}
			dev.Close()
		}
		os.Exit(0)
	}

	fmt.Println("Failed to find/reset devices after 3 attempts")
	os.Exit(1)
}
