// hp3478a-acquire: Print readings from an HP 3478A
//
// Usage: hp3478a-acquire [-r resource] <PAD> [count]
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/herlein/benchgpib/pkg/gpib"
	"github.com/herlein/benchgpib/pkg/hp3478a"
	"github.com/herlein/benchgpib/pkg/resource"
)

func main() {
	res := flag.String("r", resource.Default(), resource.FlagUsage())
	verbose := flag.Bool("v", false, "Report failed readings on stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-r resource] <PAD> [count]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	pad, err := gpib.ParsePAD(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	count := 1
	if flag.NArg() > 1 {
		count, err = strconv.Atoi(flag.Arg(1))
		if err != nil || count < 1 {
			fmt.Fprintf(os.Stderr, "Error: invalid count %q\n", flag.Arg(1))
			os.Exit(1)
		}
	}

	fmt.Printf("Trying to open PAD %d on %s ...\n", pad, *res)
	cfg := gpib.DefaultDeviceConfig(pad)
	cfg.Timeout = gpib.T1s
	dev, err := resource.OpenDevice(*res, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open device: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	meter := hp3478a.New(dev)

	fmt.Print("[ ")
	for i := 0; i < count; i++ {
		value, err := meter.Read()
		if err != nil && *verbose {
			fmt.Fprintf(os.Stderr, "reading %d: %v\n", i+1, err)
		}
		if i+1 != count {
			fmt.Printf("%f, ", value)
		} else {
			fmt.Printf("%f ]\n", value)
		}
	}
}
