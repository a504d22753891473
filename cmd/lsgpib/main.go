// lsgpib: List GPIB controllers attached to this machine
//
// This tool enumerates USBTMC GPIB adapters and serial ports that may carry
// a Prologix GPIB-USB controller. With -probe each serial port is opened and
// asked for its controller version.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/gousb"

	"github.com/herlein/benchgpib/pkg/prologix"
	"github.com/herlein/benchgpib/pkg/usbtmc"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output (show additional device details)")
	probe := flag.Bool("probe", false, "Open each serial port and query the Prologix version")
	baud := flag.Int("baud", prologix.DefaultBaudRate, "Baud rate used with -probe")
	flag.Parse()

	listUSBTMC(*verbose)
	fmt.Println()
	listSerial(*probe, *baud)
}

func listUSBTMC(verbose bool) {
	context := gousb.NewContext()
	defer context.Close()

	devices, err := usbtmc.FindAllDevices(context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to enumerate USB devices: %v\n", err)
		return
	}

	if len(devices) == 0 {
		fmt.Println("No USBTMC adapters found")
		return
	}

	fmt.Printf("Found %d USBTMC adapter(s):\n", len(devices))
	for i, device := range devices {
		defer device.Close()

		if verbose {
			fmt.Printf("Device #%d:\n", i)
			fmt.Printf("  Serial:       %s\n", device.Serial)
			fmt.Printf("  Bus:Address:  %d:%d\n", device.Bus, device.Address)
			fmt.Printf("  VID:PID:      %s:%s\n", device.Vendor, device.ProductID)
			fmt.Printf("  Manufacturer: %s\n", device.Manufacturer)
			fmt.Printf("  Product:      %s\n", device.Product)
			fmt.Printf("  USB488:       %v\n", device.USB488())
			fmt.Println()
		} else {
			fmt.Printf("  #%d  %s  %d:%d  %s\n", i, device.Serial, device.Bus, device.Address, device.Product)
		}
	}

	if !verbose {
		fmt.Println()
		fmt.Println("Use -r usbtmc:<selector> with other tools to select an adapter.")
		fmt.Println(usbtmc.DeviceFlagUsage())
	}
}

func listSerial(probe bool, baud int) {
	ports, err := prologix.ListSerialPorts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list serial ports: %v\n", err)
		return
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return
	}

	fmt.Printf("Found %d serial port(s):\n", len(ports))
	for _, port := range ports {
		if !probe {
			fmt.Printf("  serial:%s\n", port)
			continue
		}
		version, err := probeVersion(port, baud)
		if err != nil {
			fmt.Printf("  serial:%s  (no controller: %v)\n", port, err)
		} else {
			fmt.Printf("  serial:%s  %s\n", port, version)
		}
	}
}

func probeVersion(port string, baud int) (string, error) {
	ctrl, err := prologix.OpenSerial(port, baud, prologix.DefaultOptions())
	if err != nil {
		return "", err
	}
	defer ctrl.Close()
	return ctrl.Version()
}
