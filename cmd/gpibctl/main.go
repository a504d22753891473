// gpibctl: Talk to any instrument on the bus
//
// Instruments are addressed either directly (--addr with --resource) or by
// name from a bench file (--instrument).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/herlein/benchgpib/pkg/config"
	"github.com/herlein/benchgpib/pkg/gpib"
	"github.com/herlein/benchgpib/pkg/resource"
)

var (
	// Global flags
	resourceFlag   string
	configFlag     string
	instrumentFlag string
	addrFlag       string
	timeoutFlag    string
	verboseFlag    bool
)

// openDevice is replaced in tests
var openDevice = resource.OpenDevice

var rootCmd = &cobra.Command{
	Use:   "gpibctl",
	Short: "Send commands to GPIB instruments",
	Long: `gpibctl writes commands to and reads responses from GPIB instruments
through a Prologix controller (serial or TCP) or a USBTMC adapter.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&resourceFlag, "resource", "r", "", resource.FlagUsage())
	flags.StringVarP(&configFlag, "config", "c", "", "Bench file (default $GPIB_CONFIG or the user config directory)")
	flags.StringVarP(&instrumentFlag, "instrument", "i", "", "Instrument name from the bench file")
	flags.StringVarP(&addrFlag, "addr", "a", "", "Bus address PAD[.SAD]")
	flags.StringVarP(&timeoutFlag, "timeout", "t", "", "I/O timeout (T3s, 500ms, ...)")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadBench() (*config.Bench, error) {
	path := configFlag
	if path == "" {
		path = config.GetConfigPath()
	}
	return config.LoadFromFile(path)
}

// target resolves the flags to a resource string and device configuration
func target() (string, gpib.DeviceConfig, error) {
	var (
		res string
		cfg gpib.DeviceConfig
	)

	switch {
	case instrumentFlag != "":
		bench, err := loadBench()
		if err != nil {
			return "", cfg, err
		}
		inst, err := bench.Lookup(instrumentFlag)
		if err != nil {
			return "", cfg, err
		}
		cfg, err = inst.DeviceConfig()
		if err != nil {
			return "", cfg, err
		}
		res = bench.ResourceFor(inst)
	case addrFlag != "":
		addr, err := gpib.ParseAddress(addrFlag)
		if err != nil {
			return "", cfg, err
		}
		cfg = gpib.DefaultDeviceConfig(addr.PAD)
		cfg.Address = addr
	default:
		return "", cfg, fmt.Errorf("either --addr or --instrument is required")
	}

	if resourceFlag != "" {
		res = resourceFlag
	}
	if res == "" {
		res = resource.Default()
	}

	if timeoutFlag != "" {
		t, err := gpib.ParseTimeout(timeoutFlag)
		if err != nil {
			return "", cfg, err
		}
		cfg.Timeout = t
	}
	return res, cfg, nil
}

// withDevice opens the target device, runs fn and closes the device
func withDevice(cmd *cobra.Command, fn func(dev *gpib.Device) error) error {
	res, cfg, err := target()
	if err != nil {
		return err
	}
	if verboseFlag {
		cmd.PrintErrf("Opening %s on %s (timeout %s)\n", cfg.Address, res, cfg.Timeout)
	}

	dev, err := openDevice(res, cfg)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	defer dev.Close()
	return fn(dev)
}
