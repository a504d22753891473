package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/herlein/benchgpib/pkg/gpib"
	"github.com/herlein/benchgpib/pkg/resource"
	"github.com/herlein/benchgpib/pkg/scanner"
)

// openController is replaced in tests
var openController = func(res string) (gpib.Controller, error) {
	return resource.Open(res, resource.DefaultOptions())
}

var (
	scanWatch    bool
	scanInterval time.Duration
	scanNoID     bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find the devices listening on the bus",
	Long: `scan serial polls every primary address and asks each device that
answers for its *IDN? identification. With --watch the bus is swept
repeatedly and devices are reported as they appear and disappear.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		res := resourceFlag
		if res == "" {
			res = resource.Default()
		}

		config := scanner.DefaultConfig()
		if timeoutFlag != "" {
			t, err := gpib.ParseTimeout(timeoutFlag)
			if err != nil {
				return err
			}
			config.Timeout = t
		}
		if addrFlag != "" {
			addr, err := gpib.ParseAddress(addrFlag)
			if err != nil {
				return err
			}
			config.Addresses = []int{addr.PAD}
		}
		if scanNoID {
			config.IDQuery = ""
		}
		if scanInterval > 0 {
			config.ScanInterval = scanInterval
		}
		if verboseFlag {
			config.DebugLog = func(format string, args ...interface{}) {
				cmd.PrintErrf(format+"\n", args...)
			}
		}

		ctrl, err := openController(res)
		if err != nil {
			return fmt.Errorf("failed to open controller: %w", err)
		}
		defer ctrl.Close()

		if !scanWatch {
			s, err := scanner.New(ctrl, config)
			if err != nil {
				return err
			}
			result, err := s.ScanOnce(cmd.Context())
			if err != nil {
				return err
			}
			if len(result.Listeners) == 0 {
				cmd.Printf("No devices found on %s\n", res)
				return nil
			}
			cmd.Printf("Found %d device(s) on %s:\n", len(result.Listeners), res)
			for _, l := range result.Listeners {
				printListener(cmd, l)
			}
			return nil
		}

		config.OnListenerFound = func(l scanner.Listener) {
			cmd.Print("+ ")
			printListener(cmd, l)
		}
		config.OnListenerLost = func(l scanner.Listener) {
			cmd.Printf("- PAD %-4s gone (last seen %s)\n", l.Address, l.LastSeen.Format(time.TimeOnly))
		}
		s, err := scanner.New(ctrl, config)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		results := make(chan *scanner.ScanResult, 1)
		go func() {
			for range results {
			}
		}()
		err = s.ScanContinuous(ctx, results)
		close(results)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func printListener(cmd *cobra.Command, l scanner.Listener) {
	id := l.ID
	if id == "" {
		id = "(no identification)"
	}
	cmd.Printf("PAD %-4s status 0x%02X  %s\n", l.Address, l.Status, id)
}

func init() {
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false, "Sweep repeatedly until interrupted")
	scanCmd.Flags().DurationVar(&scanInterval, "interval", scanner.DefaultScanInterval, "Delay between sweeps with --watch")
	scanCmd.Flags().BoolVar(&scanNoID, "no-id", false, "Skip the *IDN? query")
	rootCmd.AddCommand(scanCmd)
}
