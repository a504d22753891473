package main

import (
	"github.com/spf13/cobra"

	"github.com/herlein/benchgpib/pkg/gpib"
)

const idnQuery = "*IDN?"

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Send Selected Device Clear",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDevice(cmd, func(dev *gpib.Device) error {
			return dev.Clear()
		})
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Serial poll and print the status byte",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDevice(cmd, func(dev *gpib.Device) error {
			status, err := dev.SerialPoll()
			if err != nil {
				return err
			}
			cmd.Printf("0x%02X (%d)", status, status)
			if status&0x40 != 0 {
				cmd.Print(" RQS")
			}
			cmd.Println()
			return nil
		})
	},
}

var idnCmd = &cobra.Command{
	Use:   "idn",
	Short: "Print the *IDN? response",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDevice(cmd, func(dev *gpib.Device) error {
			idn, err := dev.Query(idnQuery, 256)
			if err != nil {
				return err
			}
			cmd.Println(idn)
			return nil
		})
	},
}

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Return the instrument to front-panel control",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDevice(cmd, func(dev *gpib.Device) error {
			return dev.Local()
		})
	},
}

func init() {
	rootCmd.AddCommand(clearCmd, pollCmd, idnCmd, localCmd)
}
