package main

import (
	"bytes"
	"strings"

	"github.com/spf13/cobra"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// responseSize is the read buffer for text responses
var responseSize int

// rawOutput writes the response bytes unchanged
var rawOutput bool

var writeCmd = &cobra.Command{
	Use:   "write <command>...",
	Short: "Write a command string",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		command := strings.Join(args, " ")
		return withDevice(cmd, func(dev *gpib.Device) error {
			return dev.Write(command)
		})
	},
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read one response",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDevice(cmd, func(dev *gpib.Device) error {
			data, err := dev.Read(responseSize)
			if err != nil {
				return err
			}
			printResponse(cmd, data)
			return nil
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <command>...",
	Short: "Write a command and read the response",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		command := strings.Join(args, " ")
		return withDevice(cmd, func(dev *gpib.Device) error {
			if err := dev.Write(command); err != nil {
				return err
			}
			data, err := dev.Read(responseSize)
			if err != nil {
				return err
			}
			printResponse(cmd, data)
			return nil
		})
	},
}

func printResponse(cmd *cobra.Command, data []byte) {
	if rawOutput {
		cmd.OutOrStdout().Write(data)
		return
	}
	cmd.Println(string(bytes.TrimRight(data, "\r\n\x00")))
}

func init() {
	for _, c := range []*cobra.Command{readCmd, queryCmd} {
		c.Flags().IntVarP(&responseSize, "size", "s", 4096, "Read buffer size in bytes")
		c.Flags().BoolVar(&rawOutput, "raw", false, "Write the response bytes unchanged")
	}
	rootCmd.AddCommand(writeCmd, readCmd, queryCmd)
}
