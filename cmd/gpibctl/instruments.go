package main

import (
	"github.com/spf13/cobra"
)

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "List the instruments in the bench file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		bench, err := loadBench()
		if err != nil {
			return err
		}
		if len(bench.Instruments) == 0 {
			cmd.Println("No instruments configured")
			return nil
		}

		for _, name := range bench.Names() {
			inst, _ := bench.Lookup(name)
			cfg, err := inst.DeviceConfig()
			if err != nil {
				return err
			}
			res := bench.ResourceFor(inst)
			if res == "" {
				res = "(default)"
			}
			cmd.Printf("  %-12s %-12s %-6s %-6s %s\n", inst.Name, inst.Model, cfg.Address, cfg.Timeout, res)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(instrumentsCmd)
}
