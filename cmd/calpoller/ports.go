// cmd/calpoller/ports.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports usable as rtu:// endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := enumerator.GetDetailedPortsList()
		if err != nil {
			return fmt.Errorf("enumerate serial ports: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ports) == 0 {
			fmt.Fprintln(out, "no serial ports found")
			return nil
		}
		for _, p := range ports {
			if p.IsUSB {
				fmt.Fprintf(out, "rtu://%s\tusb %s:%s %s %s\n", p.Name, p.VID, p.PID, p.SerialNumber, p.Product)
				continue
			}
			fmt.Fprintf(out, "rtu://%s\n", p.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
