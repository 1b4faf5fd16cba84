// cmd/calpoller/check.go
package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tamzrod/calpoller/internal/catalog"
	"github.com/tamzrod/calpoller/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and print each device's read plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		return printPlan(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func printPlan(out io.Writer, cfg *config.Config) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	for _, d := range cfg.CalPoller.Devices {
		typ, _ := catalog.Lookup(d.Type)
		fmt.Fprintf(tw, "%s\t%s\tline=%s slave=%d every %dms\n", d.ID, typ.Name, d.Line, d.SlaveID, d.Poll.IntervalMs)

		for _, s := range typ.Segments {
			b := s.Segment.Block
			fmt.Fprintf(tw, "  %s\tfc=%d addr=%d qty=%d\t%s\t%d attributes\n",
				s.Segment.Name, b.FC, b.Address, b.Quantity, b.Label, len(s.Attributes))
		}
		if cal := typ.Calibration; cal != nil {
			fmt.Fprintf(tw, "  calibration\tmode=%d zero=%d span=%d trigger=%d\t%s\tprotect %dms\n",
				cal.ModeRegister, cal.ZeroTargetRegister, cal.SpanTargetRegister, cal.TriggerRegister,
				cal.TargetEncoding, d.ProtectionWindowMs)
		}
		if len(d.GuardPeers) > 0 {
			fmt.Fprintf(tw, "  guard peers\t%v\n", d.GuardPeers)
		}
	}
	return tw.Flush()
}
