/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gmaffy/whisper-pipe/pipeline"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List the read pairs run would process",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		samples, skipped, err := pipeline.DiscoverSamples(cfg.WorkDir, discoverOptions(cfg))
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SAMPLE\tR1\tR2")
		for _, s := range samples {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, filepath.Base(s.R1()), filepath.Base(s.R2()))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		for _, s := range skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "skipped %s: %v\n", s.Sample, s.Err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d samples, %d skipped\n", len(samples), len(skipped))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
