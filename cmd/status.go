/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gmaffy/whisper-pipe/pipeline"
	"github.com/gmaffy/whisper-pipe/utils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how far each sample got",
	Long: `Reads the journal and the files in the working directory and reports, per
sample, the stages a resumed run would skip and the stage it would start at.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		history, err := utils.ParseLogFile(cfg.JournalFile)
		if err != nil {
			return err
		}
		samples, skipped, err := pipeline.DiscoverSamples(cfg.WorkDir, discoverOptions(cfg))
		if err != nil {
			return err
		}
		stages, err := buildStages(cfg, newLogger(cmd, cfg, nil))
		if err != nil {
			return err
		}

		runner := &pipeline.Runner{Stages: stages, Resume: true, Journal: history}
		progress, err := runner.Progress(map[string]string{
			pipeline.SlotRef:    cfg.Reference,
			pipeline.SlotRefAlt: cfg.AltReference,
		}, samples)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SAMPLE\tDONE\tNEXT")
		for _, p := range progress {
			switch {
			case p.Err != nil:
				fmt.Fprintf(tw, "%s\t-\terror: %v\n", p.Sample, p.Err)
			case p.Next == "":
				fmt.Fprintf(tw, "%s\t%d\tfinished\n", p.Sample, len(p.Done))
			default:
				fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Sample, len(p.Done), p.Next)
			}
		}
		for _, s := range skipped {
			fmt.Fprintf(tw, "%s\t-\tskipped: %v\n", s.Sample, s.Err)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
