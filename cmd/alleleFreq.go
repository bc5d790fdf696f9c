/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmaffy/whisper-pipe/utils"
	"github.com/gmaffy/whisper-pipe/variants"
)

var alleleFreqCmd = &cobra.Command{
	Use:   "alleleFreq [dir]",
	Short: "Append alternative allele frequencies to every .tab in a directory",
	Long: `Each record line of <name>.tab is copied to <name>_freq.tab with 100*AD[alt]/DP
appended. Lines without single-sample AD and DP values are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		logger := utils.NewLogger(utils.ParseLevel(logLevel), logFormat, cmd.ErrOrStderr(), nil)
		done, err := variants.AlleleFrequencyDir(dir, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Processed %d files\n", len(done))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(alleleFreqCmd)
}
