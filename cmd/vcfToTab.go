/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmaffy/whisper-pipe/variants"
)

var vcfToTabCmd = &cobra.Command{
	Use:   "vcfToTab [dir]",
	Short: "Convert every VCF in a directory to a CHROM/POS table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		done, err := variants.ConvertVcfDir(dir)
		for _, pair := range done {
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s to %s\n", pair[0], pair[1])
		}
		if err != nil {
			return err
		}
		if len(done) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No .vcf files in %s\n", dir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(vcfToTabCmd)
}
