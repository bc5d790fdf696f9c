/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gmaffy/whisper-pipe/utils"
)

var checkDepsCmd = &cobra.Command{
	Use:   "checkDeps",
	Short: "Check that the external tools are on PATH",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checking dependencies: %s\n", strings.Join(cfg.RequiredTools, ", "))
		if err := utils.CheckDeps(cfg.RequiredTools); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Dependencies OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkDepsCmd)
}
