/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmaffy/whisper-pipe/utils"
)

var initConfigCmd = &cobra.Command{
	Use:   "initConfig [path]",
	Short: "Write the default configuration as YAML",
	Long: "Writes every setting with its default value. Stages (" + stageNames() + ") can be\n" +
		"given custom command templates under commands: and output naming rules under naming:.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := utils.DefaultConfigName + ".yaml"
		if len(args) == 1 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		data, err := utils.DefaultConfig().RenderYAML()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
	initConfigCmd.Flags().BoolP("force", "f", false, "overwrite an existing file")
}
