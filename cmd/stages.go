/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gmaffy/whisper-pipe/pipeline"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Show the stage table after config overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		stages, err := buildStages(cfg, newLogger(cmd, cfg, nil))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, st := range stages {
			fmt.Fprintf(out, "%2d. %s (%s) - %s\n", i+1, st.Name, st.Cardinality, st.Description)
			fmt.Fprintf(out, "      in:  %s\n", strings.Join(st.Inputs, ", "))
			for _, o := range st.Outputs {
				fmt.Fprintf(out, "      out: %s <- %s [%s]\n", o.Slot, o.From, o.Rule)
			}
			if st.Builtin != nil {
				fmt.Fprintf(out, "      run: builtin\n")
			} else {
				fmt.Fprintf(out, "      run: %s\n", st.Command)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stagesCmd)
}

// stageNames is used in help text.
func stageNames() string {
	return strings.Join(pipeline.StageNames(pipeline.DefaultStages(pipeline.StageOptions{})), ", ")
}
