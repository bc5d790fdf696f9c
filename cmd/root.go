/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmaffy/whisper-pipe/utils"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "whisper-pipe",
	Short: "Paired-end reads to variant calls",
	Long: `Runs the short read variant calling workflow over every read pair in a
working directory:
1.	Reference indexing (bwa, samtools, Picard)
2.	Trimming (Trimmomatic)
3.	Alignment and BAM clean-up (bwa mem, samtools, Picard)
4.	Coverage (samtools depth)
5.	Variant calling (GATK HaplotypeCaller)
6.	Variant tables and allele frequencies
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var (
	cfgFile   string
	workDir   string
	refFile   string
	altRef    string
	logLevel  string
	logFormat string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (YAML, or key: value .txt)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "w", "", "directory holding the reads; outputs are written next to them")
	rootCmd.PersistentFlags().StringVarP(&refFile, "reference", "r", "", "reference genome fasta used for alignment")
	rootCmd.PersistentFlags().StringVar(&altRef, "alt-reference", "", "reference genome fasta used for variant calling")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "text or json")
}

// loadConfig reads the config file and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (utils.Config, error) {
	cfg, err := utils.LoadConfig(cfgFile)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("workdir") {
		cfg.WorkDir = workDir
	}
	if flags.Changed("reference") {
		cfg.Reference = refFile
	}
	if flags.Changed("alt-reference") {
		cfg.AltReference = altRef
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if err := cfg.Resolve(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg utils.Config, journal io.Writer) *slog.Logger {
	return utils.NewLogger(utils.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr(), journal)
}
