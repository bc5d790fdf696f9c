/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gmaffy/whisper-pipe/pipeline"
	"github.com/gmaffy/whisper-pipe/preflight"
	"github.com/gmaffy/whisper-pipe/report"
	"github.com/gmaffy/whisper-pipe/utils"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole workflow",
	Long: `Checks both references and the configured tools, asks for confirmation, then
runs every stage for every read pair found in the working directory. Samples
that fail a stage are reported and left behind; the others carry on. Stages
whose outputs are already present and recorded as completed in the journal are
skipped unless --no-resume is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("yes") {
			cfg.AssumeYes, _ = flags.GetBool("yes")
		}
		if flags.Changed("jobs") {
			cfg.Jobs, _ = flags.GetInt("jobs")
		}
		if flags.Changed("threads") {
			cfg.Threads, _ = flags.GetInt("threads")
		}
		if noResume, _ := flags.GetBool("no-resume"); noResume {
			cfg.Resume = false
		}
		if cfg.Jobs < 1 || cfg.Threads < 1 {
			return fmt.Errorf("jobs and threads must be at least 1")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runPipeline(ctx, cmd, cfg)
	},
}

func runPipeline(ctx context.Context, cmd *cobra.Command, cfg utils.Config) error {
	history, err := utils.ParseLogFile(cfg.JournalFile)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	journal, err := utils.OpenJournal(cfg.JournalFile)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()

	runID := uuid.NewString()
	logger := newLogger(cmd, cfg, journal)
	logger.Info(utils.JournalMsg,
		utils.KeyProgram, "INITIALISE",
		utils.KeySample, "ALL",
		utils.KeyStatus, utils.StatusStarted,
		utils.KeyCmd, strings.Join(os.Args, " "),
		utils.KeyRun, runID,
	)

	if err := utils.CheckDeps(cfg.RequiredTools); err != nil {
		logger.Error("dependency check failed", "error", err)
		return err
	}

	refs, err := preflight.CheckReferences(cfg.Reference, cfg.AltReference)
	if err != nil {
		logger.Error("reference check failed", "error", err)
		return err
	}
	for _, ref := range refs {
		logger.Info("reference", "path", ref.Path, "sequences", ref.Sequences, "length", ref.Length)
	}

	if cfg.AssumeYes {
		logger.Warn("confirmation skipped", "reason", "assume_yes")
	} else if err := preflight.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), refs); err != nil {
		logger.Error("not confirmed", "error", err)
		return err
	}

	samples, skipped, err := pipeline.DiscoverSamples(cfg.WorkDir, discoverOptions(cfg))
	if err != nil {
		return err
	}
	for _, s := range skipped {
		logger.Error("sample skipped", "sample", s.Sample, "error", s.Err)
	}
	logger.Info("samples found", "count", len(samples), "skipped", len(skipped))

	stages, err := buildStages(cfg, logger)
	if err != nil {
		return err
	}
	if err := checkToolPaths(stages, cfg, logger); err != nil {
		logger.Error("tool check failed", "error", err)
		return err
	}

	bash := utils.NewBashRunner(cfg.StageTimeout)
	bash.Stdout, bash.Stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()
	runner := &pipeline.Runner{
		Stages:  stages,
		Exec:    bash,
		Logger:  logger,
		WorkDir: cfg.WorkDir,
		Jobs:    cfg.Jobs,
		Vars:    templateVars(cfg),
		Resume:  cfg.Resume,
		Journal: history,
		RunID:   runID,
	}

	res, runErr := runner.Run(ctx, map[string]string{
		pipeline.SlotRef:    cfg.Reference,
		pipeline.SlotRefAlt: cfg.AltReference,
	}, samples)
	if res == nil {
		return runErr
	}

	outcomes := append(slices.Clone(skipped), res.Outcomes...)
	slices.SortStableFunc(outcomes, func(a, b pipeline.SampleOutcome) int { return strings.Compare(a.Sample, b.Sample) })
	if err := report.Write(cmd.OutOrStdout(), cfg.WorkDir, report.Summary{RunID: runID, Outcomes: outcomes, Logger: logger}); err != nil {
		logger.Warn("report not written", "error", err)
	}

	if runErr != nil {
		if pipeline.IsCancelled(runErr) {
			logger.Error("run cancelled")
		} else {
			logger.Error("run aborted", "error", runErr)
		}
		return runErr
	}
	all := &pipeline.RunResult{RunID: runID, Outcomes: outcomes}
	if !all.OK() {
		return fmt.Errorf("%d of %d samples failed", len(all.Failed()), len(outcomes))
	}
	return nil
}

func discoverOptions(cfg utils.Config) pipeline.DiscoverOptions {
	return pipeline.DiscoverOptions{
		Pattern:   cfg.ReadPattern,
		Exclude:   cfg.Exclude,
		PairToken: cfg.PairToken,
		MateToken: cfg.MateToken,
	}
}

func buildStages(cfg utils.Config, logger *slog.Logger) ([]pipeline.StageDefinition, error) {
	stages := pipeline.DefaultStages(pipeline.StageOptions{PairToken: cfg.PairToken, Logger: logger})
	stages, err := pipeline.ApplyOverrides(stages, cfg.Commands, cfg.Naming, cfg.SkipStages)
	if err != nil {
		return nil, fmt.Errorf("stages: %w", err)
	}
	return stages, nil
}

// checkToolPaths refuses to start when a stage command uses a tool whose path
// named an unset environment variable; unused ones only draw a warning.
func checkToolPaths(stages []pipeline.StageDefinition, cfg utils.Config, logger *slog.Logger) error {
	for _, st := range stages {
		if st.Command == "" {
			continue
		}
		tags, err := pipeline.TemplateTags(st.Command)
		if err != nil {
			return fmt.Errorf("stage %s: %w", st.Name, err)
		}
		for _, tag := range tags {
			if key, ok := cfg.Unresolved[tag]; ok {
				return fmt.Errorf("stage %s uses %s, but $%s is not set (path resolved to %q)", st.Name, tag, key, cfg.Tools[tag])
			}
		}
	}
	for tool, key := range cfg.Unresolved {
		logger.Warn("tool path references an unset variable", "tool", tool, "variable", key, "path", cfg.Tools[tool])
	}
	return nil
}

// templateVars are the non-slot values command templates may use: every
// configured tool path plus threads.
func templateVars(cfg utils.Config) map[string]string {
	vars := make(map[string]string, len(cfg.Tools)+1)
	for k, v := range cfg.Tools {
		vars[k] = v
	}
	vars["threads"] = strconv.Itoa(cfg.Threads)
	return vars
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before starting")
	runCmd.Flags().IntP("jobs", "j", 1, "number of samples processed at the same time")
	runCmd.Flags().IntP("threads", "t", 4, "threads given to each tool")
	runCmd.Flags().Bool("no-resume", false, "run every stage again even when its outputs exist")
}
