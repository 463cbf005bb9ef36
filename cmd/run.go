package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/filehose/filehose/pkg/core"
	"github.com/filehose/filehose/pkg/util"
)

const (
	defaultGrace     = 30 * time.Second
	defaultBegin     = "+0"
	defaultFrequency = 1440
	defaultOutputDir = "./output"
)

func runCmd(passedExecs execs, cmdConfig *cmdConfiguration) (*cobra.Command, error) {
	var v *viper.Viper
	var cmd = &cobra.Command{
		Use:   "run",
		Short: "drive load against the configured endpoints",
		Long: `Drive rate-controlled file-transfer load for every enabled job in the
		config file, once or on a schedule. Each job drains its directory at its
		own ramped rate; a run summary is written to the output directory.`,
		PreRun: func(cmd *cobra.Command, args []string) {
			bindFlags(cmd, v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdConfig.logger.Debug("starting run")
			if cmdConfig.configuration == nil || len(cmdConfig.configuration.Jobs) == 0 {
				return fmt.Errorf("no jobs configured, provide a config file with --config-file")
			}

			outputDir := v.GetString("output-dir")
			if outputDir == "" {
				outputDir = cmdConfig.configuration.OutputDir
			}
			if outputDir == "" {
				outputDir = defaultOutputDir
			}

			runOpts := core.RunOptions{
				Jobs:     cmdConfig.configuration.Jobs,
				Duration: v.GetDuration("duration"),
				Grace:    v.GetDuration("grace"),
			}

			// timer options; with no schedule flags the run fires once
			once := v.GetBool("once")
			cron := v.GetString("cron")
			begin := v.GetString("begin")
			frequency := v.GetInt("frequency")
			if cron == "" && !v.IsSet("begin") && !v.IsSet("frequency") {
				once = true
			}
			timerOpts := core.TimerOptions{
				Once:      once,
				Cron:      cron,
				Begin:     begin,
				Frequency: frequency,
			}

			executor := passedExecs
			if executor == nil {
				executor = &core.Executor{}
			}
			executor.SetLogger(cmdConfig.logger)

			ctx := util.ContextWithTracer(cmd.Context(), getTracer("run"))

			timerC, err := core.Timer(timerOpts)
			if err != nil {
				return fmt.Errorf("unable to start timer: %v", err)
			}
			for update := range timerC {
				runOpts.Run = uuid.New()
				results, err := executor.Run(ctx, runOpts)
				if err != nil {
					return fmt.Errorf("error running load: %v", err)
				}
				if err := writeRunResults(outputDir, results); err != nil {
					return err
				}
				if update.Last {
					break
				}
			}
			log.Info("Run complete")
			return nil
		},
	}

	v = viper.New()
	v.SetEnvPrefix("filehose_run")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags := cmd.Flags()
	flags.Duration("duration", 0, "how long to drive load before shutting down; 0 runs until every non-looping job drains or the process is interrupted")
	flags.Duration("grace", defaultGrace, "how long in-flight transfers may finish after the run ends before they are abandoned and counted as ERROR")
	flags.String("output-dir", "", "directory for run summaries; overrides the config file")

	// schedule
	flags.Bool("once", false, "run the load once immediately and exit; the default when no schedule is given")
	flags.String("cron", "", "Set the run schedule using standard [crontab syntax](https://en.wikipedia.org/wiki/Cron), a single line.")
	flags.String("begin", defaultBegin, "What time to do the first run. Must be in one of two formats: Absolute: HHMM, e.g. `2330` or `0415`; or Relative: +MM, i.e. how many minutes after starting, e.g. `+0` (immediate), `+10` (in 10 minutes), or `+90` in an hour and a half")
	flags.Int("frequency", defaultFrequency, "how often to repeat runs, in minutes")

	cmd.MarkFlagsMutuallyExclusive("once", "cron")
	cmd.MarkFlagsMutuallyExclusive("once", "begin")
	cmd.MarkFlagsMutuallyExclusive("once", "frequency")
	cmd.MarkFlagsMutuallyExclusive("cron", "begin")
	cmd.MarkFlagsMutuallyExclusive("cron", "frequency")

	return cmd, nil
}

// writeRunResults saves one run summary as json in the output directory.
func writeRunResults(outputDir string, results core.RunResults) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %v", outputDir, err)
	}
	path := filepath.Join(outputDir, fmt.Sprintf("run_%s.json", results.Run.String()))
	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %v", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write run summary to %s: %v", path, err)
	}
	return nil
}
