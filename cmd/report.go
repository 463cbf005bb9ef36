package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/filehose/filehose/pkg/config"
	"github.com/filehose/filehose/pkg/core"
	"github.com/filehose/filehose/pkg/report"
	"github.com/filehose/filehose/pkg/tracking"
	"github.com/filehose/filehose/pkg/util"
)

const (
	defaultTimespan = "24h"
	defaultFormat   = "html"
)

func reportCmd(passedExecs execs, cmdConfig *cmdConfiguration) (*cobra.Command, error) {
	var v *viper.Viper
	var cmd = &cobra.Command{
		Use:   "report",
		Short: "reconcile the tracking stores into a transaction report",
		Long: `Read the ingress and egress tracking stores for a time window, pair the
		records by uuid and write a report of every transaction: paired with
		statistics, unpaired with severity, and any data anomalies found.
		The report file is only written when both stores were read successfully.`,
		PreRun: func(cmd *cobra.Command, args []string) {
			bindFlags(cmd, v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdConfig.logger.Debug("starting report")

			from, to, err := reportWindow(v)
			if err != nil {
				return err
			}

			format, err := report.ParseFormat(v.GetString("format"))
			if err != nil {
				return err
			}

			output := v.GetString("output")
			if output == "" {
				outputDir := cmdConfig.configuration.OutputDir
				if outputDir == "" {
					outputDir = defaultOutputDir
				}
				output = filepath.Join(outputDir, fmt.Sprintf("report_%s.%s", to.Format("2006-01-02T15-04-05"), format))
			}

			reportOpts := core.ReportOptions{
				Ingress: storeConnection(cmdConfig.configuration.Tracking.Ingress),
				Egress:  storeConnection(cmdConfig.configuration.Tracking.Egress),
				From:    from,
				To:      to,
				Jobs:    cmdConfig.configuration.Jobs,
				Run:     uuid.New(),
			}

			executor := passedExecs
			if executor == nil {
				executor = &core.Executor{}
			}
			executor.SetLogger(cmdConfig.logger)

			ctx := util.ContextWithTracer(cmd.Context(), getTracer("report"))

			results, err := executor.Report(ctx, reportOpts)
			if err != nil {
				return fmt.Errorf("error generating report: %v", err)
			}
			if err := report.Write(results, format, output); err != nil {
				return err
			}
			log.Infof("Report written to %s", output)
			return nil
		},
	}

	v = viper.New()
	v.SetEnvPrefix("filehose_report")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags := cmd.Flags()
	flags.String("timespan", defaultTimespan, "how far back from now the report window reaches, e.g. `30m`, `24h`, `7d`")
	flags.String("from", "", "window start as RFC3339, e.g. `2026-08-24T00:00:00Z`; overrides --timespan")
	flags.String("to", "", "window end as RFC3339; defaults to now")
	flags.String("output", "", "path of the report file; defaults to the output directory from the config file")
	flags.String("format", defaultFormat, "report format, `html` or `json`")

	cmd.MarkFlagsMutuallyExclusive("timespan", "from")

	return cmd, nil
}

// reportWindow resolves the report window from --from/--to or --timespan.
func reportWindow(v *viper.Viper) (from, to time.Time, err error) {
	to = time.Now()
	if toStr := v.GetString("to"); toStr != "" {
		to, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid --to time '%s': %v", toStr, err)
		}
	}
	if fromStr := v.GetString("from"); fromStr != "" {
		from, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid --from time '%s': %v", fromStr, err)
		}
	} else {
		span, err := util.ParseTimespan(v.GetString("timespan"))
		if err != nil {
			return from, to, err
		}
		from = to.Add(-span)
	}
	if !from.Before(to) {
		return from, to, fmt.Errorf("report window start %s is not before end %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return from, to, nil
}

func storeConnection(s config.Store) tracking.Connection {
	return tracking.Connection{
		Host:     s.Host,
		Port:     s.Port,
		Database: s.Database,
		User:     s.Username,
		Pass:     s.Password,
	}
}
