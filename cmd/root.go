package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/filehose/filehose/pkg/config"
	"github.com/filehose/filehose/pkg/core"
)

type execs interface {
	SetLogger(logger *log.Logger)
	GetLogger() *log.Logger
	Run(ctx context.Context, opts core.RunOptions) (core.RunResults, error)
	Report(ctx context.Context, opts core.ReportOptions) (core.ReportResults, error)
}

type subCommand func(execs, *cmdConfiguration) (*cobra.Command, error)

var subCommands = []subCommand{runCmd, reportCmd}

type cmdConfiguration struct {
	configuration *config.Config
	logger        *log.Logger
}

func rootCmd(execs execs) (*cobra.Command, error) {
	var (
		v         *viper.Viper
		cmd       *cobra.Command
		cmdConfig = &cmdConfiguration{}
	)
	cmd = &cobra.Command{
		Use:   "filehose",
		Short: "drive file-transfer load and reconcile the results",
		Long: `Drive rate-controlled file-transfer load against http, sftp, scp, s3 and
		smb endpoints, and reconcile the ingress and egress tracking stores the
		system under test maintains into a transaction report.
		Jobs and tracking stores are described in a yaml config file; individual
		CLI flags and environment variables override it.`,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			bindFlags(cmd, v)
			var logger = log.New()
			logLevel := v.GetInt("verbose")
			debugSet := v.IsSet("debug")
			if !v.IsSet("verbose") && (v.GetBool("debug") || (debugSet && v.GetString("debug") == "true")) {
				logLevel = 1
			}
			switch logLevel {
			case 0:
				logger.SetLevel(log.InfoLevel)
			case 1:
				logger.SetLevel(log.DebugLevel)
			case 2:
				logger.SetLevel(log.TraceLevel)
			}

			// the config file describes jobs as a list with per-type blocks,
			// which is too structured for viper's flat automatic config file
			// support, so it is read explicitly.
			if configFilePath := v.GetString("config-file"); configFilePath != "" {
				conf, err := config.LoadFile(configFilePath)
				if err != nil {
					return fmt.Errorf("unable to read provided config: %w", err)
				}
				cmdConfig.configuration = conf
			}

			// override tracking store settings with env var or CLI flag, if set
			if cmdConfig.configuration == nil {
				cmdConfig.configuration = &config.Config{}
			}
			overrideStore(v, "ingress", &cmdConfig.configuration.Tracking.Ingress)
			overrideStore(v, "egress", &cmdConfig.configuration.Tracking.Egress)

			cmdConfig.logger = logger

			var tracerExporters []sdktrace.SpanExporter
			if v.GetBool("trace-stderr") {
				exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(os.Stderr))
				if err != nil {
					return fmt.Errorf("failed to initialize stdouttrace exporter: %w", err)
				}
				tracerExporters = append(tracerExporters, exp)
			}
			var tracerProviderOpts []sdktrace.TracerProviderOption
			for _, exp := range tracerExporters {
				tracerProviderOpts = append(tracerProviderOpts, sdktrace.WithBatcher(exp))
			}
			otel.SetTracerProvider(sdktrace.NewTracerProvider(tracerProviderOpts...))

			return nil
		},
	}

	v = viper.New()
	v.SetEnvPrefix("filehose")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	pflags := cmd.PersistentFlags()
	pflags.String("config-file", "", "config file to use; individual CLI flags override config file")

	pflags.IntP("verbose", "v", 0, "set log level, 1 is debug, 2 is trace")
	pflags.Bool("debug", false, "set log level to debug, equivalent of --verbose=1; if both set, --verbose always overrides")
	pflags.Bool("trace-stderr", false, "trace to stderr, in addition to any configured telemetry")

	// tracking store overrides
	for _, side := range []string{"ingress", "egress"} {
		pflags.String(side+"-host", "", "hostname for the "+side+" tracking store")
		pflags.Int(side+"-port", 0, "port for the "+side+" tracking store")
		pflags.String(side+"-database", "", "database name for the "+side+" tracking store")
		pflags.String(side+"-user", "", "username for the "+side+" tracking store")
		pflags.String(side+"-pass", "", "password for the "+side+" tracking store")
	}

	for _, subCmd := range subCommands {
		if sc, err := subCmd(execs, cmdConfig); err != nil {
			return nil, err
		} else {
			cmd.AddCommand(sc)
		}
	}

	return cmd, nil
}

// overrideStore applies per-store CLI flag or env var overrides on top of the
// config file values.
func overrideStore(v *viper.Viper, side string, store *config.Store) {
	if host := v.GetString(side + "-host"); host != "" && v.IsSet(side+"-host") {
		store.Host = host
	}
	if port := v.GetInt(side + "-port"); port != 0 && v.IsSet(side+"-port") {
		store.Port = port
	}
	if db := v.GetString(side + "-database"); db != "" && v.IsSet(side+"-database") {
		store.Database = db
	}
	if user := v.GetString(side + "-user"); user != "" && v.IsSet(side+"-user") {
		store.Username = user
	}
	if pass := v.GetString(side + "-pass"); pass != "" && v.IsSet(side+"-pass") {
		store.Password = pass
	}
}

// Bind each cobra flag to its associated viper configuration (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Determine the naming convention of the flags when represented in the config file
		configName := f.Name
		_ = v.BindPFlag(configName, f)
		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(configName) {
			val := v.Get(configName)
			_ = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
		}
	})
}

// Execute primary function for cobra
func Execute() {
	rootCmd, err := rootCmd(nil)
	if err != nil {
		log.Fatal(err)
	}
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
