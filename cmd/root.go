// Package cmd implements the command-line interface for snoopflow.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/snoopflow/snoopflow/internal/config"
	"github.com/snoopflow/snoopflow/internal/observability"
	"github.com/snoopflow/snoopflow/internal/pipeline"
	"github.com/snoopflow/snoopflow/internal/report"
	"github.com/snoopflow/snoopflow/internal/tui"
	"github.com/snoopflow/snoopflow/internal/utils"
)

var (
	cfgFile        string
	verbose        bool
	tracerShutdown observability.ShutdownFunc
	logger         *zerolog.Logger
)

// rootCmd converts one trace log into a call diagram.
var rootCmd = &cobra.Command{
	Use:   "snoopflow --inputfile TRACE",
	Short: "Render a PySnooper trace as a file-level call diagram",
	Long: `snoopflow rebuilds the call graph of a traced program from its
PySnooper log and writes a self-contained HTML page with a Mermaid flowchart.

Every call becomes one edge between the calling and the called source file.
Calls inside a single file are drawn as olive self edges.

Examples:
  snoopflow -i trace.log
  snoopflow -i trace.log -o graph.html --indent-char ' '
  snoopflow -i trace.log --summary files.md --report run.json --strict`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = utils.NewLogger(viper.GetBool(config.KeyDebug))
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		zerolog.TimeFieldFormat = time.RFC3339

		if !viper.GetBool(config.KeyTrace) {
			return nil
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		tracerShutdown, err = observability.SetupTracer(ctx, observability.TracerConfig{
			ServiceName:    "snoopflow",
			ServiceVersion: Version,
			Exporter:       viper.GetString(config.KeyTraceExporter),
			Endpoint:       viper.GetString(config.KeyTraceEndpoint),
			SampleRate:     viper.GetFloat64(config.KeyTraceSample),
		})
		if err != nil {
			return utils.NewUserError("Cannot set up tracing", "Check --trace-exporter and --trace-endpoint", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdownTracer(cmd.Context())
	},
	RunE: runConvert,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	// PersistentPostRunE is skipped when RunE fails.
	if serr := shutdownTracer(context.Background()); err == nil {
		err = serr
	}
	return err
}

func shutdownTracer(ctx context.Context) error {
	if tracerShutdown == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown := tracerShutdown
	tracerShutdown = nil
	if err := shutdown(ctx); err != nil {
		return fmt.Errorf("failed to flush traces: %w", err)
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(versionInfo())

	flags := rootCmd.Flags()
	flags.StringP("inputfile", "i", "", "input trace log (required)")
	flags.StringP("outputfile", "o", "", "output html file (default: input with .html extension)")
	flags.StringP("indent-char", "c", config.DefaultIndentChar, "indent string of the trace, repeated 4 times per call level")
	flags.String("summary", "", "also write a file-level Markdown/Mermaid summary to this path")
	flags.String("report", "", "also write a run report (.json, .yaml or .toml)")
	flags.String("title", "", "page title (default: input file name)")
	flags.Bool("strict", false, "exit with an error when the trace produced warnings")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.snoopflow.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print run statistics")
	rootCmd.PersistentFlags().Bool("debug", false, "log every context transition")
	rootCmd.PersistentFlags().Bool("trace", false, "export an OpenTelemetry span for the run")
	rootCmd.PersistentFlags().String("trace-exporter", "console", "trace exporter: console|file|otlp")
	rootCmd.PersistentFlags().String("trace-endpoint", "", "OTLP endpoint URL or file path (for file exporter)")
	rootCmd.PersistentFlags().Float64("trace-sample", 1.0, "trace sample rate (0.0-1.0)")

	_ = viper.BindPFlag(config.KeyInputFile, flags.Lookup("inputfile"))
	_ = viper.BindPFlag(config.KeyOutputFile, flags.Lookup("outputfile"))
	_ = viper.BindPFlag(config.KeyIndentChar, flags.Lookup("indent-char"))
	_ = viper.BindPFlag(config.KeySummaryFile, flags.Lookup("summary"))
	_ = viper.BindPFlag(config.KeyReportFile, flags.Lookup("report"))
	_ = viper.BindPFlag(config.KeyTitle, flags.Lookup("title"))
	_ = viper.BindPFlag(config.KeyStrict, flags.Lookup("strict"))
	_ = viper.BindPFlag(config.KeyVerbose, rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag(config.KeyDebug, rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag(config.KeyTrace, rootCmd.PersistentFlags().Lookup("trace"))
	_ = viper.BindPFlag(config.KeyTraceExporter, rootCmd.PersistentFlags().Lookup("trace-exporter"))
	_ = viper.BindPFlag(config.KeyTraceEndpoint, rootCmd.PersistentFlags().Lookup("trace-endpoint"))
	_ = viper.BindPFlag(config.KeyTraceSample, rootCmd.PersistentFlags().Lookup("trace-sample"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".snoopflow")
	}

	viper.SetEnvPrefix("SNOOPFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts, err := config.Load(viper.GetViper())
	if err != nil {
		return utils.NewUserError("Invalid options", "Run snoopflow --help for usage", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rep, err := pipeline.New(opts, GetLogger().With().Str("input", opts.InputFile).Logger()).Run(ctx)
	if rep == nil {
		return err
	}

	printDiagnostics(rep)
	if viper.GetBool(config.KeyVerbose) {
		fmt.Println(tui.RenderRunSummary(rep))
	}
	color.Green("Saved to: %s", opts.OutputFile)
	if opts.SummaryFile != "" {
		color.Green("Summary:  %s", opts.SummaryFile)
	}
	if opts.ReportFile != "" {
		color.Green("Report:   %s", opts.ReportFile)
	}

	if errors.Is(err, pipeline.ErrDiagnostics) {
		return err
	}
	return nil
}

func printDiagnostics(rep *report.RunReport) {
	for _, d := range rep.Diagnostics {
		color.Yellow("WARN: %s", d)
	}
}

// GetLogger returns the configured logger
func GetLogger() *zerolog.Logger {
	if logger == nil {
		if l, err := utils.NewLogger(false); err == nil {
			logger = l
		} else {
			l := zerolog.New(os.Stderr).With().Timestamp().Logger()
			logger = &l
		}
	}
	return logger
}
