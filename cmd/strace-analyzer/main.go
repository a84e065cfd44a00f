package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Hara602/straceAnalyzer/internal/analyzer"
	"github.com/Hara602/straceAnalyzer/internal/config"
	"github.com/Hara602/straceAnalyzer/internal/output"
	"github.com/Hara602/straceAnalyzer/internal/sysutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "strace-analyzer [flags] FILE",
		Short: "Analyze which directories a traced command touched",
		Long: `strace-analyzer reads the primary output file of an strace run and reports,
per directory, how many bytes were accessed and modified and over what span.

Other strace files created via the strace -ff flag are followed based on the
clone syscalls encountered in the traces.`,
		Example:       "  strace -s 0 -ff -o cmd.strace cmd\n  strace-analyzer cmd.strace.1234",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ReadFile(v, cfgFile); err != nil {
				return err
			}
			return sysutil.CheckRegularFile(args[0])
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, args[0])
		},
	}
	cmd.SetHelpTemplate(cmd.HelpTemplate() + "\ncreate traces with: strace -s 0 -ff -o cmd.strace cmd\n")

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.strace-analyzer.yaml)")
	flags.String(config.KeyFormat, output.FormatTable, fmt.Sprintf("output format %v", output.Formats()))
	flags.String(config.KeyAgePolicy, "first-event", "age baseline: first-event or run-start")
	flags.String(config.KeyRollUp, "parent", "directory roll-up: parent or ancestors")
	flags.String(config.KeyBoundary, "/", "topmost directory for ancestor roll-up")
	flags.String(config.KeyTimestamps, "auto", "timestamp prefixes: auto, none or relative (strace -r)")
	flags.Int(config.KeyWorkers, 1, "trace files parsed concurrently")
	flags.String(config.KeyCwd, "", "directory the traced command started in")
	flags.String(config.KeyDB, "strace-analyzer.db", "database file for the sqlite format")
	flags.Bool(config.KeyDebug, false, "debug output")
	flags.BoolP(config.KeyVerbose, "v", false, "verbose output")

	config.SetDefaults(v)
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	return cmd
}

func run(cmd *cobra.Command, v *viper.Viper, primary string) error {
	settings, err := config.Load(v)
	if err != nil {
		return err
	}

	sysutil.InitLogger(settings.Debug, settings.Verbose)
	defer sysutil.Log.Sync()

	renderer, err := output.New(settings.Format, output.Options{
		Color:  sysutil.ColorEnabled(os.Stdout),
		DBPath: settings.DB,
	})
	if err != nil {
		return err
	}
	engine, err := analyzer.New(settings.Engine, sysutil.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sysutil.LogSugar.Infof("analyzing trace %s with %d worker(s)", primary, settings.Engine.Workers)
	rep, runErr := engine.Run(ctx, primary)
	if rep == nil {
		return runErr
	}
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	if runErr != nil {
		sysutil.Log.Warn("analysis interrupted, showing partial results", zap.Error(runErr))
	}

	if err := renderer.Render(cmd.OutOrStdout(), rep); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return output.WriteDiagnostics(cmd.ErrOrStderr(), rep.Diagnostics, sysutil.ColorEnabled(os.Stderr))
}
