package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ward-cli/ward/internal/alert"
	"github.com/ward-cli/ward/internal/app"
	"github.com/ward-cli/ward/internal/config"
	"github.com/ward-cli/ward/internal/domain"
)

const version = "0.1.0"

type options struct {
	timeoutSecs int
	exitMin     int
	exitMax     int
	logFile     string
	serviceKey  string
	endpoint    string
	echoStdout  bool
	echoStderr  bool
	quiet       bool
	configPath  string
}

func parseCommand(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			return args[i+1:]
		}
	}
	return args
}

// buildRunConfig layers flag values over the config file; a flag wins only
// when it was set explicitly.
func buildRunConfig(cmd *cobra.Command, command []string, opts *options, fileCfg *config.Config) *domain.RunConfig {
	cfg := &domain.RunConfig{
		Command:    command,
		Timeout:    fileCfg.Timeout(),
		Window:     domain.ExitWindow{Min: fileCfg.ExitMin, Max: fileCfg.ExitMax},
		EchoStdout: fileCfg.EchoStdout,
		EchoStderr: fileCfg.EchoStderr,
		LogFile:    fileCfg.LogFile,
		ServiceKey: fileCfg.ServiceKey,
		Endpoint:   fileCfg.Endpoint,
		Quiet:      fileCfg.Quiet,
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.Timeout = time.Duration(opts.timeoutSecs) * time.Second
	}
	if flags.Changed("exit-min") {
		cfg.Window.Min = opts.exitMin
	}
	if flags.Changed("exit-max") {
		cfg.Window.Max = opts.exitMax
	}
	if flags.Changed("log") {
		cfg.LogFile = opts.logFile
	}
	if flags.Changed("service-key") {
		cfg.ServiceKey = opts.serviceKey
	}
	if flags.Changed("endpoint") {
		cfg.Endpoint = opts.endpoint
	}
	if flags.Changed("echo-stdout") {
		cfg.EchoStdout = opts.echoStdout
	}
	if flags.Changed("echo-stderr") {
		cfg.EchoStderr = opts.echoStderr
	}
	if flags.Changed("quiet") {
		cfg.Quiet = opts.quiet
	}
	return cfg
}

func run(cmd *cobra.Command, args []string, opts *options) (int, error) {
	command := parseCommand(args)
	if len(command) == 0 {
		return app.ExitInternal, errors.New("no command given, usage: ward [flags] -- <command>")
	}

	fileCfg, err := config.Load(opts.configPath)
	if err != nil {
		return app.ExitInternal, err
	}
	cfg := buildRunConfig(cmd, command, opts, fileCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifier app.Notifier
	if cfg.ServiceKey != "" {
		notifier = alert.NewClient(cfg.Endpoint, cfg.ServiceKey)
	}

	ward := app.NewWard(notifier)
	return ward.Execute(ctx, cfg)
}

func newRootCmd(opts *options, exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ward [flags] -- <command> [args...]",
		Short:         "Run a command, capture its output, alert on failure",
		Long:          "ward supervises a single command, captures its timestamped stdio, enforces an optional timeout, and sends an alert when the run fails",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := run(cmd, args, opts)
			*exitCode = code
			return err
		},
	}

	cmd.Flags().IntVarP(&opts.timeoutSecs, "timeout", "t", 0, "Kill the command after this many seconds (0 = no limit)")
	cmd.Flags().IntVar(&opts.exitMin, "exit-min", 0, "Lowest exit code considered a success")
	cmd.Flags().IntVar(&opts.exitMax, "exit-max", 0, "Highest exit code considered a success")
	cmd.Flags().StringVarP(&opts.logFile, "log", "l", "", "Append timestamped captured output to this file")
	cmd.Flags().StringVarP(&opts.serviceKey, "service-key", "k", "", "Notification service key; empty disables alerting")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "Notification endpoint URL (default: PagerDuty events v1)")
	cmd.Flags().BoolVar(&opts.echoStdout, "echo-stdout", false, "Mirror the command's stdout to ward's stdout")
	cmd.Flags().BoolVar(&opts.echoStderr, "echo-stderr", false, "Mirror the command's stderr to ward's stderr")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress the run summary")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (default: .ward.yaml)")
	cmd.Version = version

	return cmd
}

func main() {
	opts := &options{}
	exitCode := 0
	rootCmd := newRootCmd(opts, &exitCode)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if exitCode == 0 {
			exitCode = app.ExitInternal
		}
	}
	os.Exit(exitCode)
}
