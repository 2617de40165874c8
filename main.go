package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/infrawatch/infrawatch/config"
	"github.com/infrawatch/infrawatch/renderer"
	"github.com/infrawatch/infrawatch/resources/azurevm"
	"github.com/spf13/cobra"
)

// Config keys that can be set from the command line
var flagKeys = map[string]string{
	config.KeySubscriptionID: "subscription-id",
	config.KeyConcurrency:    "concurrency",
	config.KeyOutput:         "output",
	config.KeyNoColor:        "no-color",
	config.KeyTemplate:       "template",
}

type options struct {
	envFile  string
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "infrawatch",
		Short: "List Azure virtual machines with power state, IPs and tags",
		Long: `InfraWatch lists every virtual machine in an Azure subscription, looks up
its power state and private/public IP addresses, and prints a table with a
per resource group summary.

AZURE_SUBSCRIPTION_ID is read from a .env file (searched for from the current
directory upwards), the environment, or --subscription-id.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLogLevel(opts.logLevel)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				_ = cmd.Usage()
				return err
			}

			// Initialize slog logger
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			})).With("run_id", uuid.NewString())
			slog.SetDefault(logger)

			if err := run(cmd.Context(), cmd, opts); err != nil {
				slog.Error("Application failed", "error", err)
				if errors.Is(err, azurevm.ErrAuthentication) {
					fmt.Fprintln(cmd.ErrOrStderr(), azurevm.AuthHint)
				}
				return err
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintf(c.ErrOrStderr(), "Error: %v\n", err)
		_ = c.Usage()
		return err
	})

	flags := cmd.Flags()
	flags.StringVar(&opts.envFile, "env-file", "", "Path to the .env file (default: search from the current directory upwards)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("subscription-id", "", "Azure subscription ID (overrides AZURE_SUBSCRIPTION_ID)")
	flags.StringP("output", "o", config.OutputTable, "Output format (table, yaml, json, template)")
	flags.String("template", "", "text/template file used with --output template")
	flags.Int("concurrency", config.DefaultConcurrency, "Number of VMs enriched in parallel")
	flags.Bool("no-color", false, "Disable colored output")

	return cmd
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level '%s' (must be debug, info, warn, or error)", s)
	}
}

func run(ctx context.Context, cmd *cobra.Command, opts options) error {
	cfg, err := config.Load(config.LoadOptions{
		EnvFile: opts.envFile,
		Flags:   flagKeys,
	}, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Authenticating with Azure", "subscription_id", cfg.SubscriptionID)
	session, err := azurevm.NewSession(ctx, cfg.SubscriptionID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	useColor := !cfg.NoColor && !color.NoColor
	if cfg.Output == config.OutputTable {
		printBanner(out, useColor)
	}

	collector := azurevm.NewCollector(session, azurevm.WithConcurrency(cfg.Concurrency))
	inv, err := collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect virtual machines: %w", err)
	}

	rend := renderer.NewRenderer(out, renderer.WithColor(useColor))
	switch cfg.Output {
	case config.OutputYAML:
		err = rend.RenderYAML(inv)
	case config.OutputJSON:
		err = rend.RenderJSON(inv)
	case config.OutputTemplate:
		err = rend.RenderTemplate(cfg.Template, inv)
	default:
		err = rend.Render(inv.Records)
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	slog.Debug("Done", "vms", len(inv.Records))
	return nil
}

func printBanner(out io.Writer, useColor bool) {
	title := color.New(color.FgBlue, color.Bold)
	if useColor {
		title.EnableColor()
	} else {
		title.DisableColor()
	}

	fmt.Fprintf(out, "\nInfraWatch - %s\n", title.Sprint("Azure VM Monitor"))
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out, "Fetching Azure VMs...")
}
