package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rumormill/internal/api"
	"rumormill/internal/config"
	"rumormill/internal/daemonctl"
	"rumormill/internal/journal"
	"rumormill/internal/logging"
	"rumormill/internal/preflight"
	"rumormill/internal/rumor"
	"rumormill/internal/store"
)

const statusProbeTimeout = 2 * time.Second

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the rumormill daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.apiBaseURL(),
				exe,
				daemonLaunchOptions(ctx, startLogLevel),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Override the configured log level")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the rumormill daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.apiBaseURL(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit in time, killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var restartLogLevel string
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the rumormill daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.apiBaseURL(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx, restartLogLevel),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill {
					fmt.Fprintf(stdout, "Daemon did not exit in time, killed pid %d\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}
	restartCmd.Flags().StringVar(&restartLogLevel, "log-level", "", "Override the configured log level")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, printer, and rumour status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := buildStatusSnapshot(cmd.Context(), ctx)
			stdout := cmd.OutOrStdout()
			renderDaemonStatus(stdout, ctx, status, shouldColorize(stdout))
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

// buildStatusSnapshot asks the daemon for its status document; when nothing
// answers it reports what the snapshot file and journal alone can tell.
func buildStatusSnapshot(cmdCtx context.Context, ctx *commandContext) api.DaemonStatus {
	reqCtx, cancel := context.WithTimeout(cmdCtx, statusProbeTimeout)
	status, err := ctx.client().Status(reqCtx)
	cancel()
	if err == nil {
		return status
	}

	cfg := ctx.configValue()
	if cfg == nil {
		return api.DaemonStatus{}
	}
	offline := api.DaemonStatus{
		RumorsFile:   cfg.Paths.RumorsFile,
		JournalPath:  cfg.JournalPath(),
		LockFilePath: cfg.LockPath(),
	}
	offline.Trigger.Source = cfg.Trigger.Source

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), statusProbeTimeout)
	defer cancelLoad()

	nop := logging.NewNop()
	registry := rumor.NewRegistry(store.NewFileStore(cfg.Paths.RumorsFile, nop), nop)
	if err := registry.Load(loadCtx); err == nil {
		if stats, statsErr := registry.Stats(loadCtx); statsErr == nil {
			offline.Registry = stats
		}
	}
	if js, openErr := journal.Open(cfg); openErr == nil {
		if stats, statsErr := js.Stats(loadCtx); statsErr == nil {
			offline.Journal = stats
		}
		_ = js.Close()
	}
	return offline
}

func renderDaemonStatus(out io.Writer, ctx *commandContext, status api.DaemonStatus, colorize bool) {
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	if status.Running {
		detail := fmt.Sprintf("Running (pid %d)", status.PID)
		if status.Version != "" {
			detail = fmt.Sprintf("Running (pid %d, version %s)", status.PID, status.Version)
		}
		fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, detail, colorize))
		if status.StartedAt != "" {
			fmt.Fprintln(out, renderStatusLine("Started", statusInfo, status.StartedAt, colorize))
		}
	} else {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "Not running (run `rumormill start`)", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("API", statusInfo, ctx.apiBaseURL(), colorize))
	if status.Registry.StorageOK {
		fmt.Fprintln(out, renderStatusLine("Storage", statusOK, status.RumorsFile, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Storage", statusWarn, "Last write failed; the on-disk copy may be stale", colorize))
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Hardware", colorize) {
		fmt.Fprintln(out, line)
	}
	printerKind, printerDetail := printerStatusLine(status)
	fmt.Fprintln(out, renderStatusLine("Printer", printerKind, printerDetail, colorize))
	triggerKind, triggerDetail := triggerStatusLine(status)
	fmt.Fprintln(out, renderStatusLine("Trigger", triggerKind, triggerDetail, colorize))
	if status.Running {
		queueKind := statusInfo
		if status.Trigger.Capacity > 0 && status.Trigger.Pending >= status.Trigger.Capacity {
			queueKind = statusWarn
		}
		detail := fmt.Sprintf("%d/%d pending", status.Trigger.Pending, status.Trigger.Capacity)
		fmt.Fprintln(out, renderStatusLine("Queue", queueKind, detail, colorize))
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Paths", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, result := range preflight.RunAll(ctx.configValue()) {
		kind := statusWarn
		if result.Passed {
			kind = statusOK
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Rumours", colorize) {
		fmt.Fprintln(out, line)
	}
	lastPrint := "never"
	if status.Journal.LastPrint != nil {
		lastPrint = status.Journal.LastPrint.Local().Format("2006-01-02 15:04:05")
	}
	fmt.Fprintln(out, renderStatusLine("Last print", statusInfo, lastPrint, colorize))
	rows := [][]string{
		{"Stored", strconv.Itoa(status.Registry.Total)},
		{"Eligible", strconv.Itoa(status.Registry.Eligible)},
		{"Slips printed", strconv.FormatInt(status.Journal.Printed, 10)},
		{"Fallback slips", strconv.FormatInt(status.Journal.Fallbacks, 10)},
		{"Print errors", strconv.FormatInt(status.Journal.Errors, 10)},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func printerStatusLine(status api.DaemonStatus) (statusKind, string) {
	if !status.Running {
		return statusInfo, "Unknown (daemon not running)"
	}
	if status.Printer.Mode == "serial" && status.Printer.Online {
		return statusOK, fmt.Sprintf("Serial printer on %s", status.Printer.Device)
	}
	return statusWarn, "Console fallback (slips go to the log)"
}

func triggerStatusLine(status api.DaemonStatus) (statusKind, string) {
	if !status.Running {
		detail := "Unknown (daemon not running)"
		if src := strings.TrimSpace(status.Trigger.Source); src != "" {
			detail = fmt.Sprintf("Configured source: %s", src)
		}
		return statusInfo, detail
	}
	switch status.Trigger.Source {
	case config.TriggerSourceGPIO, config.TriggerSourceFile:
		if !status.Trigger.Running {
			return statusWarn, fmt.Sprintf("%s configured but not sampling (see logs)", status.Trigger.Source)
		}
		if status.Trigger.Source == config.TriggerSourceGPIO {
			return statusOK, "Reed sensor (gpio)"
		}
		return statusInfo, "File sampler"
	default:
		return statusInfo, "Disabled (manual prints only)"
	}
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext, logLevel string) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{LogLevel: strings.TrimSpace(logLevel)}
	if ctx.configFlag != nil {
		if path := strings.TrimSpace(*ctx.configFlag); path != "" {
			opts.ConfigPath = path
		}
	}
	return opts
}
