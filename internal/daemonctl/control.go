// Package daemonctl drives daemon process control for the CLI: detached
// launches, readiness polling against the HTTP API, and signal-based stops.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"rumormill/internal/api"
	"rumormill/internal/apiclient"
	"rumormill/internal/config"
	"rumormill/internal/daemon"
)

// ErrDaemonNotRunning indicates no daemon process could be found.
var ErrDaemonNotRunning = errors.New("daemon is not running")

const probeTimeout = 2 * time.Second

// LaunchOptions carries CLI flags forwarded to the spawned daemon process.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

// StartState describes the outcome of EnsureStarted.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult reports how EnsureStarted brought the daemon up.
type StartResult struct {
	State    StartState
	PID      int
	Launched bool
}

// StopResult reports how the daemon process was brought down.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// RestartResult combines the stop and start halves of a restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// Launch starts the daemon as a detached child process and returns without
// waiting for it to become ready.
func Launch(executablePath string, opts LaunchOptions) error {
	args := []string{"daemon"}
	if opts.ConfigPath != "" {
		args = append(args, "--config", opts.ConfigPath)
	}
	if opts.LogLevel != "" {
		args = append(args, "--log-level", opts.LogLevel)
	}

	proc := exec.Command(executablePath, args...)
	proc.Stdin = nil
	proc.Stdout = nil
	proc.Stderr = nil
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	if proc.Process != nil {
		if err := proc.Process.Release(); err != nil {
			return fmt.Errorf("release daemon process: %w", err)
		}
	}
	return nil
}

// WaitForAPI polls the status endpoint until the daemon answers or the
// timeout elapses.
func WaitForAPI(baseURL string, timeout time.Duration) (api.DaemonStatus, error) {
	client := apiclient.New(baseURL)
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		status, err := probeStatus(client)
		if err == nil {
			return status, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	return api.DaemonStatus{}, fmt.Errorf("daemon did not become ready within %s: %w", timeout, lastErr)
}

// EnsureStarted makes sure a daemon is serving the API, launching one when
// nothing answers.
func EnsureStarted(baseURL, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if status, err := probeStatus(apiclient.New(baseURL)); err == nil && status.Running {
		return StartResult{State: StartStateAlreadyRunning, PID: status.PID}, nil
	}

	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	status, err := WaitForAPI(baseURL, waitTimeout)
	if err != nil {
		return StartResult{Launched: true}, err
	}
	return StartResult{State: StartStateStarted, PID: status.PID, Launched: true}, nil
}

// StopAndTerminate asks the daemon to exit via SIGTERM and escalates to
// SIGKILL when it outlives the grace period. The target pid comes from the
// status endpoint when the API answers, the pid file otherwise.
func StopAndTerminate(baseURL string, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	pid := 0
	if status, err := probeStatus(apiclient.New(baseURL)); err == nil {
		pid = status.PID
	}
	if pid <= 0 && cfg != nil {
		pid = daemon.ReadPIDFile(cfg.PIDPath())
	}
	if pid <= 0 {
		return StopResult{}, ErrDaemonNotRunning
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("pid %d belongs to this process; refusing to stop it", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return StopResult{}, ErrDaemonNotRunning
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}

	result := StopResult{PID: pid}
	deadline := time.Now().Add(gracePeriod)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return result, nil
		}
		time.Sleep(200 * time.Millisecond)
	}

	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	result.ForcedKill = true
	if cfg != nil {
		_ = os.Remove(cfg.PIDPath())
		_ = os.Remove(cfg.LockPath())
	}
	return result, nil
}

// Restart stops the daemon if running, then ensures it is started.
func Restart(baseURL string, cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	stopResult, stopErr := StopAndTerminate(baseURL, cfg, stopGracePeriod)
	if stopErr != nil && !errors.Is(stopErr, ErrDaemonNotRunning) {
		return RestartResult{}, stopErr
	}

	startResult, err := EnsureStarted(baseURL, executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}

	return RestartResult{
		WasRunning: stopErr == nil,
		Stop:       stopResult,
		Start:      startResult,
	}, nil
}

func probeStatus(client *apiclient.Client) (api.DaemonStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	return client.Status(ctx)
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
