// Package daemonctl starts, probes, and stops a podcaster daemon from the CLI.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"podcaster/internal/api"
	"podcaster/internal/apiclient"
	"podcaster/internal/config"
	"podcaster/internal/daemon"
	"podcaster/internal/daemonrun"
	"podcaster/internal/transport"
)

const (
	probeUnit    = 50 * time.Millisecond
	probeTimeout = 2 * time.Second
	pollInterval = 200 * time.Millisecond
)

// ErrDaemonNotRunning indicates the daemon did not answer at its URL.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Target identifies the daemon the CLI controls.
type Target struct {
	BaseURL string
	Token   string
}

// TargetFromConfig returns the daemon URL and token from cfg.
func TargetFromConfig(cfg *config.Config) Target {
	if cfg == nil {
		return Target{}
	}
	return Target{BaseURL: cfg.Client.ServerURL, Token: cfg.Paths.APIToken}
}

func (t Target) probe() *apiclient.Client {
	policy := transport.DefaultPolicy()
	policy.Unit = probeUnit
	return apiclient.New(t.BaseURL, t.Token, policy, probeTimeout)
}

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State StartState
	PID   int
}

// Launch starts a detached podcaster daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// Probe returns the daemon status, or ErrDaemonNotRunning when nothing answers.
func Probe(ctx context.Context, target Target) (api.Status, error) {
	status, err := target.probe().Status(ctx)
	if err != nil {
		if apiclient.IsUnreachable(err) {
			return api.Status{}, ErrDaemonNotRunning
		}
		return api.Status{}, err
	}
	return status, nil
}

// WaitForReady polls the daemon until it answers or timeout elapses.
func WaitForReady(ctx context.Context, target Target, timeout time.Duration) (api.Status, error) {
	deadline := time.Now().Add(timeout)
	lastErr := ErrDaemonNotRunning
	for time.Now().Before(deadline) {
		status, err := Probe(ctx, target)
		if err == nil {
			return status, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return api.Status{}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return api.Status{}, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon unless it already answers at target.
func EnsureStarted(ctx context.Context, target Target, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if status, err := Probe(ctx, target); err == nil {
		return StartResult{State: StartStateAlreadyRunning, PID: status.PID}, nil
	} else if !errors.Is(err, ErrDaemonNotRunning) {
		return StartResult{}, err
	}
	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	status, err := WaitForReady(ctx, target, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, PID: status.PID}, nil
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// Stop signals the daemon with SIGTERM and force-kills it if it still answers
// after gracePeriod. The PID comes from the daemon's status, falling back to
// the pid file in the data directory.
func Stop(ctx context.Context, target Target, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	status, err := Probe(ctx, target)
	if err != nil {
		return StopResult{}, err
	}
	pid := status.PID
	pidPath, lockPath := runtimeFiles(cfg)
	if pid <= 0 {
		if pid, err = ReadPIDFile(pidPath); err != nil {
			return StopResult{}, err
		}
	}
	if err := signalProcess(pid, unix.SIGTERM); err != nil {
		return StopResult{}, err
	}

	result := StopResult{PID: pid}
	if waitForShutdown(ctx, target, gracePeriod) {
		return result, nil
	}
	if err := signalProcess(pid, unix.SIGKILL); err != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	if pidPath != "" {
		_ = os.Remove(pidPath)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	result.ForcedKill = true
	return result, nil
}

func waitForShutdown(ctx context.Context, target Target, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := Probe(ctx, target); errors.Is(err, ErrDaemonNotRunning) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pollInterval):
		}
	}
	return false
}

func runtimeFiles(cfg *config.Config) (string, string) {
	if cfg == nil || strings.TrimSpace(cfg.Paths.DataDir) == "" {
		return "", ""
	}
	return filepath.Join(cfg.Paths.DataDir, daemonrun.PIDFileName),
		filepath.Join(cfg.Paths.DataDir, daemon.LockFileName)
}

// ReadPIDFile parses the daemon pid file.
func ReadPIDFile(path string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("unable to determine daemon pid: data directory unknown")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read daemon pid file %q: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("daemon pid file %q is malformed", path)
	}
	return pid, nil
}

func signalProcess(pid int, sig unix.Signal) error {
	if pid == os.Getpid() {
		return fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	if err := unix.Kill(pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	return nil
}
