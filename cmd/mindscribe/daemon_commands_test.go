package main

import (
	"path/filepath"
	"strings"
	"testing"

	"mindscribe/internal/testsupport"
)

func TestCLIStatusWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	stdout, stderr, err := runCLI(t, []string{"status"}, cfg.SocketPath(), configPath)
	if err != nil {
		t.Fatalf("status: %v (stderr: %s)", err, stderr)
	}
	if !strings.Contains(stdout, "Not running") {
		t.Fatalf("expected not-running daemon line:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Readiness Checks") {
		t.Fatalf("expected readiness section:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Queue is empty") {
		t.Fatalf("expected empty queue section:\n%s", stdout)
	}
}

func TestCLIStatusWithDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.NewJob(t, env.store, "/sessions/gamma.wav")

	stdout, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "Pending") {
		t.Fatalf("expected pending queue row:\n%s", stdout)
	}
}

func TestCLIStopWhenDaemonAbsent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	stdout, _, err := runCLI(t, []string{"stop"}, filepath.Join(t.TempDir(), "absent.sock"), configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !strings.Contains(stdout, "Daemon is not running") {
		t.Fatalf("unexpected stop output:\n%s", stdout)
	}
}
