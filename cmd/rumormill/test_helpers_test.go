package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"rumormill/internal/config"
	"rumormill/internal/journal"
	"rumormill/internal/logging"
	"rumormill/internal/rumor"
	"rumormill/internal/server"
	"rumormill/internal/testsupport"
	"rumormill/internal/trigger"
)

type cliTestEnv struct {
	cfg        *config.Config
	registry   *rumor.Registry
	journal    *journal.Store
	queue      *trigger.Queue
	address    string
	configPath string
}

// setupCLITestEnv starts a real API server on an ephemeral port and writes a
// config file pointing at the same state directories, so commands run the
// full flag-parse to HTTP round trip.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	registry := testsupport.NewRegistry(t, cfg)
	journalStore := testsupport.MustOpenJournal(t, cfg)
	queue := trigger.NewQueue(2, logging.NewNop())

	srv := server.New(server.Options{
		Bind:     cfg.Server.Bind,
		Registry: registry,
		Queue:    queue,
		Journal:  journalStore,
		Logger:   logging.NewNop(),
	})
	if srv == nil {
		t.Fatal("server.New returned nil")
	}
	srvCtx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(srvCtx); err != nil {
		cancel()
		t.Fatalf("start api server: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		srv.Stop()
	})

	return &cliTestEnv{
		cfg:        cfg,
		registry:   registry,
		journal:    journalStore,
		queue:      queue,
		address:    srv.Addr(),
		configPath: configPath,
	}
}

// setupOfflineEnv writes a config file but starts no server; the address
// points at a closed port so client calls fail fast.
func setupOfflineEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	registry := testsupport.NewRegistry(t, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		registry:   registry,
		address:    "127.0.0.1:1",
		configPath: configPath,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--config", env.configPath, "--address", env.address}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got %q", want, output)
	}
}
