package testsupport

import (
	"context"
	"testing"

	"rumormill/internal/config"
	"rumormill/internal/journal"
	"rumormill/internal/logging"
	"rumormill/internal/rumor"
	"rumormill/internal/store"
)

// MustOpenJournal opens a journal.Store for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	js, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		js.Close()
	})
	return js
}

// NewRegistry builds a file-backed rumor registry for tests.
func NewRegistry(t testing.TB, cfg *config.Config) *rumor.Registry {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	fs := store.NewFileStore(cfg.Paths.RumorsFile, logging.NewNop())
	reg := rumor.NewRegistry(fs, logging.NewNop())
	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("registry load: %v", err)
	}
	return reg
}

// SeedRumor creates one rumor through the registry for tests.
func SeedRumor(t testing.TB, reg *rumor.Registry, title, textNL, textEN, people string) rumor.Rumor {
	t.Helper()

	active := true
	created, err := reg.Create(context.Background(), rumor.Patch{
		Title:  &title,
		TextNL: &textNL,
		TextEN: &textEN,
		People: &people,
		Active: &active,
	})
	if err != nil {
		t.Fatalf("seed rumor: %v", err)
	}
	return created
}
