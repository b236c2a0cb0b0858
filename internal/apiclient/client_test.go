package apiclient_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"rumormill/internal/apiclient"
	"rumormill/internal/logging"
	"rumormill/internal/rumor"
	"rumormill/internal/server"
	"rumormill/internal/testsupport"
	"rumormill/internal/trigger"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func newClientFixture(t *testing.T) *apiclient.Client {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	srv := server.New(server.Options{
		Bind:     "127.0.0.1:0",
		Registry: testsupport.NewRegistry(t, cfg),
		Queue:    trigger.NewQueue(1, logging.NewNop()),
		Journal:  testsupport.MustOpenJournal(t, cfg),
		Logger:   logging.NewNop(),
	})
	if srv == nil {
		t.Fatal("expected a server")
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		srv.Stop()
	})
	return apiclient.New(apiclient.BaseURL(srv.Addr()))
}

func TestClientRumorLifecycle(t *testing.T) {
	client := newClientFixture(t)
	ctx := context.Background()

	created, err := client.CreateRumor(ctx, rumor.Patch{
		Title:  strPtr("Mirror ball"),
		TextNL: strPtr("NL tekst"),
		TextEN: strPtr("EN text"),
		People: strPtr("anna,bob"),
		Active: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("CreateRumor failed: %v", err)
	}
	if created.ID != 1 || created.MaxPrints != rumor.DefaultMaxPrints {
		t.Fatalf("unexpected created rumor: %+v", created)
	}

	list, err := client.ListRumors(ctx, "bob")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListRumors = %v, %v", list, err)
	}

	updated, err := client.UpdateRumor(ctx, created.ID, rumor.Patch{Active: boolPtr(false)})
	if err != nil {
		t.Fatalf("UpdateRumor failed: %v", err)
	}
	if updated.Active || updated.Title != "Mirror ball" {
		t.Fatalf("partial update went wrong: %+v", updated)
	}

	if err := client.ResetCount(ctx, created.ID); err != nil {
		t.Fatalf("ResetCount failed: %v", err)
	}
	if err := client.ResetAllCounts(ctx); err != nil {
		t.Fatalf("ResetAllCounts failed: %v", err)
	}
	if err := client.DeleteRumor(ctx, created.ID); err != nil {
		t.Fatalf("DeleteRumor failed: %v", err)
	}

	list, err = client.ListRumors(ctx, "")
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list after delete, got %v, %v", list, err)
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	client := newClientFixture(t)
	ctx := context.Background()

	_, err := client.UpdateRumor(ctx, 999, rumor.Patch{Title: strPtr("x")})
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "not found" {
		t.Fatalf("unexpected error payload: %+v", apiErr)
	}

	_, err = client.CreateRumor(ctx, rumor.Patch{Title: strPtr("only a title")})
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete payload, got %v", err)
	}
}

func TestClientTriggerPrintAndJournal(t *testing.T) {
	client := newClientFixture(t)
	ctx := context.Background()

	resp, err := client.TriggerPrint(ctx)
	if err != nil {
		t.Fatalf("TriggerPrint failed: %v", err)
	}
	if !resp.Queued || resp.Pending != 1 {
		t.Fatalf("unexpected trigger response: %+v", resp)
	}

	// Queue capacity is one in this fixture, so the second pulse conflicts.
	_, err = client.TriggerPrint(ctx)
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on full queue, got %v", err)
	}

	entries, err := client.Journal(ctx, 5)
	if err != nil {
		t.Fatalf("Journal failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty journal without a worker, got %+v", entries)
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		bind string
		want string
	}{
		{":8080", "http://127.0.0.1:8080"},
		{"0.0.0.0:9090", "http://127.0.0.1:9090"},
		{"[::]:8080", "http://127.0.0.1:8080"},
		{"192.168.1.20:8080", "http://192.168.1.20:8080"},
		{"http://mill.local:8080/", "http://mill.local:8080"},
		{"", "http://127.0.0.1:8080"},
	}
	for _, tt := range tests {
		if got := apiclient.BaseURL(tt.bind); got != tt.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.bind, got, tt.want)
		}
	}
}
