package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rumormill/internal/api"
	"rumormill/internal/journal"
	"rumormill/internal/logging"
	"rumormill/internal/rumor"
	"rumormill/internal/testsupport"
	"rumormill/internal/trigger"
)

func newTestServer(t *testing.T) (*Server, *rumor.Registry, *trigger.Queue) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	reg := testsupport.NewRegistry(t, cfg)
	queue := trigger.NewQueue(2, logging.NewNop())
	srv := New(Options{
		Bind:     "127.0.0.1:0",
		Registry: reg,
		Queue:    queue,
		Journal:  testsupport.MustOpenJournal(t, cfg),
		Logger:   logging.NewNop(),
	})
	if srv == nil {
		t.Fatal("expected a server for a bound configuration")
	}
	return srv, reg, queue
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("error body was not json: %v (%q)", err, rec.Body.String())
	}
	return payload["error"]
}

func TestRumorLifecycleOverHTTP(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/rumors",
		`{"title":"Mirror ball","text_nl":"NL tekst","text_en":"EN text","people":"anna,bob","active":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}
	var created rumor.Rumor
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created rumor: %v", err)
	}
	if created.ID != 1 || created.MaxPrints != rumor.DefaultMaxPrints {
		t.Fatalf("unexpected created rumor: %+v", created)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/rumors", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	var listed []rumor.Rumor
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].Title != "Mirror ball" {
		t.Fatalf("unexpected list: %+v", listed)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/rumors?name=bob", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil || len(listed) != 1 {
		t.Fatalf("filter by person failed: %v %+v", err, listed)
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/rumors?name=zelda", "")
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("expected empty json array for unmatched filter, got %q", body)
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/rumors/1", `{"title":"Glitter ball"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
	}
	var updated rumor.Rumor
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated rumor: %v", err)
	}
	if updated.Title != "Glitter ball" || updated.TextNL != "NL tekst" {
		t.Fatalf("partial update went wrong: %+v", updated)
	}

	if rec = doRequest(t, srv, http.MethodPost, "/api/rumors/1/reset", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("reset returned %d", rec.Code)
	}
	if rec = doRequest(t, srv, http.MethodPost, "/api/rumors/resetAll", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("resetAll returned %d", rec.Code)
	}
	if rec = doRequest(t, srv, http.MethodDelete, "/api/rumors/1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete returned %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/rumors", "")
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("expected empty json array after delete, got %q", body)
	}
}

func TestCreateRejectsBadPayloads(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/rumors", `{"title": `)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec) != "invalid json" {
		t.Fatalf("malformed body: got %d %q", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/rumors", `{"title":"only a title"}`)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec) != "missing fields" {
		t.Fatalf("incomplete body: got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRumorItemRouteEdges(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/rumors/999", `{"title":"x"}`)
	if rec.Code != http.StatusNotFound || decodeError(t, rec) != "not found" {
		t.Fatalf("unknown id: got %d %q", rec.Code, rec.Body.String())
	}
	if rec = doRequest(t, srv, http.MethodDelete, "/api/rumors/999", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("delete unknown id returned %d", rec.Code)
	}
	if rec = doRequest(t, srv, http.MethodPut, "/api/rumors/abc", `{}`); rec.Code != http.StatusNotFound {
		t.Fatalf("non-numeric id returned %d", rec.Code)
	}
	if rec = doRequest(t, srv, http.MethodGet, "/api/rumors/1/reset", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET on reset returned %d", rec.Code)
	}
	if rec = doRequest(t, srv, http.MethodGet, "/api/rumors/resetAll", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET on resetAll returned %d", rec.Code)
	}
	if rec = doRequest(t, srv, http.MethodPatch, "/api/rumors", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("PATCH on collection returned %d", rec.Code)
	}
}

func TestManualPrintFillsQueueThenConflicts(t *testing.T) {
	srv, _, queue := newTestServer(t)

	for i := 0; i < queue.Capacity(); i++ {
		rec := doRequest(t, srv, http.MethodPost, "/api/print", "")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("print %d returned %d: %s", i, rec.Code, rec.Body.String())
		}
		var resp api.TriggerResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode trigger response: %v", err)
		}
		if !resp.Queued || resp.Source != trigger.SourceManual {
			t.Fatalf("unexpected trigger response: %+v", resp)
		}
	}

	rec := doRequest(t, srv, http.MethodPost, "/api/print", "")
	if rec.Code != http.StatusConflict || decodeError(t, rec) != "print queue full" {
		t.Fatalf("full queue: got %d %q", rec.Code, rec.Body.String())
	}
}

func TestStatusEndpointUsesInjectedSnapshot(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.status = func(context.Context) api.DaemonStatus {
		return api.DaemonStatus{
			Running:  true,
			PID:      424242,
			Registry: rumor.Stats{Total: 3, Eligible: 2, StorageOK: true},
			Trigger:  api.TriggerStatus{Source: "file", Capacity: 4},
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status returned %d", rec.Code)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.PID != 424242 || status.Registry.Total != 3 || status.Trigger.Source != "file" {
		t.Fatalf("unexpected status payload: %+v", status)
	}
}

func TestJournalEndpointServesRecentEntries(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/journal", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("journal returned %d", rec.Code)
	}
	var resp api.JournalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode journal response: %v", err)
	}
	if resp.Entries == nil || len(resp.Entries) != 0 {
		t.Fatalf("expected empty entries array, got %+v", resp.Entries)
	}

	if _, err := srv.journal.Record(context.Background(), journal.Entry{
		DispatchID: "d-1",
		Title:      "Mirror ball",
		Outcome:    journal.OutcomePrinted,
		Source:     trigger.SourceReed,
	}); err != nil {
		t.Fatalf("seed journal: %v", err)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/journal?limit=5", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode journal response: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Title != "Mirror ball" {
		t.Fatalf("unexpected journal entries: %+v", resp.Entries)
	}

	if rec = doRequest(t, srv, http.MethodDelete, "/api/journal", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("journal clear returned %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/journal", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode journal response: %v", err)
	}
	if len(resp.Entries) != 0 {
		t.Fatalf("expected cleared journal, got %+v", resp.Entries)
	}
}

func TestUIServesIndexWithSPAFallback(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("index returned %d", rec.Code)
	}
	if ctype := rec.Header().Get("Content-Type"); !strings.HasPrefix(ctype, "text/html") {
		t.Fatalf("unexpected content type %q", ctype)
	}
	if !strings.Contains(rec.Body.String(), "Rumour Mill") {
		t.Fatal("index document missing expected markup")
	}

	rec = doRequest(t, srv, http.MethodGet, "/rumors/edit/3", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Rumour Mill") {
		t.Fatalf("SPA fallback failed: %d", rec.Code)
	}

	if rec = doRequest(t, srv, http.MethodPost, "/definitely/not/an/api", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("non-GET unmatched path returned %d", rec.Code)
	}
}

func TestNewRequiresBindAndRegistry(t *testing.T) {
	if srv := New(Options{Bind: "", Registry: nil}); srv != nil {
		t.Fatal("expected nil server without bind address")
	}
	cfg := testsupport.NewConfig(t)
	if srv := New(Options{Bind: cfg.Server.Bind, Registry: nil}); srv != nil {
		t.Fatal("expected nil server without registry")
	}
}
