package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"rumormill/internal/dispatch"
	"rumormill/internal/journal"
	"rumormill/internal/logging"
	"rumormill/internal/notifications"
	"rumormill/internal/printer"
	"rumormill/internal/rumor"
	"rumormill/internal/testsupport"
	"rumormill/internal/trigger"
)

type fakeSelector struct {
	rumor rumor.Rumor
	ok    bool
	err   error
}

func (s *fakeSelector) SelectEligible(ctx context.Context) (rumor.Rumor, bool, error) {
	return s.rumor, s.ok, s.err
}

type recordingPrinter struct {
	mu    sync.Mutex
	slips []printer.Slip
	err   error
}

func (p *recordingPrinter) Print(ctx context.Context, slip printer.Slip) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.slips = append(p.slips, slip)
	return nil
}

func (p *recordingPrinter) printed() []printer.Slip {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]printer.Slip, len(p.slips))
	copy(out, p.slips)
	return out
}

type recordingJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *recordingJournal) Record(ctx context.Context, entry journal.Entry) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return int64(len(j.entries)), nil
}

func (j *recordingJournal) recorded() []journal.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]journal.Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *recordingNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) published() []notifications.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notifications.Event, len(n.events))
	copy(out, n.events)
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type workerFixture struct {
	worker   *dispatch.Worker
	queue    *trigger.Queue
	printer  *recordingPrinter
	journal  *recordingJournal
	notifier *recordingNotifier
}

func newWorkerFixture(t *testing.T, selector dispatch.Selector) *workerFixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	queue := trigger.NewQueue(cfg.Trigger.QueueCapacity, logging.NewNop())
	prints := &recordingPrinter{}
	journalRec := &recordingJournal{}
	notifier := &recordingNotifier{}

	worker := dispatch.NewWorker(cfg, selector, prints, journalRec, notifier, queue, logging.NewNop())
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(worker.Stop)

	return &workerFixture{
		worker:   worker,
		queue:    queue,
		printer:  prints,
		journal:  journalRec,
		notifier: notifier,
	}
}

func TestWorkerPrintsEligibleRumor(t *testing.T) {
	selected := rumor.Rumor{
		ID:           7,
		Title:        "The mayor's parrot",
		TextNL:       "De papegaai praat",
		TextEN:       "The parrot talks",
		Active:       true,
		MaxPrints:    5,
		PrintedCount: 1,
	}
	fx := newWorkerFixture(t, &fakeSelector{rumor: selected, ok: true})

	fx.queue.Offer(trigger.Pulse{Source: trigger.SourceReed})

	waitFor(t, "rumor slip", func() bool { return len(fx.printer.printed()) == 1 })

	slip := fx.printer.printed()[0]
	if len(slip.Lines) != 2 || slip.Lines[0] != "De papegaai praat" || slip.Lines[1] != "The parrot talks" {
		t.Fatalf("slip lines = %v", slip.Lines)
	}
	if slip.TailFeed != 10 {
		t.Fatalf("slip tail feed = %d, want 10", slip.TailFeed)
	}

	waitFor(t, "journal entry", func() bool { return len(fx.journal.recorded()) == 1 })
	entry := fx.journal.recorded()[0]
	if entry.Outcome != journal.OutcomePrinted {
		t.Fatalf("journal outcome = %q, want printed", entry.Outcome)
	}
	if entry.RumorID == nil || *entry.RumorID != 7 {
		t.Fatalf("journal rumor ID = %v, want 7", entry.RumorID)
	}
	if entry.Title != "The mayor's parrot" {
		t.Fatalf("journal title = %q", entry.Title)
	}
	if entry.Source != trigger.SourceReed {
		t.Fatalf("journal source = %q, want reed", entry.Source)
	}
	if entry.DispatchID == "" {
		t.Fatal("journal entry missing dispatch ID")
	}

	waitFor(t, "notification", func() bool { return len(fx.notifier.published()) == 1 })
	if fx.notifier.published()[0] != notifications.EventRumorPrinted {
		t.Fatalf("published %v, want rumor printed event", fx.notifier.published())
	}
}

func TestWorkerPrintsFallbackWhenNothingEligible(t *testing.T) {
	fx := newWorkerFixture(t, &fakeSelector{ok: false})

	fx.queue.Offer(trigger.Pulse{Source: trigger.SourceManual})

	waitFor(t, "fallback slip", func() bool { return len(fx.printer.printed()) == 1 })

	slip := fx.printer.printed()[0]
	if slip.Lines[0] != "No active rumors" || slip.Lines[1] != "or max prints reached" {
		t.Fatalf("fallback slip lines = %v", slip.Lines)
	}

	waitFor(t, "journal entry", func() bool { return len(fx.journal.recorded()) == 1 })
	entry := fx.journal.recorded()[0]
	if entry.Outcome != journal.OutcomeFallback {
		t.Fatalf("journal outcome = %q, want fallback", entry.Outcome)
	}
	if entry.RumorID != nil {
		t.Fatalf("fallback entry carries rumor ID %d", *entry.RumorID)
	}
	if entry.Detail != "no eligible rumors" {
		t.Fatalf("journal detail = %q", entry.Detail)
	}
	if entry.Source != trigger.SourceManual {
		t.Fatalf("journal source = %q, want manual", entry.Source)
	}

	waitFor(t, "notification", func() bool { return len(fx.notifier.published()) == 1 })
	if fx.notifier.published()[0] != notifications.EventFallbackPrinted {
		t.Fatalf("published %v, want fallback event", fx.notifier.published())
	}
}

func TestWorkerPrintsFallbackWhenRegistryBusy(t *testing.T) {
	busy := fmt.Errorf("acquire registry lock: %w", rumor.ErrBusy)
	fx := newWorkerFixture(t, &fakeSelector{err: busy})

	fx.queue.Offer(trigger.Pulse{Source: trigger.SourceReed})

	waitFor(t, "fallback slip", func() bool { return len(fx.printer.printed()) == 1 })

	waitFor(t, "journal entry", func() bool { return len(fx.journal.recorded()) == 1 })
	entry := fx.journal.recorded()[0]
	if entry.Outcome != journal.OutcomeFallback {
		t.Fatalf("journal outcome = %q, want fallback", entry.Outcome)
	}
	if entry.Detail != "registry busy" {
		t.Fatalf("journal detail = %q, want registry busy", entry.Detail)
	}
}

func TestWorkerRecordsPrintFailures(t *testing.T) {
	selected := rumor.Rumor{ID: 3, Title: "Broken", TextNL: "a", TextEN: "b", Active: true, MaxPrints: 5}
	fx := newWorkerFixture(t, &fakeSelector{rumor: selected, ok: true})
	fx.printer.err = errors.New("paper jam")

	fx.queue.Offer(trigger.Pulse{Source: trigger.SourceReed})

	waitFor(t, "journal entry", func() bool { return len(fx.journal.recorded()) == 1 })
	entry := fx.journal.recorded()[0]
	if entry.Outcome != journal.OutcomeError {
		t.Fatalf("journal outcome = %q, want error", entry.Outcome)
	}
	if entry.Detail != "paper jam" {
		t.Fatalf("journal detail = %q", entry.Detail)
	}

	waitFor(t, "notification", func() bool { return len(fx.notifier.published()) == 1 })
	if fx.notifier.published()[0] != notifications.EventError {
		t.Fatalf("published %v, want error event", fx.notifier.published())
	}
}

func TestWorkerStopHaltsProcessing(t *testing.T) {
	fx := newWorkerFixture(t, &fakeSelector{ok: false})

	if !fx.worker.Running() {
		t.Fatal("worker not running after Start")
	}
	if err := fx.worker.Start(context.Background()); err == nil {
		t.Fatal("second Start succeeded while running")
	}

	fx.worker.Stop()
	if fx.worker.Running() {
		t.Fatal("worker still running after Stop")
	}

	fx.queue.Offer(trigger.Pulse{Source: trigger.SourceReed})
	time.Sleep(25 * time.Millisecond)
	if len(fx.printer.printed()) != 0 {
		t.Fatal("stopped worker printed a slip")
	}

	// Stop again is a no-op.
	fx.worker.Stop()
}
