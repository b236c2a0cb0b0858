package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"rumormill/internal/config"
	"rumormill/internal/journal"
	"rumormill/internal/logging"
	"rumormill/internal/notifications"
	"rumormill/internal/printer"
	"rumormill/internal/rumor"
	"rumormill/internal/trigger"
)

// Selector picks the rumor to print. Satisfied by *rumor.Registry.
type Selector interface {
	SelectEligible(ctx context.Context) (rumor.Rumor, bool, error)
}

// Printer renders slips. Satisfied by *printer.Manager.
type Printer interface {
	Print(ctx context.Context, slip printer.Slip) error
}

// Journal records dispatch outcomes. Satisfied by *journal.Store.
type Journal interface {
	Record(ctx context.Context, entry journal.Entry) (int64, error)
}

// Worker turns queued pulses into printed slips.
type Worker struct {
	cfg      *config.Config
	selector Selector
	printer  Printer
	journal  Journal
	notifier notifications.Service
	queue    *trigger.Queue
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorker assembles the dispatch worker.
func NewWorker(
	cfg *config.Config,
	selector Selector,
	prints Printer,
	journalStore Journal,
	notifier notifications.Service,
	queue *trigger.Queue,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		cfg:      cfg,
		selector: selector,
		printer:  prints,
		journal:  journalStore,
		notifier: notifier,
		queue:    queue,
		logger:   logging.NewComponentLogger(logger, "dispatch"),
	}
}

// Start begins background processing.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("dispatch worker already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.run(runCtx)

	w.logger.Info("dispatch worker started")
	return nil
}

// Stop terminates background processing and waits for completion.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()

	w.logger.Info("dispatch worker stopped")
}

// Running reports whether the worker is active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case pulse := <-w.queue.Receive():
			w.handle(ctx, pulse)
		}
	}
}

func (w *Worker) handle(ctx context.Context, pulse trigger.Pulse) {
	dispatchID := uuid.NewString()
	logger := w.logger.With(logging.String(logging.FieldDispatchID, dispatchID))

	logger.Info("trigger received",
		logging.String("source", pulse.Source),
		logging.Int("pending", w.queue.Pending()))

	selected, ok, err := w.selector.SelectEligible(ctx)
	if err != nil {
		detail := "registry busy"
		if !errors.Is(err, rumor.ErrBusy) {
			detail = err.Error()
		}
		logger.Warn("rumor selection failed; printing fallback slip",
			logging.Error(err),
			logging.String(logging.FieldEventType, "selection_failed"),
			logging.String(logging.FieldErrorHint, "a slow API write may be holding the registry"))
		w.printFallback(ctx, logger, dispatchID, pulse, detail)
		return
	}
	if !ok {
		logger.Info("no eligible rumors; printing fallback slip",
			logging.String(logging.FieldEventType, "no_eligible_rumors"))
		w.printFallback(ctx, logger, dispatchID, pulse, "no eligible rumors")
		return
	}

	slip := printer.RumorSlip(selected, w.cfg.Printer.FeedLines)
	if err := w.printer.Print(ctx, slip); err != nil {
		logging.ErrorWithContext(logger, "rumor slip print failed",
			"print_failed",
			logging.Error(err),
			logging.Int64(logging.FieldRumorID, selected.ID),
			logging.String(logging.FieldErrorHint, "check the printer connection and paper"),
			logging.String(logging.FieldImpact, "rumor counted as printed but no slip came out"))
		w.record(ctx, logger, journal.Entry{
			DispatchID: dispatchID,
			RumorID:    &selected.ID,
			Title:      selected.Title,
			Outcome:    journal.OutcomeError,
			Detail:     err.Error(),
			Source:     pulse.Source,
		})
		w.publish(ctx, logger, notifications.EventError, notifications.Payload{
			"context": "dispatch",
			"error":   err.Error(),
		})
		return
	}

	logger.Info("rumor slip printed",
		logging.Int64(logging.FieldRumorID, selected.ID),
		logging.String("title", selected.Title),
		logging.Int("printed_count", selected.PrintedCount),
		logging.String(logging.FieldEventType, "rumor_printed"))

	w.record(ctx, logger, journal.Entry{
		DispatchID: dispatchID,
		RumorID:    &selected.ID,
		Title:      selected.Title,
		Outcome:    journal.OutcomePrinted,
		Source:     pulse.Source,
	})
	w.publish(ctx, logger, notifications.EventRumorPrinted, notifications.Payload{
		"title":  selected.Title,
		"source": pulse.Source,
	})
}

func (w *Worker) printFallback(ctx context.Context, logger *slog.Logger, dispatchID string, pulse trigger.Pulse, reason string) {
	entry := journal.Entry{
		DispatchID: dispatchID,
		Outcome:    journal.OutcomeFallback,
		Detail:     reason,
		Source:     pulse.Source,
	}

	if err := w.printer.Print(ctx, printer.FallbackSlip()); err != nil {
		logging.ErrorWithContext(logger, "fallback slip print failed",
			"print_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the printer connection and paper"),
			logging.String(logging.FieldImpact, "trigger produced no slip"))
		entry.Outcome = journal.OutcomeError
		entry.Detail = err.Error()
		w.record(ctx, logger, entry)
		w.publish(ctx, logger, notifications.EventError, notifications.Payload{
			"context": "dispatch",
			"error":   err.Error(),
		})
		return
	}

	w.record(ctx, logger, entry)
	w.publish(ctx, logger, notifications.EventFallbackPrinted, notifications.Payload{
		"reason": reason,
	})
}

func (w *Worker) record(ctx context.Context, logger *slog.Logger, entry journal.Entry) {
	if w.journal == nil {
		return
	}
	if _, err := w.journal.Record(ctx, entry); err != nil {
		logger.Warn("journal write failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "journal_write_failed"),
			logging.String(logging.FieldErrorHint, "check the journal database"))
	}
}

func (w *Worker) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Publish(ctx, event, payload); err != nil {
		logger.Warn("notification publish failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "notify_failed"),
			logging.String(logging.FieldErrorHint, "check the ntfy topic and network access"))
	}
}
