package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"rumormill/internal/api"
	"rumormill/internal/config"
	"rumormill/internal/dispatch"
	"rumormill/internal/journal"
	"rumormill/internal/logging"
	"rumormill/internal/notifications"
	"rumormill/internal/printer"
	"rumormill/internal/rumor"
	"rumormill/internal/server"
	"rumormill/internal/store"
	"rumormill/internal/trigger"
)

// Version is reported on the status surfaces and in notifications.
const Version = "0.1.0"

// Daemon coordinates the controller's components and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *rumor.Registry
	journal  *journal.Store
	printers *printer.Manager
	hotplug  *printer.HotplugMonitor
	queue    *trigger.Queue
	monitor  *trigger.Monitor
	worker   *dispatch.Worker
	api      *server.Server
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	startedAt time.Time
	running   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// New constructs the daemon and all of its components. The trigger source
// and printer degrade gracefully: a failed sampler disables the hardware
// trigger, a missing printer falls back to console slips. Only the journal
// is required to open.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	journalStore, err := journal.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open print journal: %w", err)
	}

	notifier := notifications.NewService(cfg)

	registry := rumor.NewRegistry(store.NewFileStore(cfg.Paths.RumorsFile, logger), logger)
	registry.OnPersistFailure(func(saveErr error) {
		payload := notifications.Payload{"error": saveErr.Error()}
		if pubErr := notifier.Publish(context.Background(), notifications.EventStorageDegraded, payload); pubErr != nil {
			logger.Warn("storage degradation notification failed", logging.Error(pubErr))
		}
	})

	queue := trigger.NewQueue(cfg.Trigger.QueueCapacity, logger)

	sampler, err := trigger.NewSampler(cfg.Trigger)
	if err != nil {
		logging.WarnWithContext(logger, "reed sampler unavailable; hardware trigger disabled",
			"sampler_init_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the [trigger] section of the configuration"),
			logging.String(logging.FieldImpact, "prints can only be started manually"))
		sampler = nil
	}
	monitor := trigger.NewMonitor(cfg.Trigger, sampler, queue, logger)

	printers := printer.NewManager(cfg.Printer, logger)
	hotplug := printer.NewHotplugMonitor(cfg.Printer.Device, logger, printers.Attach, printers.Detach)

	worker := dispatch.NewWorker(cfg, registry, printers, journalStore, notifier, queue, logger)

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		journal:  journalStore,
		printers: printers,
		hotplug:  hotplug,
		queue:    queue,
		monitor:  monitor,
		worker:   worker,
		notifier: notifier,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = server.New(server.Options{
		Bind:     cfg.Server.Bind,
		Registry: registry,
		Queue:    queue,
		Journal:  journalStore,
		Status:   d.Status,
		Logger:   logger,
	})
	return d, nil
}

// Start acquires the instance lock and brings the components up in
// dependency order: registry snapshot, printer, trigger, dispatch, HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another rumormill daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	if err := d.registry.Load(d.ctx); err != nil {
		logging.WarnWithContext(d.logger, "rumor snapshot load failed; starting with an empty collection",
			"snapshot_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the rumors file for corruption"),
			logging.String(logging.FieldImpact, "previously stored rumors are not available"))
	}

	d.printers.Attach()
	if err := d.hotplug.Start(d.ctx); err != nil {
		d.logger.Warn("printer hotplug monitor failed to start", logging.Error(err))
	}

	if d.monitor != nil {
		if err := d.monitor.Start(d.ctx); err != nil {
			d.teardown()
			return fmt.Errorf("start trigger monitor: %w", err)
		}
	} else {
		d.logger.Info("hardware trigger disabled; prints start manually")
	}

	if err := d.worker.Start(d.ctx); err != nil {
		d.teardown()
		return fmt.Errorf("start dispatch worker: %w", err)
	}

	if err := d.api.Start(d.ctx); err != nil {
		d.teardown()
		return fmt.Errorf("start api server: %w", err)
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("rumormill daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.Addr()))

	d.announceStartup()
	return nil
}

// announceStartup prints the banner slip and fires the started notification.
// Both are best-effort.
func (d *Daemon) announceStartup() {
	slipCtx, cancel := context.WithTimeout(d.ctx, 30*time.Second)
	defer cancel()

	address := d.api.Addr()
	if address == "" {
		address = d.cfg.Server.Bind
	}
	if err := d.printers.Print(slipCtx, printer.StartupSlip(d.cfg.Server.NetworkHint, address)); err != nil {
		d.logger.Warn("startup slip failed", logging.Error(err))
	}

	payload := notifications.Payload{"address": address, "version": Version}
	if err := d.notifier.Publish(slipCtx, notifications.EventDaemonStarted, payload); err != nil {
		d.logger.Warn("startup notification failed", logging.Error(err))
	}
}

func (d *Daemon) teardown() {
	d.api.Stop()
	d.worker.Stop()
	d.monitor.Stop()
	d.hotplug.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
}

// Stop halts the components in reverse start order and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.teardown()
	if err := d.printers.Close(); err != nil {
		d.logger.Warn("failed to close printer", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("rumormill daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

// Status assembles the aggregated runtime snapshot served on /api/status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Version:      Version,
		RumorsFile:   d.cfg.Paths.RumorsFile,
		JournalPath:  d.cfg.JournalPath(),
		LockFilePath: d.lockPath,
		Printer:      d.printers.Status(),
		Trigger: api.TriggerStatus{
			Source:   d.cfg.Trigger.Source,
			Pending:  d.queue.Pending(),
			Capacity: d.queue.Capacity(),
			Running:  d.monitor != nil && d.running.Load(),
		},
	}
	if !d.startedAt.IsZero() {
		status.StartedAt = d.startedAt.UTC().Format(time.RFC3339)
	}

	if stats, err := d.registry.Stats(ctx); err == nil {
		status.Registry = stats
	} else {
		d.logger.Warn("registry stats unavailable", logging.Error(err))
	}
	if stats, err := d.journal.Stats(ctx); err == nil {
		status.Journal = stats
	} else {
		d.logger.Warn("journal stats unavailable", logging.Error(err))
	}
	return status
}
