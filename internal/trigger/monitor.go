package trigger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"rumormill/internal/config"
	"rumormill/internal/logging"
)

// Monitor polls a reed sampler and offers debounced pulses to the queue.
type Monitor struct {
	sampler      Sampler
	queue        *Queue
	logger       *slog.Logger
	pollInterval time.Duration
	cooldown     time.Duration

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewMonitor wires a sampler to the shared pulse queue using the trigger
// configuration. Returns nil when sampler is nil so callers can treat a
// disabled trigger source uniformly.
func NewMonitor(cfg config.Trigger, sampler Sampler, queue *Queue, logger *slog.Logger) *Monitor {
	if sampler == nil {
		return nil
	}
	return &Monitor{
		sampler:      sampler,
		queue:        queue,
		logger:       logging.NewComponentLogger(logger, "trigger"),
		pollInterval: time.Duration(cfg.PollIntervalMS) * time.Millisecond,
		cooldown:     time.Duration(cfg.CooldownSeconds) * time.Second,
	}
}

// Start launches the sampling loop. It returns an error when the monitor is
// unavailable or already running.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return errors.New("trigger monitor unavailable")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("trigger monitor already running")
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	m.running = true

	m.wg.Add(1)
	go m.loop()

	m.logger.Info("trigger monitor started",
		logging.Duration("poll_interval", m.pollInterval),
		logging.Duration("cooldown", m.cooldown))
	return nil
}

// Stop halts the sampling loop and waits for it to exit.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()

	if err := m.sampler.Close(); err != nil {
		m.logger.Warn("failed to close reed sampler", logging.Error(err))
	}
	m.logger.Info("trigger monitor stopped")
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	deb := &debouncer{cooldown: m.cooldown}

	// Prime the debouncer with the resting level before the ticker starts.
	m.sample(deb)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sample(deb)
		}
	}
}

func (m *Monitor) sample(deb *debouncer) {
	level, err := m.sampler.Sample()
	if err != nil {
		logging.WarnWithContext(m.logger, "reed sample failed; will retry",
			"reed_sample_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check gpio chip name, line number, and device permissions"),
			logging.String(logging.FieldImpact, "hardware trigger pulses may be missed"))
		return
	}

	now := time.Now()
	if !deb.observe(now, level) {
		return
	}

	// Only a pulse the queue accepted opens a cooldown window; a dropped
	// pulse lets the next edge try again.
	if m.queue.Offer(Pulse{Source: SourceReed, At: now}) {
		deb.confirm(now)
	}
}
