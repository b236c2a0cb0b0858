package trigger_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"rumormill/internal/config"
	"rumormill/internal/logging"
	"rumormill/internal/trigger"
)

// scriptSampler replays a fixed sequence of levels, holding the last one
// forever, so monitor tests can stage exact edge patterns.
type scriptSampler struct {
	mu     sync.Mutex
	levels []bool
	err    error
	closed bool
}

func (s *scriptSampler) Sample() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	level := s.levels[0]
	if len(s.levels) > 1 {
		s.levels = s.levels[1:]
	}
	return level, nil
}

func (s *scriptSampler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *scriptSampler) wasClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func testTriggerConfig() config.Trigger {
	return config.Trigger{
		Source:          config.TriggerSourceGPIO,
		PollIntervalMS:  1,
		CooldownSeconds: 3600,
		QueueCapacity:   4,
	}
}

func TestMonitorEmitsOnePulsePerClosure(t *testing.T) {
	sampler := &scriptSampler{levels: []bool{true, true, false}}
	queue := trigger.NewQueue(4, logging.NewNop())
	monitor := trigger.NewMonitor(testTriggerConfig(), sampler, queue, logging.NewNop())

	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer monitor.Stop()

	select {
	case pulse := <-queue.Receive():
		if pulse.Source != trigger.SourceReed {
			t.Fatalf("pulse source = %q, want %q", pulse.Source, trigger.SourceReed)
		}
		if pulse.At.IsZero() {
			t.Fatal("pulse missing timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no pulse within 2s of the falling edge")
	}

	select {
	case <-queue.Receive():
		t.Fatal("second pulse emitted while the line stayed low")
	case <-time.After(25 * time.Millisecond):
	}
}

func TestMonitorRejectsDoubleStartAndClosesSamplerOnStop(t *testing.T) {
	sampler := &scriptSampler{levels: []bool{true}}
	queue := trigger.NewQueue(4, logging.NewNop())
	monitor := trigger.NewMonitor(testTriggerConfig(), sampler, queue, logging.NewNop())

	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := monitor.Start(context.Background()); err == nil {
		t.Fatal("second Start succeeded while running")
	}

	monitor.Stop()
	if !sampler.wasClosed() {
		t.Fatal("Stop did not close the sampler")
	}

	// Stop again is a no-op.
	monitor.Stop()
}

func TestMonitorSampleErrorsDoNotStopLoop(t *testing.T) {
	sampler := &scriptSampler{err: errors.New("gpio device vanished")}
	queue := trigger.NewQueue(4, logging.NewNop())
	monitor := trigger.NewMonitor(testTriggerConfig(), sampler, queue, logging.NewNop())

	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-queue.Receive():
		t.Fatal("pulse emitted while every sample failed")
	case <-time.After(20 * time.Millisecond):
	}

	monitor.Stop()
}

func TestMonitorNilWhenSamplerDisabled(t *testing.T) {
	queue := trigger.NewQueue(4, logging.NewNop())
	monitor := trigger.NewMonitor(testTriggerConfig(), nil, queue, logging.NewNop())
	if monitor != nil {
		t.Fatal("NewMonitor returned a monitor for a nil sampler")
	}

	if err := monitor.Start(context.Background()); err == nil {
		t.Fatal("Start on nil monitor succeeded")
	}
	monitor.Stop()
}

func TestQueueDropsPulsesWhenFull(t *testing.T) {
	queue := trigger.NewQueue(2, logging.NewNop())

	if !queue.Offer(trigger.Pulse{Source: trigger.SourceManual}) {
		t.Fatal("first offer rejected")
	}
	if !queue.Offer(trigger.Pulse{Source: trigger.SourceManual}) {
		t.Fatal("second offer rejected")
	}
	if queue.Offer(trigger.Pulse{Source: trigger.SourceManual}) {
		t.Fatal("offer accepted beyond capacity")
	}

	if got := queue.Pending(); got != 2 {
		t.Fatalf("Pending = %d, want 2", got)
	}
	if got := queue.Capacity(); got != 2 {
		t.Fatalf("Capacity = %d, want 2", got)
	}

	pulse := <-queue.Receive()
	if pulse.At.IsZero() {
		t.Fatal("queued pulse missing timestamp")
	}
	if !queue.Offer(trigger.Pulse{Source: trigger.SourceReed}) {
		t.Fatal("offer rejected after draining a slot")
	}
}

func TestNewSamplerBySource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reed")

	sampler, err := trigger.NewSampler(config.Trigger{Source: config.TriggerSourceFile, SampleFile: path})
	if err != nil {
		t.Fatalf("NewSampler(file): %v", err)
	}

	level, err := sampler.Sample()
	if err != nil || !level {
		t.Fatalf("missing sample file read as level=%v err=%v, want open circuit", level, err)
	}

	if err := os.WriteFile(path, []byte("0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	level, err = sampler.Sample()
	if err != nil || level {
		t.Fatalf("sample file holding 0 read as level=%v err=%v, want low", level, err)
	}

	if err := os.WriteFile(path, []byte("maybe"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := sampler.Sample(); err == nil {
		t.Fatal("garbage sample content accepted")
	}

	none, err := trigger.NewSampler(config.Trigger{Source: config.TriggerSourceNone})
	if err != nil || none != nil {
		t.Fatalf("NewSampler(none) = %v, %v, want nil sampler", none, err)
	}

	if _, err := trigger.NewSampler(config.Trigger{Source: "radio"}); err == nil {
		t.Fatal("unknown source accepted")
	}
}
