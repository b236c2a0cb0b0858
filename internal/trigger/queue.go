package trigger

import (
	"log/slog"
	"time"

	"rumormill/internal/logging"
)

// Pulse sources recorded on queued print requests.
const (
	SourceReed   = "reed"
	SourceManual = "manual"
)

// Pulse is a single request to print one rumor slip.
type Pulse struct {
	Source string
	At     time.Time
}

// Queue is the bounded hand-off between trigger sources and the dispatch
// worker. Offers never block: when every slot is taken the pulse is dropped
// and the drop is logged.
type Queue struct {
	ch     chan Pulse
	logger *slog.Logger
}

// NewQueue builds a queue holding at most capacity pending pulses.
func NewQueue(capacity int, logger *slog.Logger) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		ch:     make(chan Pulse, capacity),
		logger: logging.NewComponentLogger(logger, "trigger"),
	}
}

// Offer enqueues the pulse if a slot is free and reports whether it was
// accepted.
func (q *Queue) Offer(pulse Pulse) bool {
	if pulse.At.IsZero() {
		pulse.At = time.Now()
	}
	select {
	case q.ch <- pulse:
		q.logger.Info("print pulse queued",
			logging.String("source", pulse.Source),
			logging.Int("pending", len(q.ch)),
			logging.String(logging.FieldEventType, "pulse_queued"))
		return true
	default:
		q.logger.Warn("print queue full; pulse dropped",
			logging.String("source", pulse.Source),
			logging.Int("capacity", cap(q.ch)),
			logging.Alert("queue_full"),
			logging.String(logging.FieldEventType, "pulse_dropped"))
		return false
	}
}

// Receive exposes the pulse stream consumed by the dispatch worker.
func (q *Queue) Receive() <-chan Pulse {
	return q.ch
}

// Pending reports how many pulses are waiting.
func (q *Queue) Pending() int {
	return len(q.ch)
}

// Capacity reports the queue size limit.
func (q *Queue) Capacity() int {
	return cap(q.ch)
}
