// Package trigger turns reed sensor closures into debounced print pulses.
//
// A Monitor samples the configured reed line on a fixed interval and feeds
// falling edges through a cooldown window so one magnet pass produces one
// pulse. Accepted pulses land in a small bounded Queue shared with the
// manual trigger surfaces; offers never block, and pulses that arrive while
// the queue is full are dropped and logged rather than stalling the sampler.
package trigger
