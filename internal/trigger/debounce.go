package trigger

import "time"

// debouncer tracks the reed level between samples and decides which falling
// edges become pulses. The line idles high through the pull-up; a magnet
// pass drives it low, so an edge fires on a high-to-low transition once the
// cooldown window since the previous accepted pulse has passed.
type debouncer struct {
	cooldown    time.Duration
	last        bool
	primed      bool
	lastTrigger time.Time
}

// observe records one sample and reports whether it completes a falling edge
// outside the cooldown window. The first sample only establishes the resting
// level. The caller confirms the edge once its pulse lands in the queue; a
// dropped pulse leaves the cooldown clock alone so the next edge can retry.
func (d *debouncer) observe(now time.Time, level bool) bool {
	prev := d.last
	d.last = level
	if !d.primed {
		d.primed = true
		return false
	}
	if level || !prev {
		return false
	}
	if !d.lastTrigger.IsZero() && now.Sub(d.lastTrigger) < d.cooldown {
		return false
	}
	return true
}

// confirm marks now as the last accepted trigger, opening a new cooldown
// window.
func (d *debouncer) confirm(now time.Time) {
	d.lastTrigger = now
}
