// Package dispatch consumes trigger pulses and prints rumor slips.
//
// The worker drains the shared pulse queue one pulse at a time: it asks the
// registry for a random eligible rumor, prints the rumor slip or the
// fallback slip, and journals the outcome. Journal writes and notifications
// are best-effort; a pulse never fails because bookkeeping did.
package dispatch
