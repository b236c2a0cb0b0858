// Package api defines wire-format types and helpers for the HTTP API layer.
// It covers the payloads the daemon serves to the web UI and the rumormill
// CLI without coupling either to handler internals.
//
// # Key Types
//
// DaemonStatus: aggregated runtime information including registry counts,
// pulse queue depth, printer mode, and journal totals.
//
// TriggerStatus/TriggerResponse: pulse queue state and the acknowledgement
// returned for a manual print request.
//
// JournalResponse: recent dispatch journal entries.
//
// # Helpers
//
// DecodeRumorPatch: request body -> rumor.Patch, with malformed JSON reported
// as ErrInvalidJSON.
//
// ErrorStatus: registry and decode errors -> HTTP status code plus the short
// error string the web UI matches on.
//
// # Design Notes
//
// Rumor payloads are rumor.Rumor values passed through unchanged: the
// registry type already carries the snake_case JSON tags the web UI and the
// on-disk snapshot share, so a separate DTO would only duplicate it. New
// types introduced here keep the same snake_case convention. List responses
// are bare JSON arrays, matching what the UI expects.
package api
