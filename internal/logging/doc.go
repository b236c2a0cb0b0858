// Package logging assembles structured slog loggers and formatting helpers used
// across Rumour Mill services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and standardizes the attribute keys components use to tag log
// lines with rumor IDs and dispatch IDs. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
