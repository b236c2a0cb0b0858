// Package config loads, normalizes, and validates Rumour Mill configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// RUMORMILL_NTFY_TOPIC. The Config type centralizes every knob the daemon and
// CLI need, allowing the state directory, trigger wiring, and printer port to
// be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
