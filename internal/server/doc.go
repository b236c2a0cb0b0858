// Package server exposes the daemon's HTTP surface: the JSON API consumed
// by the web UI and the rumormill CLI, plus the embedded single-page UI
// itself. Handlers hold no state of their own; they translate requests into
// registry, queue, and journal calls and map errors onto the wire contract
// through the api package.
package server
