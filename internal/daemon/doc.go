// Package daemon wires the controller together and owns its lifecycle:
// single-instance flock, startup order (journal, registry snapshot, printer,
// trigger, dispatch, HTTP), reverse-order shutdown, and the aggregated
// status snapshot served to the CLI and the web UI.
package daemon
