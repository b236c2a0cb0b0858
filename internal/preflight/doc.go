// Package preflight provides readiness checks for the filesystem paths and
// device nodes the mill depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs any failures before the
//     dispatch loop begins.
//   - The CLI "rumormill status" command renders the same results so a
//     missing printer device or GPIO chip is visible at a glance.
//
// Each check is gated by its config section -- a console-only printer or a
// disabled trigger skips the corresponding device checks.
package preflight
