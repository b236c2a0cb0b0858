// Package journal persists the print history in SQLite.
//
// Every dispatch writes one entry recording what the trigger produced: a
// printed rumor, a fallback slip, or an error. The journal is best-effort
// bookkeeping; dispatch never blocks printing on it.
package journal
