package api

import (
	"rumormill/internal/journal"
	"rumormill/internal/printer"
	"rumormill/internal/rumor"
)

// TriggerStatus reports the pulse queue feeding the dispatch worker.
type TriggerStatus struct {
	Source   string `json:"source"`
	Pending  int    `json:"pending"`
	Capacity int    `json:"capacity"`
	Running  bool   `json:"running"`
}

// DaemonStatus aggregates runtime information for the status endpoint and
// the CLI status command.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	Version      string         `json:"version,omitempty"`
	StartedAt    string         `json:"started_at,omitempty"`
	RumorsFile   string         `json:"rumors_file"`
	JournalPath  string         `json:"journal_path"`
	LockFilePath string         `json:"lock_file_path"`
	Registry     rumor.Stats    `json:"registry"`
	Trigger      TriggerStatus  `json:"trigger"`
	Printer      printer.Status `json:"printer"`
	Journal      journal.Stats  `json:"journal"`
}

// TriggerResponse acknowledges a manual print request. Queued reports
// whether the pulse fit in the queue; Pending is the depth afterwards.
type TriggerResponse struct {
	Queued  bool   `json:"queued"`
	Pending int    `json:"pending"`
	Source  string `json:"source"`
}

// JournalResponse carries recent dispatch journal entries, newest first.
type JournalResponse struct {
	Entries []journal.Entry `json:"entries"`
}
