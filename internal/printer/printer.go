package printer

import (
	"context"

	"rumormill/internal/rumor"
)

// Slip is one printout: bold text lines preceded by a small head gap and
// followed by a tail feed that pushes the paper clear of the cutter.
type Slip struct {
	Lines    []string
	TailFeed int
}

// Printer renders slips on an attached output.
type Printer interface {
	Print(ctx context.Context, slip Slip) error
	Close() error
}

const (
	headFeed         = 2
	startupTailFeed  = 4
	fallbackTailFeed = 6
)

// RumorSlip lays out the Dutch and English texts of a rumor.
func RumorSlip(r rumor.Rumor, tailFeed int) Slip {
	return Slip{
		Lines:    []string{r.TextNL, r.TextEN},
		TailFeed: tailFeed,
	}
}

// FallbackSlip is printed when no rumor is available for a trigger.
func FallbackSlip() Slip {
	return Slip{
		Lines:    []string{"No active rumors", "or max prints reached"},
		TailFeed: fallbackTailFeed,
	}
}

// StartupSlip tells visitors how to reach the web UI.
func StartupSlip(networkHint, address string) Slip {
	return Slip{
		Lines:    []string{"Rumour Mill", "Connect to:", networkHint, "Open:", address},
		TailFeed: startupTailFeed,
	}
}
