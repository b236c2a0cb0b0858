package printer

import (
	"context"
	"log/slog"

	"rumormill/internal/logging"
)

// ConsolePrinter logs slips instead of printing them, standing in for the
// thermal printer on machines without the hardware.
type ConsolePrinter struct {
	logger *slog.Logger
}

// NewConsolePrinter returns a printer that writes slips to the log.
func NewConsolePrinter(logger *slog.Logger) *ConsolePrinter {
	return &ConsolePrinter{logger: logging.NewComponentLogger(logger, "printer")}
}

// Print logs each slip line.
func (p *ConsolePrinter) Print(ctx context.Context, slip Slip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, line := range slip.Lines {
		p.logger.Info("slip: " + line)
	}
	return nil
}

// Close releases nothing.
func (p *ConsolePrinter) Close() error {
	return nil
}
