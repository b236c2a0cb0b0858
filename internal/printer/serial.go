package printer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"rumormill/internal/config"
	"rumormill/internal/logging"
)

const esc = 0x1b

var (
	cmdBoldOn   = []byte{esc, 'E', 1}
	cmdSleep    = []byte{esc, '8', 1, 0}
	cmdSleepOff = []byte{esc, '8', 0, 0}
	cmdWake     = []byte{0xff}
)

// cmdFeed advances the paper by the given number of blank lines.
func cmdFeed(lines int) []byte {
	if lines < 0 {
		lines = 0
	}
	if lines > 255 {
		lines = 255
	}
	return []byte{esc, 'd', byte(lines)}
}

// commandPace is the gap between ESC/POS writes; the print head has no flow
// control and drops bytes when commands arrive back to back.
const commandPace = 10 * time.Millisecond

// wakeSettle is the pause after the wake byte before sleep mode is cleared.
const wakeSettle = 50 * time.Millisecond

// SerialPrinter drives a thermal printer over a serial port.
type SerialPrinter struct {
	mu        sync.Mutex
	port      serial.Port
	device    string
	wakeDelay time.Duration
	encoder   *encoding.Encoder
	logger    *slog.Logger
}

// OpenSerial opens the configured serial device at 8N1.
func OpenSerial(cfg config.Printer, logger *slog.Logger) (*SerialPrinter, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open printer %s: %w", cfg.Device, err)
	}
	return &SerialPrinter{
		port:      port,
		device:    cfg.Device,
		wakeDelay: time.Duration(cfg.WakeDelayMS) * time.Millisecond,
		encoder:   charmap.CodePage437.NewEncoder(),
		logger:    logging.NewComponentLogger(logger, "printer"),
	}, nil
}

// Print writes the slip, then sleeps and rewakes the head the way the
// receipt printer expects between jobs.
func (p *SerialPrinter) Print(ctx context.Context, slip Slip) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	steps, err := slipSteps(p.encoder, slip)
	if err != nil {
		return err
	}

	for _, step := range steps {
		if err := p.write(ctx, step); err != nil {
			return err
		}
	}

	if err := pause(ctx, p.wakeDelay); err != nil {
		return err
	}
	if err := p.write(ctx, cmdWake); err != nil {
		return err
	}
	if err := pause(ctx, wakeSettle); err != nil {
		return err
	}
	return p.write(ctx, cmdSleepOff)
}

// Close releases the serial port.
func (p *SerialPrinter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

func (p *SerialPrinter) write(ctx context.Context, data []byte) error {
	if p.port == nil {
		return fmt.Errorf("printer %s: port closed", p.device)
	}
	if _, err := p.port.Write(data); err != nil {
		return fmt.Errorf("write to printer %s: %w", p.device, err)
	}
	return pause(ctx, commandPace)
}

// slipSteps assembles the ESC/POS write sequence for a slip. Lines are
// encoded to CP437, with runes outside the codepage replaced.
func slipSteps(enc *encoding.Encoder, slip Slip) ([][]byte, error) {
	steps := [][]byte{cmdBoldOn, cmdFeed(headFeed)}
	replacing := encoding.ReplaceUnsupported(enc)
	for _, line := range slip.Lines {
		encoded, err := replacing.Bytes([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("encode slip line: %w", err)
		}
		steps = append(steps, append(encoded, '\n'))
	}
	steps = append(steps, cmdFeed(slip.TailFeed), cmdSleep)
	return steps, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
