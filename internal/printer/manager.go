package printer

import (
	"context"
	"log/slog"
	"sync"

	"rumormill/internal/config"
	"rumormill/internal/logging"
)

// Status describes the active print output for the status API.
type Status struct {
	Mode   string `json:"mode"`
	Device string `json:"device,omitempty"`
	Online bool   `json:"online"`
}

// Manager owns the active printer. It starts on the console stand-in and
// swaps the real serial port in and out as the device attaches and detaches,
// so dispatch always has something to print on.
type Manager struct {
	cfg    config.Printer
	base   *slog.Logger
	logger *slog.Logger
	open   func() (Printer, error)

	mu     sync.Mutex
	active Printer
	online bool
}

// NewManager builds a manager printing to the console until Attach brings
// the serial device up.
func NewManager(cfg config.Printer, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:    cfg,
		base:   logger,
		logger: logging.NewComponentLogger(logger, "printer"),
	}
	m.open = func() (Printer, error) {
		return OpenSerial(m.cfg, m.base)
	}
	m.active = NewConsolePrinter(m.base)
	return m
}

// Attach opens the configured serial device and makes it the active output.
// Failures are logged and leave the console stand-in in place.
func (m *Manager) Attach() {
	if m.cfg.Device == "" {
		return
	}

	printer, err := m.open()
	if err != nil {
		logging.WarnWithContext(m.logger, "printer unavailable; slips will go to the log",
			"printer_open_failed",
			logging.Error(err),
			logging.String("device", m.cfg.Device),
			logging.String(logging.FieldErrorHint, "check the usb cable and serial device permissions"),
			logging.String(logging.FieldImpact, "slips are logged instead of printed"))
		return
	}

	m.mu.Lock()
	old := m.active
	m.active = printer
	m.online = true
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	m.logger.Info("printer attached",
		logging.String("device", m.cfg.Device),
		logging.String(logging.FieldEventType, "printer_attached"))
}

// Detach drops the serial port and falls back to the console stand-in.
func (m *Manager) Detach() {
	m.mu.Lock()
	if !m.online {
		m.mu.Unlock()
		return
	}
	old := m.active
	m.active = NewConsolePrinter(m.base)
	m.online = false
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	logging.WarnWithContext(m.logger, "printer detached; slips will go to the log",
		"printer_detached",
		logging.String("device", m.cfg.Device),
		logging.String(logging.FieldErrorHint, "reconnect the printer usb cable"),
		logging.String(logging.FieldImpact, "slips are logged instead of printed"))
}

// Print renders the slip on whichever output is active.
func (m *Manager) Print(ctx context.Context, slip Slip) error {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()
	return active.Print(ctx, slip)
}

// Online reports whether the real serial device is active.
func (m *Manager) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Status snapshots the active output for the status API.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	mode := "console"
	if m.online {
		mode = "serial"
	}
	return Status{Mode: mode, Device: m.cfg.Device, Online: m.online}
}

// Close releases the active output.
func (m *Manager) Close() error {
	m.mu.Lock()
	active := m.active
	m.active = NewConsolePrinter(m.base)
	m.online = false
	m.mu.Unlock()
	if active == nil {
		return nil
	}
	return active.Close()
}
