package printer

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"rumormill/internal/logging"
)

// HotplugMonitor listens for udev netlink events on the printer's tty device
// and reports attach and detach transitions. This keeps the daemon printing
// across USB replugs without restarts.
type HotplugMonitor struct {
	device   string
	logger   *slog.Logger
	onAttach func()
	onDetach func()

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewHotplugMonitor creates a monitor for the given serial device. Returns
// nil when no device is configured.
func NewHotplugMonitor(device string, logger *slog.Logger, onAttach, onDetach func()) *HotplugMonitor {
	device = strings.TrimSpace(device)
	if device == "" {
		return nil
	}
	return &HotplugMonitor{
		device:   device,
		logger:   logging.NewComponentLogger(logger, "printer-hotplug"),
		onAttach: onAttach,
		onDetach: onDetach,
	}
}

// Start begins listening for udev netlink events.
func (m *HotplugMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; printer replugs will need a restart",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "printer hotplug detection unavailable"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("printer hotplug monitor started",
		logging.String(logging.FieldEventType, "hotplug_monitor_started"),
		logging.String("device", m.device),
	)

	return nil
}

// Stop shuts down the hotplug monitor.
func (m *HotplugMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}

	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}

	m.running = false

	m.logger.Info("printer hotplug monitor stopped",
		logging.String(logging.FieldEventType, "hotplug_monitor_stopped"),
	)
}

// Running reports whether the hotplug monitor is active.
func (m *HotplugMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *HotplugMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	matcher := m.buildMatcher()

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, matcher)

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("printer hotplug monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "hotplug_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "printer replug may go unnoticed"),
			)
		}
	}
}

// buildMatcher matches tty add and remove events.
func (m *HotplugMonitor) buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "tty",
		},
	})
	return rules
}

func (m *HotplugMonitor) handleEvent(uevent netlink.UEvent) {
	devname := m.extractDeviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	if devname != m.device {
		m.logger.Debug("ignoring event for non-configured device",
			logging.String("device", devname),
			logging.String("configured_device", m.device),
		)
		return
	}

	switch uevent.Action {
	case netlink.ADD:
		m.logger.Info("printer device attached",
			logging.String(logging.FieldEventType, "printer_device_added"),
			logging.String("device", devname),
		)
		if m.onAttach != nil {
			m.onAttach()
		}
	case netlink.REMOVE:
		m.logger.Info("printer device removed",
			logging.String(logging.FieldEventType, "printer_device_removed"),
			logging.String("device", devname),
		)
		if m.onDetach != nil {
			m.onDetach()
		}
	}
}

// extractDeviceName gets the device path from a uevent.
func (m *HotplugMonitor) extractDeviceName(uevent netlink.UEvent) string {
	devname := uevent.Env["DEVNAME"]
	if devname == "" {
		devpath := uevent.Env["DEVPATH"]
		if devpath == "" {
			return ""
		}
		parts := strings.Split(devpath, "/")
		devname = parts[len(parts)-1]
	}
	if !strings.HasPrefix(devname, "/dev/") {
		devname = "/dev/" + devname
	}
	return devname
}
