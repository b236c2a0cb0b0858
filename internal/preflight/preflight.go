package preflight

import (
	"path"
	"strings"

	"rumormill/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// State directory (always checked; holds the rumour file and journal)
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	// Log directory (when configured)
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	// Printer device (empty device means console fallback, nothing to check)
	if device := strings.TrimSpace(cfg.Printer.Device); device != "" {
		results = append(results, CheckDevice("Printer device", device))
	}

	switch cfg.Trigger.Source {
	case config.TriggerSourceGPIO:
		results = append(results, CheckDevice("GPIO chip", gpioDevicePath(cfg.Trigger.GPIOChip)))
	case config.TriggerSourceFile:
		results = append(results, CheckFile("Sample file", cfg.Trigger.SampleFile))
	}

	return results
}

// gpioDevicePath resolves a chip name like "gpiochip0" to its device node.
// Absolute paths pass through untouched.
func gpioDevicePath(chip string) string {
	chip = strings.TrimSpace(chip)
	if strings.HasPrefix(chip, "/") {
		return chip
	}
	return path.Join("/dev", chip)
}
