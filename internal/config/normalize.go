package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	if err := c.normalizeTrigger(); err != nil {
		return err
	}
	c.normalizePrinter()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.RumorsFile) == "" {
		c.Paths.RumorsFile = filepath.Join(c.Paths.StateDir, defaultRumorsFileName)
	}
	if c.Paths.RumorsFile, err = expandPath(c.Paths.RumorsFile); err != nil {
		return fmt.Errorf("paths.rumors_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.NetworkHint = strings.TrimSpace(c.Server.NetworkHint)
	if c.Server.NetworkHint == "" {
		c.Server.NetworkHint = defaultNetworkHint
	}
}

func (c *Config) normalizeTrigger() error {
	c.Trigger.Source = strings.ToLower(strings.TrimSpace(c.Trigger.Source))
	if c.Trigger.Source == "" {
		c.Trigger.Source = defaultTriggerSource
	}
	c.Trigger.GPIOChip = strings.TrimSpace(c.Trigger.GPIOChip)
	if c.Trigger.GPIOChip == "" {
		c.Trigger.GPIOChip = defaultGPIOChip
	}
	if c.Trigger.GPIOLine < 0 {
		c.Trigger.GPIOLine = defaultGPIOLine
	}
	if strings.TrimSpace(c.Trigger.SampleFile) != "" {
		expanded, err := expandPath(c.Trigger.SampleFile)
		if err != nil {
			return fmt.Errorf("trigger.sample_file: %w", err)
		}
		c.Trigger.SampleFile = expanded
	} else {
		c.Trigger.SampleFile = ""
	}
	if c.Trigger.PollIntervalMS <= 0 {
		c.Trigger.PollIntervalMS = defaultPollIntervalMS
	}
	if c.Trigger.CooldownSeconds <= 0 {
		c.Trigger.CooldownSeconds = defaultCooldownSeconds
	}
	if c.Trigger.QueueCapacity <= 0 {
		c.Trigger.QueueCapacity = defaultQueueCapacity
	}
	return nil
}

func (c *Config) normalizePrinter() {
	c.Printer.Device = strings.TrimSpace(c.Printer.Device)
	if c.Printer.BaudRate <= 0 {
		c.Printer.BaudRate = defaultBaudRate
	}
	if c.Printer.FeedLines <= 0 {
		c.Printer.FeedLines = defaultFeedLines
	}
	if c.Printer.WakeDelayMS < 0 {
		c.Printer.WakeDelayMS = defaultWakeDelayMS
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("RUMORMILL_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
