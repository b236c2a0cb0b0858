package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTrigger(); err != nil {
		return err
	}
	if err := c.validatePrinter(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be a host:port address: %w", err)
	}
	return nil
}

func (c *Config) validateTrigger() error {
	switch c.Trigger.Source {
	case TriggerSourceGPIO, TriggerSourceFile, TriggerSourceNone:
	default:
		return fmt.Errorf("trigger.source must be one of gpio, file, none (got %q)", c.Trigger.Source)
	}
	if c.Trigger.Source == TriggerSourceFile && strings.TrimSpace(c.Trigger.SampleFile) == "" {
		return errors.New("trigger.sample_file must be set when trigger.source is file")
	}
	if err := ensurePositiveMap(map[string]int{
		"trigger.poll_interval_ms": c.Trigger.PollIntervalMS,
		"trigger.cooldown_seconds": c.Trigger.CooldownSeconds,
		"trigger.queue_capacity":   c.Trigger.QueueCapacity,
	}); err != nil {
		return err
	}
	if c.Trigger.CooldownSeconds*1000 <= c.Trigger.PollIntervalMS {
		return errors.New("trigger.cooldown_seconds must be greater than trigger.poll_interval_ms")
	}
	return nil
}

func (c *Config) validatePrinter() error {
	if err := ensurePositiveMap(map[string]int{
		"printer.baud_rate":  c.Printer.BaudRate,
		"printer.feed_lines": c.Printer.FeedLines,
	}); err != nil {
		return err
	}
	if c.Printer.WakeDelayMS < 0 {
		return errors.New("printer.wake_delay_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
