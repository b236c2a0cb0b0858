package trigger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"rumormill/internal/config"
)

// Sampler reads the current reed level. True means the line is high (circuit
// open, no magnet); false means it is pulled low.
type Sampler interface {
	Sample() (bool, error)
	Close() error
}

// NewSampler builds the sampler named by the trigger configuration. Source
// "none" yields a nil sampler, which disables hardware triggering.
func NewSampler(cfg config.Trigger) (Sampler, error) {
	switch cfg.Source {
	case config.TriggerSourceGPIO:
		return NewGPIOSampler(cfg.GPIOChip, cfg.GPIOLine)
	case config.TriggerSourceFile:
		return NewFileSampler(cfg.SampleFile), nil
	case config.TriggerSourceNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown trigger source %q", cfg.Source)
	}
}

// FileSampler reads "0" or "1" from a plain file, standing in for the reed
// sensor on machines without the hardware.
type FileSampler struct {
	path string
}

// NewFileSampler returns a sampler backed by the file at path.
func NewFileSampler(path string) *FileSampler {
	return &FileSampler{path: path}
}

// Sample reads the current level from the backing file. A missing or empty
// file reads as an open circuit.
func (s *FileSampler) Sample() (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("read sample file: %w", err)
	}
	switch strings.TrimSpace(string(data)) {
	case "0":
		return false, nil
	case "", "1":
		return true, nil
	default:
		return false, fmt.Errorf("sample file %s holds neither 0 nor 1", s.path)
	}
}

// Close releases nothing; the file is opened per sample.
func (s *FileSampler) Close() error {
	return nil
}
