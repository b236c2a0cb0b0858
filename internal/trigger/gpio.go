package trigger

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOSampler reads the reed line through the Linux GPIO character device.
// The line is requested with the internal pull-up enabled, matching a reed
// switch wired between the pin and ground.
type GPIOSampler struct {
	line *gpiocdev.Line
}

// NewGPIOSampler requests the given line as a pulled-up input.
func NewGPIOSampler(chip string, offset int) (*GPIOSampler, error) {
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithConsumer("rumormill"))
	if err != nil {
		return nil, fmt.Errorf("request gpio line %s:%d: %w", chip, offset, err)
	}
	return &GPIOSampler{line: line}, nil
}

// Sample reads the current line level.
func (s *GPIOSampler) Sample() (bool, error) {
	value, err := s.line.Value()
	if err != nil {
		return false, fmt.Errorf("read gpio line: %w", err)
	}
	return value != 0, nil
}

// Close releases the line request.
func (s *GPIOSampler) Close() error {
	return s.line.Close()
}
