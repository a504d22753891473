package scanner

import (
	"fmt"
	"time"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// ScanConfig defines runtime scanning parameters
type ScanConfig struct {
	// Primary addresses to probe, in order
	Addresses []int

	// Probe parameters
	Timeout      gpib.Timeout
	IDQuery      string // empty skips identification
	ResponseSize int
	ScanInterval time.Duration // delay between sweeps in ScanContinuous

	// Tracking
	LostAfter int // sweeps a listener may be missing before it is lost

	// Callbacks (optional)
	OnListenerFound func(l Listener)
	OnListenerLost  func(l Listener)

	// Debug callback (optional)
	DebugLog func(format string, args ...interface{})
}

// DefaultConfig returns a ScanConfig that probes every address
func DefaultConfig() *ScanConfig {
	return &ScanConfig{
		Addresses:    AllAddresses(),
		Timeout:      DefaultTimeout,
		IDQuery:      DefaultIDQuery,
		ResponseSize: DefaultResponseSize,
		ScanInterval: DefaultScanInterval,
		LostAfter:    DefaultLostAfter,
	}
}

// Validate checks the configuration for errors
func (c *ScanConfig) Validate() error {
	if len(c.Addresses) == 0 {
		return ErrNoAddresses
	}

	for _, pad := range c.Addresses {
		if err := (gpib.Address{PAD: pad}).Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	if !c.Timeout.Valid() || c.Timeout == gpib.TNONE {
		return fmt.Errorf("%w: a finite timeout is required", ErrInvalidConfig)
	}

	if c.IDQuery != "" && c.ResponseSize <= 1 {
		return fmt.Errorf("%w: response size %d", ErrInvalidConfig, c.ResponseSize)
	}

	if c.ScanInterval <= 0 {
		return fmt.Errorf("%w: scan interval must be positive", ErrInvalidConfig)
	}

	if c.LostAfter < 1 {
		return fmt.Errorf("%w: lost-after must be at least 1", ErrInvalidConfig)
	}

	return nil
}
