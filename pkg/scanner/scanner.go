// Package scanner finds the devices listening on a GPIB bus. A sweep serial
// polls each address; devices that answer are asked to identify themselves.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// Scanner probes the bus for listeners
type Scanner struct {
	ctrl   gpib.Controller
	config *ScanConfig

	// State
	mu      sync.Mutex
	running bool

	// Listener tracking
	tracker *ListenerTracker

	now func() time.Time
}

// New creates a Scanner on ctrl with the given configuration
func New(ctrl gpib.Controller, config *ScanConfig) (*Scanner, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Scanner{
		ctrl:    ctrl,
		config:  config,
		tracker: NewListenerTracker(config.LostAfter),
		now:     time.Now,
	}
	s.tracker.SetCallbacks(config.OnListenerFound, config.OnListenerLost)
	return s, nil
}

// debug logs a debug message if the debug callback is set
func (s *Scanner) debug(format string, args ...interface{}) {
	if s.config.DebugLog != nil {
		s.config.DebugLog(format, args...)
	}
}

// Tracker returns the listener tracker fed by every sweep
func (s *Scanner) Tracker() *ListenerTracker {
	return s.tracker
}

// Probe checks a single address. ok is false when nothing answered the
// serial poll.
func (s *Scanner) Probe(pad int) (Listener, bool) {
	cfg := gpib.DefaultDeviceConfig(pad)
	cfg.Timeout = s.config.Timeout
	l := Listener{Address: cfg.Address}

	dev, err := gpib.Open(s.ctrl, cfg)
	if err != nil {
		s.debug("PAD %d: %v", pad, err)
		return l, false
	}

	status, err := dev.SerialPoll()
	if err != nil {
		s.debug("PAD %d: no response to serial poll: %v", pad, err)
		return l, false
	}
	l.Status = status

	if s.config.IDQuery != "" {
		id, err := dev.Query(s.config.IDQuery, s.config.ResponseSize)
		if err != nil {
			// pre-488.2 instruments ignore *IDN? but still answer polls
			s.debug("PAD %d: no identification: %v", pad, err)
			dev.Clear()
		} else {
			l.ID = id
		}
	}
	return l, true
}

// addresses returns the PADs a sweep visits. A controller wired to a single
// instrument answers everywhere, so only the first address is visited.
func (s *Scanner) addresses() []int {
	if fixed, ok := s.ctrl.(gpib.FixedAddresser); ok && fixed.FixedAddress() {
		s.debug("Controller has a fixed address, sweeping PAD %d only", s.config.Addresses[0])
		return s.config.Addresses[:1]
	}
	return s.config.Addresses
}

// ScanOnce sweeps the configured addresses once
func (s *Scanner) ScanOnce(ctx context.Context) (*ScanResult, error) {
	start := s.now()
	result := &ScanResult{Timestamp: start}

	for _, pad := range s.addresses() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Probed++
		if l, ok := s.Probe(pad); ok {
			result.Listeners = append(result.Listeners, l)
			s.debug("PAD %d: status 0x%02X id %q", pad, l.Status, l.ID)
		}
	}
	result.Elapsed = s.now().Sub(start)

	s.tracker.Update(result)
	return result, nil
}

// ScanContinuous sweeps the bus until ctx is cancelled, sending each result
// on results. A result is dropped when the receiver is not ready.
func (s *Scanner) ScanContinuous(ctx context.Context, results chan<- *ScanResult) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrScannerRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(s.config.ScanInterval)
	defer ticker.Stop()

	for {
		result, err := s.ScanOnce(ctx)
		if err != nil {
			return err
		}
		select {
		case results <- result:
		default:
			s.debug("Result dropped (channel full)")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// IsRunning reports whether ScanContinuous is active
func (s *Scanner) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
