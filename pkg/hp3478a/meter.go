package hp3478a

import (
	"errors"
	"fmt"
	"time"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// Bus defaults for the bench meter
const (
	DefaultPAD     = 9
	DefaultTimeout = gpib.T3s
)

// Read buffer sizes. A reading is at most 13 bytes with its CR LF.
const (
	ReadingSize     = 15
	ValueBufferSize = 255
)

// HomeCommand returns the meter to its power-on state
const HomeCommand = "H0"

// Meter is an HP 3478A on the bus
type Meter struct {
	dev     *gpib.Device
	bufSize int
	now     func() time.Time
}

// New wraps an open device handle
func New(dev *gpib.Device) *Meter {
	return &Meter{dev: dev, bufSize: ReadingSize, now: time.Now}
}

// Device returns the underlying handle
func (m *Meter) Device() *gpib.Device {
	return m.dev
}

// SetBufferSize changes the read buffer used for each reading
func (m *Meter) SetBufferSize(size int) {
	if size > 0 {
		m.bufSize = size
	}
}

// Init clears the meter, reads its status byte, sets the 3 second timeout
// and, when reset is set, returns it to the power-on state
func (m *Meter) Init(reset bool) error {
	if err := m.dev.Init(false); err != nil {
		return err
	}
	if err := m.dev.SetTimeout(DefaultTimeout); err != nil {
		return err
	}
	if reset {
		if err := m.dev.Write(HomeCommand); err != nil {
			return fmt.Errorf("failed to reset meter: %w", err)
		}
	}
	return nil
}

// Configure sends the command string for s
func (m *Meter) Configure(s Settings) error {
	cmd, err := s.Command()
	if err != nil {
		return err
	}
	if cmd == "" {
		return nil
	}
	if err := m.dev.Write(cmd); err != nil {
		return fmt.Errorf("failed to configure meter with %q: %w", cmd, err)
	}
	return nil
}

// Read takes one reading
func (m *Meter) Read() (float64, error) {
	raw, err := m.dev.ReadValue(m.bufSize)
	if err != nil {
		return 0, err
	}
	return ParseReading(raw)
}

// Acquisition is the result of a run of readings
type Acquisition struct {
	Readings []float64
	Attempts int
	Failed   int
	Elapsed  time.Duration
}

// Rate returns attempted readings per second
func (a Acquisition) Rate() float64 {
	if a.Elapsed <= 0 {
		return 0
	}
	return float64(a.Attempts) / a.Elapsed.Seconds()
}

// Acquire takes n readings. Failed reads are counted and left out; overload
// readings are kept. It fails only when no reading succeeded.
func (m *Meter) Acquire(n int) (Acquisition, error) {
	if n <= 0 {
		return Acquisition{}, fmt.Errorf("reading count must be positive, got %d", n)
	}

	acq := Acquisition{Readings: make([]float64, 0, n), Attempts: n}
	var lastErr error
	start := m.now()
	for i := 0; i < n; i++ {
		value, err := m.Read()
		if err != nil && !errors.Is(err, ErrOverload) {
			acq.Failed++
			lastErr = err
			continue
		}
		acq.Readings = append(acq.Readings, value)
	}
	acq.Elapsed = m.now().Sub(start)

	if len(acq.Readings) == 0 {
		return acq, fmt.Errorf("no readings taken: %w", lastErr)
	}
	return acq, nil
}
