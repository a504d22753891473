package gpib

import (
	"bytes"
	"fmt"
)

// DeviceConfig mirrors the arguments of ibdev
type DeviceConfig struct {
	Address Address
	Timeout Timeout
	EOI     bool
	EOS     EOS
}

// DefaultDeviceConfig returns a config for pad with a 3 second timeout and EOI enabled
func DefaultDeviceConfig(pad int) DeviceConfig {
	return DeviceConfig{
		Address: Address{PAD: pad},
		Timeout: T3s,
		EOI:     true,
	}
}

// Device is an open handle to one instrument on the bus
type Device struct {
	ctrl     Controller
	cfg      DeviceConfig
	count    int
	closed   bool
	ownsCtrl bool
}

// Open validates the configuration and returns a handle bound to ctrl
func Open(ctrl Controller, cfg DeviceConfig) (*Device, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("no GPIB controller")
	}
	if err := cfg.Address.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Timeout.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTimeout, int(cfg.Timeout))
	}
	return &Device{ctrl: ctrl, cfg: cfg}, nil
}

// OwnController makes Close also close the underlying controller
func (d *Device) OwnController() {
	d.ownsCtrl = true
}

// Address returns the device bus address
func (d *Device) Address() Address {
	return d.cfg.Address
}

// Timeout returns the current I/O timeout
func (d *Device) Timeout() Timeout {
	return d.cfg.Timeout
}

// SetTimeout changes the I/O timeout (ibtmo)
func (d *Device) SetTimeout(t Timeout) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidTimeout, int(t))
	}
	d.cfg.Timeout = t
	return nil
}

// Count returns the number of bytes moved by the last Write or Read (ibcnt)
func (d *Device) Count() int {
	return d.count
}

func (d *Device) options() IOOptions {
	return IOOptions{
		Timeout: d.cfg.Timeout.Duration(),
		EOI:     d.cfg.EOI,
		EOS:     d.cfg.EOS,
	}
}

// Write sends a command string. It fails unless every byte was accepted.
func (d *Device) Write(cmd string) error {
	return d.WriteBytes([]byte(cmd))
}

// WriteBytes sends raw data. It fails unless every byte was accepted.
func (d *Device) WriteBytes(data []byte) error {
	if d.closed {
		return ErrClosed
	}
	n, err := d.ctrl.Write(d.cfg.Address, data, d.options())
	d.count = n
	if err != nil {
		return fmt.Errorf("failed to write to PAD %s: %w", d.cfg.Address, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(data))
	}
	return nil
}

// Read reads at most size bytes and returns whatever arrived
func (d *Device) Read(size int) ([]byte, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid read size %d", size)
	}
	buf := make([]byte, size)
	n, err := d.ctrl.Read(d.cfg.Address, buf, d.options())
	d.count = n
	if err != nil {
		return buf[:n], fmt.Errorf("failed to read from PAD %s: %w", d.cfg.Address, err)
	}
	return buf[:n], nil
}

// ReadValue reads a short text response into a size byte buffer.
// A response that fills the buffer or is empty is an error. The final byte
// (the instrument terminator) and any trailing CR, LF or NUL are removed.
func (d *Device) ReadValue(size int) (string, error) {
	data, err := d.Read(size)
	if err != nil {
		return "", err
	}
	if len(data) == size {
		return "", fmt.Errorf("%w: %d bytes", ErrBufferFull, size)
	}
	if len(data) == 0 {
		return "", ErrNoData
	}
	value := bytes.TrimRight(data[:len(data)-1], "\r\n\x00")
	return string(value), nil
}

// Query writes cmd and reads the text response
func (d *Device) Query(cmd string, size int) (string, error) {
	if err := d.Write(cmd); err != nil {
		return "", err
	}
	return d.ReadValue(size)
}

// Clear sends Selected Device Clear (ibclr)
func (d *Device) Clear() error {
	if d.closed {
		return ErrClosed
	}
	if err := d.ctrl.Clear(d.cfg.Address, d.cfg.Timeout.Duration()); err != nil {
		return fmt.Errorf("failed to clear PAD %s: %w", d.cfg.Address, err)
	}
	return nil
}

// SerialPoll reads the status byte (ibrsp)
func (d *Device) SerialPoll() (byte, error) {
	if d.closed {
		return 0, ErrClosed
	}
	status, err := d.ctrl.SerialPoll(d.cfg.Address, d.cfg.Timeout.Duration())
	if err != nil {
		return 0, fmt.Errorf("failed to serial poll PAD %s: %w", d.cfg.Address, err)
	}
	return status, nil
}

// Local returns the instrument to front-panel control
func (d *Device) Local() error {
	if d.closed {
		return ErrClosed
	}
	return d.ctrl.Local(d.cfg.Address)
}

// Init clears the device, reads its status byte and optionally sends *RST
func (d *Device) Init(reset bool) error {
	if err := d.Clear(); err != nil {
		return err
	}
	if _, err := d.SerialPoll(); err != nil {
		return err
	}
	if reset {
		if err := d.Write("*RST"); err != nil {
			return fmt.Errorf("failed to reset device: %w", err)
		}
	}
	return nil
}

// Close releases the handle, and the controller when it is owned
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.ownsCtrl {
		return d.ctrl.Close()
	}
	return nil
}

func (d *Device) String() string {
	return fmt.Sprintf("GPIB device at PAD %s (timeout %s)", d.cfg.Address, d.cfg.Timeout)
}
