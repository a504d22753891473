// Package prologix drives Prologix-style GPIB-USB and GPIB-ETHERNET
// controllers, which accept "++" commands and data lines over a byte stream.
package prologix

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// Options configure a controller
type Options struct {
	// IdleGap ends a read when no byte arrives for this long after the first one
	IdleGap time.Duration

	// EOTChar, when not NoEOT, is appended by the controller on EOI and stripped from reads
	EOTChar int
}

// DefaultOptions returns the options used by the command-line tools
func DefaultOptions() Options {
	return Options{IdleGap: DefaultIdleGap, EOTChar: NoEOT}
}

// Controller implements gpib.Controller on top of a Prologix link
type Controller struct {
	mu        sync.Mutex
	link      Link
	opts      Options
	current   gpib.Address
	addressed bool
	eoi       bool
	readTmoMS int
	closed    bool
}

// OpenSerial opens a GPIB-USB controller on portName
func OpenSerial(portName string, baudRate int, opts Options) (*Controller, error) {
	link, err := OpenSerialLink(portName, baudRate)
	if err != nil {
		return nil, err
	}
	ctrl, err := New(link, opts)
	if err != nil {
		link.Close()
		return nil, err
	}
	return ctrl, nil
}

// OpenTCP opens a GPIB-ETHERNET controller at host
func OpenTCP(host string, opts Options) (*Controller, error) {
	link, err := OpenTCPLink(host)
	if err != nil {
		return nil, err
	}
	ctrl, err := New(link, opts)
	if err != nil {
		link.Close()
		return nil, err
	}
	return ctrl, nil
}

// New puts the controller on link into controller mode with manual reads
func New(link Link, opts Options) (*Controller, error) {
	if opts.IdleGap <= 0 {
		opts.IdleGap = DefaultIdleGap
	}
	c := &Controller{
		link: link,
		opts: opts,
		eoi:  true,
	}

	setup := []string{
		"mode 1",    // controller in charge
		"savecfg 0", // keep settings out of EEPROM
		"auto 0",    // read only on ++read
		"eos 3",     // append nothing; data carries its own terminators
		"eoi 1",     // assert EOI with the last byte
	}
	if opts.EOTChar == NoEOT {
		setup = append(setup, "eot_enable 0")
	} else {
		setup = append(setup, "eot_enable 1", fmt.Sprintf("eot_char %d", opts.EOTChar))
	}
	for _, cmd := range setup {
		if err := c.command(cmd); err != nil {
			return nil, fmt.Errorf("failed to configure controller: %w", err)
		}
	}
	if err := c.InterfaceClear(); err != nil {
		return nil, fmt.Errorf("failed to configure controller: %w", err)
	}
	return c, nil
}

// command sends one "++" controller command
func (c *Controller) command(cmd string) error {
	line := commandPrefix + cmd + "\n"
	n, err := c.link.Write([]byte(line))
	if err != nil {
		return fmt.Errorf("failed to send %q: %w", strings.TrimSpace(line), err)
	}
	if n != len(line) {
		return fmt.Errorf("%w: sent %d of %d bytes of %q", gpib.ErrShortWrite, n, len(line), strings.TrimSpace(line))
	}
	return nil
}

// readLine reads a CR/LF terminated controller reply
func (c *Controller) readLine(timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = pollInterval
	}
	deadline := time.Now().Add(timeout)
	var line []byte
	b := make([]byte, 1)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", fmt.Errorf("%w: waiting for controller reply", gpib.ErrTimeout)
		}
		if err := c.link.SetReadTimeout(remaining); err != nil {
			return "", fmt.Errorf("failed to set read timeout: %w", err)
		}
		n, err := c.link.Read(b)
		if err != nil {
			return "", fmt.Errorf("failed to read controller reply: %w", err)
		}
		if n == 0 {
			continue
		}
		if b[0] == '\n' {
			return strings.TrimRight(string(line), "\r"), nil
		}
		line = append(line, b[0])
	}
}

// address selects the listener/talker, skipping the command when unchanged
func (c *Controller) address(addr gpib.Address) error {
	if c.closed {
		return gpib.ErrClosed
	}
	if err := addr.Validate(); err != nil {
		return err
	}
	if c.addressed && c.current == addr {
		return nil
	}
	cmd := fmt.Sprintf("addr %d", addr.PAD)
	if addr.HasSAD() {
		cmd = fmt.Sprintf("addr %d %d", addr.PAD, addr.SAD)
	}
	if err := c.command(cmd); err != nil {
		return err
	}
	c.current = addr
	c.addressed = true
	return nil
}

func (c *Controller) setEOI(eoi bool) error {
	if c.eoi == eoi {
		return nil
	}
	value := 0
	if eoi {
		value = 1
	}
	if err := c.command(fmt.Sprintf("eoi %d", value)); err != nil {
		return err
	}
	c.eoi = eoi
	return nil
}

func (c *Controller) setReadTimeout(timeout time.Duration) error {
	ms := int(timeout / time.Millisecond)
	switch {
	case timeout <= 0 || ms > MaxReadTimeoutMS:
		ms = MaxReadTimeoutMS
	case ms < MinReadTimeoutMS:
		ms = MinReadTimeoutMS
	}
	if ms == c.readTmoMS {
		return nil
	}
	if err := c.command(fmt.Sprintf("read_tmo_ms %d", ms)); err != nil {
		return err
	}
	c.readTmoMS = ms
	return nil
}

// Write sends data as one escaped line
func (c *Controller) Write(addr gpib.Address, data []byte, opts gpib.IOOptions) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.address(addr); err != nil {
		return 0, err
	}
	if err := c.setEOI(opts.EOI); err != nil {
		return 0, err
	}

	line := append(Escape(data), '\n')
	n, err := c.link.Write(line)
	if err != nil {
		return 0, fmt.Errorf("failed to write data: %w", err)
	}
	if n != len(line) {
		return 0, fmt.Errorf("%w: sent %d of %d bytes", gpib.ErrShortWrite, n, len(line))
	}
	return len(data), nil
}

// Read asks the controller to talk-address the device and collects its reply
func (c *Controller) Read(addr gpib.Address, buf []byte, opts gpib.IOOptions) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.address(addr); err != nil {
		return 0, err
	}
	if err := c.setReadTimeout(opts.Timeout); err != nil {
		return 0, err
	}

	readCmd := "read eoi"
	if opts.EOS.TerminatesRead() {
		readCmd = fmt.Sprintf("read %d", opts.EOS.Char())
	}
	if err := c.command(readCmd); err != nil {
		return 0, err
	}

	var deadline time.Time
	if opts.Timeout > 0 {
		deadline = time.Now().Add(opts.Timeout)
	}

	n := 0
	for n < len(buf) {
		wait := c.opts.IdleGap
		if n == 0 {
			wait = pollInterval
			if !deadline.IsZero() {
				remaining := time.Until(deadline)
				if remaining <= 0 {
					return 0, fmt.Errorf("%w: no data from PAD %s", gpib.ErrTimeout, addr)
				}
				if remaining < wait {
					wait = remaining
				}
			}
		}
		if err := c.link.SetReadTimeout(wait); err != nil {
			return n, fmt.Errorf("failed to set read timeout: %w", err)
		}

		m, err := c.link.Read(buf[n:])
		if err != nil {
			return n, fmt.Errorf("failed to read data: %w", err)
		}
		if m == 0 {
			if n > 0 {
				break
			}
			continue
		}

		chunk := buf[n : n+m]
		if c.opts.EOTChar != NoEOT {
			if i := bytes.IndexByte(chunk, byte(c.opts.EOTChar)); i >= 0 {
				return n + i, nil
			}
		}
		if opts.EOS.TerminatesRead() {
			for i, b := range chunk {
				if opts.EOS.Matches(b) {
					return n + i + 1, nil
				}
			}
		}
		n += m
	}
	return n, nil
}

// Clear sends Selected Device Clear
func (c *Controller) Clear(addr gpib.Address, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.address(addr); err != nil {
		return err
	}
	return c.command("clr")
}

// SerialPoll reads the status byte of addr
func (c *Controller) SerialPoll(addr gpib.Address, timeout time.Duration) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, gpib.ErrClosed
	}
	if err := addr.Validate(); err != nil {
		return 0, err
	}
	cmd := fmt.Sprintf("spoll %d", addr.PAD)
	if addr.HasSAD() {
		cmd = fmt.Sprintf("spoll %d %d", addr.PAD, addr.SAD)
	}
	if err := c.command(cmd); err != nil {
		return 0, err
	}
	reply, err := c.readLine(timeout)
	if err != nil {
		return 0, err
	}
	status, err := strconv.ParseUint(strings.TrimSpace(reply), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid serial poll reply %q: %w", reply, err)
	}
	return byte(status), nil
}

// Local returns addr to front-panel control
func (c *Controller) Local(addr gpib.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.address(addr); err != nil {
		return err
	}
	return c.command("loc")
}

// InterfaceClear pulses IFC, making the controller the controller-in-charge
func (c *Controller) InterfaceClear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return gpib.ErrClosed
	}
	return c.command("ifc")
}

// Version returns the controller firmware version string
func (c *Controller) Version() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", gpib.ErrClosed
	}
	if err := c.command("ver"); err != nil {
		return "", err
	}
	return c.readLine(pollInterval)
}

// Close closes the link
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.link.Close()
}
