// Package gpibtest provides an in-memory GPIB controller for tests.
package gpibtest

import (
	"fmt"
	"sync"
	"time"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// Handler answers a write with the bytes the instrument will send on the next read.
// A nil return leaves the response queue untouched.
type Handler func(cmd []byte) []byte

// Controller records traffic per address and replays scripted responses
type Controller struct {
	mu        sync.Mutex
	writes    map[int][]string
	responses map[int][][]byte
	handlers  map[int]Handler
	status    map[int]byte
	listeners map[int]bool

	// Clears and Polls count Selected Device Clear and serial poll requests
	Clears map[int]int
	Polls  map[int]int
	Locals map[int]int

	// WriteErr and ReadErr are returned by the next Write or Read when set
	WriteErr error
	ReadErr  error

	// ShortWrite makes Write accept one byte fewer than requested
	ShortWrite bool

	// LastOptions holds the options of the most recent transfer
	LastOptions gpib.IOOptions

	Closed bool
}

// New returns an empty controller
func New() *Controller {
	return &Controller{
		writes:    make(map[int][]string),
		responses: make(map[int][][]byte),
		handlers:  make(map[int]Handler),
		status:    make(map[int]byte),
		listeners: make(map[int]bool),
		Clears:    make(map[int]int),
		Polls:     make(map[int]int),
		Locals:    make(map[int]int),
	}
}

// Queue appends responses returned by successive reads from pad
func (c *Controller) Queue(pad int, responses ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range responses {
		c.responses[pad] = append(c.responses[pad], []byte(r))
	}
}

// QueueBytes appends a binary response for pad
func (c *Controller) QueueBytes(pad int, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[pad] = append(c.responses[pad], append([]byte(nil), data...))
}

// Handle installs a handler that produces responses for writes to pad
func (c *Controller) Handle(pad int, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[pad] = h
}

// SetStatus sets the byte returned by a serial poll of pad
func (c *Controller) SetStatus(pad int, status byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status[pad] = status
}

// Attach limits the bus to the given addresses. Until Attach is called every
// address answers; afterwards transfers to other addresses time out.
func (c *Controller) Attach(pads ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, pad := range pads {
		c.listeners[pad] = true
	}
}

func (c *Controller) noListener(pad int) error {
	if len(c.listeners) == 0 || c.listeners[pad] {
		return nil
	}
	return fmt.Errorf("%w: no listener at PAD %d", gpib.ErrTimeout, pad)
}

// Writes returns the commands written to pad, in order
func (c *Controller) Writes(pad int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes[pad]...)
}

// Pending returns the number of queued responses for pad
func (c *Controller) Pending(pad int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.responses[pad])
}

func (c *Controller) Write(addr gpib.Address, data []byte, opts gpib.IOOptions) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed {
		return 0, gpib.ErrClosed
	}
	c.LastOptions = opts
	if err := c.noListener(addr.PAD); err != nil {
		return 0, err
	}
	if c.WriteErr != nil {
		err := c.WriteErr
		c.WriteErr = nil
		return 0, err
	}

	n := len(data)
	if c.ShortWrite && n > 0 {
		n--
	}
	c.writes[addr.PAD] = append(c.writes[addr.PAD], string(data[:n]))

	if h, ok := c.handlers[addr.PAD]; ok {
		if resp := h(data[:n]); resp != nil {
			c.responses[addr.PAD] = append(c.responses[addr.PAD], resp)
		}
	}
	return n, nil
}

func (c *Controller) Read(addr gpib.Address, buf []byte, opts gpib.IOOptions) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed {
		return 0, gpib.ErrClosed
	}
	c.LastOptions = opts
	if err := c.noListener(addr.PAD); err != nil {
		return 0, err
	}
	if c.ReadErr != nil {
		err := c.ReadErr
		c.ReadErr = nil
		return 0, err
	}

	queue := c.responses[addr.PAD]
	if len(queue) == 0 {
		return 0, fmt.Errorf("%w: nothing queued for PAD %d", gpib.ErrTimeout, addr.PAD)
	}
	resp := queue[0]

	n := 0
	for n < len(buf) && n < len(resp) {
		buf[n] = resp[n]
		n++
		if opts.EOS.Matches(resp[n-1]) {
			break
		}
	}
	if n < len(resp) {
		// the rest stays queued, as unread bytes stay in the instrument
		queue[0] = resp[n:]
	} else {
		c.responses[addr.PAD] = queue[1:]
	}
	return n, nil
}

func (c *Controller) Clear(addr gpib.Address, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed {
		return gpib.ErrClosed
	}
	if err := c.noListener(addr.PAD); err != nil {
		return err
	}
	c.Clears[addr.PAD]++
	return nil
}

func (c *Controller) SerialPoll(addr gpib.Address, timeout time.Duration) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed {
		return 0, gpib.ErrClosed
	}
	if err := c.noListener(addr.PAD); err != nil {
		return 0, err
	}
	c.Polls[addr.PAD]++
	return c.status[addr.PAD], nil
}

func (c *Controller) Local(addr gpib.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Locals[addr.PAD]++
	return nil
}

func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}
