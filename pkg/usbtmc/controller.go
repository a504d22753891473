package usbtmc

import (
	"fmt"
	"time"

	"github.com/google/gousb"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// Controller adapts a single USBTMC adapter to gpib.Controller.
// The adapter is wired to one instrument, so addresses are not used.
type Controller struct {
	usbContext *gousb.Context
	device     *Device
	closed     bool
}

// OpenController creates a USB context and opens the selected adapter
func OpenController(selector DeviceSelector) (*Controller, error) {
	usbContext := gousb.NewContext()
	device, err := SelectDevice(usbContext, selector)
	if err != nil {
		usbContext.Close()
		return nil, err
	}
	return &Controller{usbContext: usbContext, device: device}, nil
}

// Device returns the underlying adapter
func (c *Controller) Device() *Device {
	return c.device
}

// FixedAddress reports that every address reaches the same instrument
func (c *Controller) FixedAddress() bool {
	return true
}

func (c *Controller) Write(addr gpib.Address, data []byte, opts gpib.IOOptions) (int, error) {
	if c.closed {
		return 0, gpib.ErrClosed
	}
	return c.device.Write(data, opts.Timeout)
}

func (c *Controller) Read(addr gpib.Address, buf []byte, opts gpib.IOOptions) (int, error) {
	if c.closed {
		return 0, gpib.ErrClosed
	}
	return c.device.Read(buf, opts.EOS.Char(), opts.EOS.TerminatesRead(), opts.Timeout)
}

func (c *Controller) Clear(addr gpib.Address, timeout time.Duration) error {
	if c.closed {
		return gpib.ErrClosed
	}
	return c.device.Clear()
}

func (c *Controller) SerialPoll(addr gpib.Address, timeout time.Duration) (byte, error) {
	if c.closed {
		return 0, gpib.ErrClosed
	}
	if !c.device.USB488() {
		return 0, fmt.Errorf("serial poll needs a USB488 interface")
	}
	return c.device.ReadStatusByte(timeout)
}

func (c *Controller) Local(addr gpib.Address) error {
	if c.closed {
		return gpib.ErrClosed
	}
	return c.device.GoToLocal()
}

func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.device.Close()
	c.usbContext.Close()
	return err
}
