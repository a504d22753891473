// Package usbtmc talks to GPIB instruments behind USBTMC / USB488 adapters.
// Each adapter exposes one instrument, so the bus address is fixed by the adapter.
package usbtmc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// inPipe is the side of a gousb.InEndpoint the transfers use
type inPipe interface {
	ReadContext(ctx context.Context, buf []byte) (int, error)
}

// outPipe is the side of a gousb.OutEndpoint the transfers use
type outPipe interface {
	WriteContext(ctx context.Context, buf []byte) (int, error)
}

// controlPipe issues class requests on the default endpoint
type controlPipe interface {
	Control(rType, request uint8, val, idx uint16, data []byte) (int, error)
}

// Device represents one USBTMC interface
type Device struct {
	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface
	ctrl         controlPipe
	epIn         inPipe
	epOut        outPipe
	epIntr       inPipe
	ifaceNum     int
	usb488       bool
	tag          uint8
	statusTag    uint8
	mu           sync.Mutex
	Serial       string
	Manufacturer string
	Product      string
	Bus          int
	Address      int
	Vendor       gousb.ID
	ProductID    gousb.ID
}

// tmcInterface locates the USBTMC interface inside a device descriptor
type tmcInterface struct {
	config    int
	number    int
	alternate int
	usb488    bool
	bulkIn    int
	bulkOut   int
	intrIn    int
}

func findInterface(desc *gousb.DeviceDesc) (tmcInterface, bool) {
	for cfgNum, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class != InterfaceClass || alt.SubClass != InterfaceSubClass {
					continue
				}
				found := tmcInterface{
					config:    cfgNum,
					number:    alt.Number,
					alternate: alt.Alternate,
					usb488:    alt.Protocol == ProtocolUSB488,
					bulkIn:    -1,
					bulkOut:   -1,
					intrIn:    -1,
				}
				for _, ep := range alt.Endpoints {
					switch {
					case ep.TransferType == gousb.TransferTypeBulk && ep.Direction == gousb.EndpointDirectionIn:
						found.bulkIn = ep.Number
					case ep.TransferType == gousb.TransferTypeBulk && ep.Direction == gousb.EndpointDirectionOut:
						found.bulkOut = ep.Number
					case ep.TransferType == gousb.TransferTypeInterrupt && ep.Direction == gousb.EndpointDirectionIn:
						found.intrIn = ep.Number
					}
				}
				if found.bulkIn >= 0 && found.bulkOut >= 0 {
					return found, true
				}
			}
		}
	}
	return tmcInterface{}, false
}

// IsUSBTMC reports whether a descriptor carries a USBTMC interface
func IsUSBTMC(desc *gousb.DeviceDesc) bool {
	_, ok := findInterface(desc)
	return ok
}

// FindAllDevices opens every USBTMC device on the system
func FindAllDevices(context *gousb.Context) ([]*Device, error) {
	devices := []*Device{}

	usbDevices, err := context.OpenDevices(IsUSBTMC)
	if err != nil && len(usbDevices) == 0 {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	for _, usbDev := range usbDevices {
		device, err := wrapDevice(usbDev)
		if err != nil {
			usbDev.Close()
			continue
		}
		devices = append(devices, device)
	}

	return devices, nil
}

func wrapDevice(usbDev *gousb.Device) (*Device, error) {
	found, ok := findInterface(usbDev.Desc)
	if !ok {
		return nil, fmt.Errorf("no USBTMC interface on %s", usbDev)
	}

	manufacturer, _ := usbDev.Manufacturer()
	product, _ := usbDev.Product()
	serial, _ := usbDev.SerialNumber()

	usbDev.SetAutoDetach(true)
	usbDev.ControlTimeout = DefaultTimeout

	config, err := usbDev.Config(found.config)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	iface, err := config.Interface(found.number, found.alternate)
	if err != nil {
		config.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	epIn, err := iface.InEndpoint(found.bulkIn)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get bulk IN endpoint: %w", err)
	}

	epOut, err := iface.OutEndpoint(found.bulkOut)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get bulk OUT endpoint: %w", err)
	}

	desc := usbDev.Desc
	device := &Device{
		usbDevice:    usbDev,
		usbConfig:    config,
		usbInterface: iface,
		ctrl:         usbDev,
		epIn:         epIn,
		epOut:        epOut,
		ifaceNum:     found.number,
		usb488:       found.usb488,
		statusTag:    1,
		Serial:       serial,
		Manufacturer: manufacturer,
		Product:      product,
		Bus:          desc.Bus,
		Address:      desc.Address,
		Vendor:       desc.Vendor,
		ProductID:    desc.Product,
	}
	if found.intrIn >= 0 {
		// status bytes fall back to the control pipe without it
		if epIntr, err := iface.InEndpoint(found.intrIn); err == nil {
			device.epIntr = epIntr
		}
	}
	return device, nil
}

// USB488 reports whether the interface implements the USB488 subclass
func (d *Device) USB488() bool {
	return d.usb488
}

// Close releases the interface and the device
func (d *Device) Close() error {
	if d.usbInterface != nil {
		d.usbInterface.Close()
	}
	if d.usbConfig != nil {
		d.usbConfig.Close()
	}
	if d.usbDevice != nil {
		return d.usbDevice.Close()
	}
	return nil
}

// Reset performs a USB port reset
func (d *Device) Reset() error {
	return d.usbDevice.Reset()
}

// String returns a human-readable description of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s %s (Serial: %s)", d.Manufacturer, d.Product, d.Serial)
}

func withTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

// Write sends data as one device-dependent message, split into transfers of
// at most MaxTransferSize bytes with EOM on the last one
func (d *Device) Write(data []byte, timeout time.Duration) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := withTimeout(timeout)
	defer cancel()

	sent := 0
	for {
		chunk := data[sent:]
		if len(chunk) > MaxTransferSize {
			chunk = chunk[:MaxTransferSize]
		}
		last := sent+len(chunk) == len(data)

		d.tag = nextTag(d.tag)
		packet := encodeMsgOut(d.tag, chunk, last)
		n, err := d.epOut.WriteContext(ctx, packet)
		if err != nil {
			if ctx.Err() != nil {
				return sent, fmt.Errorf("%w: write: %v", gpib.ErrTimeout, err)
			}
			return sent, fmt.Errorf("failed to write to bulk OUT: %w", err)
		}
		if n != len(packet) {
			return sent, fmt.Errorf("short write: wrote %d of %d bytes", n, len(packet))
		}
		sent += len(chunk)
		if last {
			return sent, nil
		}
	}
}

// Read requests device-dependent messages until EOM, or until buf is full
func (d *Device) Read(buf []byte, termChar byte, useTermChar bool, timeout time.Duration) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := withTimeout(timeout)
	defer cancel()

	n := 0
	for n < len(buf) {
		want := len(buf) - n
		if want > MaxTransferSize {
			want = MaxTransferSize
		}

		d.tag = nextTag(d.tag)
		request := encodeRequestIn(d.tag, want, termChar, useTermChar)
		if _, err := d.epOut.WriteContext(ctx, request); err != nil {
			if ctx.Err() != nil {
				return n, fmt.Errorf("%w: read request: %v", gpib.ErrTimeout, err)
			}
			return n, fmt.Errorf("failed to request data: %w", err)
		}

		got, eom, err := d.readTransfer(ctx, buf[n:n+want])
		n += got
		if err != nil {
			return n, err
		}
		if eom || got == 0 {
			break
		}
	}
	return n, nil
}

// readTransfer collects one DEV_DEP_MSG_IN transfer into dst
func (d *Device) readTransfer(ctx context.Context, dst []byte) (int, bool, error) {
	raw := make([]byte, padded(HeaderSize+len(dst)))
	m, err := d.epIn.ReadContext(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return 0, false, fmt.Errorf("%w: read: %v", gpib.ErrTimeout, err)
		}
		return 0, false, fmt.Errorf("failed to read from bulk IN: %w", err)
	}

	hdr, err := decodeInHeader(raw[:m], d.tag)
	if err != nil {
		return 0, false, err
	}
	if hdr.size > len(dst) {
		return 0, false, fmt.Errorf("%w: transfer of %d bytes exceeds request of %d", ErrBadHeader, hdr.size, len(dst))
	}

	payload := raw[HeaderSize:m]
	got := copy(dst, payload)
	for got < hdr.size {
		more := make([]byte, padded(hdr.size-got))
		k, err := d.epIn.ReadContext(ctx, more)
		if err != nil {
			return got, false, fmt.Errorf("failed to read from bulk IN: %w", err)
		}
		if k == 0 {
			break
		}
		got += copy(dst[got:hdr.size], more[:k])
	}
	if got > hdr.size {
		got = hdr.size
	}
	return got, hdr.eom, nil
}

func (d *Device) control(request uint8, value uint16, data []byte) error {
	_, err := d.ctrl.Control(RequestTypeClassInterfaceIn, request, value, uint16(d.ifaceNum), data)
	if err != nil {
		return fmt.Errorf("control request %d failed: %w", request, err)
	}
	return nil
}

// Clear runs INITIATE_CLEAR and polls CHECK_CLEAR_STATUS until it completes
func (d *Device) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := make([]byte, 1)
	if err := d.control(ReqInitiateClear, 0, status); err != nil {
		return err
	}
	if status[0] != StatusSuccess {
		return fmt.Errorf("%w: INITIATE_CLEAR status 0x%02X", ErrStatus, status[0])
	}

	check := make([]byte, 2)
	for i := 0; i < ClearPollRetries; i++ {
		if err := d.control(ReqCheckClearStatus, 0, check); err != nil {
			return err
		}
		switch check[0] {
		case StatusSuccess:
			return nil
		case StatusPending:
			time.Sleep(ClearPollDelay)
		default:
			return fmt.Errorf("%w: CHECK_CLEAR_STATUS status 0x%02X", ErrStatus, check[0])
		}
	}
	return fmt.Errorf("%w: clear still pending", ErrStatus)
}

// ReadStatusByte performs the USB488 READ_STATUS_BYTE request
func (d *Device) ReadStatusByte(timeout time.Duration) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// status tags live in 2..127
	d.statusTag++
	if d.statusTag < 2 || d.statusTag > 127 {
		d.statusTag = 2
	}
	tag := d.statusTag

	data := make([]byte, 3)
	if err := d.control(ReqReadStatusByte, uint16(tag), data); err != nil {
		return 0, err
	}
	if data[0] != StatusSuccess {
		return 0, fmt.Errorf("%w: READ_STATUS_BYTE status 0x%02X", ErrStatus, data[0])
	}
	if d.epIntr == nil {
		return data[2], nil
	}

	ctx, cancel := withTimeout(timeout)
	defer cancel()
	notify := make([]byte, 2)
	n, err := d.epIntr.ReadContext(ctx, notify)
	if err != nil {
		return 0, fmt.Errorf("failed to read status notification: %w", err)
	}
	if n < 2 || notify[0] != 0x80|tag {
		return 0, fmt.Errorf("%w: unexpected status notification % X", ErrBadHeader, notify[:n])
	}
	return notify[1], nil
}

// GoToLocal performs the USB488 GO_TO_LOCAL request
func (d *Device) GoToLocal() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := make([]byte, 1)
	if err := d.control(ReqGoToLocal, 0, status); err != nil {
		return err
	}
	if status[0] != StatusSuccess {
		return fmt.Errorf("%w: GO_TO_LOCAL status 0x%02X", ErrStatus, status[0])
	}
	return nil
}
