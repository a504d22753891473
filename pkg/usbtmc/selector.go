package usbtmc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

// DeviceSelector specifies how to identify a USBTMC adapter
// Supported formats:
//   - ""           : Use first available device
//   - "serial"     : Match by serial number (e.g., "4E4F5A55")
//   - "bus:addr"   : Match by USB bus and address (e.g., "1:10")
//   - "#N"         : Use Nth device, 0-indexed (e.g., "#0", "#1")
type DeviceSelector string

type selectorKind int

const (
	selectFirst selectorKind = iota
	selectIndex
	selectBusAddr
	selectSerial
)

type parsedSelector struct {
	kind   selectorKind
	index  int
	bus    int
	addr   int
	serial string
}

func parseSelector(selector DeviceSelector) (parsedSelector, error) {
	sel := strings.TrimSpace(string(selector))

	if sel == "" {
		return parsedSelector{kind: selectFirst}, nil
	}

	if strings.HasPrefix(sel, "#") {
		index, err := strconv.Atoi(sel[1:])
		if err != nil || index < 0 {
			return parsedSelector{}, fmt.Errorf("invalid device index: %s", sel)
		}
		return parsedSelector{kind: selectIndex, index: index}, nil
	}

	if strings.Contains(sel, ":") {
		parts := strings.SplitN(sel, ":", 2)
		bus, err := strconv.Atoi(parts[0])
		if err != nil {
			return parsedSelector{}, fmt.Errorf("invalid bus number: %s", parts[0])
		}
		addr, err := strconv.Atoi(parts[1])
		if err != nil {
			return parsedSelector{}, fmt.Errorf("invalid address number: %s", parts[1])
		}
		return parsedSelector{kind: selectBusAddr, bus: bus, addr: addr}, nil
	}

	return parsedSelector{kind: selectSerial, serial: sel}, nil
}

// pick chooses one of devices according to the selector and closes the others
func (p parsedSelector) pick(devices []*Device) (*Device, error) {
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}

	keep := -1
	var err error
	switch p.kind {
	case selectFirst:
		keep = 0
	case selectIndex:
		if p.index >= len(devices) {
			err = fmt.Errorf("device index %d out of range (found %d devices)", p.index, len(devices))
		} else {
			keep = p.index
		}
	case selectBusAddr:
		for i, d := range devices {
			if d.Bus == p.bus && d.Address == p.addr {
				keep = i
			}
		}
		if keep < 0 {
			err = fmt.Errorf("no USBTMC device at bus %d address %d", p.bus, p.addr)
		}
	case selectSerial:
		matches := 0
		for i, d := range devices {
			if d.Serial == p.serial {
				keep = i
				matches++
			}
		}
		if matches == 0 {
			err = fmt.Errorf("no USBTMC device with serial %s", p.serial)
		}
		if matches > 1 {
			keep = -1
			err = fmt.Errorf("multiple devices (%d) found with serial %s; use bus:addr format (e.g., 1:10) or index format (e.g., #0)", matches, p.serial)
		}
	}

	for i, d := range devices {
		if i != keep {
			d.Close()
		}
	}
	if keep < 0 {
		return nil, err
	}
	return devices[keep], nil
}

// SelectDevice opens the USBTMC device matching the selector
func SelectDevice(context *gousb.Context, selector DeviceSelector) (*Device, error) {
	parsed, err := parseSelector(selector)
	if err != nil {
		return nil, err
	}
	devices, err := FindAllDevices(context)
	if err != nil {
		return nil, err
	}
	return parsed.pick(devices)
}

// DeviceFlagUsage returns usage text for a device selector flag
func DeviceFlagUsage() string {
	return `USBTMC adapter selector. Formats:
    ""        - Use first available device
    "serial"  - Match by serial number
    "bus:addr"- Match by USB location (e.g., "1:10")
    "#N"      - Use Nth device, 0-indexed (e.g., "#0", "#1")`
}
