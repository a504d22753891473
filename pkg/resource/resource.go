// Package resource turns resource strings into GPIB controllers.
//
// Formats:
//
//	serial:<port>[@baud]   Prologix GPIB-USB on a serial port
//	tcp:<host>[:port]      Prologix GPIB-ETHERNET (port 1234 by default)
//	usbtmc:<selector>      USBTMC adapter ("", "#N", "bus:addr" or serial)
//
// A bare "/dev/..." or "COMn" is taken as a serial port.
package resource

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/herlein/benchgpib/pkg/gpib"
	"github.com/herlein/benchgpib/pkg/prologix"
	"github.com/herlein/benchgpib/pkg/usbtmc"
)

// Resource kinds
const (
	KindSerial = "serial"
	KindTCP    = "tcp"
	KindUSBTMC = "usbtmc"
)

// EnvResource names the environment variable holding the default resource
const EnvResource = "GPIB_RESOURCE"

// DefaultResource is used when neither a flag nor the environment names one
const DefaultResource = "serial:/dev/ttyUSB0"

// Resource is a parsed resource string
type Resource struct {
	Kind     string
	Target   string
	BaudRate int
}

func (r Resource) String() string {
	if r.Kind == KindSerial && r.BaudRate > 0 {
		return fmt.Sprintf("%s:%s@%d", r.Kind, r.Target, r.BaudRate)
	}
	return r.Kind + ":" + r.Target
}

// Parse splits a resource string into its parts
func Parse(s string) (Resource, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "/dev/") || strings.HasPrefix(strings.ToUpper(s), "COM") {
		s = KindSerial + ":" + s
	}

	kind, target, ok := strings.Cut(s, ":")
	if !ok {
		return Resource{}, fmt.Errorf("%w: %q", gpib.ErrUnknownResource, s)
	}
	res := Resource{Kind: strings.ToLower(kind), Target: target}

	switch res.Kind {
	case KindSerial:
		if port, baud, hasBaud := strings.Cut(target, "@"); hasBaud {
			rate, err := strconv.Atoi(baud)
			if err != nil || rate <= 0 {
				return Resource{}, fmt.Errorf("invalid baud rate %q", baud)
			}
			res.Target = port
			res.BaudRate = rate
		}
		if res.Target == "" {
			return Resource{}, fmt.Errorf("serial resource needs a port name")
		}
	case KindTCP:
		if res.Target == "" {
			return Resource{}, fmt.Errorf("tcp resource needs a host")
		}
	case KindUSBTMC:
	default:
		return Resource{}, fmt.Errorf("%w: kind %q", gpib.ErrUnknownResource, kind)
	}
	return res, nil
}

// Default returns $GPIB_RESOURCE, or DefaultResource when unset
func Default() string {
	if env := os.Getenv(EnvResource); env != "" {
		return env
	}
	return DefaultResource
}

// FlagUsage returns usage text for a resource flag
func FlagUsage() string {
	return `GPIB controller resource (default $` + EnvResource + ` or ` + DefaultResource + `). Formats:
    "serial:<port>[@baud]" - Prologix GPIB-USB
    "tcp:<host>[:port]"    - Prologix GPIB-ETHERNET
    "usbtmc:<selector>"    - ` + usbtmc.DeviceFlagUsage()
}

// Options tune controller creation
type Options struct {
	Prologix prologix.Options
}

// DefaultOptions returns the options used by the command-line tools
func DefaultOptions() Options {
	return Options{Prologix: prologix.DefaultOptions()}
}

// Open connects to the controller named by resource
func Open(resource string, opts Options) (gpib.Controller, error) {
	res, err := Parse(resource)
	if err != nil {
		return nil, err
	}

	var ctrl gpib.Controller
	switch res.Kind {
	case KindSerial:
		ctrl, err = prologix.OpenSerial(res.Target, res.BaudRate, opts.Prologix)
	case KindTCP:
		ctrl, err = prologix.OpenTCP(res.Target, opts.Prologix)
	case KindUSBTMC:
		ctrl, err = usbtmc.OpenController(usbtmc.DeviceSelector(res.Target))
	default:
		err = fmt.Errorf("%w: %q", gpib.ErrUnknownResource, resource)
	}
	if err != nil {
		return nil, err
	}
	return ctrl, nil
}

// OpenDevice opens the controller and a device handle that owns it
func OpenDevice(resource string, cfg gpib.DeviceConfig) (*gpib.Device, error) {
	ctrl, err := Open(resource, DefaultOptions())
	if err != nil {
		return nil, err
	}
	dev, err := gpib.Open(ctrl, cfg)
	if err != nil {
		ctrl.Close()
		return nil, err
	}
	dev.OwnController()
	return dev, nil
}
