package scanner

import (
	"time"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// Scan defaults
const (
	// DefaultTimeout keeps a full sweep of 31 addresses short; absent
	// listeners cost one timeout each
	DefaultTimeout = gpib.T100ms

	// DefaultIDQuery is the IEEE 488.2 identification query
	DefaultIDQuery = "*IDN?"

	DefaultResponseSize = 256
	DefaultScanInterval = 5 * time.Second

	// A listener missing from DefaultLostAfter consecutive sweeps is reported lost
	DefaultLostAfter = 2
)

// AllAddresses lists every primary address a device can use
func AllAddresses() []int {
	pads := make([]int, 0, gpib.MaxPAD-gpib.MinPAD+1)
	for pad := gpib.MinPAD; pad <= gpib.MaxPAD; pad++ {
		pads = append(pads, pad)
	}
	return pads
}
