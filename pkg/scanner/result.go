package scanner

import (
	"strings"
	"time"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// Listener is a device that answered a probe
type Listener struct {
	Address gpib.Address
	Status  byte   // serial poll response
	ID      string // identification response, empty if the device did not answer

	// Filled in by ListenerTracker
	FirstSeen time.Time
	LastSeen  time.Time
	SeenCount int
}

// Manufacturer returns the first field of a 488.2 identification string
func (l Listener) Manufacturer() string {
	return idField(l.ID, 0)
}

// Model returns the second field of a 488.2 identification string
func (l Listener) Model() string {
	return idField(l.ID, 1)
}

func idField(id string, n int) string {
	fields := strings.Split(id, ",")
	if n >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[n])
}

// ScanResult holds the listeners found by one sweep of the bus
type ScanResult struct {
	Listeners []Listener
	Probed    int
	Elapsed   time.Duration
	Timestamp time.Time
}
