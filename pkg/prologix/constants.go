package prologix

import "time"

// Link defaults
const (
	DefaultBaudRate = 115200
	DefaultTCPPort  = 1234
	DialTimeout     = 5 * time.Second
)

// Read behaviour
const (
	// DefaultIdleGap ends a read once the link stays quiet this long after the first byte
	DefaultIdleGap = 50 * time.Millisecond

	// pollInterval bounds a single wait while no byte has arrived yet
	pollInterval = time.Second

	// Controller-side ++read_tmo_ms limits
	MinReadTimeoutMS = 1
	MaxReadTimeoutMS = 3000

	// NoEOT disables the end-of-transmission byte
	NoEOT = -1
)

// Characters that must be escaped inside data sent to the instrument
const (
	charLF  = 0x0A
	charCR  = 0x0D
	charESC = 0x1B
	charAdd = 0x2B // '+'
)

// Controller command prefix
const commandPrefix = "++"
