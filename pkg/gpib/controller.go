package gpib

import "time"

// EOS packs an end-of-string byte and its mode bits, as passed to ibdev
type EOS uint16

// EOS mode bits
const (
	REOS EOS = 0x0400 // terminate reads on the EOS byte
	XEOS EOS = 0x0800 // assert EOI together with the EOS byte on writes
	BIN  EOS = 0x1000 // compare all 8 bits of the EOS byte
)

// NoEOS disables end-of-string handling
const NoEOS EOS = 0

// NewEOS builds an EOS value from a terminator byte and mode bits
func NewEOS(char byte, mode EOS) EOS {
	return EOS(char) | (mode &^ 0xFF)
}

// Char returns the terminator byte
func (e EOS) Char() byte {
	return byte(e & 0xFF)
}

// TerminatesRead reports whether reads stop on the EOS byte
func (e EOS) TerminatesRead() bool {
	return e&REOS != 0
}

// Matches reports whether b ends a read under this EOS setting
func (e EOS) Matches(b byte) bool {
	if !e.TerminatesRead() {
		return false
	}
	if e&BIN != 0 {
		return b == e.Char()
	}
	return b&0x7F == e.Char()&0x7F
}

// IOOptions carry per-transfer settings from the device handle to the controller
type IOOptions struct {
	Timeout time.Duration // zero waits forever
	EOI     bool          // assert EOI with the last byte written
	EOS     EOS
}

// Controller is the controller-in-charge that moves bytes on the bus.
// Implementations address the device, perform the transfer and release the bus.
type Controller interface {
	// Write sends data to the device and returns the number of bytes accepted
	Write(addr Address, data []byte, opts IOOptions) (int, error)

	// Read reads until EOI, a matching EOS byte, or len(buf) bytes
	Read(addr Address, buf []byte, opts IOOptions) (int, error)

	// Clear sends Selected Device Clear
	Clear(addr Address, timeout time.Duration) error

	// SerialPoll returns the device status byte
	SerialPoll(addr Address, timeout time.Duration) (byte, error)

	// Local returns the device to front-panel control
	Local(addr Address) error

	Close() error
}

// FixedAddresser is implemented by controllers wired to exactly one
// instrument. When FixedAddress reports true the address argument is ignored
// and the same instrument answers on every address.
type FixedAddresser interface {
	FixedAddress() bool
}
