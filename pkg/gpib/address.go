package gpib

import (
	"fmt"
	"strconv"
	"strings"
)

// Bus address limits
const (
	MinPAD = 0
	MaxPAD = 30

	// Secondary addresses use the NI encoding: 0x60 + n for n in 0..30
	NoSAD  = 0
	MinSAD = 0x60
	MaxSAD = 0x7E
)

// Address identifies a device on the bus
type Address struct {
	PAD int // primary address, 0..30
	SAD int // secondary address, 0 for none or 96..126
}

// Validate checks both address parts
func (a Address) Validate() error {
	if a.PAD < MinPAD || a.PAD > MaxPAD {
		return fmt.Errorf("%w: PAD must be between %d and %d, got %d", ErrInvalidAddress, MinPAD, MaxPAD, a.PAD)
	}
	if a.SAD != NoSAD && (a.SAD < MinSAD || a.SAD > MaxSAD) {
		return fmt.Errorf("%w: SAD must be 0 or between %d and %d, got %d", ErrInvalidAddress, MinSAD, MaxSAD, a.SAD)
	}
	return nil
}

// HasSAD reports whether a secondary address is in use
func (a Address) HasSAD() bool {
	return a.SAD != NoSAD
}

func (a Address) String() string {
	if a.HasSAD() {
		return fmt.Sprintf("%d.%d", a.PAD, a.SAD-MinSAD)
	}
	return strconv.Itoa(a.PAD)
}

// ParsePAD parses a primary address given on the command line
func ParsePAD(s string) (int, error) {
	pad, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAddress, s)
	}
	if pad < MinPAD || pad > MaxPAD {
		return 0, fmt.Errorf("%w: PAD must be between %d and %d", ErrInvalidAddress, MinPAD, MaxPAD)
	}
	return pad, nil
}

// ParseAddress parses "PAD" or "PAD.SAD", where SAD is given as 0..30
func ParseAddress(s string) (Address, error) {
	padStr, sadStr, hasSAD := strings.Cut(strings.TrimSpace(s), ".")
	pad, err := ParsePAD(padStr)
	if err != nil {
		return Address{}, err
	}
	addr := Address{PAD: pad}
	if hasSAD {
		sad, err := strconv.Atoi(sadStr)
		if err != nil || sad < 0 || sad > MaxSAD-MinSAD {
			return Address{}, fmt.Errorf("%w: invalid secondary address %q", ErrInvalidAddress, sadStr)
		}
		addr.SAD = MinSAD + sad
	}
	return addr, nil
}
