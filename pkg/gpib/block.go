package gpib

import (
	"bytes"
	"fmt"
	"strconv"
)

// ParseBlock strips an IEEE 488.2 arbitrary block header from data.
// "#<n><length><payload>" returns payload, "#0<payload>" returns everything up
// to a final newline, and data without a leading '#' is returned unchanged.
func ParseBlock(data []byte) ([]byte, error) {
	if len(data) == 0 || data[0] != '#' {
		return data, nil
	}
	if len(data) < 2 || data[1] < '0' || data[1] > '9' {
		return nil, fmt.Errorf("%w: missing digit count", ErrInvalidBlock)
	}

	digits := int(data[1] - '0')
	if digits == 0 {
		return bytes.TrimSuffix(data[2:], []byte("\n")), nil
	}

	if len(data) < 2+digits {
		return nil, fmt.Errorf("%w: header truncated", ErrInvalidBlock)
	}
	length, err := strconv.Atoi(string(data[2 : 2+digits]))
	if err != nil || length < 0 {
		return nil, fmt.Errorf("%w: bad length field %q", ErrInvalidBlock, data[2:2+digits])
	}

	start := 2 + digits
	if len(data)-start < length {
		return nil, fmt.Errorf("%w: have %d of %d payload bytes", ErrInvalidBlock, len(data)-start, length)
	}
	return data[start : start+length], nil
}

// BlockSize returns the total length, header included, of the definite-length
// block that data starts with. ok is false for indefinite blocks, data
// without a block header, or a header that has not fully arrived yet.
func BlockSize(data []byte) (size int, ok bool) {
	if len(data) < 2 || data[0] != '#' || data[1] < '1' || data[1] > '9' {
		return 0, false
	}
	digits := int(data[1] - '0')
	if len(data) < 2+digits {
		return 0, false
	}
	length, err := strconv.Atoi(string(data[2 : 2+digits]))
	if err != nil || length < 0 {
		return 0, false
	}
	return 2 + digits + length, true
}
