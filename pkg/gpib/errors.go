package gpib

import "errors"

// GPIB errors
var (
	// ErrInvalidAddress indicates a primary or secondary address outside the bus range
	ErrInvalidAddress = errors.New("invalid GPIB address")

	// ErrInvalidTimeout indicates a timeout code outside the T* table
	ErrInvalidTimeout = errors.New("invalid GPIB timeout")

	// ErrShortWrite indicates the controller accepted fewer bytes than were sent
	ErrShortWrite = errors.New("short write")

	// ErrNoData indicates a read completed without any bytes
	ErrNoData = errors.New("no data received")

	// ErrBufferFull indicates a read filled the whole buffer, so the response may be truncated
	ErrBufferFull = errors.New("response filled the read buffer")

	// ErrTimeout indicates the controller gave up waiting for the device
	ErrTimeout = errors.New("GPIB timeout")

	// ErrClosed indicates the device or controller has already been closed
	ErrClosed = errors.New("GPIB handle is closed")

	// ErrInvalidBlock indicates a malformed IEEE 488.2 definite-length block
	ErrInvalidBlock = errors.New("invalid IEEE 488.2 block")

	// ErrUnknownResource indicates a resource string with an unsupported controller kind
	ErrUnknownResource = errors.New("unknown GPIB resource")
)
