package usbtmc

import "errors"

// USBTMC errors
var (
	// ErrNoDevices indicates no USBTMC interface was found on the bus
	ErrNoDevices = errors.New("no USBTMC devices found")

	// ErrBadHeader indicates a bulk-IN header that does not answer our request
	ErrBadHeader = errors.New("invalid USBTMC bulk-IN header")

	// ErrStatus indicates a control request answered with a failure status
	ErrStatus = errors.New("USBTMC request failed")
)
