package scanner

import "errors"

// Scanner errors
var (
	// ErrScannerRunning indicates a continuous scan is already in progress
	ErrScannerRunning = errors.New("scanner is already running")

	// ErrInvalidConfig indicates invalid scanner configuration
	ErrInvalidConfig = errors.New("invalid scanner configuration")

	// ErrNoAddresses indicates no addresses were specified for scanning
	ErrNoAddresses = errors.New("no addresses specified for scanning")
)
