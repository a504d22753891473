package hp3478a

import "errors"

// Meter errors
var (
	// ErrUnknownFunction indicates a measurement function the meter does not have
	ErrUnknownFunction = errors.New("unknown measurement function")

	// ErrRangeNotAllowed indicates a range that is not 3*10^x or lies outside the function's limits
	ErrRangeNotAllowed = errors.New("range not allowed")

	// ErrOverload indicates the meter reported an overload reading
	ErrOverload = errors.New("overload reading")

	// ErrInvalidSetting indicates a digits, trigger or display value outside the command set
	ErrInvalidSetting = errors.New("invalid meter setting")
)
