// Package hp3478a builds the terse command strings of the HP 3478A bench
// multimeter and reads its measurements over GPIB.
package hp3478a

import (
	"fmt"
	"math"
	"strings"
)

// Function is a measurement function; its value is the digit sent after "F"
type Function int

// Measurement functions
const (
	DCVolts      Function = 1
	ACVolts      Function = 2
	TwoWireOhms  Function = 3
	FourWireOhms Function = 4
	DCCurrent    Function = 5
	ACCurrent    Function = 6
	ExtendedOhms Function = 7
)

type functionInfo struct {
	name     string
	minRange float64
	maxRange float64
}

var functions = map[Function]functionInfo{
	DCVolts:      {"DCvolt", 0.03, 300},
	ACVolts:      {"ACvolt", 0.3, 300},
	TwoWireOhms:  {"2Wohms", 30, 30e6},
	FourWireOhms: {"4Wohms", 30, 30e6},
	DCCurrent:    {"DCcurr", 0.3, 3},
	ACCurrent:    {"ACcurr", 0.3, 3},
	ExtendedOhms: {"ENohms", 0, 0},
}

// Functions lists every function in command order
func Functions() []Function {
	return []Function{DCVolts, ACVolts, TwoWireOhms, FourWireOhms, DCCurrent, ACCurrent, ExtendedOhms}
}

// Valid reports whether f is a meter function
func (f Function) Valid() bool {
	_, ok := functions[f]
	return ok
}

func (f Function) String() string {
	if info, ok := functions[f]; ok {
		return info.name
	}
	return fmt.Sprintf("Function(%d)", int(f))
}

// Limits returns the smallest and largest range of f; extended ohms has none
func (f Function) Limits() (float64, float64) {
	info := functions[f]
	return info.minRange, info.maxRange
}

// HasRanges reports whether f takes an R command
func (f Function) HasRanges() bool {
	return f.Valid() && f != ExtendedOhms
}

// ParseFunction looks a function up by its short name ("DCvolt", "4Wohms", ...)
func ParseFunction(name string) (Function, error) {
	for _, f := range Functions() {
		if strings.EqualFold(functions[f].name, strings.TrimSpace(name)) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
}

// rangeTolerance absorbs float error in log10 of values like 0.3
const rangeTolerance = 1e-9

// RangeCode returns x for a range of 3*10^x allowed on f
func RangeCode(f Function, rng float64) (int, error) {
	if !f.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownFunction, int(f))
	}
	if !f.HasRanges() {
		return 0, fmt.Errorf("%w: %s has no ranges", ErrRangeNotAllowed, f)
	}
	if rng <= 0 || math.IsNaN(rng) || math.IsInf(rng, 0) {
		return 0, fmt.Errorf("%w: %g", ErrRangeNotAllowed, rng)
	}

	pow := math.Log10(rng / 3)
	code := math.Round(pow)
	if math.Abs(pow-code) > rangeTolerance {
		return 0, fmt.Errorf("%w: %g is not 3*10^x", ErrRangeNotAllowed, rng)
	}

	lo, hi := f.Limits()
	if rng < lo*(1-rangeTolerance) || rng > hi*(1+rangeTolerance) {
		return 0, fmt.Errorf("%w: %g outside %g..%g for %s", ErrRangeNotAllowed, rng, lo, hi, f)
	}
	return int(code), nil
}

// RangeFor returns the smallest allowed range of f that holds value,
// clamped to the function's limits
func RangeFor(f Function, value float64) (float64, error) {
	if !f.HasRanges() {
		return 0, fmt.Errorf("%w: %s has no ranges", ErrRangeNotAllowed, f)
	}
	lo, hi := f.Limits()
	value = math.Abs(value)
	if value <= lo {
		return lo, nil
	}
	if value >= hi {
		return hi, nil
	}
	code := math.Ceil(math.Log10(value/3) - rangeTolerance)
	rng := 3 * math.Pow(10, code)
	if rng > hi {
		rng = hi
	}
	return rng, nil
}

// ConfigString returns the function and range commands, e.g. "F1R-2" for DC volts
// on the 30 mV range. A zero range selects autorange ("RA"); extended ohms takes no range.
func ConfigString(f Function, rng float64) (string, error) {
	if !f.Valid() {
		return "", fmt.Errorf("%w: %d", ErrUnknownFunction, int(f))
	}
	if !f.HasRanges() {
		if rng != 0 {
			return "", fmt.Errorf("%w: %s has no ranges", ErrRangeNotAllowed, f)
		}
		return fmt.Sprintf("F%d", int(f)), nil
	}
	if rng == 0 {
		return fmt.Sprintf("F%dRA", int(f)), nil
	}
	code, err := RangeCode(f, rng)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("F%dR%d", int(f), code), nil
}

// MeterConfigString is ConfigString with the function given by name
func MeterConfigString(name string, rng float64) (string, error) {
	f, err := ParseFunction(name)
	if err != nil {
		return "", err
	}
	return ConfigString(f, rng)
}
