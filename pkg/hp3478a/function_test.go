package hp3478a

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFunction(t *testing.T) {
	names := []string{"DCvolt", "ACvolt", "2Wohms", "4Wohms", "DCcurr", "ACcurr", "ENohms"}
	for i, name := range names {
		f, err := ParseFunction(name)
		require.NoError(t, err, name)
		assert.Equal(t, Function(i+1), f)
		assert.Equal(t, name, f.String())
	}

	f, err := ParseFunction("dcvolt")
	require.NoError(t, err)
	assert.Equal(t, DCVolts, f)

	_, err = ParseFunction("frequency")
	assert.ErrorIs(t, err, ErrUnknownFunction)
}

func TestConfigString(t *testing.T) {
	cases := []struct {
		f    Function
		rng  float64
		want string
	}{
		{DCVolts, 3e-2, "F1R-2"},
		{DCVolts, 0.3, "F1R-1"},
		{DCVolts, 3, "F1R0"},
		{DCVolts, 300, "F1R2"},
		{ACVolts, 30, "F2R1"},
		{TwoWireOhms, 30, "F3R1"},
		{FourWireOhms, 30e6, "F4R7"},
		{DCCurrent, 3, "F5R0"},
		{ACCurrent, 0.3, "F6R-1"},
		{DCVolts, 0, "F1RA"},
		{ExtendedOhms, 0, "F7"},
	}
	for _, tc := range cases {
		got, err := ConfigString(tc.f, tc.rng)
		require.NoError(t, err, "%s %g", tc.f, tc.rng)
		assert.Equal(t, tc.want, got)
	}
}

func TestConfigStringRejects(t *testing.T) {
	cases := []struct {
		f   Function
		rng float64
	}{
		{DCVolts, 1},       // not 3*10^x
		{DCVolts, 3000},    // above 300 V
		{ACVolts, 0.03},    // ACV starts at 300 mV
		{DCCurrent, 30},    // above 3 A
		{TwoWireOhms, 3},   // below 30 ohm
		{ExtendedOhms, 30}, // no ranges
		{DCVolts, -3},
	}
	for _, tc := range cases {
		_, err := ConfigString(tc.f, tc.rng)
		assert.ErrorIs(t, err, ErrRangeNotAllowed, "%s %g", tc.f, tc.rng)
	}

	_, err := ConfigString(Function(9), 3)
	assert.ErrorIs(t, err, ErrUnknownFunction)
}

func TestMeterConfigString(t *testing.T) {
	got, err := MeterConfigString("DCvolt", 3e-2)
	require.NoError(t, err)
	assert.Equal(t, "F1R-2", got)

	_, err = MeterConfigString("Hz", 3)
	assert.ErrorIs(t, err, ErrUnknownFunction)
}

func TestRangeFor(t *testing.T) {
	cases := []struct {
		f     Function
		value float64
		want  float64
	}{
		{DCVolts, 1, 3},
		{DCVolts, 3, 3},
		{DCVolts, 0.05, 0.3},
		{DCVolts, 0.001, 0.03},
		{DCVolts, 1000, 300},
		{TwoWireOhms, 4700, 30000},
		{DCCurrent, -0.2, 0.3},
	}
	for _, tc := range cases {
		got, err := RangeFor(tc.f, tc.value)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got, tc.want*1e-9, "%s %g", tc.f, tc.value)
		_, err = RangeCode(tc.f, got)
		assert.NoError(t, err)
	}

	_, err := RangeFor(ExtendedOhms, 1e9)
	assert.ErrorIs(t, err, ErrRangeNotAllowed)
}
