package wavetek275

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/benchgpib/pkg/gpib"
	"github.com/herlein/benchgpib/pkg/gpib/gpibtest"
)

func TestSawtoothCommands(t *testing.T) {
	cmds, err := Sawtooth1kHz.Commands()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"S9.9E-6A5D0B0C6XB20XH120P1Y4000K20I'LOADING WAVEFORM'",
		"K20L0",
		"K120L2000XK",
	}, cmds)
}

func TestCommandsWithoutMessage(t *testing.T) {
	p := Program{Setup: "S1E-5", Points: []Point{{0, 0}, {10, 100}, {20, 0}}}
	cmds, err := p.Commands()
	require.NoError(t, err)
	assert.Equal(t, []string{"S1E-5", "K0L0", "K10L100", "K20L0XK"}, cmds)
}

func TestValidate(t *testing.T) {
	bad := []Program{
		{Points: []Point{{0, 0}}},
		{Points: []Point{{10, 0}, {10, 5}}},
		{Points: []Point{{10, 0}, {5, 5}}},
		{Points: []Point{{-1, 0}, {5, 5}}},
		{Message: "it's", Points: []Point{{0, 0}, {5, 5}}},
	}
	for _, p := range bad {
		assert.ErrorIs(t, p.Validate(), ErrInvalidProgram, "%+v", p)
	}
}

func TestParseCommands(t *testing.T) {
	src := `# 1 kHz sawtooth
S9.9E-6A5D0B0C6XB20XH120P1Y4000K20I'LOADING WAVEFORM'

K20L0
  K120L2000XK
`
	cmds, err := ParseCommands(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"S9.9E-6A5D0B0C6XB20XH120P1Y4000K20I'LOADING WAVEFORM'",
		"K20L0",
		"K120L2000XK",
	}, cmds)

	_, err = ParseCommands(strings.NewReader("# nothing\n\n"))
	assert.ErrorIs(t, err, ErrInvalidProgram)
}

func newTestGenerator(t *testing.T) (*Generator, *gpibtest.Controller) {
	t.Helper()
	ctrl := gpibtest.New()
	dev, err := gpib.Open(ctrl, DeviceConfig(DefaultPAD))
	require.NoError(t, err)
	return New(dev), ctrl
}

func TestLoad(t *testing.T) {
	gen, ctrl := newTestGenerator(t)

	require.NoError(t, gen.Init())
	require.NoError(t, gen.Load(Sawtooth1kHz))
	assert.Equal(t, []string{
		"*RST",
		"S9.9E-6A5D0B0C6XB20XH120P1Y4000K20I'LOADING WAVEFORM'",
		"K20L0",
		"K120L2000XK",
	}, ctrl.Writes(DefaultPAD))
	assert.Equal(t, byte('\n'), ctrl.LastOptions.EOS.Char())
}

func TestSendStopsOnError(t *testing.T) {
	gen, ctrl := newTestGenerator(t)
	ctrl.WriteErr = errors.New("no listener")

	err := gen.Send([]string{"K20L0", "K120L2000XK"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command 1")
	assert.Empty(t, ctrl.Writes(DefaultPAD))
}
