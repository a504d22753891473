package wavetek275

import (
	"fmt"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// DeviceConfig returns the bus settings for a generator at pad. LF is
// recorded as the end-of-string byte without any termination mode.
func DeviceConfig(pad int) gpib.DeviceConfig {
	return gpib.DeviceConfig{
		Address: gpib.Address{PAD: pad},
		Timeout: gpib.T3s,
		EOI:     true,
		EOS:     gpib.NewEOS(EOSChar, gpib.NoEOS),
	}
}

// Generator is a Wavetek 275 on the bus
type Generator struct {
	dev *gpib.Device
}

// New wraps an open device handle
func New(dev *gpib.Device) *Generator {
	return &Generator{dev: dev}
}

// Init clears the generator and resets it
func (g *Generator) Init() error {
	return g.dev.Init(true)
}

// Send writes raw commands in order and stops at the first failure
func (g *Generator) Send(cmds []string) error {
	for i, cmd := range cmds {
		if err := g.dev.Write(cmd); err != nil {
			return fmt.Errorf("command %d (%q): %w", i+1, cmd, err)
		}
	}
	return nil
}

// Load validates p and writes its commands
func (g *Generator) Load(p Program) error {
	cmds, err := p.Commands()
	if err != nil {
		return err
	}
	return g.Send(cmds)
}
