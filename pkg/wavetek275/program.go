// Package wavetek275 loads arbitrary waveform programs into a Wavetek 275
// generator. A program is a setup string followed by waveform points; the
// generator interpolates between consecutive points.
package wavetek275

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidProgram indicates a program the generator would reject
var ErrInvalidProgram = errors.New("invalid waveform program")

// Bus defaults
const (
	DefaultPAD = 2
	EOSChar    = '\n'
)

// Point sets the level of one waveform memory address ("K<addr>L<level>")
type Point struct {
	Address int
	Level   int
}

// Program is a complete waveform load
type Program struct {
	Setup   string // sample rate, amplitude, mode and address window commands
	Message string // shown on the generator display while loading
	Points  []Point
}

// Sawtooth1kHz ramps from 0 at address 20 to 2000 at address 120
var Sawtooth1kHz = Program{
	Setup:   "S9.9E-6A5D0B0C6XB20XH120P1Y4000K20",
	Message: "LOADING WAVEFORM",
	Points: []Point{
		{Address: 20, Level: 0},
		{Address: 120, Level: 2000},
	},
}

// Validate checks the program before anything is sent
func (p Program) Validate() error {
	if strings.ContainsAny(p.Message, "'\r\n") {
		return fmt.Errorf("%w: message may not contain quotes or line breaks", ErrInvalidProgram)
	}
	if len(p.Points) < 2 {
		return fmt.Errorf("%w: need at least two points, got %d", ErrInvalidProgram, len(p.Points))
	}
	for i, pt := range p.Points {
		if pt.Address < 0 {
			return fmt.Errorf("%w: negative address %d", ErrInvalidProgram, pt.Address)
		}
		if i > 0 && pt.Address <= p.Points[i-1].Address {
			return fmt.Errorf("%w: addresses must ascend (%d after %d)", ErrInvalidProgram, pt.Address, p.Points[i-1].Address)
		}
	}
	return nil
}

// Commands renders the program as the command strings to write, in order.
// The last point carries "XK", which starts interpolation.
func (p Program) Commands() ([]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cmds := make([]string, 0, len(p.Points)+1)
	first := p.Setup
	if p.Message != "" {
		first += "I'" + p.Message + "'"
	}
	if first != "" {
		cmds = append(cmds, first)
	}
	for i, pt := range p.Points {
		cmd := fmt.Sprintf("K%dL%d", pt.Address, pt.Level)
		if i == len(p.Points)-1 {
			cmd += "XK"
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// ParseCommands reads a raw command list: one command per line, blank lines
// and lines starting with '#' are skipped
func ParseCommands(r io.Reader) ([]string, error) {
	var cmds []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmds = append(cmds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	if len(cmds) == 0 {
		return nil, fmt.Errorf("%w: no commands", ErrInvalidProgram)
	}
	return cmds, nil
}
