// Package config reads and writes bench files: named instruments with the
// bus settings needed to open them.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/herlein/benchgpib/pkg/gpib"
)

var (
	// ErrUnknownInstrument is returned by Lookup for names not in the bench
	ErrUnknownInstrument = errors.New("unknown instrument")

	// ErrUnknownFormat indicates a file extension with no codec
	ErrUnknownFormat = errors.New("unknown config format")
)

// Instrument describes one device on the bench
type Instrument struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	Resource string `json:"resource,omitempty" yaml:"resource,omitempty" toml:"resource,omitempty"`
	PAD      int    `json:"pad" yaml:"pad" toml:"pad"`
	SAD      int    `json:"sad,omitempty" yaml:"sad,omitempty" toml:"sad,omitempty"`
	Timeout  string `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	EOI      *bool  `json:"eoi,omitempty" yaml:"eoi,omitempty" toml:"eoi,omitempty"`
	EOS      int    `json:"eos,omitempty" yaml:"eos,omitempty" toml:"eos,omitempty"`
	EOSMode  string `json:"eos_mode,omitempty" yaml:"eos_mode,omitempty" toml:"eos_mode,omitempty"`
}

// Bench is the top level of a bench file
type Bench struct {
	Resource    string       `json:"resource,omitempty" yaml:"resource,omitempty" toml:"resource,omitempty"`
	Instruments []Instrument `json:"instruments" yaml:"instruments" toml:"instruments"`
}

// Lookup returns the instrument called name, ignoring case
func (b *Bench) Lookup(name string) (Instrument, error) {
	for _, inst := range b.Instruments {
		if strings.EqualFold(inst.Name, name) {
			return inst, nil
		}
	}
	return Instrument{}, fmt.Errorf("%w: %s", ErrUnknownInstrument, name)
}

// Names returns the instrument names in sorted order
func (b *Bench) Names() []string {
	names := make([]string, 0, len(b.Instruments))
	for _, inst := range b.Instruments {
		names = append(names, inst.Name)
	}
	sort.Strings(names)
	return names
}

// ResourceFor returns the resource string for inst, falling back to the
// bench default
func (b *Bench) ResourceFor(inst Instrument) string {
	if inst.Resource != "" {
		return inst.Resource
	}
	return b.Resource
}

// Validate checks every instrument and rejects duplicate names
func (b *Bench) Validate() error {
	seen := make(map[string]bool)
	for _, inst := range b.Instruments {
		if inst.Name == "" {
			return fmt.Errorf("instrument at PAD %d has no name", inst.PAD)
		}
		key := strings.ToLower(inst.Name)
		if seen[key] {
			return fmt.Errorf("duplicate instrument %q", inst.Name)
		}
		seen[key] = true
		if _, err := inst.DeviceConfig(); err != nil {
			return fmt.Errorf("instrument %q: %w", inst.Name, err)
		}
	}
	return nil
}

// DeviceConfig converts the instrument settings to a device configuration.
// Unset fields keep the defaults of gpib.DefaultDeviceConfig.
func (inst Instrument) DeviceConfig() (gpib.DeviceConfig, error) {
	cfg := gpib.DefaultDeviceConfig(inst.PAD)
	cfg.Address.SAD = inst.SAD
	if err := cfg.Address.Validate(); err != nil {
		return cfg, err
	}

	if inst.Timeout != "" {
		t, err := gpib.ParseTimeout(inst.Timeout)
		if err != nil {
			return cfg, err
		}
		cfg.Timeout = t
	}
	if inst.EOI != nil {
		cfg.EOI = *inst.EOI
	}

	if inst.EOS < 0 || inst.EOS > 0xFF {
		return cfg, fmt.Errorf("eos byte %d out of range", inst.EOS)
	}
	mode, err := parseEOSMode(inst.EOSMode)
	if err != nil {
		return cfg, err
	}
	cfg.EOS = gpib.NewEOS(byte(inst.EOS), mode)
	return cfg, nil
}

// parseEOSMode reads a comma separated list of "read", "write" and "bin"
func parseEOSMode(s string) (gpib.EOS, error) {
	var mode gpib.EOS
	if s == "" {
		return mode, nil
	}
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "read":
			mode |= gpib.REOS
		case "write":
			mode |= gpib.XEOS
		case "bin":
			mode |= gpib.BIN
		case "", "none":
		default:
			return 0, fmt.Errorf("unknown eos mode %q", part)
		}
	}
	return mode, nil
}
