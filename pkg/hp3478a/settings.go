package hp3478a

import (
	"fmt"
	"strings"
)

// Switch is an optional on/off setting; Unset leaves the meter as it is
type Switch int

// Switch values
const (
	Unset Switch = iota
	Off
	On
)

// Trigger selects the trigger source ("T1".."T5")
type Trigger int

// Trigger modes
const (
	TriggerUnset    Trigger = 0
	TriggerInternal Trigger = 1
	TriggerExternal Trigger = 2
	TriggerSingle   Trigger = 3
	TriggerHold     Trigger = 4
	TriggerFast     Trigger = 5
)

// Display selects the front-panel display mode ("D1".."D3")
type Display int

// Display modes
const (
	DisplayUnset  Display = 0
	DisplayNormal Display = 1
	DisplayText   Display = 2 // show Settings.Text
	DisplayBlank  Display = 3 // show Settings.Text with annunciators off; readings run faster
)

// MaxDisplayText is the number of characters on the front-panel display
const MaxDisplayText = 12

// Settings is a complete meter configuration. Zero fields are not sent.
type Settings struct {
	Function Function
	Range    float64 // 3*10^x, or 0 for autorange
	AutoZero Switch
	Digits   int // 3, 4 or 5 (3½, 4½, 5½ digits)
	Display  Display
	Text     string
	Trigger  Trigger
}

// FastDCV3 is DC volts on the 3 V range, autozero off, 3½ digits,
// blank display and fast trigger: the fastest reading rate the meter offers
var FastDCV3 = Settings{
	Function: DCVolts,
	Range:    3,
	AutoZero: Off,
	Digits:   3,
	Display:  DisplayBlank,
	Trigger:  TriggerFast,
}

// Command returns the terse command string, e.g. "F1R0Z0N3D3T5"
func (s Settings) Command() (string, error) {
	var b strings.Builder

	if s.Function != 0 {
		cfg, err := ConfigString(s.Function, s.Range)
		if err != nil {
			return "", err
		}
		b.WriteString(cfg)
	}

	switch s.AutoZero {
	case Unset:
	case Off:
		b.WriteString("Z0")
	case On:
		b.WriteString("Z1")
	default:
		return "", fmt.Errorf("%w: autozero %d", ErrInvalidSetting, s.AutoZero)
	}

	if s.Digits != 0 {
		if s.Digits < 3 || s.Digits > 5 {
			return "", fmt.Errorf("%w: digits must be 3, 4 or 5", ErrInvalidSetting)
		}
		fmt.Fprintf(&b, "N%d", s.Digits)
	}

	if s.Display != DisplayUnset {
		if s.Display < DisplayNormal || s.Display > DisplayBlank {
			return "", fmt.Errorf("%w: display %d", ErrInvalidSetting, s.Display)
		}
		fmt.Fprintf(&b, "D%d", s.Display)
		if s.Display != DisplayNormal && s.Text != "" {
			if len(s.Text) > MaxDisplayText || strings.ContainsAny(s.Text, "\r\n") {
				return "", fmt.Errorf("%w: display text %q", ErrInvalidSetting, s.Text)
			}
			// text runs to the line end, so nothing may follow it on this line
			if s.Trigger != TriggerUnset {
				return "", fmt.Errorf("%w: display text must be the last command", ErrInvalidSetting)
			}
			b.WriteString(strings.ToUpper(s.Text))
		}
	}

	if s.Trigger != TriggerUnset {
		if s.Trigger < TriggerInternal || s.Trigger > TriggerFast {
			return "", fmt.Errorf("%w: trigger %d", ErrInvalidSetting, s.Trigger)
		}
		fmt.Fprintf(&b, "T%d", s.Trigger)
	}

	return b.String(), nil
}
