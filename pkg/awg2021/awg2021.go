// Package awg2021 retrieves screen captures from a Tektronix AWG2021
// arbitrary waveform generator.
package awg2021

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/herlein/benchgpib/pkg/bitmap"
	"github.com/herlein/benchgpib/pkg/gpib"
)

const (
	// DefaultTimeout covers the time the generator needs to render the dump
	DefaultTimeout = gpib.T10s

	// MaxCaptureSize is the read buffer for one screen dump
	MaxCaptureSize = 204800

	ClearCommand  = "*CLS"
	HardcopyQuery = "HCOPY:FORM BMP;DATA?"

	minPathLength = 5
	extensionPNG  = ".png"
	extensionBMP  = ".bmp"
)

var (
	// ErrInvalidPath indicates an output path SaveCapture cannot handle
	ErrInvalidPath = errors.New("file name invalid")

	// ErrTruncated indicates the instrument stopped sending before the
	// length announced in the block or bitmap header
	ErrTruncated = errors.New("hardcopy truncated")
)

// DeviceConfig returns bus settings for a generator at pad
func DeviceConfig(pad int) gpib.DeviceConfig {
	cfg := gpib.DefaultDeviceConfig(pad)
	cfg.Timeout = DefaultTimeout
	return cfg
}

// Capture clears the status registers, requests a BMP hardcopy and returns
// the image bytes. maxSize <= 0 uses MaxCaptureSize.
func Capture(dev *gpib.Device, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxCaptureSize
	}
	if err := dev.Write(ClearCommand); err != nil {
		return nil, err
	}
	if err := dev.Write(HardcopyQuery); err != nil {
		return nil, err
	}

	data, err := dev.Read(maxSize)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty hardcopy", gpib.ErrNoData)
	}

	// the generator pauses while rendering, which ends a read early
	want := expectedSize(data)
	if want > maxSize {
		return nil, fmt.Errorf("%w: hardcopy of %d bytes exceeds buffer of %d", ErrTruncated, want, maxSize)
	}
	for len(data) < want {
		more, err := dev.Read(want - len(data))
		if err != nil {
			return nil, fmt.Errorf("%w: have %d of %d bytes: %v", ErrTruncated, len(data), want, err)
		}
		if len(more) == 0 {
			return nil, fmt.Errorf("%w: have %d of %d bytes", ErrTruncated, len(data), want)
		}
		data = append(data, more...)
	}
	return gpib.ParseBlock(data)
}

// expectedSize returns the byte count announced by the 488.2 block header or
// by the BMP file header, or 0 when neither is present.
func expectedSize(data []byte) int {
	if size, ok := gpib.BlockSize(data); ok {
		return size
	}
	prefix := 0
	if len(data) >= 2 && data[0] == '#' && data[1] == '0' {
		prefix = 2
	}
	if size, ok := bitmap.FileSize(data[prefix:]); ok {
		return prefix + size
	}
	return 0
}

// CheckPath validates an output path before anything is captured
func CheckPath(path string) error {
	if len(path) < minPathLength {
		return ErrInvalidPath
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case extensionPNG, extensionBMP:
		return nil
	default:
		return fmt.Errorf("%w: %s (want .png or .bmp)", ErrInvalidPath, path)
	}
}

// SaveCapture writes a capture to path. A .png path is converted, a .bmp
// path receives the bytes as sent by the instrument.
func SaveCapture(data []byte, path string) error {
	if err := CheckPath(path); err != nil {
		return err
	}

	if strings.ToLower(filepath.Ext(path)) == extensionBMP {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	}

	img, err := bitmap.Decode(data)
	if errors.Is(err, bitmap.ErrNotBitmap) {
		// some firmware sends the bare screen buffer
		img, err = bitmap.DecodeRaw(data, bitmap.AWG2021Geometry, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to decode capture: %w", err)
	}
	return bitmap.WritePNG(path, img)
}
