package prologix

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// fakeLink records everything written and answers "++" lines through respond
type fakeLink struct {
	mu      sync.Mutex
	written bytes.Buffer
	lines   []string
	pending []byte
	respond func(line string) []byte
	closed  bool
}

func (l *fakeLink) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.written.Write(p)
	line := strings.TrimSuffix(string(p), "\n")
	l.lines = append(l.lines, line)
	if l.respond != nil {
		l.pending = append(l.pending, l.respond(line)...)
	}
	return len(p), nil
}

func (l *fakeLink) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

func (l *fakeLink) SetReadTimeout(time.Duration) error { return nil }

func (l *fakeLink) Close() error {
	l.closed = true
	return nil
}

func (l *fakeLink) commands() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, line := range l.lines {
		if strings.HasPrefix(line, "++") {
			out = append(out, line)
		}
	}
	return out
}

func newTestController(t *testing.T, respond func(string) []byte) (*Controller, *fakeLink) {
	t.Helper()
	link := &fakeLink{respond: respond}
	ctrl, err := New(link, DefaultOptions())
	require.NoError(t, err)
	return ctrl, link
}

func opts() gpib.IOOptions {
	return gpib.IOOptions{Timeout: 100 * time.Millisecond, EOI: true}
}

func TestEscape(t *testing.T) {
	in := []byte{'A', '+', '\r', '\n', 0x1B, 'B'}
	want := []byte{'A', 0x1B, '+', 0x1B, '\r', 0x1B, '\n', 0x1B, 0x1B, 'B'}
	assert.Equal(t, want, Escape(in))
	assert.Equal(t, []byte("*RST"), Escape([]byte("*RST")))
}

func TestSetupCommands(t *testing.T) {
	_, link := newTestController(t, nil)
	assert.Equal(t, []string{"++mode 1", "++savecfg 0", "++auto 0", "++eos 3", "++eoi 1", "++eot_enable 0", "++ifc"}, link.commands())
}

func TestSetupWithEOT(t *testing.T) {
	link := &fakeLink{}
	_, err := New(link, Options{EOTChar: 4})
	require.NoError(t, err)
	assert.Contains(t, link.commands(), "++eot_enable 1")
	assert.Contains(t, link.commands(), "++eot_char 4")
	cmds := link.commands()
	assert.Equal(t, "++ifc", cmds[len(cmds)-1])
}

func TestWriteAddressesOnce(t *testing.T) {
	ctrl, link := newTestController(t, nil)

	n, err := ctrl.Write(gpib.Address{PAD: 9}, []byte("F1R0Z0N3D3T5"), opts())
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	_, err = ctrl.Write(gpib.Address{PAD: 9}, []byte("*RST"), opts())
	require.NoError(t, err)

	addrCount := 0
	for _, cmd := range link.commands() {
		if cmd == "++addr 9" {
			addrCount++
		}
	}
	assert.Equal(t, 1, addrCount)
	assert.Contains(t, link.lines, "F1R0Z0N3D3T5")
	assert.Contains(t, link.lines, "*RST")
}

func TestWriteWithSecondaryAddress(t *testing.T) {
	ctrl, link := newTestController(t, nil)

	_, err := ctrl.Write(gpib.Address{PAD: 5, SAD: 96}, []byte("X"), opts())
	require.NoError(t, err)
	assert.Contains(t, link.commands(), "++addr 5 96")
}

func TestWriteTogglesEOI(t *testing.T) {
	ctrl, link := newTestController(t, nil)

	o := opts()
	o.EOI = false
	_, err := ctrl.Write(gpib.Address{PAD: 2}, []byte("K20L0"), o)
	require.NoError(t, err)
	assert.Contains(t, link.commands(), "++eoi 0")
}

func TestWriteEscapesData(t *testing.T) {
	ctrl, link := newTestController(t, nil)

	_, err := ctrl.Write(gpib.Address{PAD: 2}, []byte("A+B"), opts())
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(link.written.Bytes(), []byte("A\x1b+B\n")))
}

func TestReadEOI(t *testing.T) {
	ctrl, link := newTestController(t, func(line string) []byte {
		if line == "++read eoi" {
			return []byte("+1.23456E+0\r\n")
		}
		return nil
	})

	buf := make([]byte, 255)
	n, err := ctrl.Read(gpib.Address{PAD: 9}, buf, opts())
	require.NoError(t, err)
	assert.Equal(t, "+1.23456E+0\r\n", string(buf[:n]))
	assert.Contains(t, link.commands(), "++read_tmo_ms 100")
}

func TestReadFillsBuffer(t *testing.T) {
	ctrl, _ := newTestController(t, func(line string) []byte {
		if line == "++read eoi" {
			return []byte("0123456789")
		}
		return nil
	})

	buf := make([]byte, 4)
	n, err := ctrl.Read(gpib.Address{PAD: 9}, buf, opts())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "0123", string(buf))
}

func TestReadTimeout(t *testing.T) {
	ctrl, _ := newTestController(t, nil)

	o := opts()
	o.Timeout = 20 * time.Millisecond
	_, err := ctrl.Read(gpib.Address{PAD: 9}, make([]byte, 16), o)
	assert.ErrorIs(t, err, gpib.ErrTimeout)
}

func TestReadUntilEOS(t *testing.T) {
	ctrl, link := newTestController(t, func(line string) []byte {
		if line == "++read 10" {
			return []byte("one\ntwo\n")
		}
		return nil
	})

	o := opts()
	o.EOS = gpib.NewEOS('\n', gpib.REOS)
	buf := make([]byte, 64)
	n, err := ctrl.Read(gpib.Address{PAD: 2}, buf, o)
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(buf[:n]))
	assert.Contains(t, link.commands(), "++read 10")
}

func TestReadStripsEOT(t *testing.T) {
	link := &fakeLink{respond: func(line string) []byte {
		if line == "++read eoi" {
			return []byte("42\x04")
		}
		return nil
	}}
	ctrl, err := New(link, Options{EOTChar: 4})
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := ctrl.Read(gpib.Address{PAD: 1}, buf, opts())
	require.NoError(t, err)
	assert.Equal(t, "42", string(buf[:n]))
}

func TestSerialPoll(t *testing.T) {
	ctrl, _ := newTestController(t, func(line string) []byte {
		if line == "++spoll 9" {
			return []byte("65\r\n")
		}
		return nil
	})

	status, err := ctrl.SerialPoll(gpib.Address{PAD: 9}, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, byte(65), status)
}

func TestVersion(t *testing.T) {
	ctrl, _ := newTestController(t, func(line string) []byte {
		if line == "++ver" {
			return []byte("Prologix GPIB-USB Controller version 6.107\r\n")
		}
		return nil
	})

	ver, err := ctrl.Version()
	require.NoError(t, err)
	assert.Equal(t, "Prologix GPIB-USB Controller version 6.107", ver)
}

func TestClearAndLocal(t *testing.T) {
	ctrl, link := newTestController(t, nil)

	require.NoError(t, ctrl.Clear(gpib.Address{PAD: 9}, time.Second))
	require.NoError(t, ctrl.Local(gpib.Address{PAD: 9}))
	cmds := link.commands()
	assert.Contains(t, cmds, "++clr")
	assert.Contains(t, cmds, "++loc")
}

func TestDeviceOverPrologix(t *testing.T) {
	ctrl, _ := newTestController(t, func(line string) []byte {
		if line == "++read eoi" {
			return []byte("+0.00012E+0\r\n")
		}
		return nil
	})
	dev, err := gpib.Open(ctrl, gpib.DeviceConfig{Address: gpib.Address{PAD: 9}, Timeout: gpib.T100ms, EOI: true})
	require.NoError(t, err)

	value, err := dev.ReadValue(15)
	require.NoError(t, err)
	assert.Equal(t, "+0.00012E+0", value)
}

func TestClose(t *testing.T) {
	ctrl, link := newTestController(t, nil)
	require.NoError(t, ctrl.Close())
	assert.True(t, link.closed)

	_, err := ctrl.Write(gpib.Address{PAD: 1}, []byte("X"), opts())
	assert.ErrorIs(t, err, gpib.ErrClosed)
}
