package gpib_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/benchgpib/pkg/gpib"
	"github.com/herlein/benchgpib/pkg/gpib/gpibtest"
)

func openDevice(t *testing.T, pad int) (*gpib.Device, *gpibtest.Controller) {
	t.Helper()
	ctrl := gpibtest.New()
	dev, err := gpib.Open(ctrl, gpib.DefaultDeviceConfig(pad))
	require.NoError(t, err)
	return dev, ctrl
}

func TestOpenRejectsBadConfig(t *testing.T) {
	ctrl := gpibtest.New()

	_, err := gpib.Open(ctrl, gpib.DeviceConfig{Address: gpib.Address{PAD: 40}, Timeout: gpib.T3s})
	assert.ErrorIs(t, err, gpib.ErrInvalidAddress)

	_, err = gpib.Open(ctrl, gpib.DeviceConfig{Address: gpib.Address{PAD: 4}, Timeout: 99})
	assert.ErrorIs(t, err, gpib.ErrInvalidTimeout)

	_, err = gpib.Open(nil, gpib.DefaultDeviceConfig(4))
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	dev, ctrl := openDevice(t, 9)

	require.NoError(t, dev.Write("F1R0Z0N3D3T5"))
	assert.Equal(t, []string{"F1R0Z0N3D3T5"}, ctrl.Writes(9))
	assert.Equal(t, 12, dev.Count())
	assert.True(t, ctrl.LastOptions.EOI)
}

func TestWriteShort(t *testing.T) {
	dev, ctrl := openDevice(t, 9)
	ctrl.ShortWrite = true

	err := dev.Write("*RST")
	assert.ErrorIs(t, err, gpib.ErrShortWrite)
	assert.Equal(t, 3, dev.Count())
}

func TestWriteError(t *testing.T) {
	dev, ctrl := openDevice(t, 9)
	boom := errors.New("bus error")
	ctrl.WriteErr = boom

	assert.ErrorIs(t, dev.Write("*RST"), boom)
}

func TestReadValue(t *testing.T) {
	dev, ctrl := openDevice(t, 9)
	ctrl.Queue(9, "+1.23456E+0\r\n")

	value, err := dev.ReadValue(255)
	require.NoError(t, err)
	assert.Equal(t, "+1.23456E+0", value)
}

func TestReadValueBufferFull(t *testing.T) {
	dev, ctrl := openDevice(t, 9)
	ctrl.Queue(9, "0123456789ABCDEF")

	_, err := dev.ReadValue(8)
	assert.ErrorIs(t, err, gpib.ErrBufferFull)
}

func TestReadValueEmpty(t *testing.T) {
	dev, ctrl := openDevice(t, 9)
	ctrl.Queue(9, "")

	_, err := dev.ReadValue(16)
	assert.ErrorIs(t, err, gpib.ErrNoData)
}

func TestReadTimeout(t *testing.T) {
	dev, _ := openDevice(t, 9)

	_, err := dev.Read(16)
	assert.ErrorIs(t, err, gpib.ErrTimeout)
}

func TestQuery(t *testing.T) {
	dev, ctrl := openDevice(t, 3)
	ctrl.Handle(3, func(cmd []byte) []byte {
		if string(cmd) == "*IDN?" {
			return []byte("TEKTRONIX,AWG2021,0,CF:91.1CT FV:1.0\n")
		}
		return nil
	})

	idn, err := dev.Query("*IDN?", 256)
	require.NoError(t, err)
	assert.Equal(t, "TEKTRONIX,AWG2021,0,CF:91.1CT FV:1.0", idn)
}

func TestInit(t *testing.T) {
	dev, ctrl := openDevice(t, 9)

	require.NoError(t, dev.Init(true))
	assert.Equal(t, 1, ctrl.Clears[9])
	assert.Equal(t, 1, ctrl.Polls[9])
	assert.Equal(t, []string{"*RST"}, ctrl.Writes(9))
}

func TestInitWithoutReset(t *testing.T) {
	dev, ctrl := openDevice(t, 9)

	require.NoError(t, dev.Init(false))
	assert.Empty(t, ctrl.Writes(9))
}

func TestSerialPoll(t *testing.T) {
	dev, ctrl := openDevice(t, 9)
	ctrl.SetStatus(9, 0x41)

	status, err := dev.SerialPoll()
	require.NoError(t, err)
	assert.Equal(t, byte(0x41), status)
}

func TestClosedDevice(t *testing.T) {
	dev, ctrl := openDevice(t, 9)
	require.NoError(t, dev.Close())
	assert.False(t, ctrl.Closed)

	assert.ErrorIs(t, dev.Write("*RST"), gpib.ErrClosed)
	_, err := dev.Read(4)
	assert.ErrorIs(t, err, gpib.ErrClosed)
}

func TestCloseOwnedController(t *testing.T) {
	dev, ctrl := openDevice(t, 9)
	dev.OwnController()
	require.NoError(t, dev.Close())
	assert.True(t, ctrl.Closed)
}

func TestReadStopsOnEOS(t *testing.T) {
	ctrl := gpibtest.New()
	cfg := gpib.DefaultDeviceConfig(2)
	cfg.EOS = gpib.NewEOS('\n', gpib.REOS)
	dev, err := gpib.Open(ctrl, cfg)
	require.NoError(t, err)

	ctrl.Queue(2, "first\nsecond\n")
	data, err := dev.Read(64)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))

	data, err = dev.Read(64)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))
}
