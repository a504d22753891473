package usbtmc

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextTagSkipsZero(t *testing.T) {
	assert.Equal(t, uint8(1), nextTag(0))
	assert.Equal(t, uint8(2), nextTag(1))
	assert.Equal(t, uint8(1), nextTag(255))
}

func TestPadded(t *testing.T) {
	assert.Equal(t, 12, padded(12))
	assert.Equal(t, 16, padded(13))
	assert.Equal(t, 16, padded(16))
}

func TestEncodeMsgOut(t *testing.T) {
	packet := encodeMsgOut(7, []byte("*IDN?"), true)

	require.Len(t, packet, 20)
	assert.Equal(t, byte(MsgDevDepMsgOut), packet[0])
	assert.Equal(t, byte(7), packet[1])
	assert.Equal(t, byte(0xF8), packet[2])
	assert.Equal(t, byte(0), packet[3])
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(packet[4:8]))
	assert.Equal(t, byte(AttrEOM), packet[8])
	assert.Equal(t, "*IDN?", string(packet[12:17]))
	assert.Equal(t, []byte{0, 0, 0}, packet[17:])
}

func TestEncodeMsgOutWithoutEOM(t *testing.T) {
	packet := encodeMsgOut(1, []byte("ABCD"), false)
	require.Len(t, packet, 16)
	assert.Equal(t, byte(0), packet[8])
}

func TestEncodeRequestIn(t *testing.T) {
	packet := encodeRequestIn(3, 204800, '\n', true)

	require.Len(t, packet, HeaderSize)
	assert.Equal(t, byte(MsgRequestDevDepMsgIn), packet[0])
	assert.Equal(t, byte(3), packet[1])
	assert.Equal(t, byte(0xFC), packet[2])
	assert.Equal(t, uint32(204800), binary.LittleEndian.Uint32(packet[4:8]))
	assert.Equal(t, byte(AttrTermCharEnable), packet[8])
	assert.Equal(t, byte('\n'), packet[9])

	plain := encodeRequestIn(3, 15, 0, false)
	assert.Equal(t, byte(0), plain[8])
	assert.Equal(t, byte(0), plain[9])
}

func inPacket(tag uint8, payload string, eom bool) []byte {
	packet := make([]byte, HeaderSize+len(payload))
	packet[0] = MsgDevDepMsgIn
	packet[1] = tag
	packet[2] = ^tag
	binary.LittleEndian.PutUint32(packet[4:8], uint32(len(payload)))
	if eom {
		packet[8] = AttrEOM
	}
	copy(packet[HeaderSize:], payload)
	return packet
}

func TestDecodeInHeader(t *testing.T) {
	hdr, err := decodeInHeader(inPacket(9, "+1.0E+0\n", true), 9)
	require.NoError(t, err)
	assert.Equal(t, 8, hdr.size)
	assert.True(t, hdr.eom)
}

func TestDecodeInHeaderErrors(t *testing.T) {
	_, err := decodeInHeader([]byte{2, 1}, 1)
	assert.ErrorIs(t, err, ErrBadHeader)

	_, err = decodeInHeader(inPacket(4, "x", true), 5)
	assert.ErrorIs(t, err, ErrBadHeader)

	bad := inPacket(4, "x", true)
	bad[0] = 1
	_, err = decodeInHeader(bad, 4)
	assert.ErrorIs(t, err, ErrBadHeader)
}
