package usbtmc

import (
	"encoding/binary"
	"fmt"
)

// nextTag advances a bTag; valid tags are 1..255
func nextTag(tag uint8) uint8 {
	tag++
	if tag == 0 {
		tag = 1
	}
	return tag
}

// padded rounds n up to the 4-byte alignment the bulk endpoints require
func padded(n int) int {
	return (n + 3) &^ 3
}

// encodeMsgOut builds a DEV_DEP_MSG_OUT transfer carrying data
func encodeMsgOut(tag uint8, data []byte, eom bool) []byte {
	packet := make([]byte, padded(HeaderSize+len(data)))
	packet[0] = MsgDevDepMsgOut
	packet[1] = tag
	packet[2] = ^tag
	binary.LittleEndian.PutUint32(packet[4:8], uint32(len(data)))
	if eom {
		packet[8] = AttrEOM
	}
	copy(packet[HeaderSize:], data)
	return packet
}

// encodeRequestIn builds a REQUEST_DEV_DEP_MSG_IN asking for up to size bytes
func encodeRequestIn(tag uint8, size int, termChar byte, useTermChar bool) []byte {
	packet := make([]byte, HeaderSize)
	packet[0] = MsgRequestDevDepMsgIn
	packet[1] = tag
	packet[2] = ^tag
	binary.LittleEndian.PutUint32(packet[4:8], uint32(size))
	if useTermChar {
		packet[8] = AttrTermCharEnable
		packet[9] = termChar
	}
	return packet
}

// inHeader is the decoded header of a DEV_DEP_MSG_IN transfer
type inHeader struct {
	tag  uint8
	size int
	eom  bool
}

func decodeInHeader(data []byte, wantTag uint8) (inHeader, error) {
	if len(data) < HeaderSize {
		return inHeader{}, fmt.Errorf("%w: %d bytes", ErrBadHeader, len(data))
	}
	if data[0] != MsgDevDepMsgIn {
		return inHeader{}, fmt.Errorf("%w: message ID %d", ErrBadHeader, data[0])
	}
	if data[1] != wantTag || data[2] != ^wantTag {
		return inHeader{}, fmt.Errorf("%w: tag 0x%02X/0x%02X, expected 0x%02X", ErrBadHeader, data[1], data[2], wantTag)
	}
	return inHeader{
		tag:  data[1],
		size: int(binary.LittleEndian.Uint32(data[4:8])),
		eom:  data[8]&AttrEOM != 0,
	}, nil
}
