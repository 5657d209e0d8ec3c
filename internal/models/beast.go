package models

import (
	"encoding/hex"
	"fmt"
	"time"
)

// BeastFrame is one decoded Beast frame
type BeastFrame struct {
	Type        byte
	Ticks       uint64 // receiver clock, 12 MHz
	SignalLevel uint8
	Message     []byte // 2, 7 or 14 bytes depending on Type
	ReceivedAt  time.Time
}

// ParseBeastFrame decodes the unescaped payload of a frame of type typeByte.
// Payload layout: [6-byte timestamp] [1-byte signal] [message]
func ParseBeastFrame(typeByte byte, payload []byte) (*BeastFrame, error) {
	want, err := BeastPayloadLen(typeByte)
	if err != nil {
		return nil, err
	}
	if len(payload) != want {
		return nil, fmt.Errorf("beast frame type %02x has %d payload bytes, want %d", typeByte, len(payload), want)
	}

	var ticks uint64
	for _, b := range payload[:BeastTimestampLen] {
		ticks = ticks<<8 | uint64(b)
	}

	message := make([]byte, len(payload)-BeastTimestampLen-BeastSignalLen)
	copy(message, payload[BeastTimestampLen+BeastSignalLen:])

	return &BeastFrame{
		Type:        typeByte,
		Ticks:       ticks,
		SignalLevel: payload[BeastTimestampLen],
		Message:     message,
	}, nil
}

// DownlinkFormat returns the Mode S downlink format, or -1 for Mode A/C frames
func (f *BeastFrame) DownlinkFormat() int {
	if !IsModeS(f.Type) || len(f.Message) == 0 {
		return -1
	}
	df := int(f.Message[0] >> 3)
	// DF 24 and above share the two leading one bits
	if df >= 24 {
		return 24
	}
	return df
}

// Address returns the 24-bit aircraft address as six lower-case hex digits.
// Only all-call replies (DF11) and extended squitters (DF17, DF18) carry it
// in clear; other formats overlay it with parity.
func (f *BeastFrame) Address() (string, bool) {
	switch f.DownlinkFormat() {
	case 11, 17, 18:
	default:
		return "", false
	}
	if len(f.Message) < 4 {
		return "", false
	}
	aa := uint32(f.Message[1])<<16 | uint32(f.Message[2])<<8 | uint32(f.Message[3])
	return fmt.Sprintf("%06x", aa), true
}

// Hex returns the message as a hex string
func (f *BeastFrame) Hex() string {
	return hex.EncodeToString(f.Message)
}
