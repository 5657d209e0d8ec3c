package models

import (
	"fmt"
)

// Beast framing constants
const (
	// BeastEscape starts every frame; inside a frame a literal 0x1A is sent twice.
	BeastEscape byte = 0x1A

	// Beast frame type indicators
	BeastTypeModeAC     byte = 0x31 // '1' - Mode A/C reply (2 bytes of data)
	BeastTypeModeSShort byte = 0x32 // '2' - Mode S short message (7 bytes of data)
	BeastTypeModeSLong  byte = 0x33 // '3' - Mode S long message (14 bytes of data)

	BeastTimestampLen = 6 // 48-bit 12 MHz counter, big-endian
	BeastSignalLen    = 1

	BeastDataLenModeAC     = 2
	BeastDataLenModeSShort = 7
	BeastDataLenModeSLong  = 14
)

// BeastPayloadLen returns the unescaped length of everything that follows
// the type byte of a frame: timestamp, signal level and message data.
func BeastPayloadLen(typeByte byte) (int, error) {
	dataLen, err := beastDataLen(typeByte)
	if err != nil {
		return 0, err
	}
	return BeastTimestampLen + BeastSignalLen + dataLen, nil
}

func beastDataLen(typeByte byte) (int, error) {
	switch typeByte {
	case BeastTypeModeAC:
		return BeastDataLenModeAC, nil
	case BeastTypeModeSShort:
		return BeastDataLenModeSShort, nil
	case BeastTypeModeSLong:
		return BeastDataLenModeSLong, nil
	default:
		return 0, fmt.Errorf("unknown beast frame type: %02x", typeByte)
	}
}

// IsModeS reports whether the type byte is a Mode S frame (short or long)
func IsModeS(typeByte byte) bool {
	return typeByte == BeastTypeModeSShort || typeByte == BeastTypeModeSLong
}
