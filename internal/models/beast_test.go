package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(ts []byte, signal byte, msg ...byte) []byte {
	out := append([]byte{}, ts...)
	out = append(out, signal)
	return append(out, msg...)
}

var zeroTimestamp = []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

func TestParseBeastFrame(t *testing.T) {
	tests := []struct {
		name      string
		typeByte  byte
		data      []byte
		wantErr   bool
		checkFunc func(*testing.T, *BeastFrame)
	}{
		{
			name:     "extended squitter",
			typeByte: BeastTypeModeSLong,
			data: payload([]byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x02}, 0x80,
				0x8D, 0x48, 0x40, 0xD6, 0x20, 0x2C, 0xC3, 0x71, 0xC3, 0x2C, 0xE0, 0x57, 0x60, 0x98),
			checkFunc: func(t *testing.T, f *BeastFrame) {
				assert.Equal(t, uint64(0x0102), f.Ticks)
				assert.Equal(t, uint8(0x80), f.SignalLevel)
				assert.Len(t, f.Message, BeastDataLenModeSLong)
				assert.Equal(t, 17, f.DownlinkFormat())
				addr, ok := f.Address()
				require.True(t, ok)
				assert.Equal(t, "4840d6", addr)
				assert.Equal(t, "8d4840d6202cc371c32ce0576098", f.Hex())
			},
		},
		{
			name:     "all-call reply",
			typeByte: BeastTypeModeSShort,
			data:     payload(zeroTimestamp, 0x40, 0x5D, 0x3C, 0x66, 0x1F, 0x00, 0x00, 0x00),
			checkFunc: func(t *testing.T, f *BeastFrame) {
				assert.Equal(t, 11, f.DownlinkFormat())
				addr, ok := f.Address()
				require.True(t, ok)
				assert.Equal(t, "3c661f", addr)
			},
		},
		{
			name:     "surveillance reply has no clear address",
			typeByte: BeastTypeModeSShort,
			data:     payload(zeroTimestamp, 0x40, 0x20, 0x00, 0x17, 0x30, 0xAA, 0xBB, 0xCC),
			checkFunc: func(t *testing.T, f *BeastFrame) {
				assert.Equal(t, 4, f.DownlinkFormat())
				_, ok := f.Address()
				assert.False(t, ok)
			},
		},
		{
			name:     "mode a/c",
			typeByte: BeastTypeModeAC,
			data:     payload(zeroTimestamp, 0x10, 0x12, 0x34),
			checkFunc: func(t *testing.T, f *BeastFrame) {
				assert.Equal(t, -1, f.DownlinkFormat())
				_, ok := f.Address()
				assert.False(t, ok)
			},
		},
		{
			name:     "payload too short",
			typeByte: BeastTypeModeSLong,
			data:     payload(zeroTimestamp, 0x80, 0x8D, 0x48),
			wantErr:  true,
		},
		{
			name:     "unknown type",
			typeByte: 0x34,
			data:     payload(zeroTimestamp, 0x80, 0x8D),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseBeastFrame(tt.typeByte, tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, f)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, f)
			tt.checkFunc(t, f)
		})
	}
}

func TestBeastPayloadLen(t *testing.T) {
	tests := []struct {
		typeByte byte
		want     int
	}{
		{BeastTypeModeAC, 9},
		{BeastTypeModeSShort, 14},
		{BeastTypeModeSLong, 21},
	}
	for _, tt := range tests {
		got, err := BeastPayloadLen(tt.typeByte)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := BeastPayloadLen(BeastEscape)
	assert.Error(t, err)
	assert.True(t, IsModeS(BeastTypeModeSLong))
	assert.False(t, IsModeS(BeastTypeModeAC))
}
