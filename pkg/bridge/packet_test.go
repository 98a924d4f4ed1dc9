package bridge

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketSeqRange(t *testing.T) {
	require.False(t, PacketSeq(0).IsValid())
	for s := 1; s < 0xf0; s++ {
		require.True(t, PacketSeq(s).IsValid(), "seq %#02x", s)
	}
	for s := 0xf0; s <= 0xff; s++ {
		require.False(t, PacketSeq(s).IsValid(), "seq %#02x", s)
	}
}

func TestPacketSeqNext(t *testing.T) {
	require.Equal(t, PacketSeq(2), PacketSeq(1).Next())
	require.Equal(t, PacketSeq(0xef), PacketSeq(0xee).Next())
	// wrap back into the valid range
	require.Equal(t, PacketSeq(1), PacketSeq(0xef).Next())
	require.Equal(t, PacketSeq(1), PacketSeq(0xff).Next())
	require.Equal(t, PacketSeq(1), PacketSeq(0).Next())
}

func TestPacketEncoding(t *testing.T) {
	testCases := []struct {
		name   string
		packet Packet
		expect []byte
	}{
		{"no data", Packet{Seq: PacketSeq(1), Code: OpSetClock}, []byte{1, 2}},
		{"small data", Packet{Seq: PacketSeq(1), Code: OpSetClock, Data: []byte{1}}, []byte{1, 0x12, 1}},
		{"large data", Packet{Seq: PacketSeq(1), Code: OpSetClock, Data: []byte{1, 2, 3, 4, 5, 6, 7}}, []byte{1, 0x72, 7, 1, 2, 3, 4, 5, 6, 7}},
		{"event no data", Packet{Seq: PacketSeq(1), Code: 0x82}, []byte{1, 0x82}},
		{"event small data", Packet{Seq: PacketSeq(1), Code: 0x82, Data: []byte{1}}, []byte{1, 0x92, 1}},
		{"event large data", Packet{Seq: PacketSeq(1), Code: 0x82, Data: []byte{1, 2, 3, 4, 5, 6, 7}}, []byte{1, 0xf2, 7, 1, 2, 3, 4, 5, 6, 7}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.packet.Bytes())
			var buf bytes.Buffer
			n, err := tc.packet.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.Equal(t, len(tc.expect), n)
		})
	}
}
