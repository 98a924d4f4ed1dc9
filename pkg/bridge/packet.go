package bridge

import (
	"io"
	"time"
)

// Bus operation codes understood by the bridge firmware. Codes are
// even; replies reuse them with bit 0 set on failure.
const (
	// OpSetClock carries a 32-bit little-endian clock rate in Hz.
	OpSetClock byte = 0x02
	// OpWrite carries the target address followed by payload bytes
	// for one addressed write transaction.
	OpWrite byte = 0x04
	// OpRequest carries the target address and a byte count; the
	// reply data holds the bytes read.
	OpRequest byte = 0x06

	// codeErrFlag marks a reply as failed.
	codeErrFlag byte = 0x01
	// codeEvtFlag marks unsolicited firmware packets.
	codeEvtFlag byte = 0x80
)

// PacketSeq defines the type of packet sequence number.
type PacketSeq byte

// NewPacketSeq creates a random packet sequence number.
func NewPacketSeq() PacketSeq {
	return PacketSeq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number.
func (s PacketSeq) Next() PacketSeq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return PacketSeq(n)
}

// IsValid checks if it's a valid sequence number.
func (s PacketSeq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Packet contains the information of a parsed packet.
type Packet struct {
	Seq  PacketSeq
	Code byte
	Data []byte
}

// header encodes the seq/code prefix. Payloads shorter than 7 bytes
// fold their length into the code nibble; longer ones carry an extra
// length byte.
func (p *Packet) header() []byte {
	l := byte(len(p.Data))
	if l < 7 {
		return []byte{byte(p.Seq), p.Code&0x8f | l<<4}
	}
	return []byte{byte(p.Seq), p.Code&0x8f | 0x70, l}
}

// Bytes returns encoded bytes for sending.
func (p *Packet) Bytes() []byte {
	return append(p.header(), p.Data[:byte(len(p.Data))]...)
}

// WriteTo writes encoded bytes.
func (p *Packet) WriteTo(w io.Writer) (n int, err error) {
	if n, err = w.Write(p.header()); err != nil {
		return
	}
	if l := byte(len(p.Data)); l > 0 {
		var n1 int
		n1, err = w.Write(p.Data[:l])
		n += n1
	}
	return
}
